package otel

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"entitlement-gate/internal/telemetry"
	"entitlement-gate/internal/telemetry/domain"
)

// instrumentationName is the OTel logger scope for decision events.
const instrumentationName = "entitlement-gate.telemetry"

// recordEmitter is the part of otellog.Logger the emitter needs.
type recordEmitter interface {
	Emit(ctx context.Context, rec otellog.Record)
}

// NewEventEmitter returns an EventEmitter that sends events as OTel log records via the given LoggerProvider.
// If provider is nil, returns a no-op emitter.
func NewEventEmitter(provider *sdklog.LoggerProvider) telemetry.EventEmitter {
	if provider == nil {
		return noopEmitter{}
	}
	return &otelEmitter{logger: provider.Logger(instrumentationName)}
}

// NewEventEmitterWithLogger wraps any record sink. Used in tests to capture records.
func NewEventEmitterWithLogger(logger recordEmitter) telemetry.EventEmitter {
	if logger == nil {
		return noopEmitter{}
	}
	return &otelEmitter{logger: logger}
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, *domain.Event) error { return nil }

type otelEmitter struct {
	logger recordEmitter
}

// Emit converts the event to an OTel log record. The event type becomes the body so collectors can filter on it.
func (e *otelEmitter) Emit(ctx context.Context, event *domain.Event) error {
	if event == nil {
		return nil
	}
	rec := otellog.Record{}
	if !event.CreatedAt.IsZero() {
		rec.SetTimestamp(event.CreatedAt)
	} else {
		rec.SetTimestamp(time.Now().UTC())
	}
	rec.SetBody(otellog.StringValue(event.EventType))
	rec.SetSeverity(severityFor(event.EventType))

	attrs := make([]otellog.KeyValue, 0, 5+len(event.Attrs))
	attrs = append(attrs, otellog.String("event_type", event.EventType))
	if event.AccountID != "" {
		attrs = append(attrs, otellog.String("account_id", event.AccountID))
	}
	if event.DeviceID != "" {
		attrs = append(attrs, otellog.String("device_id", event.DeviceID))
	}
	if event.SessionID != "" {
		attrs = append(attrs, otellog.String("session_id", event.SessionID))
	}
	if event.Source != "" {
		attrs = append(attrs, otellog.String("source", event.Source))
	}
	for k, v := range event.Attrs {
		attrs = append(attrs, otellog.String(k, v))
	}
	rec.AddAttributes(attrs...)

	e.logger.Emit(ctx, rec)
	return nil
}

func severityFor(eventType string) otellog.Severity {
	switch eventType {
	case domain.EventAuthzError:
		return otellog.SeverityError
	case domain.EventAuthzBypassed, domain.EventDeviceReactivatedOverLimit:
		return otellog.SeverityWarn
	default:
		return otellog.SeverityInfo
	}
}
