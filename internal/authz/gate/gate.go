// Package gate is the fail-closed boundary in front of the authorization engine.
// It accepts untyped identifiers and answers with a bare boolean.
package gate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"entitlement-gate/internal/audit"
	"entitlement-gate/internal/authz/metrics"
	"entitlement-gate/internal/authz/service"
	"entitlement-gate/internal/server/interceptors"
	"entitlement-gate/internal/telemetry"
	telemetrydomain "entitlement-gate/internal/telemetry/domain"
)

// Decider is the engine call the gate depends on. *service.Engine implements it.
type Decider interface {
	Decide(ctx context.Context, in service.Input) (service.Decision, error)
}

// Options configures a Gate. Only the engine is required.
type Options struct {
	// Bypass answers true for every call without consulting the engine. Development only.
	Bypass     bool
	SessionTTL time.Duration
	Audit      audit.DecisionLogger
	Emitter    telemetry.EventEmitter
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
}

// Gate turns engine outcomes into booleans. Every error, panic or malformed input is false.
type Gate struct {
	engine     Decider
	bypass     bool
	sessionTTL time.Duration
	audit      audit.DecisionLogger
	emitter    telemetry.EventEmitter
	metrics    *metrics.Metrics
	log        *slog.Logger
}

// New returns a Gate over engine. With Bypass set it logs a startup warning.
func New(engine Decider, opts Options) *Gate {
	g := &Gate{
		engine:     engine,
		bypass:     opts.Bypass,
		sessionTTL: opts.SessionTTL,
		audit:      opts.Audit,
		emitter:    opts.Emitter,
		metrics:    opts.Metrics,
		log:        opts.Logger,
	}
	if g.log == nil {
		g.log = slog.Default()
	}
	if g.bypass {
		g.log.Warn("gate: AUTHZ_BYPASS is enabled; every authorization request will be allowed without checks")
	}
	return g
}

// Check reports whether rawAccountID may use rawDeviceID now. Both must be non-empty strings after trimming.
func (g *Gate) Check(ctx context.Context, rawAccountID, rawDeviceID any) (allowed bool) {
	start := time.Now()
	transport := interceptors.Transport(ctx)
	accountID, okAccount := normalizeID(rawAccountID)
	deviceID, okDevice := normalizeID(rawDeviceID)

	if g.bypass {
		g.log.WarnContext(ctx, "gate: authorization bypassed", "account_id", accountID, "device_id", deviceID, "transport", transport)
		g.record(ctx, start, audit.Decision{
			AccountID: accountID, DeviceID: deviceID, Outcome: metrics.OutcomeBypassed, Transport: transport,
		})
		return true
	}

	if !okAccount || !okDevice {
		reason := invalidReason(okAccount, okDevice)
		g.log.WarnContext(ctx, "gate: invalid authorization input",
			"reason", reason, "transport", transport,
			"account_type", fmt.Sprintf("%T", rawAccountID), "device_type", fmt.Sprintf("%T", rawDeviceID))
		g.record(ctx, start, audit.Decision{
			AccountID: accountID, DeviceID: deviceID, Outcome: metrics.OutcomeInvalid, Reason: reason, Transport: transport,
		})
		return false
	}

	defer func() {
		if r := recover(); r != nil {
			allowed = false
			g.log.ErrorContext(ctx, "gate: panic during authorization", "account_id", accountID, "device_id", deviceID, "panic", fmt.Sprint(r))
			g.record(ctx, start, audit.Decision{
				AccountID: accountID, DeviceID: deviceID, Outcome: metrics.OutcomeError,
				Reason: fmt.Sprintf("panic: %v", r), Transport: transport,
			})
		}
	}()

	d, err := g.engine.Decide(ctx, service.Input{AccountID: accountID, DeviceID: deviceID, SessionTTL: g.sessionTTL})
	if err != nil {
		g.log.ErrorContext(ctx, "gate: authorization failed", "account_id", accountID, "device_id", deviceID, "error", err)
		g.record(ctx, start, audit.Decision{
			AccountID: accountID, DeviceID: deviceID, Outcome: metrics.OutcomeError, Reason: err.Error(), Transport: transport,
		})
		return false
	}

	outcome := metrics.OutcomeDenied
	if d.Allowed {
		outcome = metrics.OutcomeAllowed
	}
	g.record(ctx, start, audit.Decision{
		AccountID: accountID, DeviceID: deviceID, Outcome: outcome, Reason: d.Reason, Transport: transport, SessionID: d.SessionID,
	})
	return d.Allowed
}

// record publishes one decision to metrics, the audit trail and telemetry.
func (g *Gate) record(ctx context.Context, start time.Time, d audit.Decision) {
	g.observe(d.Transport, d.Outcome, start)
	if g.audit != nil {
		g.audit.LogDecision(context.WithoutCancel(ctx), d)
	}
	if g.emitter != nil {
		attrs := map[string]string{"transport": d.Transport}
		if d.Reason != "" {
			attrs["reason"] = d.Reason
		}
		telemetry.EmitAsync(g.emitter, ctx, &telemetrydomain.Event{
			EventType: eventType(d.Outcome),
			AccountID: d.AccountID,
			DeviceID:  d.DeviceID,
			SessionID: d.SessionID,
			Source:    "gate",
			Attrs:     attrs,
		})
	}
}

func (g *Gate) observe(transport, outcome string, start time.Time) {
	if g.metrics == nil {
		return
	}
	g.metrics.DecisionsTotal.WithLabelValues(transport, outcome).Inc()
	g.metrics.DecisionDuration.WithLabelValues(transport).Observe(time.Since(start).Seconds())
}

func eventType(outcome string) string {
	switch outcome {
	case metrics.OutcomeAllowed:
		return telemetrydomain.EventAuthzAllowed
	case metrics.OutcomeBypassed:
		return telemetrydomain.EventAuthzBypassed
	case metrics.OutcomeError:
		return telemetrydomain.EventAuthzError
	default:
		return telemetrydomain.EventAuthzDenied
	}
}

func invalidReason(okAccount, okDevice bool) string {
	switch {
	case !okAccount && !okDevice:
		return "account_id and device_id must be non-empty strings"
	case !okAccount:
		return "account_id must be a non-empty string"
	default:
		return "device_id must be a non-empty string"
	}
}

// normalizeID accepts only strings that are non-empty after trimming.
func normalizeID(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}
