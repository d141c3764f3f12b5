package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"

	devicedomain "entitlement-gate/internal/device/domain"
	telemetrydomain "entitlement-gate/internal/telemetry/domain"
)

// Admission is the outcome of EnsureDeviceAllowed.
type Admission struct {
	EvictedDeviceID string
	Reactivated     bool
}

// EnsureDeviceAllowed admits deviceID for the account. A known device is refreshed and
// reactivated without a capacity check (unless RecheckCapacityOnReactivate is set). A new device
// first evicts the least recently used active device when the account is at capacity; at most one
// device is evicted per call.
//
// The caller must hold the account's lock.
func (e *Engine) EnsureDeviceAllowed(ctx context.Context, accountID, deviceID string, now time.Time) (Admission, error) {
	ctx, span := e.tracer.Start(ctx, "authz.EnsureDeviceAllowed")
	defer span.End()

	existing, err := e.devices.GetByAccountAndDevice(ctx, accountID, deviceID)
	if err != nil {
		return Admission{}, spanError(span, fmt.Errorf("get device: %w", err))
	}
	if existing != nil {
		a, err := e.refreshDevice(ctx, existing, now)
		if err != nil {
			return Admission{}, spanError(span, err)
		}
		span.SetAttributes(attribute.Bool("device.reactivated", a.Reactivated))
		return a, nil
	}

	evicted, err := e.makeRoom(ctx, accountID, now)
	if err != nil {
		return Admission{}, spanError(span, err)
	}
	d := &devicedomain.Device{
		DeviceID:   deviceID,
		AccountID:  accountID,
		LastUsedAt: now,
		IsActive:   true,
	}
	if err := e.devices.Create(ctx, d); err != nil {
		return Admission{}, spanError(span, fmt.Errorf("create device: %w", err))
	}
	if evicted != "" {
		span.SetAttributes(attribute.String("device.evicted_id", evicted))
	}
	return Admission{EvictedDeviceID: evicted}, nil
}

func (e *Engine) refreshDevice(ctx context.Context, d *devicedomain.Device, now time.Time) (Admission, error) {
	reactivated := !d.IsActive
	var a Admission
	if reactivated && e.recheckOnReactivate {
		evicted, err := e.makeRoom(ctx, d.AccountID, now)
		if err != nil {
			return Admission{}, err
		}
		a.EvictedDeviceID = evicted
	}

	d.IsActive = true
	d.LastUsedAt = now
	if err := e.devices.Update(ctx, d); err != nil {
		return Admission{}, fmt.Errorf("refresh device: %w", err)
	}
	if !reactivated {
		return a, nil
	}
	a.Reactivated = true

	list, err := e.devices.ListByAccount(ctx, d.AccountID)
	if err != nil {
		return Admission{}, fmt.Errorf("list devices: %w", err)
	}
	active := len(devicedomain.ActiveOnly(list))
	over := active > e.maxDevices
	if e.metrics != nil {
		e.metrics.DeviceReactivations.WithLabelValues(strconv.FormatBool(over)).Inc()
	}
	if over {
		e.log.WarnContext(ctx, "authz: reactivated device left account over capacity",
			"account_id", d.AccountID, "device_id", d.DeviceID,
			"active_devices", active, "max_devices", e.maxDevices)
		e.emit(ctx, &telemetrydomain.Event{
			EventType: telemetrydomain.EventDeviceReactivatedOverLimit,
			AccountID: d.AccountID,
			DeviceID:  d.DeviceID,
			Attrs:     map[string]string{"active_devices": strconv.Itoa(active)},
			CreatedAt: now,
		})
	}
	return a, nil
}

// makeRoom evicts the least recently used active device when the account has no free slot.
// It returns the evicted device id, or "" when nothing was evicted.
func (e *Engine) makeRoom(ctx context.Context, accountID string, now time.Time) (string, error) {
	list, err := e.devices.ListByAccount(ctx, accountID)
	if err != nil {
		return "", fmt.Errorf("list devices: %w", err)
	}
	active := devicedomain.ActiveOnly(list)
	if len(active) < e.maxDevices {
		return "", nil
	}

	victim := devicedomain.LeastRecentlyUsed(active)
	victim.IsActive = false
	if err := e.devices.Update(ctx, victim); err != nil {
		return "", fmt.Errorf("evict device: %w", err)
	}

	if remaining := len(active) - 1; remaining >= e.maxDevices {
		e.log.WarnContext(ctx, "authz: account still over device capacity after eviction",
			"account_id", accountID, "active_devices", remaining+1, "max_devices", e.maxDevices)
	}
	if e.metrics != nil {
		e.metrics.DeviceEvictionsTotal.Inc()
	}
	e.emit(ctx, &telemetrydomain.Event{
		EventType: telemetrydomain.EventDeviceEvicted,
		AccountID: accountID,
		DeviceID:  victim.DeviceID,
		CreatedAt: now,
	})
	return victim.DeviceID, nil
}
