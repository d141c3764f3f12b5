// Package service implements the authorization decision: subscription check, device admission and
// session rotation, serialized per account.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	accountdomain "entitlement-gate/internal/account/domain"
	"entitlement-gate/internal/authz/metrics"
	devicedomain "entitlement-gate/internal/device/domain"
	"entitlement-gate/internal/platform/serial"
	sessiondomain "entitlement-gate/internal/session/domain"
	"entitlement-gate/internal/telemetry"
	telemetrydomain "entitlement-gate/internal/telemetry/domain"
)

const (
	// DefaultMaxDevices is the number of concurrently active devices per account.
	DefaultMaxDevices = 2
	// DefaultSessionTTL is used when the caller passes no positive TTL.
	DefaultSessionTTL = time.Hour

	tracerName = "entitlement-gate/authz"
)

// Deny reasons. They are internal only; callers of the boundary see a bare boolean.
const (
	ReasonAccountNotFound = "account_not_found"
	ReasonNotPaid         = "subscription_inactive"
)

// ErrEmptyIdentifier is returned when Authorize is called without an account or device id.
var ErrEmptyIdentifier = errors.New("account id and device id are required")

// AccountRepo is the minimal account repository needed by the engine.
type AccountRepo interface {
	GetByID(ctx context.Context, accountID string) (*accountdomain.Account, error)
}

// DeviceRepo is the minimal device repository needed by the engine.
type DeviceRepo interface {
	ListByAccount(ctx context.Context, accountID string) ([]*devicedomain.Device, error)
	GetByAccountAndDevice(ctx context.Context, accountID, deviceID string) (*devicedomain.Device, error)
	Create(ctx context.Context, d *devicedomain.Device) error
	Update(ctx context.Context, d *devicedomain.Device) error
}

// SessionRepo is the minimal session repository needed by the engine.
type SessionRepo interface {
	ListActiveByAccount(ctx context.Context, accountID string, now time.Time) ([]*sessiondomain.Session, error)
	Expire(ctx context.Context, accountID string, sessionIDs []string, now time.Time) error
	Create(ctx context.Context, s *sessiondomain.Session) error
}

// Locker grants exclusive access to one account. The returned func releases it.
// *serial.Serializer is the in-process implementation; a multi-instance deployment
// needs one backed by shared storage.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// Options tunes an Engine. Zero values select the defaults.
type Options struct {
	MaxDevices int
	SessionTTL time.Duration
	// RecheckCapacityOnReactivate runs the eviction step before a previously evicted device is reactivated.
	// When false, reactivation skips the capacity check and is only logged if it leaves the account over capacity.
	RecheckCapacityOnReactivate bool

	Locker  Locker
	Emitter telemetry.EventEmitter
	Metrics *metrics.Metrics
	Logger  *slog.Logger
	Clock   func() time.Time
	NewID   func() string
}

// Input is one authorization request. Now and SessionTTL are optional.
type Input struct {
	AccountID  string
	DeviceID   string
	Now        time.Time
	SessionTTL time.Duration
}

// Decision is the full outcome of Decide. Only Allowed leaves the process boundary.
type Decision struct {
	Allowed         bool
	Reason          string
	SessionID       string
	EvictedDeviceID string
	Reactivated     bool
}

// Engine runs authorization decisions.
type Engine struct {
	accounts AccountRepo
	devices  DeviceRepo
	sessions SessionRepo

	maxDevices          int
	sessionTTL          time.Duration
	recheckOnReactivate bool

	locker  Locker
	emitter telemetry.EventEmitter
	metrics *metrics.Metrics
	log     *slog.Logger
	clock   func() time.Time
	newID   func() string
	tracer  trace.Tracer
}

// NewEngine returns an Engine over the given stores.
func NewEngine(accounts AccountRepo, devices DeviceRepo, sessions SessionRepo, opts Options) *Engine {
	e := &Engine{
		accounts:            accounts,
		devices:             devices,
		sessions:            sessions,
		maxDevices:          opts.MaxDevices,
		sessionTTL:          opts.SessionTTL,
		recheckOnReactivate: opts.RecheckCapacityOnReactivate,
		locker:              opts.Locker,
		emitter:             opts.Emitter,
		metrics:             opts.Metrics,
		log:                 opts.Logger,
		clock:               opts.Clock,
		newID:               opts.NewID,
		tracer:              otel.Tracer(tracerName),
	}
	if e.maxDevices < 1 {
		e.maxDevices = DefaultMaxDevices
	}
	if e.sessionTTL <= 0 {
		e.sessionTTL = DefaultSessionTTL
	}
	if e.locker == nil {
		e.locker = serial.New()
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	if e.clock == nil {
		e.clock = time.Now
	}
	if e.newID == nil {
		e.newID = func() string { return uuid.New().String() }
	}
	return e
}

// MaxDevices returns the configured device capacity.
func (e *Engine) MaxDevices() int { return e.maxDevices }

// Authorize reports whether the account may use the device now. On true a fresh session
// has replaced every other active session of the account.
func (e *Engine) Authorize(ctx context.Context, in Input) (bool, error) {
	d, err := e.Decide(ctx, in)
	if err != nil {
		return false, err
	}
	return d.Allowed, nil
}

// Decide is Authorize with the internal outcome detail.
func (e *Engine) Decide(ctx context.Context, in Input) (Decision, error) {
	if in.AccountID == "" || in.DeviceID == "" {
		return Decision{}, ErrEmptyIdentifier
	}
	now := in.Now
	if now.IsZero() {
		now = e.clock()
	}
	ttl := in.SessionTTL
	if ttl <= 0 {
		ttl = e.sessionTTL
	}

	ctx, span := e.tracer.Start(ctx, "authz.Decide", trace.WithAttributes(
		attribute.String("account.id", in.AccountID),
		attribute.String("device.id", in.DeviceID),
	))
	defer span.End()

	release, err := e.locker.Lock(ctx, in.AccountID)
	if err != nil {
		return Decision{}, spanError(span, fmt.Errorf("lock account: %w", err))
	}
	defer release()

	d, err := e.decideLocked(ctx, in.AccountID, in.DeviceID, now, ttl)
	if err != nil {
		return Decision{}, spanError(span, err)
	}
	span.SetAttributes(attribute.Bool("authz.allowed", d.Allowed))
	if d.Reason != "" {
		span.SetAttributes(attribute.String("authz.reason", d.Reason))
	}
	return d, nil
}

func (e *Engine) decideLocked(ctx context.Context, accountID, deviceID string, now time.Time, ttl time.Duration) (Decision, error) {
	acct, err := e.accounts.GetByID(ctx, accountID)
	if err != nil {
		return Decision{}, fmt.Errorf("get account: %w", err)
	}
	if acct == nil {
		return Decision{Reason: ReasonAccountNotFound}, nil
	}
	if !acct.IsPaid(now) {
		return Decision{Reason: ReasonNotPaid}, nil
	}

	admission, err := e.EnsureDeviceAllowed(ctx, accountID, deviceID, now)
	if err != nil {
		return Decision{}, err
	}

	s, err := e.RotateSession(ctx, accountID, deviceID, now, ttl)
	if err != nil {
		return Decision{}, err
	}

	return Decision{
		Allowed:         true,
		SessionID:       s.ID,
		EvictedDeviceID: admission.EvictedDeviceID,
		Reactivated:     admission.Reactivated,
	}, nil
}

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func (e *Engine) emit(ctx context.Context, event *telemetrydomain.Event) {
	if e.emitter == nil {
		return
	}
	event.Source = "engine"
	telemetry.EmitAsync(e.emitter, ctx, event)
}
