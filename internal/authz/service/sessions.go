package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	sessiondomain "entitlement-gate/internal/session/domain"
)

// RotateSession expires every active session of the account and creates one new session for
// deviceID lasting ttl. If expiring fails no session is created.
//
// The caller must hold the account's lock.
func (e *Engine) RotateSession(ctx context.Context, accountID, deviceID string, now time.Time, ttl time.Duration) (*sessiondomain.Session, error) {
	ctx, span := e.tracer.Start(ctx, "authz.RotateSession")
	defer span.End()

	if ttl <= 0 {
		ttl = e.sessionTTL
	}

	active, err := e.sessions.ListActiveByAccount(ctx, accountID, now)
	if err != nil {
		return nil, spanError(span, fmt.Errorf("list sessions: %w", err))
	}
	if len(active) > 0 {
		if err := e.sessions.Expire(ctx, accountID, sessiondomain.IDs(active), now); err != nil {
			return nil, spanError(span, fmt.Errorf("expire sessions: %w", err))
		}
		if e.metrics != nil {
			e.metrics.SessionsExpiredTotal.Add(float64(len(active)))
		}
	}

	s := &sessiondomain.Session{
		ID:        e.newID(),
		AccountID: accountID,
		DeviceID:  deviceID,
		StartedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := e.sessions.Create(ctx, s); err != nil {
		return nil, spanError(span, fmt.Errorf("create session: %w", err))
	}
	if e.metrics != nil {
		e.metrics.SessionsRotatedTotal.Inc()
	}
	span.SetAttributes(
		attribute.Int("session.expired", len(active)),
		attribute.String("session.id", s.ID),
	)
	return s, nil
}
