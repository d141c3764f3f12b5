package repository

import (
	"context"
	"time"

	"entitlement-gate/internal/session/domain"
)

// Repository defines persistence for sessions.
type Repository interface {
	// ListActiveByAccount returns the account's sessions with expires_at > now.
	ListActiveByAccount(ctx context.Context, accountID string, now time.Time) ([]*domain.Session, error)
	// Expire sets expires_at = now for the given session ids, all of which must belong to accountID.
	Expire(ctx context.Context, accountID string, sessionIDs []string, now time.Time) error
	Create(ctx context.Context, s *domain.Session) error
}
