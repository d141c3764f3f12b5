package repository

import (
	"context"

	"entitlement-gate/internal/audit/domain"
)

// Repository defines persistence for decision audit entries.
type Repository interface {
	Create(ctx context.Context, e *domain.Entry) error
	// ListByAccount returns the newest entries first.
	ListByAccount(ctx context.Context, accountID string, limit, offset int32) ([]*domain.Entry, error)
}
