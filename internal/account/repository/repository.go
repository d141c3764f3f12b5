package repository

import (
	"context"

	"entitlement-gate/internal/account/domain"
)

// Repository resolves accounts by id. Writes belong to the billing integration.
type Repository interface {
	// GetByID returns the account, or nil if not found.
	GetByID(ctx context.Context, id string) (*domain.Account, error)
}
