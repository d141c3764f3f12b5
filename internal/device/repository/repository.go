package repository

import (
	"context"

	"entitlement-gate/internal/device/domain"
)

// Repository defines persistence for devices. Every query is scoped by account id.
type Repository interface {
	// ListByAccount returns every device of the account, active or evicted.
	ListByAccount(ctx context.Context, accountID string) ([]*domain.Device, error)
	// GetByAccountAndDevice returns the device, or nil if the account has never seen it.
	GetByAccountAndDevice(ctx context.Context, accountID, deviceID string) (*domain.Device, error)
	Create(ctx context.Context, d *domain.Device) error
	// Update overwrites LastUsedAt and IsActive of an existing device.
	Update(ctx context.Context, d *domain.Device) error
}
