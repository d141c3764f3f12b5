package repository

import (
	"context"
	"fmt"
	"sync"

	"entitlement-gate/internal/device/domain"
)

// MemoryRepository is an in-memory Repository for development and tests.
// State is lost on restart; never use it as the production store.
type MemoryRepository struct {
	mu        sync.RWMutex
	byAccount map[string][]domain.Device
}

// NewMemoryRepository returns an empty in-memory device repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byAccount: make(map[string][]domain.Device)}
}

// ListByAccount returns copies of the account's devices in registration order.
func (r *MemoryRepository) ListByAccount(ctx context.Context, accountID string) ([]*domain.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := r.byAccount[accountID]
	out := make([]*domain.Device, len(list))
	for i := range list {
		d := list[i]
		out[i] = &d
	}
	return out, nil
}

// GetByAccountAndDevice returns a copy of the device, or nil if not found.
func (r *MemoryRepository) GetByAccountAndDevice(ctx context.Context, accountID, deviceID string) (*domain.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.byAccount[accountID] {
		if d.DeviceID == deviceID {
			return &d, nil
		}
	}
	return nil, nil
}

// Create appends the device. A duplicate (account, device) pair is rejected like the primary key would.
func (r *MemoryRepository) Create(ctx context.Context, d *domain.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byAccount[d.AccountID] {
		if existing.DeviceID == d.DeviceID {
			return fmt.Errorf("device %s/%s already exists", d.AccountID, d.DeviceID)
		}
	}
	r.byAccount[d.AccountID] = append(r.byAccount[d.AccountID], *d)
	return nil
}

// Update overwrites LastUsedAt and IsActive of the stored device.
func (r *MemoryRepository) Update(ctx context.Context, d *domain.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.byAccount[d.AccountID]
	for i := range list {
		if list[i].DeviceID == d.DeviceID {
			list[i].LastUsedAt = d.LastUsedAt
			list[i].IsActive = d.IsActive
			return nil
		}
	}
	return fmt.Errorf("update %s/%s: %w", d.AccountID, d.DeviceID, ErrDeviceNotFound)
}
