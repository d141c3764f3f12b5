package repository

import (
	"context"
	"sync"

	"entitlement-gate/internal/account/domain"
)

// MemoryRepository is an in-memory Repository for development and tests.
// State is lost on restart; never use it as the production store.
type MemoryRepository struct {
	mu sync.RWMutex
	m  map[string]domain.Account
}

// NewMemoryRepository returns a repository seeded with the given accounts.
func NewMemoryRepository(seed ...*domain.Account) *MemoryRepository {
	r := &MemoryRepository{m: make(map[string]domain.Account, len(seed))}
	for _, a := range seed {
		r.put(a)
	}
	return r
}

// GetByID returns a copy of the account, or nil if not found.
func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	r.mu.RLock()
	a, ok := r.m[id]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return cloneAccount(&a), nil
}

// Upsert stores a copy of the account.
func (r *MemoryRepository) Upsert(ctx context.Context, a *domain.Account) error {
	r.put(a)
	return nil
}

func (r *MemoryRepository) put(a *domain.Account) {
	if a == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[a.ID] = *cloneAccount(a)
}

func cloneAccount(a *domain.Account) *domain.Account {
	c := *a
	if a.SubscriptionExpiresAt != nil {
		t := *a.SubscriptionExpiresAt
		c.SubscriptionExpiresAt = &t
	}
	return &c
}
