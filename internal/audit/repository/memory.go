package repository

import (
	"context"
	"sync"

	"entitlement-gate/internal/audit/domain"
)

// MemoryRepository keeps audit entries in process memory. Used with STORE_BACKEND=memory and in tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries []domain.Entry
}

// NewMemoryRepository returns an empty in-memory audit repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Create(ctx context.Context, e *domain.Entry) error {
	r.mu.Lock()
	r.entries = append(r.entries, *e)
	r.mu.Unlock()
	return nil
}

// ListByAccount returns copies of the account's entries, newest first.
func (r *MemoryRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int32) ([]*domain.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Entry
	skipped := int32(0)
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].AccountID != accountID {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		if limit > 0 && int32(len(out)) >= limit {
			break
		}
		e := r.entries[i]
		out = append(out, &e)
	}
	return out, nil
}
