package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"entitlement-gate/internal/session/domain"
)

// MemoryRepository is an in-memory Repository for development and tests.
// State is lost on restart; never use it as the production store.
type MemoryRepository struct {
	mu        sync.RWMutex
	byID      map[string]*domain.Session
	byAccount map[string][]string
}

// NewMemoryRepository returns an empty in-memory session repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:      make(map[string]*domain.Session),
		byAccount: make(map[string][]string),
	}
}

// ListActiveByAccount returns copies of the account's sessions with ExpiresAt after now.
func (r *MemoryRepository) ListActiveByAccount(ctx context.Context, accountID string, now time.Time) ([]*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Session
	for _, id := range r.byAccount[accountID] {
		s := r.byID[id]
		if s.ActiveAt(now) {
			c := *s
			out = append(out, &c)
		}
	}
	return out, nil
}

// ListByAccount returns copies of every session of the account, expired or not.
func (r *MemoryRepository) ListByAccount(ctx context.Context, accountID string) ([]*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.byAccount[accountID]
	out := make([]*domain.Session, 0, len(ids))
	for _, id := range ids {
		c := *r.byID[id]
		out = append(out, &c)
	}
	return out, nil
}

// Expire sets ExpiresAt to now for the given ids of accountID. Ids that are unknown or belong to
// another account fail the whole call before anything changes.
func (r *MemoryRepository) Expire(ctx context.Context, accountID string, sessionIDs []string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range sessionIDs {
		if s, ok := r.byID[id]; !ok || s.AccountID != accountID {
			return fmt.Errorf("expire sessions: session %s not found for account %s", id, accountID)
		}
	}
	for _, id := range sessionIDs {
		r.byID[id].ExpiresAt = now
	}
	return nil
}

// Create stores a copy of the session. Duplicate ids are rejected.
func (r *MemoryRepository) Create(ctx context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[s.ID]; ok {
		return fmt.Errorf("session %s already exists", s.ID)
	}
	c := *s
	r.byID[s.ID] = &c
	r.byAccount[s.AccountID] = append(r.byAccount[s.AccountID], s.ID)
	return nil
}
