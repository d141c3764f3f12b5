// Package seed holds the development accounts used by cmd/seed and the in-memory store.
package seed

import (
	"context"
	"fmt"
	"time"

	"entitlement-gate/internal/account/domain"
)

// Development account ids.
const (
	DevPremiumAccountID = "dev-account-premium"
	DevExpiredAccountID = "dev-account-expired"
	DevFreeAccountID    = "dev-account-free"
	DevTrialAccountID   = "dev-account-trial"
)

// Upserter writes accounts. Both account repositories implement it.
type Upserter interface {
	Upsert(ctx context.Context, a *domain.Account) error
}

// DevAccounts returns one account per subscription state, relative to now.
func DevAccounts(now time.Time) []*domain.Account {
	expired := now.AddDate(0, 0, -1)
	trialEnd := now.AddDate(0, 0, 14)
	return []*domain.Account{
		{ID: DevPremiumAccountID, IsPremium: true},
		{ID: DevExpiredAccountID, IsPremium: true, SubscriptionExpiresAt: &expired},
		{ID: DevFreeAccountID, IsPremium: false},
		{ID: DevTrialAccountID, IsPremium: true, SubscriptionExpiresAt: &trialEnd},
	}
}

// Apply upserts DevAccounts. Re-running it resets the accounts to their seeded state.
func Apply(ctx context.Context, repo Upserter, now time.Time) error {
	for _, a := range DevAccounts(now) {
		if err := repo.Upsert(ctx, a); err != nil {
			return fmt.Errorf("seed account %s: %w", a.ID, err)
		}
	}
	return nil
}
