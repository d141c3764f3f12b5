package repository

import (
	"context"
	"database/sql"
	"errors"

	"entitlement-gate/internal/account/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an account repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the account for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	var (
		a       domain.Account
		expires sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, is_premium, subscription_expires_at FROM accounts WHERE id = $1`, id,
	).Scan(&a.ID, &a.IsPremium, &expires)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if expires.Valid {
		t := expires.Time
		a.SubscriptionExpiresAt = &t
	}
	return &a, nil
}

// Upsert writes the account. Only used by development seeding; production
// accounts are written by the billing integration.
func (r *PostgresRepository) Upsert(ctx context.Context, a *domain.Account) error {
	expires := sql.NullTime{}
	if a.SubscriptionExpiresAt != nil {
		expires = sql.NullTime{Time: *a.SubscriptionExpiresAt, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (id, is_premium, subscription_expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET is_premium = EXCLUDED.is_premium,
		    subscription_expires_at = EXCLUDED.subscription_expires_at,
		    updated_at = NOW()`,
		a.ID, a.IsPremium, expires)
	return err
}
