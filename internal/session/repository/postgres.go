package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"entitlement-gate/internal/session/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ListActiveByAccount returns the account's sessions that have not expired at now.
// Returns (nil, error) only on database errors.
func (r *PostgresRepository) ListActiveByAccount(ctx context.Context, accountID string, now time.Time) ([]*domain.Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, account_id, device_id, started_at, expires_at
		FROM account_sessions
		WHERE account_id = $1 AND expires_at > $2
		ORDER BY started_at ASC`, accountID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Session
	for rows.Next() {
		var s domain.Session
		if err := rows.Scan(&s.ID, &s.AccountID, &s.DeviceID, &s.StartedAt, &s.ExpiresAt); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Expire moves expires_at back to now for every listed session of accountID inside one transaction.
// Any id that does not match a row of that account rolls the whole expiry back.
func (r *PostgresRepository) Expire(ctx context.Context, accountID string, sessionIDs []string, now time.Time) error {
	if len(sessionIDs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, id := range sessionIDs {
		res, err := tx.ExecContext(ctx, `UPDATE account_sessions SET expires_at = $1 WHERE id = $2 AND account_id = $3`, now, id, accountID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("expire sessions: session %s not found for account %s", id, accountID)
		}
	}
	return tx.Commit()
}

// Create persists the session. The session must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO account_sessions (id, account_id, device_id, started_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)`,
		s.ID, s.AccountID, s.DeviceID, s.StartedAt, s.ExpiresAt)
	return err
}
