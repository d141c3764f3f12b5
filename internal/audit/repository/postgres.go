package repository

import (
	"context"
	"database/sql"

	"entitlement-gate/internal/audit/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an audit repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the entry. The entry must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, e *domain.Entry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO authz_audit_logs (id, account_id, device_id, outcome, reason, transport, ip, session_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.AccountID, e.DeviceID, e.Outcome,
		nullString(e.Reason), e.Transport, e.IP, nullString(e.SessionID), e.CreatedAt)
	return err
}

// ListByAccount returns the account's entries newest first, paginated by limit and offset.
// Returns (nil, error) only on database errors.
func (r *PostgresRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int32) ([]*domain.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, account_id, device_id, outcome, reason, transport, ip, session_id, created_at
		FROM authz_audit_logs
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Entry
	for rows.Next() {
		var (
			e         domain.Entry
			reason    sql.NullString
			sessionID sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.AccountID, &e.DeviceID, &e.Outcome, &reason, &e.Transport, &e.IP, &sessionID, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Reason = reason.String
		e.SessionID = sessionID.String
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
