package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"entitlement-gate/internal/device/domain"
)

// ErrDeviceNotFound is returned by Update when no row matches the account and device id.
var ErrDeviceNotFound = errors.New("device not found")

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a device repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ListByAccount returns all devices for the account ordered by first registration.
// Returns (nil, error) only on database errors.
func (r *PostgresRepository) ListByAccount(ctx context.Context, accountID string) ([]*domain.Device, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT device_id, account_id, last_used_at, is_active
		FROM account_devices
		WHERE account_id = $1
		ORDER BY created_at ASC, device_id ASC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Device
	for rows.Next() {
		var d domain.Device
		if err := rows.Scan(&d.DeviceID, &d.AccountID, &d.LastUsedAt, &d.IsActive); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByAccountAndDevice returns the device, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByAccountAndDevice(ctx context.Context, accountID, deviceID string) (*domain.Device, error) {
	var d domain.Device
	err := r.db.QueryRowContext(ctx, `
		SELECT device_id, account_id, last_used_at, is_active
		FROM account_devices
		WHERE account_id = $1 AND device_id = $2`, accountID, deviceID,
	).Scan(&d.DeviceID, &d.AccountID, &d.LastUsedAt, &d.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

// Create persists a new device row.
func (r *PostgresRepository) Create(ctx context.Context, d *domain.Device) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO account_devices (account_id, device_id, last_used_at, is_active)
		VALUES ($1, $2, $3, $4)`,
		d.AccountID, d.DeviceID, d.LastUsedAt, d.IsActive)
	return err
}

// Update sets last_used_at and is_active for the device. Returns ErrDeviceNotFound if no row matched.
func (r *PostgresRepository) Update(ctx context.Context, d *domain.Device) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE account_devices
		SET last_used_at = $3, is_active = $4
		WHERE account_id = $1 AND device_id = $2`,
		d.AccountID, d.DeviceID, d.LastUsedAt, d.IsActive)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("update %s/%s: %w", d.AccountID, d.DeviceID, ErrDeviceNotFound)
	}
	return nil
}
