package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"entitlement-gate/internal/device/domain"
)

var deviceColumns = []string{"device_id", "account_id", "last_used_at", "is_active"}

func TestPostgresRepository_ListByAccount(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(deviceColumns).
		AddRow("d1", "acct1", t0, false).
		AddRow("d2", "acct1", t0.Add(time.Minute), true)
	mock.ExpectQuery("SELECT (.+) FROM account_devices WHERE account_id = \\$1").
		WithArgs("acct1").
		WillReturnRows(rows)

	list, err := NewPostgresRepository(db).ListByAccount(context.Background(), "acct1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "d1", list[0].DeviceID)
	assert.False(t, list[0].IsActive)
	assert.Equal(t, "d2", list[1].DeviceID)
	assert.True(t, list[1].IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_ListByAccount_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM account_devices").WillReturnError(errors.New("database error"))

	list, err := NewPostgresRepository(db).ListByAccount(context.Background(), "acct1")
	assert.Error(t, err)
	assert.Nil(t, list)
}

func TestPostgresRepository_GetByAccountAndDevice(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM account_devices WHERE account_id = \\$1 AND device_id = \\$2").
		WithArgs("acct1", "d1").
		WillReturnRows(sqlmock.NewRows(deviceColumns).AddRow("d1", "acct1", t0, true))

	d, err := NewPostgresRepository(db).GetByAccountAndDevice(context.Background(), "acct1", "d1")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "d1", d.DeviceID)
	assert.True(t, t0.Equal(d.LastUsedAt))
}

func TestPostgresRepository_GetByAccountAndDevice_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM account_devices").
		WithArgs("acct1", "nope").
		WillReturnRows(sqlmock.NewRows(deviceColumns))

	d, err := NewPostgresRepository(db).GetByAccountAndDevice(context.Background(), "acct1", "nope")
	assert.NoError(t, err)
	assert.Nil(t, d)
}

func TestPostgresRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO account_devices").
		WithArgs("acct1", "d1", t0, true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = NewPostgresRepository(db).Create(context.Background(), &domain.Device{
		DeviceID: "d1", AccountID: "acct1", LastUsedAt: t0, IsActive: true,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec("UPDATE account_devices").
		WithArgs("acct1", "d1", t0, false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = NewPostgresRepository(db).Update(context.Background(), &domain.Device{
		DeviceID: "d1", AccountID: "acct1", LastUsedAt: t0, IsActive: false,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Update_NoRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE account_devices").WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewPostgresRepository(db).Update(context.Background(), &domain.Device{DeviceID: "d1", AccountID: "acct1"})
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}
