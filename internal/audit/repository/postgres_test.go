package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"entitlement-gate/internal/audit/domain"
)

var entryColumns = []string{"id", "account_id", "device_id", "outcome", "reason", "transport", "ip", "session_id", "created_at"}

func TestPostgresRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO authz_audit_logs").
		WithArgs("e1", "acct1", "d1", "denied", "subscription_inactive", "http", "10.0.0.1", nil, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = NewPostgresRepository(db).Create(context.Background(), &domain.Entry{
		ID: "e1", AccountID: "acct1", DeviceID: "d1", Outcome: "denied", Reason: "subscription_inactive",
		Transport: "http", IP: "10.0.0.1", CreatedAt: now,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_ListByAccount(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM authz_audit_logs WHERE account_id = \\$1").
		WithArgs("acct1", int64(50), int64(0)).
		WillReturnRows(sqlmock.NewRows(entryColumns).
			AddRow("e2", "acct1", "d1", "allowed", nil, "grpc", "10.0.0.1", "s1", now).
			AddRow("e1", "acct1", "d1", "denied", "subscription_inactive", "grpc", "10.0.0.1", nil, now.Add(-time.Minute)))

	list, err := NewPostgresRepository(db).ListByAccount(context.Background(), "acct1", 50, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "s1", list[0].SessionID)
	assert.Equal(t, "", list[0].Reason)
	assert.Equal(t, "subscription_inactive", list[1].Reason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_ListByAccount_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM authz_audit_logs").WillReturnError(errors.New("database error"))

	list, err := NewPostgresRepository(db).ListByAccount(context.Background(), "acct1", 50, 0)
	assert.Error(t, err)
	assert.Nil(t, list)
}
