package main

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	accountrepo "entitlement-gate/internal/account/repository"
	"entitlement-gate/internal/account/seed"
	auditrepo "entitlement-gate/internal/audit/repository"
	"entitlement-gate/internal/config"
	"entitlement-gate/internal/db"
	devicerepo "entitlement-gate/internal/device/repository"
	sessionrepo "entitlement-gate/internal/session/repository"
)

// stores bundles the repositories for the selected backend. db is nil for the memory backend.
type stores struct {
	db       *sql.DB
	accounts accountrepo.Repository
	devices  devicerepo.Repository
	sessions sessionrepo.Repository
	audit    auditrepo.Repository
}

func openStores(cfg *config.Config, logger *slog.Logger) (*stores, error) {
	if cfg.StoreBackend == config.StoreBackendMemory {
		logger.Warn("store: using the in-memory backend; accounts, devices and sessions are lost on restart and not shared between instances")
		accounts := accountrepo.NewMemoryRepository()
		if err := seed.Apply(context.Background(), accounts, time.Now().UTC()); err != nil {
			return nil, err
		}
		logger.Info("store: seeded development accounts", "premium", seed.DevPremiumAccountID, "expired", seed.DevExpiredAccountID)
		return &stores{
			accounts: accounts,
			devices:  devicerepo.NewMemoryRepository(),
			sessions: sessionrepo.NewMemoryRepository(),
			audit:    auditrepo.NewMemoryRepository(),
		}, nil
	}
	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return &stores{
		db:       conn,
		accounts: accountrepo.NewPostgresRepository(conn),
		devices:  devicerepo.NewPostgresRepository(conn),
		sessions: sessionrepo.NewPostgresRepository(conn),
		audit:    auditrepo.NewPostgresRepository(conn),
	}, nil
}

func (s *stores) Close() {
	if s.db != nil {
		_ = s.db.Close()
	}
}
