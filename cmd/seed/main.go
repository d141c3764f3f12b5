// seed upserts the development accounts (premium, expired, free, trial) for local testing. Run with go run ./cmd/seed.
// Idempotent: re-running resets those accounts to their seeded subscription state.
package main

import (
	"context"
	"log"
	"time"

	accountrepo "entitlement-gate/internal/account/repository"
	"entitlement-gate/internal/account/seed"
	"entitlement-gate/internal/config"
	"entitlement-gate/internal/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	now := time.Now().UTC()
	if err := seed.Apply(context.Background(), accountrepo.NewPostgresRepository(conn), now); err != nil {
		log.Fatalf("seed: %v", err)
	}
	for _, a := range seed.DevAccounts(now) {
		log.Printf("seeded account %s (paid=%v)", a.ID, a.IsPaid(now))
	}
}
