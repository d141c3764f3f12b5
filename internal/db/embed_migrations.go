package db

import "embed"

// MigrationFS embeds the accounts, account_devices and account_sessions schema.
// Used by the migrate runner (cmd/migrate) to apply migrations.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
