package db

import "embed"

// MigrationFS embeds the SQL migration files from internal/db/migrations.
// The migrate runner applies them at startup before the server accepts traffic.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
