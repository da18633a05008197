package migrations

import "github.com/uptrace/bun/migrate"

// Migrations holds the schema for the Postgres-backed stores.
var Migrations = migrate.NewMigrations()
