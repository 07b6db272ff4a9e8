package store

import "embed"

// Migrations holds the goose migrations for the Postgres store.
// Pass it to db.Migrate with MigrationsDir.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations that holds the files.
const MigrationsDir = "migrations"
