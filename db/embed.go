// Package db bundles the SQL migrations for the PostgreSQL store so the
// binaries work without a checkout next to them.
package db

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS
