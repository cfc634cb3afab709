package platform

import "embed"

// Migrations holds the schema migration files applied at startup.
//
//go:embed migrations/*.sql
var Migrations embed.FS
