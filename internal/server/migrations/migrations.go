// Package migrations embeds the goose SQL migrations for the PostgreSQL schema.
package migrations

import "embed"

// Migrations holds the *.sql files applied by goose in version order.
//
//go:embed *.sql
var Migrations embed.FS
