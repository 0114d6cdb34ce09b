package migrations

import "embed"

// FS embeds the PostgreSQL schema migrations.
//
//go:embed *.sql
var FS embed.FS
