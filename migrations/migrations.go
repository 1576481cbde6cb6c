// Package migrations embeds the PostgreSQL schema applied by `profiles migrate`.
package migrations

import "embed"

// FS holds the numbered *.up.sql files.
//
//go:embed *.sql
var FS embed.FS
