package migrations

import "embed"

// FS contains embedded SQLite migrations for translation history.
//
//go:embed *.sql
var FS embed.FS
