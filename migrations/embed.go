// Package migrations declares the application's schema migrations.
//
// Each migration embeds its SQL and registers itself with the database
// package at init time, so the binary carries its full schema history
// without needing files on disk. New migrations follow the
// YYYYMMDD_HHMMSS version convention and are additive-only.
package migrations

import (
	_ "embed"

	"github.com/calloway/automata-core/internal/infrastructure/database"
)

//go:embed 20260715_100000_create_records.up.sql
var createRecordsUp string

//go:embed 20260715_100000_create_records.down.sql
var createRecordsDown string

func init() {
	database.Register(database.Migration{
		Version: "20260715_100000",
		Name:    "create_records",
		UpSQL:   createRecordsUp,
		DownSQL: createRecordsDown,
	})
}
