package store

import (
	"database/sql"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "modernc.org/sqlite"
)

// OpenSQLite opens a bun.DB backed by an embedded sqlite database at dsn,
// suitable for single-process deployments and tests. SetMaxOpenConns(1)
// is applied, matching sqlite's single-writer model: bun serializes
// writes through one connection rather than racing the database's own
// locking.
func OpenSQLite(dsn string) (*bun.DB, error) {
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return bun.NewDB(sqlDB, sqlitedialect.New()), nil
}
