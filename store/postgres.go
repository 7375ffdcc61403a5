package store

import (
	"database/sql"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	_ "github.com/lib/pq"
)

// OpenPostgres opens a bun.DB backed by Postgres at dsn, for multi-process
// deployments where several dispatcher instances share one Job Store
// (spec.md's Generation-based ownership model assumes exactly this).
func OpenPostgres(dsn string, maxOpenConns int) (*bun.DB, error) {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if maxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(maxOpenConns)
	}
	return bun.NewDB(sqlDB, pgdialect.New()), nil
}
