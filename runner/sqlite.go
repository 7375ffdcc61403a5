package runner

import (
	_ "modernc.org/sqlite"
)

// NewSQLite builds a Runner against an embedded sqlite target. It exists
// for local development and tests, not for production query execution;
// spec.md's remote-database model assumes postgres/mysql/oracle targets.
func NewSQLite(opts Options) (Runner, error) {
	return newSQLRunner("sqlite", opts), nil
}
