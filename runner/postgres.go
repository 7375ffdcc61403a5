package runner

import (
	_ "github.com/lib/pq"
)

// NewPostgres builds a Runner that reaches Postgres targets via lib/pq.
// creds.TNS is passed through unmodified as the lib/pq connection string.
func NewPostgres(opts Options) (Runner, error) {
	return newSQLRunner("postgres", opts), nil
}
