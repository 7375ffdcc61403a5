package runner

import (
	"context"

	"github.com/openquery/dispatcher/job"
)

// Rows is a streaming cursor over a query's result set, modeled directly on
// database/sql.Rows so drivers can return it with no adaptation.
type Rows interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// Runner executes a query against a remote database identified by
// job.Credentials and returns a streaming cursor over its result set.
//
// Query must respect ctx cancellation: a canceled context aborts the
// in-flight query and Query returns ctx.Err() (or a runner-classified
// wrapping of it).
type Runner interface {
	Query(ctx context.Context, creds job.Credentials, query string) (Rows, error)
}

// Factory constructs a Runner for one dialect given the connect options;
// the connection string (job.Credentials.TNS) is supplied per Query call.
type Factory func(opts Options) (Runner, error)

// Options bundles the tunables every dialect's Factory may need.
type Options struct {
	ConnectTimeoutSeconds int
	MaxOpenConns          int
	MaxIdleConns          int
}
