package runner

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/avast/retry-go"

	"github.com/openquery/dispatcher/internal/redact"
	"github.com/openquery/dispatcher/job"
)

// connectAttempts bounds the total number of attempts sqlRunner makes at
// the initial ping against a target database. Query execution itself is never
// retried: a failed query is a DB_EXECUTE classification the caller
// surfaces, not a transient condition to paper over.
const connectAttempts = 3

// sqlRunner adapts a database/sql driver name to Runner. Every concrete
// dialect in this package (postgres, mysql, oracle, sqlite) is a thin
// constructor around sqlRunner; the dialects differ only in driver name
// and DSN shape, which job.Credentials.TNS already carries pre-formatted.
type sqlRunner struct {
	driverName string
	opts       Options
}

func newSQLRunner(driverName string, opts Options) Runner {
	return &sqlRunner{driverName: driverName, opts: opts}
}

func (r *sqlRunner) Query(ctx context.Context, creds job.Credentials, query string) (Rows, error) {
	db, err := sql.Open(r.driverName, creds.TNS)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s (%s): %v", ErrConnect, r.driverName, redact.TNS(creds.TNS), err)
	}
	if r.opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(r.opts.MaxOpenConns)
	}
	if r.opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(r.opts.MaxIdleConns)
	}

	pingCtx := ctx
	var cancel context.CancelFunc
	if r.opts.ConnectTimeoutSeconds > 0 {
		pingCtx, cancel = context.WithTimeout(ctx, time.Duration(r.opts.ConnectTimeoutSeconds)*time.Second)
		defer cancel()
	}
	err = retry.Do(
		func() error { return db.PingContext(pingCtx) },
		retry.Context(pingCtx),
		retry.Attempts(connectAttempts),
		retry.Delay(200*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: connect %s (%s): %v", ErrConnect, r.driverName, redact.TNS(creds.TNS), err)
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("execute: %w", err)
	}
	return &closingRows{Rows: rows, db: db}, nil
}

// closingRows closes its owning *sql.DB alongside the *sql.Rows cursor,
// since sqlRunner opens one connection pool per query rather than holding
// a long-lived pool per dialect.
type closingRows struct {
	*sql.Rows
	db *sql.DB
}

func (r *closingRows) Close() error {
	rowsErr := r.Rows.Close()
	dbErr := r.db.Close()
	if rowsErr != nil {
		return rowsErr
	}
	return dbErr
}
