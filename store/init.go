package store

import (
	"context"
	"errors"

	"github.com/uptrace/bun"
)

func createJobsTable(ctx context.Context, db bun.IDB) error {
	_, err := db.NewCreateTable().
		Model((*jobModel)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

func createSettingsTable(ctx context.Context, db bun.IDB) error {
	_, err := db.NewCreateTable().
		Model((*userSettingsModel)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

func createClaimIndex(ctx context.Context, db bun.IDB) error {
	_, err := db.NewCreateIndex().
		Model((*jobModel)(nil)).
		Index("idx_jobs_status_created").
		Column("status", "created_at").
		IfNotExists().
		Exec(ctx)
	return err
}

func createUserStatusIndex(ctx context.Context, db bun.IDB) error {
	_, err := db.NewCreateIndex().
		Model((*jobModel)(nil)).
		Index("idx_jobs_user_status").
		Column("user_id", "status").
		IfNotExists().
		Exec(ctx)
	return err
}

func createRecoveryIndex(ctx context.Context, db bun.IDB) error {
	_, err := db.NewCreateIndex().
		Model((*jobModel)(nil)).
		Index("idx_jobs_status_updated").
		Column("status", "updated_at").
		IfNotExists().
		Exec(ctx)
	return err
}

func initDB(ctx context.Context, db *bun.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	steps := []func(context.Context, bun.IDB) error{
		createJobsTable,
		createSettingsTable,
		createClaimIndex,
		createUserStatusIndex,
		createRecoveryIndex,
	}
	for _, step := range steps {
		if err := step(ctx, tx); err != nil {
			return errors.Join(err, tx.Rollback())
		}
	}
	return tx.Commit()
}

// InitDB initializes the schema required by the store package: the jobs
// and user_settings tables and the indexes ClaimNext and ReclaimStale
// depend on, all created inside a single transaction.
//
// InitDB is idempotent and may be called on every startup; it never
// drops or alters existing objects.
func InitDB(ctx context.Context, db *bun.DB) error {
	return initDB(ctx, db)
}

// MustInitDB behaves like InitDB but panics on failure, for use in
// application bootstrap code where a broken schema is unrecoverable.
func MustInitDB(ctx context.Context, db *bun.DB) {
	if err := initDB(ctx, db); err != nil {
		panic(err)
	}
}
