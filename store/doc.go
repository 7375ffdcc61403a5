// Package store provides a bun-based implementation of the root
// dispatcher package's Store interface.
//
// # Overview
//
// The store backs:
//
//   - durable persistence of jobs and per-user settings
//   - atomic admission (ClaimNext) and lifecycle transitions
//   - generation-based recovery of orphaned in-flight jobs
//
// It is compatible with SQLite (OpenSQLite) and PostgreSQL (OpenPostgres),
// subject to each backend's transactional guarantees.
//
// # Concurrency Model
//
// ClaimNext is implemented as a single atomic UPDATE statement whose
// subqueries select the candidate and count in-flight rows, so selection and state transition never race
// across concurrent callers or processes. Start and Transition use
// UPDATE ... WHERE status = <expected> and report ErrLockLost /
// ErrTransitionFailed when the affected row count is zero, meaning
// another process already moved the job.
//
// # Schema
//
// InitDB (or MustInitDB) creates the jobs and user_settings tables and
// the indexes ClaimNext and ReclaimStale depend on. It is idempotent and
// runs inside a transaction; it never performs destructive migrations.
//
// # Database Lifecycle
//
// This package does not manage connection pooling or migrations beyond
// InitDB's schema bootstrap. Callers are responsible for configuring
// *bun.DB (connection limits, WAL/busy_timeout for SQLite) before use.
package store
