package job

import (
	"time"

	"github.com/google/uuid"
)

// ExportType identifies the serialization format requested for a job's
// result set.
type ExportType string

const (
	ExportCSV     ExportType = "csv"
	ExportExcel   ExportType = "excel"
	ExportJSON    ExportType = "json"
	ExportFeather ExportType = "feather"
)

// DefaultExportType is used when a job spec omits an export format.
const DefaultExportType = ExportCSV

// Credentials carries the connection information needed to reach the target
// database on the user's behalf. Credentials are never logged; callers must
// route them through a redacting formatter before they reach a log line or
// error string.
type Credentials struct {
	// Dialect selects the runner driver used to reach the target database
	// (for example "postgres", "mysql", "oracle"). There is no default
	// dialect: a value with no registered runner, including the empty
	// string, makes runner.Registry.Build fail with ErrUnknownDialect.
	Dialect  string
	Username string
	Password string
	// TNS is the opaque connection descriptor for the target database
	// (host/port/service name, DSN, or TNS alias depending on dialect).
	TNS string
}

// ResultMetadata is a sparse map of facts recorded about a job's execution.
// Keys populated by the dispatcher include row_count, column_count,
// byte_size, remote_path, and (transiently, during Recovery) reclaim_reason.
type ResultMetadata map[string]any

// Job represents a submitted query managed by the store.
//
// CreatedAt records when the job was first enqueued. UpdatedAt is bumped on
// every transition. StartedAt is set on the first transition into Running;
// CompletedAt is set on the first transition into a terminal state.
//
// Status represents the current lifecycle state (see Status).
// LockedUntil and Generation are ownership bookkeeping used by the
// dispatcher's claim and recovery logic; they are not part of the
// user-facing contract.
//
// Job instances are snapshots of store state. Mutating fields directly does
// not change persisted state; transitions must go through the store.
type Job struct {
	ID     uuid.UUID
	UserID uuid.UUID

	DBCredentials Credentials
	QueryText     string

	ExportType     ExportType
	ExportLocation string
	ExportFilename string

	SSHTarget string

	Status        Status
	ErrorMessage  string
	ResultMetadata ResultMetadata

	CreatedAt   time.Time
	UpdatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time

	// LockedUntil and Generation are owned by the store and dispatcher;
	// a job that is Queued, Running, or Transferring carries the
	// generation of the process that admitted it, so Recovery can tell
	// orphaned rows (stale generation) from live ones.
	LockedUntil *time.Time
	Generation  string
}

// Spec is the caller-supplied description of a job to enqueue. It omits
// every field the store assigns (ID, Status, timestamps).
type Spec struct {
	UserID         uuid.UUID
	DBCredentials  Credentials
	QueryText      string
	ExportType     ExportType
	ExportLocation string
	ExportFilename string
	SSHTarget      string
}

// UserSettings holds the per-user defaults and transfer destination
// resolved by the dispatcher when a job omits them (spec.md §3, §4.7):
// the SSH host named by a job's SSHTarget is only a hostname, so the
// owner's settings row supplies the port and credentials needed to
// actually reach it.
type UserSettings struct {
	UserID uuid.UUID

	ExportLocation     string
	ExportType         ExportType
	MaxParallelQueries int

	SSHHostname      string
	SSHPort          int
	SSHUsername      string
	SSHPassword      string
	SSHKey           string
	SSHKeyPassphrase string
}
