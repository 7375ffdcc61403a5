package dispatcher

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/openquery/dispatcher/job"
)

// Counts summarizes the Job Store's row distribution across the
// non-terminal states, as returned by current_counts() (spec.md §4.1) and
// surfaced by the status-counts endpoint at the system boundary.
type Counts struct {
	Pending      int64
	Queued       int64
	Running      int64
	Transferring int64
}

// TransitionFields carries the optional payload of a status transition:
// an error message (written iff the target status is Failed) and result
// metadata (merged into the job's sparse metadata map).
type TransitionFields struct {
	ErrorMessage   string
	ResultMetadata job.ResultMetadata
}

// Store is the Job Store contract (spec.md §4.1): a transactional backing
// store for users, settings, and jobs, exposing atomic lifecycle
// transitions so that two dispatcher workers (or two processes) never
// double-count the same admission slot.
//
// Store consolidates what the teacher queue models as four independently
// pluggable interfaces (Pusher/Puller/Observer/Cleaner) into one, since
// spec.md treats the Job Store as a single cohesive component rather than
// a set of swappable concerns.
type Store interface {
	// Enqueue inserts a new job in Pending and returns its assigned id.
	Enqueue(ctx context.Context, spec job.Spec) (uuid.UUID, error)

	// ClaimNext atomically selects the oldest Pending job whose owner has
	// a free per-user slot (fewer than userCap non-terminal jobs) and for
	// which the global cap is not yet saturated (fewer than globalCap
	// jobs currently Queued/Running/Transferring), and transitions it to
	// Queued. Admission accounting is evaluated entirely within this
	// single statement so concurrent callers cannot double-admit the same
	// slot. ClaimNext returns (nil, nil) when no job is currently
	// claimable.
	ClaimNext(ctx context.Context, generation string, globalCap, userCap int) (*job.Job, error)

	// Start transitions a Queued job to Running, setting started_at on
	// first entry. Start must only succeed if j is still Queued and still
	// owned by generation; otherwise ErrLockLost is returned.
	Start(ctx context.Context, j *job.Job, generation string) error

	// Transition applies a legal status change (per job.CanTransition) and
	// writes the accompanying fields. It bumps updated_at and, on first
	// entry to a terminal state, completed_at. Transition returns
	// ErrTransitionFailed if j's row is no longer in the expected source
	// state when the update runs.
	Transition(ctx context.Context, j *job.Job, to job.Status, fields TransitionFields) error

	// Get returns the job identified by id, or (nil, nil) if it does not
	// exist.
	Get(ctx context.Context, id uuid.UUID) (*job.Job, error)

	// List returns up to limit jobs owned by userID matching status. A
	// zero-value userID means no owner filter; job.Unknown means no status
	// filter.
	List(ctx context.Context, userID uuid.UUID, status job.Status, limit int) ([]*job.Job, error)

	// Delete permanently removes a job row.
	Delete(ctx context.Context, id uuid.UUID) error

	// MarkRerun restores a terminal job to Pending, clearing started_at,
	// completed_at, error_message, and result_metadata, while preserving
	// its id. MarkRerun returns ErrValidation if the job is not currently
	// in a terminal state (spec.md §9 Open Question: the store is the
	// enforcer, not the API layer).
	MarkRerun(ctx context.Context, id uuid.UUID) error

	// ReclaimStale transitions every Queued/Running/Transferring job whose
	// updated_at is older than staleThreshold, or whose generation does not
	// match the supplied generation, back to Pending, clearing
	// started_at/completed_at/result_metadata and recording a reclaim
	// reason. It returns the reclaimed ids. A job of the current generation
	// is reclaimed only when its updated_at is older than staleThreshold.
	ReclaimStale(ctx context.Context, generation string, staleThreshold time.Duration) ([]uuid.UUID, error)

	// CurrentCounts aggregates row counts per non-terminal status.
	CurrentCounts(ctx context.Context) (Counts, error)

	// GetSettings returns the settings row owned by userID, or (nil, nil)
	// if the user has never configured one. The dispatcher consults this
	// to resolve a job's transfer destination (SSH port and credentials
	// for the hostname named by SSHTarget) and its export defaults.
	GetSettings(ctx context.Context, userID uuid.UUID) (*job.UserSettings, error)
}
