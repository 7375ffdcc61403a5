package job

import "fmt"

// Status represents the current lifecycle state of a Job.
//
// The state machine is:
//
//	Pending       -> Queued
//	Queued        -> Running
//	Running       -> Transferring
//	Running       -> Completed
//	Running       -> Failed
//	Transferring  -> Completed
//	Transferring  -> Failed
//
// Completed and Failed are terminal; the only way back to Pending is an
// explicit rerun of a terminal job, never a generic transition.
//
// Unknown is reserved as a zero value and is used to mean "no status
// filter" in List/Clean-style queries.
type Status uint8

const (
	// Unknown represents an unspecified or invalid job state.
	// It is the zero value of Status.
	Unknown Status = iota

	// Pending indicates the job is newly submitted or has been returned to
	// the front of the queue by a rerun or by Recovery. It is eligible for
	// claiming subject to admission limits.
	Pending

	// Queued indicates the job has been admitted (it holds a global and a
	// per-user slot) but has not yet been picked up by a worker goroutine.
	Queued

	// Running indicates a worker has started executing the job's query.
	Running

	// Transferring indicates the query has been executed and exported, and
	// the resulting file is being pushed to the job's SSH target.
	Transferring

	// Completed indicates the job finished successfully. Terminal.
	Completed

	// Failed indicates the job terminated with an error. Terminal;
	// ErrorMessage is populated.
	Failed
)

// Terminal reports whether s is a state from which no further transition
// happens except an explicit rerun.
func (s Status) Terminal() bool {
	return s == Completed || s == Failed
}

// InFlight reports whether a job in this state counts against admission
// budgets (the per-user cap and, for Running/Transferring, the global cap).
func (s Status) InFlight() bool {
	return s == Queued || s == Running || s == Transferring
}

func statusToString(status Status) string {
	switch status {
	case Pending:
		return "pending"
	case Queued:
		return "queued"
	case Running:
		return "running"
	case Transferring:
		return "transferring"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

func statusFromString(status string) (Status, error) {
	switch status {
	case "pending":
		return Pending, nil
	case "queued":
		return Queued, nil
	case "running":
		return Running, nil
	case "transferring":
		return Transferring, nil
	case "completed":
		return Completed, nil
	case "failed":
		return Failed, nil
	case "unknown", "":
		return Unknown, nil
	default:
		return 0, fmt.Errorf("unknown status: %s", status)
	}
}

// ParseStatus converts a string representation of a status into a Status
// value. Recognized values are "pending", "queued", "running",
// "transferring", "completed", "failed", and "unknown". An error is
// returned for unrecognized strings.
func ParseStatus(s string) (Status, error) {
	return statusFromString(s)
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(statusToString(s)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	status, err := statusFromString(string(text))
	if err != nil {
		return err
	}
	*s = status
	return nil
}

// String returns the canonical string representation of the status.
func (s Status) String() string {
	return statusToString(s)
}

// legalTransitions encodes the state-machine DAG from spec. CanTransition
// is the single source of truth the store consults before writing a status
// change; it does not special-case rerun, which bypasses this table
// entirely (handled by MarkRerun).
var legalTransitions = map[Status]map[Status]bool{
	Pending:      {Queued: true},
	Queued:       {Running: true},
	Running:      {Transferring: true, Completed: true, Failed: true},
	Transferring: {Completed: true, Failed: true},
}

// CanTransition reports whether moving from "from" to "to" is a legal edge
// in the job lifecycle DAG.
func CanTransition(from, to Status) bool {
	return legalTransitions[from][to]
}
