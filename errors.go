package dispatcher

import (
	"errors"
	"fmt"
)

var (
	// ErrJobLost indicates that the referenced job no longer exists in the
	// store or cannot be found in its expected state.
	ErrJobLost = errors.New("job lost")

	// ErrLockLost indicates the caller no longer owns the job's generation
	// lease. This happens when Recovery reclaims a job out from under a
	// worker that has not yet observed cancellation.
	ErrLockLost = errors.New("lock lost")

	// ErrTransitionFailed indicates a requested status transition did not
	// apply because the row was not in the expected source state when the
	// update ran.
	ErrTransitionFailed = errors.New("transition failed")

	// ErrValidation indicates a caller-level mistake: an illegal rerun
	// target, a malformed job spec, or an unsupported export format
	// requested at ingress.
	ErrValidation = errors.New("validation failed")

	// ErrDoubleStarted is returned when Start is called on a component that
	// has already been started.
	ErrDoubleStarted = errors.New("already started")

	// ErrDoubleStopped is returned when Stop is called on a component that
	// is not currently running.
	ErrDoubleStopped = errors.New("already stopped")

	// ErrStopTimeout is returned when a component fails to shut down within
	// the provided grace period. The component may still be terminating in
	// the background.
	ErrStopTimeout = errors.New("stop timeout")
)

// Kind classifies a job failure per the error taxonomy of spec.md §7.
type Kind string

const (
	KindValidation  Kind = "VALIDATION"
	KindDBConnect   Kind = "DB_CONNECT"
	KindDBExecute   Kind = "DB_EXECUTE"
	KindExportFmt   Kind = "EXPORT_FORMAT"
	KindExportIO    Kind = "EXPORT_IO"
	KindSSHAuth     Kind = "SSH_AUTH"
	KindSSHConnect  Kind = "SSH_CONNECT"
	KindSSHTransfer Kind = "SSH_TRANSFER"
	KindTimeout     Kind = "TIMEOUT"
	KindCanceled    Kind = "CANCELED"
	KindInternal    Kind = "INTERNAL"
)

// ClassifiedError pairs a Kind with the underlying cause. The dispatcher
// wraps Runner, Exporter, and Transfer Agent failures in one of these
// (mapping their sentinel errors to a Kind; an error left unwrapped is
// reported as KindInternal) so it can write a consistent
// "<KIND>: <detail>" error_message.
type ClassifiedError struct {
	Kind Kind
	Err  error
}

func (e *ClassifiedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Err)
}

func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

// Classify wraps err with kind, unless err is already a *ClassifiedError (in
// which case it is returned unchanged) or nil.
func Classify(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce
	}
	return &ClassifiedError{Kind: kind, Err: err}
}

// classifyOrInternal derives the message written to a job's error_message
// field, defaulting to KindInternal for errors a component failed to
// classify explicitly.
func classifyOrInternal(err error) string {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Error()
	}
	return (&ClassifiedError{Kind: KindInternal, Err: err}).Error()
}

// kindOf extracts the Kind of a (possibly unclassified) error, for
// metrics labeling.
func kindOf(err error) Kind {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindInternal
}
