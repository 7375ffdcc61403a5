package runner

import "errors"

// ErrUnknownDialect is returned by a Registry when asked for a dialect it
// has no Factory registered for.
var ErrUnknownDialect = errors.New("runner: unknown dialect")

// ErrConnect wraps a failure to open or ping a target database: the
// target is unreachable or rejected authentication, as opposed to a
// query that reached the database but failed to execute. Callers use
// errors.Is(err, ErrConnect) to distinguish the two without runner
// importing the dispatcher package's classification types.
var ErrConnect = errors.New("runner: connect failed")
