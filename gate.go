package dispatcher

import "context"

// Gate is the global admission semaphore: the process-wide cap on
// concurrently admitted jobs across all users (spec.md §4.6). The
// dispatcher acquires a permit before it claims a job (Pending -> Queued)
// and releases it when the worker is done with the job, on every exit
// path, including failures raised by the Exporter or Transfer Agent. A
// permit therefore covers a job while it is Queued as well as while it is
// Running or Transferring.
//
// Gate is the only resource the dispatcher holds across a job's full
// run+export+transfer sequence, so its capacity is sized to the
// configured global_max_parallel_queries.
type Gate struct {
	slots chan struct{}
}

// NewGate creates a Gate with the given capacity. A non-positive capacity
// means no job may ever run; callers should validate configuration before
// constructing one.
func NewGate(capacity int) *Gate {
	if capacity < 0 {
		capacity = 0
	}
	return &Gate{slots: make(chan struct{}, capacity)}
}

// TryAcquire attempts to acquire one permit without blocking. It reports
// whether the permit was obtained.
func (g *Gate) TryAcquire() bool {
	select {
	case g.slots <- struct{}{}:
		return true
	default:
		return false
	}
}

// Acquire blocks until a permit is available or ctx is canceled.
func (g *Gate) Acquire(ctx context.Context) error {
	select {
	case g.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns one permit to the gate. Release must be called exactly
// once per successful Acquire/TryAcquire, on every exit path of the job
// that acquired it.
func (g *Gate) Release() {
	select {
	case <-g.slots:
	default:
		// Release without a matching acquire; ignore rather than panic,
		// since a defer-based release path can otherwise double-release
		// after a best-effort TryAcquire failed.
	}
}

// InUse reports how many permits are currently held.
func (g *Gate) InUse() int {
	return len(g.slots)
}

// Capacity reports the gate's total permit count.
func (g *Gate) Capacity() int {
	return cap(g.slots)
}
