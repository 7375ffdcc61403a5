// Package dispatcher is a durable, database-backed, multi-tenant query
// dispatcher.
//
// # Overview
//
// The dispatcher discovers newly submitted queries (job.Job rows held by a
// Store), admits them under a two-tier concurrency budget, executes them
// concurrently against remote databases, exports the result set to a file,
// optionally transfers that file to a user-designated host, and keeps the
// persisted lifecycle state machine consistent across crashes.
//
// The package does not mandate a storage backend, a database dialect, an
// export format, or a transfer protocol; those are supplied through the
// Store, runner.Runner, export.Writer, and transfer.Agent interfaces.
//
// # Admission
//
// Two budgets gate execution: a Gate (global cap on concurrently
// Queued/Running/Transferring jobs) and UserSlots (per-user cap on non-terminal
// jobs). Both are enforced primarily by the Store's atomic ClaimNext query;
// the in-process Gate and UserSlots exist so the dispatcher's own
// goroutines never race each other between a successful claim and the
// worker actually starting.
//
// # State Machine
//
// Jobs follow this lifecycle:
//
//	Pending -> Queued -> Running -> Transferring -> Completed
//	                             -> Completed
//	                  -> Running -> Failed
//	                             -> Transferring -> Failed
//
// Completed and Failed are terminal and are not retried automatically;
// reissuing a terminal job back to Pending is an explicit rerun operation
// performed by the Store, never a transition the dispatcher itself drives.
//
// # Recovery
//
// On startup, Dispatcher runs Recovery once: every job left in Queued,
// Running, or Transferring by a previous process (identified by a stale
// updated_at or a mismatched process generation) is returned to Pending,
// with its execution state cleared. The next dispatch restarts such a job
// from scratch; Recovery never attempts to resume mid-stream.
//
// # Concurrency Model
//
// Dispatcher uses a bounded internal queue and a worker pool sized to the
// global cap: ClaimNext reserves a slot (Pending -> Queued) and the job is
// pushed onto the pool's channel, where it waits (visibly, as Queued) until
// a worker goroutine is free to run it through to a terminal state.
//
// Shutdown is graceful: in-flight workers are canceled and given a grace
// period to release their Gate permit and per-user slot before Stop
// returns.
package dispatcher
