// Package job defines the stateful representation of a submitted query within
// the dispatcher's lifecycle.
//
// A Job is the unit of work accepted at ingress: it carries the remote
// database credentials, the SQL text to execute, the requested export format,
// and an optional transfer destination, alongside the state-machine fields
// (Status, timestamps, lease bookkeeping) maintained by the store and the
// dispatcher.
//
// Job values returned by the store represent authoritative snapshots.
// Mutating a Job directly does not change persisted state; transitions must
// go through the store.
package job
