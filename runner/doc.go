// Package runner executes a job's query against its target database and
// streams the result set back row by row.
//
// A Runner never materializes a full result set in memory: Query returns a
// Rows cursor that the export package drains chunk by chunk, so a
// million-row result costs the same working set as a thousand-row one.
//
// Concrete drivers are registered in a Registry keyed by job.Credentials.Dialect
// (postgres, mysql, oracle, sqlite), each wrapping a database/sql driver
// registered via its package's blank import.
package runner
