// Package transfer copies an exported result file to a user-designated
// host over SSH/SFTP, completing the Transferring stage of a job's
// lifecycle.
//
// Transfer is idempotent: it always overwrites the file at the remote
// path and then checks its size against the local file, so a retried
// Transferring step after a crash replaces whatever an earlier attempt
// left there.
package transfer
