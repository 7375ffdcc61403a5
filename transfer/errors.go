package transfer

import "errors"

// These sentinels let a caller (the dispatcher) classify a transfer
// failure into spec.md's error taxonomy via errors.Is, without transfer
// importing the root package's Kind type back.
var (
	ErrAuth     = errors.New("transfer: authentication failed")
	ErrConnect  = errors.New("transfer: connection failed")
	ErrTransfer = errors.New("transfer: copy failed")
)
