package export

import "errors"

// ErrNoColumns is returned when a Writer is asked to serialize a cursor
// that reports zero columns, which indicates a malformed query result
// rather than a legitimately empty export.
var ErrNoColumns = errors.New("export: result has no columns")
