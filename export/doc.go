// Package export serializes a runner.Rows cursor to a file in one of the
// formats spec.md names: csv, json, excel, feather.
//
// Every Writer drains its cursor in chunks rather than buffering whole
// columns or rows in memory, so export cost is bounded by output size, not
// result-set size.
package export
