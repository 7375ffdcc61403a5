package export

import (
	"context"

	"github.com/openquery/dispatcher/job"
	"github.com/openquery/dispatcher/runner"
)

// Result records what a Writer actually produced.
type Result struct {
	Path       string
	RowCount   int64
	ColumnCount int
	ByteSize   int64
}

// Writer serializes rows to path in one export format.
//
// Write must drain rows fully (or return on the first error) and must
// close neither rows nor any resource it did not itself open, except the
// output file it creates at path.
type Writer interface {
	Write(ctx context.Context, rows runner.Rows, path string) (Result, error)
}

// ChunkSize bounds how many rows a Writer buffers before flushing to its
// output file, keeping peak memory proportional to row width, not result
// size.
const ChunkSize = 1000

// Registry resolves a job.ExportType to the Writer that can produce it.
func Registry() map[job.ExportType]Writer {
	return map[job.ExportType]Writer{
		job.ExportCSV:     &CSVWriter{},
		job.ExportJSON:    &JSONWriter{},
		job.ExportExcel:   &ExcelWriter{},
		job.ExportFeather: &FeatherWriter{},
	}
}
