package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/openquery/dispatcher/runner"
)

// CSVWriter writes a comma-separated file with a header row, using the
// standard library's encoding/csv: no pack example reaches for a
// third-party CSV library, and encoding/csv already covers quoting and
// escaping correctly, so a dependency would add risk without adding
// capability.
type CSVWriter struct{}

func (w *CSVWriter) Write(ctx context.Context, rows runner.Rows, path string) (result Result, err error) {
	cols, err := rows.Columns()
	if err != nil {
		return Result{}, fmt.Errorf("columns: %w", err)
	}
	if len(cols) == 0 {
		return Result{}, ErrNoColumns
	}

	f, err := os.Create(path)
	if err != nil {
		return Result{}, fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	defer func() {
		if err != nil {
			os.Remove(path)
		}
	}()

	cw := csv.NewWriter(f)
	if err := cw.Write(cols); err != nil {
		return Result{}, fmt.Errorf("write header: %w", err)
	}

	dest := make([]any, len(cols))
	raw := make([]any, len(cols))
	for i := range dest {
		dest[i] = &raw[i]
	}

	var rowCount int64
	record := make([]string, len(cols))
	for rows.Next() {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		default:
		}
		if err := rows.Scan(dest...); err != nil {
			return Result{}, fmt.Errorf("scan: %w", err)
		}
		for i, v := range raw {
			record[i] = stringify(v)
		}
		if err := cw.Write(record); err != nil {
			return Result{}, fmt.Errorf("write row: %w", err)
		}
		rowCount++
		if rowCount%ChunkSize == 0 {
			cw.Flush()
			if err := cw.Error(); err != nil {
				return Result{}, err
			}
		}
	}
	if err := rows.Err(); err != nil {
		return Result{}, fmt.Errorf("iterate rows: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return Result{}, err
	}

	info, err := f.Stat()
	if err != nil {
		return Result{}, err
	}
	return Result{Path: path, RowCount: rowCount, ColumnCount: len(cols), ByteSize: info.Size()}, nil
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return fmt.Sprintf("%v", v)
}
