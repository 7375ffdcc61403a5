package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/openquery/dispatcher/runner"
)

// JSONWriter writes a JSON array of row objects, one per result row,
// streamed with encoding/json's Encoder so the whole array is never held
// in memory at once.
type JSONWriter struct{}

func (w *JSONWriter) Write(ctx context.Context, rows runner.Rows, path string) (result Result, err error) {
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

	enc := json.NewEncoder(f)
	if _, err := f.WriteString("[\n"); err != nil {
		return Result{}, err
	}

	dest := make([]any, len(cols))
	raw := make([]any, len(cols))
	for i := range dest {
		dest[i] = &raw[i]
	}

	var rowCount int64
	for rows.Next() {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		default:
		}
		if err := rows.Scan(dest...); err != nil {
			return Result{}, fmt.Errorf("scan: %w", err)
		}
		if rowCount > 0 {
			if _, err := f.WriteString(","); err != nil {
				return Result{}, err
			}
		}
		obj := make(map[string]any, len(cols))
		for i, col := range cols {
			obj[col] = jsonValue(raw[i])
		}
		if err := enc.Encode(obj); err != nil {
			return Result{}, fmt.Errorf("encode row: %w", err)
		}
		rowCount++
	}
	if err := rows.Err(); err != nil {
		return Result{}, fmt.Errorf("iterate rows: %w", err)
	}
	if _, err := f.WriteString("]\n"); err != nil {
		return Result{}, err
	}

	info, err := f.Stat()
	if err != nil {
		return Result{}, err
	}
	return Result{Path: path, RowCount: rowCount, ColumnCount: len(cols), ByteSize: info.Size()}, nil
}

func jsonValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
