package export

import (
	"context"
	"fmt"
	"os"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/ipc"
	"github.com/apache/arrow/go/v14/arrow/memory"

	"github.com/openquery/dispatcher/runner"
)

// FeatherWriter writes the Arrow IPC file format (Feather v2). Every
// column is written as a string column: the runner's Rows cursor exposes
// no column type metadata beyond driver-native Go values, and a uniform
// string schema lets one writer handle every dialect's result set without
// per-driver type mapping.
type FeatherWriter struct{}

func (w *FeatherWriter) Write(ctx context.Context, rows runner.Rows, path string) (result Result, err error) {
	cols, err := rows.Columns()
	if err != nil {
		return Result{}, fmt.Errorf("columns: %w", err)
	}
	if len(cols) == 0 {
		return Result{}, ErrNoColumns
	}

	fields := make([]arrow.Field, len(cols))
	for i, c := range cols {
		fields[i] = arrow.Field{Name: c, Type: arrow.BinaryTypes.String, Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

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

	pool := memory.NewGoAllocator()
	writer, err := ipc.NewFileWriter(f, ipc.WithSchema(schema), ipc.WithAllocator(pool))
	if err != nil {
		return Result{}, fmt.Errorf("ipc writer: %w", err)
	}
	closed := false
	defer func() {
		if !closed {
			writer.Close()
		}
	}()

	builders := make([]*array.StringBuilder, len(cols))
	for i := range builders {
		builders[i] = array.NewStringBuilder(pool)
		defer builders[i].Release()
	}

	dest := make([]any, len(cols))
	raw := make([]any, len(cols))
	for i := range dest {
		dest[i] = &raw[i]
	}

	var rowCount int64
	chunkRows := 0
	flush := func() error {
		if chunkRows == 0 {
			return nil
		}
		arrs := make([]arrow.Array, len(builders))
		for i, b := range builders {
			arrs[i] = b.NewArray()
		}
		record := array.NewRecord(schema, arrs, int64(chunkRows))
		err := writer.Write(record)
		record.Release()
		for _, a := range arrs {
			a.Release()
		}
		chunkRows = 0
		return err
	}

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
			if v == nil {
				builders[i].AppendNull()
				continue
			}
			builders[i].Append(stringify(v))
		}
		rowCount++
		chunkRows++
		if chunkRows >= ChunkSize {
			if err := flush(); err != nil {
				return Result{}, fmt.Errorf("write chunk: %w", err)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return Result{}, fmt.Errorf("iterate rows: %w", err)
	}
	if err := flush(); err != nil {
		return Result{}, fmt.Errorf("write final chunk: %w", err)
	}
	closed = true
	if err := writer.Close(); err != nil {
		return Result{}, fmt.Errorf("close ipc writer: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		return Result{}, err
	}
	return Result{Path: path, RowCount: rowCount, ColumnCount: len(cols), ByteSize: info.Size()}, nil
}
