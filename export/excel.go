package export

import (
	"context"
	"fmt"
	"os"

	"github.com/openquery/dispatcher/runner"
	"github.com/xuri/excelize/v2"
)

// sheetName is fixed: an export is always a single-query result set, so
// there is never a reason to expose sheet naming to callers.
const sheetName = "Sheet1"

// ExcelWriter writes an .xlsx file via excelize's StreamWriter, which
// accepts rows in order without holding the whole sheet's cell grid in
// memory.
type ExcelWriter struct{}

func (w *ExcelWriter) Write(ctx context.Context, rows runner.Rows, path string) (result Result, err error) {
	defer func() {
		if err != nil {
			os.Remove(path)
		}
	}()

	cols, err := rows.Columns()
	if err != nil {
		return Result{}, fmt.Errorf("columns: %w", err)
	}
	if len(cols) == 0 {
		return Result{}, ErrNoColumns
	}

	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return Result{}, fmt.Errorf("stream writer: %w", err)
	}

	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return Result{}, fmt.Errorf("write header: %w", err)
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
		cell, err := excelize.CoordinatesToCellName(1, int(rowCount)+2)
		if err != nil {
			return Result{}, err
		}
		record := make([]any, len(cols))
		for i, v := range raw {
			record[i] = jsonValue(v)
		}
		if err := sw.SetRow(cell, record); err != nil {
			return Result{}, fmt.Errorf("write row: %w", err)
		}
		rowCount++
	}
	if err := rows.Err(); err != nil {
		return Result{}, fmt.Errorf("iterate rows: %w", err)
	}
	if err := sw.Flush(); err != nil {
		return Result{}, fmt.Errorf("flush: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return Result{}, fmt.Errorf("save %s: %w", path, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return Result{}, err
	}
	return Result{Path: path, RowCount: rowCount, ColumnCount: len(cols), ByteSize: info.Size()}, nil
}
