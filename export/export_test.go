package export

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/openquery/dispatcher/job"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRows is a minimal runner.Rows backed by an in-memory table, used to
// exercise Writer implementations without a real database.
type fakeRows struct {
	cols []string
	data [][]any
	pos  int
}

func (r *fakeRows) Columns() ([]string, error) { return r.cols, nil }

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.pos-1]
	for i, v := range row {
		p := dest[i].(*any)
		*p = v
	}
	return nil
}

func (r *fakeRows) Err() error   { return nil }
func (r *fakeRows) Close() error { return nil }

func newFakeRows() *fakeRows {
	return &fakeRows{
		cols: []string{"id", "name"},
		data: [][]any{
			{int64(1), "alice"},
			{int64(2), "bob"},
			{int64(3), nil},
		},
	}
}

func TestCSVWriterWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	w := &CSVWriter{}
	res, err := w.Write(context.Background(), newFakeRows(), path)
	require.NoError(t, err)
	assert.EqualValues(t, 3, res.RowCount)
	assert.Equal(t, 2, res.ColumnCount)
	assert.Greater(t, res.ByteSize, int64(0))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(contents), "id,name")
	assert.Contains(t, string(contents), "alice")
}

func TestCSVWriterNoColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	w := &CSVWriter{}
	_, err := w.Write(context.Background(), &fakeRows{}, path)
	assert.ErrorIs(t, err, ErrNoColumns)
}

func TestJSONWriterWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	w := &JSONWriter{}
	res, err := w.Write(context.Background(), newFakeRows(), path)
	require.NoError(t, err)
	assert.EqualValues(t, 3, res.RowCount)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(contents), `"name":"alice"`)
}

func TestJSONWriterCanceledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	w := &JSONWriter{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := w.Write(ctx, newFakeRows(), path)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRegistryCoversEveryExportType(t *testing.T) {
	reg := Registry()
	for _, et := range []job.ExportType{job.ExportCSV, job.ExportJSON, job.ExportExcel, job.ExportFeather} {
		_, ok := reg[et]
		assert.True(t, ok, "missing writer for %s", et)
	}
}
