package dispatcher_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/openquery/dispatcher"
	"github.com/openquery/dispatcher/job"
	"github.com/openquery/dispatcher/runner"
	"github.com/openquery/dispatcher/store"
)

func newTestStore(t *testing.T) dispatcher.Store {
	t.Helper()
	db, err := store.OpenSQLite("file::memory:?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	require.NoError(t, err)
	require.NoError(t, store.InitDB(context.Background(), db))
	return store.New(db)
}

func TestDispatcherRunsJobToCompletion(t *testing.T) {
	st := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	userID := uuid.New()
	id, err := st.Enqueue(ctx, job.Spec{
		UserID:        userID,
		DBCredentials: job.Credentials{Dialect: "sqlite", TNS: "file::memory:?cache=shared"},
		QueryText:     "select 1",
		ExportType:    job.ExportCSV,
	})
	require.NoError(t, err)

	spoolDir := t.TempDir()
	cfg := dispatcher.Config{
		GlobalCap:      4,
		UserCap:        2,
		Queue:          4,
		PollInterval:   20 * time.Millisecond,
		StaleThreshold: time.Minute,
		Generation:     "test-gen",
		SpoolDir:       spoolDir,
	}

	d := dispatcher.NewDispatcher(st, runner.NewDefaultRegistry(runner.Options{}), nil, cfg, slog.New(slog.NewTextHandler(os.Stderr, nil)))
	require.NoError(t, d.Start(ctx))
	defer d.Stop(time.Second)

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		jb, err := st.Get(ctx, id)
		require.NoError(t, err)
		if jb.Status.Terminal() {
			if jb.Status != job.Completed {
				t.Fatalf("expected Completed, got %v (%s)", jb.Status, jb.ErrorMessage)
			}
			path := filepath.Join(spoolDir, id.String()+".csv")
			_, statErr := os.Stat(path)
			require.NoError(t, statErr)
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("job never reached a terminal state")
}

func TestDispatcherDoubleStartFails(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	cfg := dispatcher.Config{GlobalCap: 1, UserCap: 1, Queue: 1, PollInterval: time.Second, StaleThreshold: time.Minute, Generation: "g", SpoolDir: t.TempDir()}
	d := dispatcher.NewDispatcher(st, runner.NewDefaultRegistry(runner.Options{}), nil, cfg, slog.Default())

	require.NoError(t, d.Start(ctx))
	defer d.Stop(time.Second)
	require.ErrorIs(t, d.Start(ctx), dispatcher.ErrDoubleStarted)
}
