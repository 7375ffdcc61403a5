package dispatcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/openquery/dispatcher/internal"
)

// SpoolJanitorConfig defines the scheduling and retention parameters for
// a SpoolJanitor.
//
// Dir is the spool directory exported files are written to (Dispatcher's
// Config.SpoolDir).
//
// Interval defines how often the janitor scans Dir.
//
// MaxAge is how long a file may sit in Dir after its last modification
// before the janitor deletes it. Export output is expected to be picked
// up (downloaded or transferred) well before MaxAge elapses; this is a
// backstop against an unbounded spool directory, not primary cleanup.
type SpoolJanitorConfig struct {
	Dir      string
	Interval time.Duration
	MaxAge   time.Duration
}

// SpoolJanitor periodically deletes spool files older than its
// configured retention window. It is a background retention loop with no
// role in the job lifecycle it cleans up after.
type SpoolJanitor struct {
	lcBase
	task internal.TimerTask
	log  *slog.Logger
	dir  string
	age  time.Duration
	iv   time.Duration
}

// NewSpoolJanitor creates a SpoolJanitor. It is not started automatically;
// call Start to begin periodic sweeps.
func NewSpoolJanitor(cfg SpoolJanitorConfig, log *slog.Logger) *SpoolJanitor {
	return &SpoolJanitor{dir: cfg.Dir, age: cfg.MaxAge, iv: cfg.Interval, log: log}
}

func (j *SpoolJanitor) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-j.age)
	entries, err := os.ReadDir(j.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return
		}
		j.log.Error("spool sweep: read dir", "dir", j.dir, "err", err)
		return
	}
	var removed int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(j.dir, entry.Name())); err != nil {
			j.log.Error("spool sweep: remove", "file", entry.Name(), "err", err)
			continue
		}
		removed++
	}
	if removed > 0 {
		j.log.Info("spool swept", "removed", removed)
	}
}

// Start begins periodic sweeping. Start returns ErrDoubleStarted if the
// janitor has already been started.
func (j *SpoolJanitor) Start(ctx context.Context) error {
	if err := j.tryStart(); err != nil {
		return err
	}
	j.task.Start(ctx, j.sweep, j.iv)
	return nil
}

// Stop terminates the background sweep loop, waiting until it finishes
// or timeout expires.
func (j *SpoolJanitor) Stop(timeout time.Duration) error {
	return j.tryStop(timeout, j.task.Stop)
}
