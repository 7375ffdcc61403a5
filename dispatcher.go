package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/openquery/dispatcher/export"
	"github.com/openquery/dispatcher/internal"
	"github.com/openquery/dispatcher/internal/metrics"
	"github.com/openquery/dispatcher/job"
	"github.com/openquery/dispatcher/runner"
	"github.com/openquery/dispatcher/transfer"
)

// Config defines runtime behavior of a Dispatcher.
//
// GlobalCap is the global admission Gate's capacity (spec.md §4.6).
// UserCap is the per-user cap enforced alongside it (spec.md §4.5).
// Queue is the internal buffering capacity between claiming jobs and
// dispatching them to worker goroutines.
// PollInterval defines how often the dispatcher attempts to claim new
// work from the store.
// StaleThreshold is how old an in-flight job's updated_at must be before
// Recovery reclaims it (spec.md §4.8).
// Generation identifies this process for ownership bookkeeping; jobs
// claimed under one generation are only ever resumed by a live worker
// of that same generation.
// SpoolDir is where exported files are written before an optional
// transfer step.
type Config struct {
	GlobalCap      int
	UserCap        int
	Queue          int
	PollInterval   time.Duration
	StaleThreshold time.Duration
	Generation     string
	SpoolDir       string
}

// Dispatcher coordinates claiming, running, exporting, and transferring
// jobs end to end.
//
// Dispatcher implements the lifecycle spec.md describes:
//
//  1. Periodically ClaimNext jobs from the Store under the admission
//     budget.
//  2. Dispatch them to the internal worker pool, where they sit Queued
//     until a worker goroutine is free.
//  3. Run the query via a runner.Runner, export the result via an
//     export.Writer, and, if the job names a destination, transfer it
//     via a transfer.Agent.
//  4. Transition the job to Completed or Failed.
//
// Dispatcher has a strict lifecycle:
//   - Start may only be called once and runs Recovery before admitting
//     any new work.
//   - Stop gracefully shuts down claiming and worker goroutines, waiting
//     for in-flight jobs to release their Gate permit and user slot or
//     until the timeout expires.
type Dispatcher struct {
	lcBase

	store         Store
	runners       *runner.Registry
	exporters     map[job.ExportType]export.Writer
	transferAgent transfer.Agent

	gate      *Gate
	userSlots *UserSlots
	pool      *internal.WorkerPool[*job.Job]
	claimTask internal.TimerTask

	log     *slog.Logger
	cfg     Config
	metrics *metrics.Metrics
}

// NewDispatcher constructs a Dispatcher. It is not started automatically;
// call Start to begin Recovery and admission.
func NewDispatcher(store Store, runners *runner.Registry, transferAgent transfer.Agent, cfg Config, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		store:         store,
		runners:       runners,
		exporters:     export.Registry(),
		transferAgent: transferAgent,
		gate:          NewGate(cfg.GlobalCap),
		userSlots:     NewUserSlots(),
		pool:          internal.NewWorkerPool[*job.Job](cfg.GlobalCap, cfg.Queue, log),
		log:           log,
		cfg:           cfg,
	}
}

// WithMetrics attaches a Prometheus metrics sink that Dispatcher updates
// as it admits and completes jobs. It returns d for chaining.
func (d *Dispatcher) WithMetrics(m *metrics.Metrics) *Dispatcher {
	d.metrics = m
	return d
}

func (d *Dispatcher) observeAdmission() {
	if d.metrics == nil {
		return
	}
	d.metrics.GateInUse.Set(float64(d.gate.InUse()))
	d.metrics.GateCapacity.Set(float64(d.gate.Capacity()))
}

// claim fills the worker pool with as much claimable work as the
// admission budget allows, stopping as soon as the gate is saturated or
// the store reports nothing left to claim.
func (d *Dispatcher) claim(ctx context.Context) {
	defer d.observeAdmission()
	if d.metrics != nil {
		if counts, err := d.store.CurrentCounts(ctx); err == nil {
			d.metrics.ObserveCounts(counts.Pending, counts.Queued, counts.Running, counts.Transferring)
		}
	}
	for {
		if !d.gate.TryAcquire() {
			return
		}
		jb, err := d.store.ClaimNext(ctx, d.cfg.Generation, d.gate.Capacity(), d.cfg.UserCap)
		if err != nil {
			d.log.Error("claim failed", "err", err)
			d.gate.Release()
			return
		}
		if jb == nil {
			d.gate.Release()
			return
		}
		d.userSlots.Acquire(jb.UserID)
		if !d.pool.Push(jb) {
			d.log.Debug("job push interrupted via shutdown", "id", jb.ID)
			d.userSlots.Release(jb.UserID)
			d.gate.Release()
			return
		}
	}
}

func (d *Dispatcher) release(jb *job.Job) {
	d.userSlots.Release(jb.UserID)
	d.gate.Release()
	d.observeAdmission()
}

// handle runs one claimed job through Running, optional Transferring, and
// into a terminal state. It is the internal.WorkHandler passed to the
// worker pool.
func (d *Dispatcher) handle(ctx context.Context, jb *job.Job) {
	defer d.release(jb)

	if err := d.store.Start(ctx, jb, d.cfg.Generation); err != nil {
		if errors.Is(err, ErrLockLost) {
			d.log.Warn("job lock lost before start", "id", jb.ID, "err", err)
			return
		}
		d.log.Error("cannot start job", "id", jb.ID, "err", err)
		return
	}

	result, err := d.runQuery(ctx, jb)
	if err != nil {
		d.fail(ctx, jb, err, nil)
		return
	}

	if jb.SSHTarget == "" {
		d.complete(ctx, jb, result, "")
		return
	}

	if err := d.store.Transition(ctx, jb, job.Transferring, TransitionFields{}); err != nil {
		d.log.Error("cannot transition to transferring", "id", jb.ID, "err", err)
		return
	}
	remotePath, err := d.transferResult(ctx, jb, result)
	if err != nil {
		d.fail(ctx, jb, err, resultMetadata(result, ""))
		return
	}
	d.complete(ctx, jb, result, remotePath)
}

func (d *Dispatcher) runQuery(ctx context.Context, jb *job.Job) (export.Result, error) {
	rnr, err := d.runners.Build(jb.DBCredentials.Dialect)
	if err != nil {
		return export.Result{}, Classify(KindDBConnect, err)
	}
	rows, err := rnr.Query(ctx, jb.DBCredentials, jb.QueryText)
	if err != nil {
		if errors.Is(err, runner.ErrConnect) {
			return export.Result{}, Classify(KindDBConnect, err)
		}
		return export.Result{}, Classify(KindDBExecute, err)
	}
	defer rows.Close()

	exportType := jb.ExportType
	writer, ok := d.exporters[exportType]
	if !ok {
		exportType = job.DefaultExportType
		writer = d.exporters[exportType]
	}

	if err := os.MkdirAll(d.cfg.SpoolDir, 0o755); err != nil {
		return export.Result{}, Classify(KindExportIO, err)
	}
	name := jb.ExportFilename
	if name == "" {
		name = jb.ID.String()
	}
	path := filepath.Join(d.cfg.SpoolDir, name+"."+extensionFor(exportType))

	result, err := writer.Write(ctx, rows, path)
	if err != nil {
		return export.Result{}, Classify(KindExportIO, err)
	}
	return result, nil
}

func extensionFor(t job.ExportType) string {
	switch t {
	case job.ExportExcel:
		return "xlsx"
	case job.ExportJSON:
		return "json"
	case job.ExportFeather:
		return "feather"
	default:
		return "csv"
	}
}

func (d *Dispatcher) transferResult(ctx context.Context, jb *job.Job, result export.Result) (string, error) {
	settings, err := d.store.GetSettings(ctx, jb.UserID)
	if err != nil {
		return "", Classify(KindInternal, err)
	}
	if settings == nil {
		return "", Classify(KindValidation, fmt.Errorf("no transfer settings configured for user %s", jb.UserID))
	}
	settings.SSHHostname = jb.SSHTarget

	remoteDir := jb.ExportLocation
	if remoteDir == "" {
		remoteDir = settings.ExportLocation
	}

	remotePath, err := d.transferAgent.Transfer(ctx, result.Path, *settings, remoteDir, filepath.Base(result.Path))
	if err != nil {
		return "", classifyTransferErr(err)
	}
	return remotePath, nil
}

func classifyTransferErr(err error) error {
	switch {
	case errors.Is(err, transfer.ErrAuth):
		return Classify(KindSSHAuth, err)
	case errors.Is(err, transfer.ErrConnect):
		return Classify(KindSSHConnect, err)
	default:
		return Classify(KindSSHTransfer, err)
	}
}

// resultMetadata builds the result_metadata persisted alongside a job's
// terminal transition. It is also used on a transfer failure: the export
// already succeeded by that point, so its row/byte counts are still
// meaningful even though the job ends up Failed rather than Completed.
func resultMetadata(result export.Result, remotePath string) job.ResultMetadata {
	meta := job.ResultMetadata{
		"row_count":    result.RowCount,
		"column_count": result.ColumnCount,
		"byte_size":    result.ByteSize,
	}
	if remotePath != "" {
		meta["remote_path"] = remotePath
	}
	return meta
}

// fail transitions jb to Failed. meta is nil when cause occurred before
// any export result existed (e.g. a query or export failure); when a
// transfer failed after a successful export, the caller passes the
// export's result_metadata so it isn't lost.
func (d *Dispatcher) fail(ctx context.Context, jb *job.Job, cause error, meta job.ResultMetadata) {
	msg := classifyOrInternal(cause)
	if err := d.store.Transition(ctx, jb, job.Failed, TransitionFields{ErrorMessage: msg, ResultMetadata: meta}); err != nil {
		d.log.Error("cannot mark job failed", "id", jb.ID, "err", err, "cause", msg)
		return
	}
	if d.metrics != nil {
		d.metrics.JobsFailed.WithLabelValues(string(kindOf(cause))).Inc()
	}
	d.log.Warn("job failed", "id", jb.ID, "cause", msg)
}

func (d *Dispatcher) complete(ctx context.Context, jb *job.Job, result export.Result, remotePath string) {
	meta := resultMetadata(result, remotePath)
	if err := d.store.Transition(ctx, jb, job.Completed, TransitionFields{ResultMetadata: meta}); err != nil {
		d.log.Error("cannot mark job completed", "id", jb.ID, "err", err)
		return
	}
	if d.metrics != nil {
		d.metrics.JobsCompleted.Inc()
	}
	d.log.Info("job completed", "id", jb.ID, "rows", result.RowCount)
}

// Start runs Recovery once, then begins periodic claiming and worker
// dispatch.
//
// Start returns ErrDoubleStarted if the dispatcher has already been
// started.
func (d *Dispatcher) Start(ctx context.Context) error {
	if err := d.tryStart(); err != nil {
		return err
	}
	reclaimed, err := d.store.ReclaimStale(ctx, d.cfg.Generation, d.cfg.StaleThreshold)
	if err != nil {
		d.log.Error("recovery pass failed", "err", err)
	} else if len(reclaimed) > 0 {
		d.log.Warn("recovery reclaimed stale jobs", "count", len(reclaimed))
	}

	d.pool.Start(ctx, d.handle)
	d.claimTask.Start(ctx, d.claim, d.cfg.PollInterval)
	return nil
}

func (d *Dispatcher) doStop() internal.DoneChan {
	first := d.claimTask.Stop()
	second := d.pool.Stop()
	return internal.Combine(first, second)
}

// Stop initiates graceful shutdown: it stops claiming new work, cancels
// the worker pool, and waits for in-flight jobs to release their
// admission slots.
//
// Stop returns ErrStopTimeout if shutdown does not complete within
// timeout; in that case background goroutines may still be terminating.
//
// Stop returns ErrDoubleStopped if the dispatcher is not running.
func (d *Dispatcher) Stop(timeout time.Duration) error {
	return d.tryStop(timeout, d.doStop)
}
