package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/openquery/dispatcher"
	"github.com/openquery/dispatcher/internal/metrics"
	"github.com/openquery/dispatcher/runner"
	"github.com/openquery/dispatcher/store"
	"github.com/openquery/dispatcher/transfer"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dispatcher: claim, execute, export, and transfer jobs until stopped",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg := loadConfig()
	log := newLogger(cfg.Logging)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer db.Close()

	st := store.New(db)
	registry := runner.NewDefaultRegistry(runner.Options{
		ConnectTimeoutSeconds: cfg.Runner.ConnectTimeoutSeconds,
		MaxOpenConns:          cfg.Runner.MaxOpenConns,
		MaxIdleConns:          cfg.Runner.MaxIdleConns,
	})
	transferAgent := &transfer.SSHAgent{
		DialTimeout:      cfg.Transfer.DialTimeout(),
		DefaultRemoteDir: cfg.Transfer.RemoteDir,
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	d := dispatcher.NewDispatcher(st, registry, transferAgent, dispatcher.Config{
		GlobalCap:      cfg.Admission.GlobalMaxParallelQueries,
		UserCap:        cfg.Admission.UserMaxParallelQueries,
		Queue:          cfg.Admission.Queue,
		PollInterval:   cfg.Admission.PollInterval(),
		StaleThreshold: cfg.Admission.StaleThreshold(),
		Generation:     uuid.NewString(),
		SpoolDir:       cfg.Spool.Dir,
	}, log)
	if m != nil {
		d = d.WithMetrics(m)
	}

	janitor := dispatcher.NewSpoolJanitor(dispatcher.SpoolJanitorConfig{
		Dir:      cfg.Spool.Dir,
		Interval: cfg.Spool.SweepInterval(),
		MaxAge:   cfg.Spool.RetentionWindow(),
	}, log)

	if err := d.Start(ctx); err != nil {
		return err
	}
	if err := janitor.Start(ctx); err != nil {
		return err
	}

	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server stopped", "err", err)
			}
		}()
		log.Info("metrics server listening", "addr", cfg.Metrics.Addr)
	}

	<-ctx.Done()
	log.Info("shutting down")

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}

	if err := d.Stop(30 * time.Second); err != nil {
		log.Error("dispatcher stop", "err", err)
	}
	if err := janitor.Stop(10 * time.Second); err != nil {
		log.Error("janitor stop", "err", err)
	}
	return nil
}
