package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	"github.com/openquery/dispatcher/internal/config"
	"github.com/openquery/dispatcher/store"
)

var cfgPath string

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "dbq",
		Short:         "Durable multi-tenant query dispatcher",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVar(&cfgPath, "config", "", "unused; configuration is sourced from DBQ_* environment variables")

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newMigrateCommand())
	cmd.AddCommand(newRecoverCommand())
	cmd.AddCommand(newEnqueueCommand())
	cmd.AddCommand(newRerunCommand())
	cmd.AddCommand(newListCommand())
	return cmd
}

func loadConfig() *config.Config {
	cfg := config.Default()
	config.LoadFromEnv(cfg)
	return cfg
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// openStore opens and initializes the bun.DB backing cfg.Store, dispatching
// on Dialect the same way runner.Registry dispatches on a job's dialect.
func openStore(ctx context.Context, cfg config.StoreConfig) (*bun.DB, error) {
	var (
		db  *bun.DB
		err error
	)
	switch cfg.Dialect {
	case "postgres":
		db, err = store.OpenPostgres(cfg.DSN, cfg.MaxOpenConns)
	case "sqlite", "":
		db, err = store.OpenSQLite(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown store dialect %q", cfg.Dialect)
	}
	if err != nil {
		return nil, err
	}
	if err := store.InitDB(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
