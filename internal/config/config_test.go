package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultIsValidShape(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "sqlite", cfg.Store.Dialect)
	assert.Greater(t, cfg.Admission.GlobalMaxParallelQueries, 0)
	assert.Greater(t, cfg.Admission.UserMaxParallelQueries, 0)
}

func TestLoadFromEnvOverridesDefaults(t *testing.T) {
	t.Setenv("DBQ_STORE_DIALECT", "postgres")
	t.Setenv("DBQ_ADMISSION_GLOBAL_MAX_PARALLEL_QUERIES", "25")
	t.Setenv("DBQ_METRICS_ENABLED", "false")

	cfg := Default()
	LoadFromEnv(cfg)

	assert.Equal(t, "postgres", cfg.Store.Dialect)
	assert.Equal(t, 25, cfg.Admission.GlobalMaxParallelQueries)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoadFromEnvIgnoresInvalidInt(t *testing.T) {
	t.Setenv("DBQ_ADMISSION_QUEUE", "not-a-number")
	cfg := Default()
	want := cfg.Admission.Queue
	LoadFromEnv(cfg)
	assert.Equal(t, want, cfg.Admission.Queue)
}

func TestDurationHelpers(t *testing.T) {
	cfg := Default()
	assert.Equal(t, cfg.Admission.PollInterval().Seconds(), float64(cfg.Admission.PollIntervalSeconds))
	assert.Equal(t, cfg.Spool.RetentionWindow().Hours(), float64(cfg.Spool.RetentionHours))
}
