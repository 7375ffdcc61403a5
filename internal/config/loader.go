package config

import (
	"os"
	"strconv"
	"strings"
)

// LoadFromEnv applies DBQ_*-prefixed environment variable overrides onto
// cfg in place, the same layered-defaults-then-env-overrides shape
// ned1313-tf-mirror's applyEnvOverrides uses.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("DBQ_STORE_DIALECT"); v != "" {
		cfg.Store.Dialect = v
	}
	if v := os.Getenv("DBQ_STORE_DSN"); v != "" {
		cfg.Store.DSN = v
	}
	if v, ok := getInt("DBQ_STORE_MAX_OPEN_CONNS"); ok {
		cfg.Store.MaxOpenConns = v
	}

	if v, ok := getInt("DBQ_ADMISSION_GLOBAL_MAX_PARALLEL_QUERIES"); ok {
		cfg.Admission.GlobalMaxParallelQueries = v
	}
	if v, ok := getInt("DBQ_ADMISSION_USER_MAX_PARALLEL_QUERIES"); ok {
		cfg.Admission.UserMaxParallelQueries = v
	}
	if v, ok := getInt("DBQ_ADMISSION_QUEUE"); ok {
		cfg.Admission.Queue = v
	}
	if v, ok := getInt("DBQ_ADMISSION_POLL_INTERVAL_SECONDS"); ok {
		cfg.Admission.PollIntervalSeconds = v
	}
	if v, ok := getInt("DBQ_ADMISSION_STALE_THRESHOLD_SECONDS"); ok {
		cfg.Admission.StaleThresholdSeconds = v
	}

	if v, ok := getInt("DBQ_RUNNER_CONNECT_TIMEOUT_SECONDS"); ok {
		cfg.Runner.ConnectTimeoutSeconds = v
	}
	if v, ok := getInt("DBQ_RUNNER_MAX_OPEN_CONNS"); ok {
		cfg.Runner.MaxOpenConns = v
	}
	if v, ok := getInt("DBQ_RUNNER_MAX_IDLE_CONNS"); ok {
		cfg.Runner.MaxIdleConns = v
	}

	if v, ok := getInt("DBQ_TRANSFER_DIAL_TIMEOUT_SECONDS"); ok {
		cfg.Transfer.DialTimeoutSeconds = v
	}
	if v := os.Getenv("DBQ_TRANSFER_REMOTE_DIR"); v != "" {
		cfg.Transfer.RemoteDir = v
	}

	if v := os.Getenv("DBQ_SPOOL_DIR"); v != "" {
		cfg.Spool.Dir = v
	}
	if v, ok := getInt("DBQ_SPOOL_RETENTION_HOURS"); ok {
		cfg.Spool.RetentionHours = v
	}
	if v, ok := getInt("DBQ_SPOOL_SWEEP_INTERVAL_MINS"); ok {
		cfg.Spool.SweepIntervalMins = v
	}

	if v := os.Getenv("DBQ_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("DBQ_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	if v := os.Getenv("DBQ_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("DBQ_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
}

func getInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseBool(val string) bool {
	val = strings.ToLower(strings.TrimSpace(val))
	return val == "true" || val == "yes" || val == "1"
}
