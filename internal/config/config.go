// Package config defines the dispatcher's runtime configuration, loaded
// from defaults and overlaid with environment variables (DBQ_* prefix),
// the way ned1313-tf-mirror's internal/config package layers env
// overrides onto a DefaultConfig().
package config

import "time"

// Config is the complete runtime configuration for a dispatcher process.
type Config struct {
	Store     StoreConfig
	Admission AdmissionConfig
	Runner    RunnerConfig
	Transfer  TransferConfig
	Spool     SpoolConfig
	Logging   LoggingConfig
	Metrics   MetricsConfig
}

// StoreConfig selects and configures the Job Store backend.
type StoreConfig struct {
	// Dialect is "sqlite" or "postgres".
	Dialect      string
	DSN          string
	MaxOpenConns int
}

// AdmissionConfig sizes the two-tier concurrency budget and claim loop.
type AdmissionConfig struct {
	GlobalMaxParallelQueries int
	UserMaxParallelQueries   int
	Queue                    int
	PollIntervalSeconds      int
	StaleThresholdSeconds    int
}

// RunnerConfig tunes the runner package's per-dialect connections.
type RunnerConfig struct {
	ConnectTimeoutSeconds int
	MaxOpenConns          int
	MaxIdleConns          int
}

// TransferConfig tunes the SSH/SFTP transfer agent.
type TransferConfig struct {
	DialTimeoutSeconds int
	RemoteDir          string
}

// SpoolConfig sizes the local export spool directory and its retention
// janitor.
type SpoolConfig struct {
	Dir               string
	RetentionHours    int
	SweepIntervalMins int
}

// LoggingConfig controls slog output.
type LoggingConfig struct {
	Level  string
	Format string
}

// MetricsConfig controls Prometheus metrics exposure.
type MetricsConfig struct {
	Enabled bool
	Addr    string
}

// Default returns a Config with production-sensible defaults. Callers
// apply LoadFromEnv on top of it to honor deployment overrides.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Dialect:      "sqlite",
			DSN:          "file:dispatcher.db?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)",
			MaxOpenConns: 10,
		},
		Admission: AdmissionConfig{
			GlobalMaxParallelQueries: 8,
			UserMaxParallelQueries:   2,
			Queue:                   32,
			PollIntervalSeconds:     2,
			StaleThresholdSeconds:   300,
		},
		Runner: RunnerConfig{
			ConnectTimeoutSeconds: 10,
			MaxOpenConns:          4,
			MaxIdleConns:          2,
		},
		Transfer: TransferConfig{
			DialTimeoutSeconds: 15,
			RemoteDir:          "incoming",
		},
		Spool: SpoolConfig{
			Dir:               "./spool",
			RetentionHours:    24,
			SweepIntervalMins: 30,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9090",
		},
	}
}

// PollInterval returns Admission.PollIntervalSeconds as a time.Duration.
func (c *AdmissionConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// StaleThreshold returns Admission.StaleThresholdSeconds as a time.Duration.
func (c *AdmissionConfig) StaleThreshold() time.Duration {
	return time.Duration(c.StaleThresholdSeconds) * time.Second
}

// RetentionWindow returns Spool.RetentionHours as a time.Duration.
func (c *SpoolConfig) RetentionWindow() time.Duration {
	return time.Duration(c.RetentionHours) * time.Hour
}

// SweepInterval returns Spool.SweepIntervalMins as a time.Duration.
func (c *SpoolConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMins) * time.Minute
}

// DialTimeout returns Transfer.DialTimeoutSeconds as a time.Duration.
func (c *TransferConfig) DialTimeout() time.Duration {
	return time.Duration(c.DialTimeoutSeconds) * time.Second
}
