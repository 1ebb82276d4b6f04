package config

import "time"

// Config is the root configuration structure for Callisto. It contains
// all configuration sections for the admin HTTP server, chat storage,
// retention enforcement, telemetry, and security settings.
type Config struct {
	// Server contains HTTP server configuration for the admin API,
	// health, and metrics endpoints.
	Server ServerConfig `yaml:"server"`

	// Store contains configuration for the chat database.
	Store StoreConfig `yaml:"store"`

	// RunLog contains configuration for the cleanup run history.
	RunLog RunLogConfig `yaml:"runlog"`

	// Retention contains configuration for the cleanup pipeline.
	Retention RetentionConfig `yaml:"retention"`

	// Telemetry contains configuration for logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Security contains the admin API keys guarding the trigger
	// endpoint.
	Security SecurityConfig `yaml:"security"`
}

// ServerConfig contains configuration for the admin HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:8080").
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire
	// request. Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of
	// the response. Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum time to wait for the next request when
	// keep-alives are enabled. Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful
	// shutdown. Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StoreConfig contains configuration for the chat database.
type StoreConfig struct {
	// Path is the SQLite database file path.
	// Default: "data/chat.db"
	Path string `yaml:"path"`

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables Write-Ahead Logging. Default: true
	WALMode *bool `yaml:"wal_mode"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RunLogConfig contains configuration for the cleanup run history.
type RunLogConfig struct {
	// Enabled controls whether run history is recorded.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Path is the run history database file path.
	// Default: "data/runlog.db"
	Path string `yaml:"path"`
}

// RetentionConfig contains configuration for the cleanup pipeline.
type RetentionConfig struct {
	// Hours is the default retention period in hours. Data older than
	// this is deleted. Default: 48
	Hours int `yaml:"hours"`

	// Schedule is a cron expression for scheduled cleanup.
	// Default: "0 3 * * *" (daily at 3 AM). Empty disables scheduling.
	Schedule string `yaml:"schedule"`

	// MessageBatchSize bounds each message deletion batch.
	// Default: 100
	MessageBatchSize int `yaml:"message_batch_size"`

	// ConversationBatchSize bounds each conversation deletion batch.
	// Default: 50
	ConversationBatchSize int `yaml:"conversation_batch_size"`

	// MaxRunDuration bounds the wall-clock time of one cleanup run.
	// 0 disables the bound. Default: 10m
	MaxRunDuration time.Duration `yaml:"max_run_duration"`

	// Watch enables hot-reloading retention settings when the config
	// file changes. Default: false
	Watch bool `yaml:"watch"`
}

// TelemetryConfig contains configuration for logging and metrics.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level ("debug", "info", "warn", "error").
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format ("json", "text").
	// Default: "json"
	Format string `yaml:"format"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether the /metrics endpoint is served.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Path is the metrics endpoint path. Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix. Default: "callisto"
	Namespace string `yaml:"namespace"`
}

// SecurityConfig contains security-related configuration.
type SecurityConfig struct {
	// AdminKeys lists the API keys allowed to call the admin endpoints.
	// An empty list disables the admin API entirely.
	AdminKeys []AdminKeyConfig `yaml:"admin_keys"`
}

// AdminKeyConfig describes one admin API key.
type AdminKeyConfig struct {
	// Key is the API key value. Typically injected via environment
	// override rather than committed in the file.
	Key string `yaml:"key"`

	// UserID identifies the key owner in logs.
	UserID string `yaml:"user_id"`

	// Enabled controls whether the key is accepted. Default: true
	Enabled *bool `yaml:"enabled"`
}
