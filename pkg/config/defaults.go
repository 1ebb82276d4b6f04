package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Store defaults
	DefaultStorePath        = "data/chat.db"
	DefaultStoreMaxOpen     = 10
	DefaultStoreMaxIdle     = 5
	DefaultStoreWALMode     = true
	DefaultStoreBusyTimeout = 5 * time.Second

	// RunLog defaults
	DefaultRunLogEnabled = true
	DefaultRunLogPath    = "data/runlog.db"

	// Retention defaults
	DefaultRetentionHours        = 48
	DefaultRetentionSchedule     = "0 3 * * *"
	DefaultMessageBatchSize      = 100
	DefaultConversationBatchSize = 50
	DefaultMaxRunDuration        = 10 * time.Minute

	// Telemetry defaults
	DefaultLoggingLevel   = "info"
	DefaultLoggingFormat  = "json"
	DefaultMetricsEnabled = true
	DefaultMetricsPath    = "/metrics"
	DefaultMetricsNS      = "callisto"
)

// ApplyDefaults fills in default values for any unset configuration
// fields. It modifies the configuration in place.
func ApplyDefaults(cfg *Config) {
	// Server
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Store
	if cfg.Store.Path == "" {
		cfg.Store.Path = DefaultStorePath
	}
	if cfg.Store.MaxOpenConns == 0 {
		cfg.Store.MaxOpenConns = DefaultStoreMaxOpen
	}
	if cfg.Store.MaxIdleConns == 0 {
		cfg.Store.MaxIdleConns = DefaultStoreMaxIdle
	}
	if cfg.Store.WALMode == nil {
		walMode := DefaultStoreWALMode
		cfg.Store.WALMode = &walMode
	}
	if cfg.Store.BusyTimeout == 0 {
		cfg.Store.BusyTimeout = DefaultStoreBusyTimeout
	}

	// RunLog
	if cfg.RunLog.Enabled == nil {
		enabled := DefaultRunLogEnabled
		cfg.RunLog.Enabled = &enabled
	}
	if cfg.RunLog.Path == "" {
		cfg.RunLog.Path = DefaultRunLogPath
	}

	// Retention
	if cfg.Retention.Hours == 0 {
		cfg.Retention.Hours = DefaultRetentionHours
	}
	if cfg.Retention.Schedule == "" {
		cfg.Retention.Schedule = DefaultRetentionSchedule
	}
	if cfg.Retention.MessageBatchSize == 0 {
		cfg.Retention.MessageBatchSize = DefaultMessageBatchSize
	}
	if cfg.Retention.ConversationBatchSize == 0 {
		cfg.Retention.ConversationBatchSize = DefaultConversationBatchSize
	}
	if cfg.Retention.MaxRunDuration == 0 {
		cfg.Retention.MaxRunDuration = DefaultMaxRunDuration
	}

	// Telemetry
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Enabled == nil {
		enabled := DefaultMetricsEnabled
		cfg.Telemetry.Metrics.Enabled = &enabled
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNS
	}

	// Security
	for i := range cfg.Security.AdminKeys {
		if cfg.Security.AdminKeys[i].Enabled == nil {
			enabled := true
			cfg.Security.AdminKeys[i].Enabled = &enabled
		}
	}
}

// DefaultConfig returns a configuration with every field set to its
// default value.
func DefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
