/*
Package logging configures structured logging for Callisto.

All components log through log/slog with a shared default logger built
from the telemetry.logging configuration section. Components attach a
"component" attribute so log lines can be filtered per subsystem:

	logger := slog.Default().With("component", "chat.retention.cleaner")

Call Init once at startup to install the configured logger as the slog
default:

	logger, err := logging.Init(&cfg.Telemetry.Logging)
*/
package logging
