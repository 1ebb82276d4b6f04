// Package telemetry provides observability for Mercator Callisto.
//
// # Overview
//
// The telemetry package implements structured logging, Prometheus metrics,
// and health check endpoints. It gives operators visibility into cleanup
// runs without adding measurable overhead to the data path.
//
// # Components
//
//   - logging: Structured logging built on log/slog
//   - metrics: Prometheus metrics for cleanup runs and deletions
//   - health: Liveness and readiness endpoints with pluggable checks
//
// # Usage
//
//	// Initialize logging from config
//	logger, err := logging.Init(&cfg.Telemetry.Logging)
//
//	// Collect cleanup metrics
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	cleaner.SetObserver(collector)
//
//	// Register health checks
//	checker := health.New(0)
//	checker.RegisterCheck("chat_store", store.Ping)
package telemetry
