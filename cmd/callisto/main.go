// Callisto is a retention-driven data lifecycle manager for chat data.
//
// It enforces a configurable retention period on a chat database,
// deleting expired messages and conversations in bounded batches:
//   - Scheduled cleanup on a cron expression (default daily at 3 AM)
//   - Manual cleanup through an authenticated admin HTTP API
//   - One-off cleanup from the command line
//   - Persisted run history, Prometheus metrics, and health probes
//
// Usage:
//
//	# Start the service with default configuration
//	callisto run
//
//	# Start with a custom configuration file
//	callisto run --config /path/to/config.yaml
//
//	# Run one cleanup synchronously and print the stats
//	callisto cleanup --retention-hours 24
//
//	# List recorded cleanup runs
//	callisto runs --limit 10
//
//	# Show version information
//	callisto version
//
// For complete documentation, see: https://github.com/mercator-hq/callisto
package main

func main() {
	Execute()
}
