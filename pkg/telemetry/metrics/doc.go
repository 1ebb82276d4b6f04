/*
Package metrics provides Prometheus metrics for the cleanup pipeline.

The Collector registers all cleanup metrics on a dedicated registry and
implements the observer interface the cleaner reports completed runs
into. Mount Collector.Handler() on the admin server to expose the
metrics endpoint.

# Metrics

	callisto_cleanup_runs_total{trigger,status}
	callisto_messages_deleted_total
	callisto_conversations_deleted_total
	callisto_cleanup_run_duration_seconds{trigger}
	callisto_cleanup_phase_errors_total
	callisto_cleanup_last_run_timestamp_seconds

The trigger label carries "scheduled", "manual", or "cli"; status is
"success" or "error". A run counts as an error when any phase recorded
an error, even though partial deletions were committed.
*/
package metrics
