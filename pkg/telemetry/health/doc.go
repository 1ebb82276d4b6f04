/*
Package health provides liveness and readiness probes for the admin
server.

The Checker aggregates named component checks; the chat store and run
history register their Ping methods at startup. Register mounts the
standard endpoints:

	/health/live   — process liveness, always 200
	/health/ready  — runs all component checks, 503 when degraded
	/version       — build information
*/
package health
