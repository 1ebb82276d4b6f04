/*
Package server provides the admin HTTP server for Callisto.

The server exposes the manual cleanup trigger and the supporting
operational endpoints:

	POST /admin/cleanup  — trigger a cleanup run (admin key required)
	GET  /admin/runs     — list recorded cleanup runs (admin key required)
	GET  /health/live    — liveness probe
	GET  /health/ready   — readiness probe
	GET  /version        — build information
	GET  /metrics        — Prometheus metrics

Requests pass through recovery, request-ID, and logging middleware; the
admin routes additionally pass the API-key middleware before any handler
runs. A deployment with no configured admin keys serves only the probe
and metrics endpoints.
*/
package server
