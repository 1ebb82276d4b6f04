package metrics

import (
	"mercator-hq/callisto/pkg/chat"
	"mercator-hq/callisto/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector owns all Prometheus metrics for the cleanup pipeline and
// implements the run observer the cleaner reports into.
//
// Metrics:
//   - callisto_cleanup_runs_total: Run count by trigger and status
//   - callisto_messages_deleted_total: Messages deleted across all runs
//   - callisto_conversations_deleted_total: Conversations deleted across all runs
//   - callisto_cleanup_run_duration_seconds: Run duration histogram by trigger
//   - callisto_cleanup_phase_errors_total: Phase errors across all runs
//   - callisto_cleanup_last_run_timestamp_seconds: Start time of the most recent run
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry
	enabled  bool

	runsTotal            *prometheus.CounterVec
	messagesDeleted      prometheus.Counter
	conversationsDeleted prometheus.Counter
	runDuration          *prometheus.HistogramVec
	phaseErrors          prometheus.Counter
	lastRunTimestamp     prometheus.Gauge
}

// NewCollector creates a metrics collector with the specified
// configuration and Prometheus registry. If registry is nil a new
// registry is created.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	namespace := cfg.Namespace
	if namespace == "" {
		namespace = config.DefaultMetricsNS
	}

	enabled := cfg.Enabled == nil || *cfg.Enabled

	c := &Collector{
		config:   cfg,
		registry: registry,
		enabled:  enabled,

		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cleanup_runs_total",
				Help:      "Total number of cleanup runs by trigger and status",
			},
			[]string{"trigger", "status"},
		),

		messagesDeleted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_deleted_total",
				Help:      "Total number of messages deleted by cleanup runs",
			},
		),

		conversationsDeleted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "conversations_deleted_total",
				Help:      "Total number of conversations deleted by cleanup runs",
			},
		),

		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "cleanup_run_duration_seconds",
				Help:      "Duration of cleanup runs in seconds",
				// Runs range from milliseconds on an idle store to the
				// 10 minute run bound under backlog.
				Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 15, 60, 300, 600},
			},
			[]string{"trigger"},
		),

		phaseErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cleanup_phase_errors_total",
				Help:      "Total number of phase errors recorded by cleanup runs",
			},
		),

		lastRunTimestamp: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "cleanup_last_run_timestamp_seconds",
				Help:      "Unix timestamp of the most recent cleanup run start",
			},
		),
	}

	registry.MustRegister(
		c.runsTotal,
		c.messagesDeleted,
		c.conversationsDeleted,
		c.runDuration,
		c.phaseErrors,
		c.lastRunTimestamp,
	)

	return c
}

// ObserveRun records metrics for a completed cleanup run. It satisfies
// the cleaner's observer interface.
func (c *Collector) ObserveRun(trigger string, stats *chat.CleanupStats) {
	if !c.enabled {
		return
	}

	status := "success"
	if stats.Failed() {
		status = "error"
	}

	c.runsTotal.WithLabelValues(trigger, status).Inc()
	c.messagesDeleted.Add(float64(stats.MessagesDeleted))
	c.conversationsDeleted.Add(float64(stats.ConversationsDeleted))
	c.runDuration.WithLabelValues(trigger).Observe(stats.Duration.Seconds())
	c.phaseErrors.Add(float64(len(stats.Errors)))
	c.lastRunTimestamp.Set(float64(stats.StartedAt.Unix()))
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
