package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mercator-hq/callisto/pkg/chat"
	"mercator-hq/callisto/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func testConfig() *config.MetricsConfig {
	enabled := true
	return &config.MetricsConfig{
		Enabled:   &enabled,
		Path:      "/metrics",
		Namespace: "test",
	}
}

func successStats() *chat.CleanupStats {
	return &chat.CleanupStats{
		RetentionHours:       48,
		Cutoff:               time.Date(2025, 12, 6, 3, 0, 0, 0, time.UTC),
		MessagesDeleted:      120,
		ConversationsDeleted: 7,
		Errors:               []string{},
		StartedAt:            time.Date(2025, 12, 8, 3, 0, 0, 0, time.UTC),
		Duration:             850 * time.Millisecond,
	}
}

func TestCollector_ObserveRun_Success(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.ObserveRun("scheduled", successStats())

	count := testutil.ToFloat64(collector.runsTotal.WithLabelValues("scheduled", "success"))
	if count != 1 {
		t.Errorf("expected 1 successful scheduled run, got %f", count)
	}
	if got := testutil.ToFloat64(collector.messagesDeleted); got != 120 {
		t.Errorf("expected 120 messages deleted, got %f", got)
	}
	if got := testutil.ToFloat64(collector.conversationsDeleted); got != 7 {
		t.Errorf("expected 7 conversations deleted, got %f", got)
	}
	if got := testutil.ToFloat64(collector.phaseErrors); got != 0 {
		t.Errorf("expected 0 phase errors, got %f", got)
	}

	wantTS := float64(time.Date(2025, 12, 8, 3, 0, 0, 0, time.UTC).Unix())
	if got := testutil.ToFloat64(collector.lastRunTimestamp); got != wantTS {
		t.Errorf("expected last run timestamp %f, got %f", wantTS, got)
	}
}

func TestCollector_ObserveRun_Error(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	stats := successStats()
	stats.Errors = []string{"message phase: storage error", "conversation phase: storage error"}
	collector.ObserveRun("manual", stats)

	count := testutil.ToFloat64(collector.runsTotal.WithLabelValues("manual", "error"))
	if count != 1 {
		t.Errorf("expected 1 failed manual run, got %f", count)
	}
	if got := testutil.ToFloat64(collector.phaseErrors); got != 2 {
		t.Errorf("expected 2 phase errors, got %f", got)
	}

	// Partial deletions still count even when the run failed.
	if got := testutil.ToFloat64(collector.messagesDeleted); got != 120 {
		t.Errorf("expected 120 messages deleted, got %f", got)
	}
}

func TestCollector_Disabled(t *testing.T) {
	cfg := testConfig()
	enabled := false
	cfg.Enabled = &enabled

	collector := NewCollector(cfg, prometheus.NewRegistry())
	collector.ObserveRun("cli", successStats())

	if got := testutil.ToFloat64(collector.messagesDeleted); got != 0 {
		t.Errorf("expected no metrics recorded when disabled, got %f", got)
	}
}

func TestCollector_Handler(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.ObserveRun("scheduled", successStats())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	body := rec.Body.String()
	for _, want := range []string{
		"test_cleanup_runs_total",
		"test_messages_deleted_total",
		"test_cleanup_run_duration_seconds",
		"test_cleanup_last_run_timestamp_seconds",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected metric %q in exposition output", want)
		}
	}
}
