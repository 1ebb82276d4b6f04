package retention

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the cleaner on a cron schedule (e.g. daily at 3 AM),
// independent of any request path. It is constructed and owned by the
// host at startup and has an explicit Start/Stop lifecycle.
type Scheduler struct {
	cleaner  *Cleaner
	schedule string
	cron     *cron.Cron
	mu       sync.Mutex
	logger   *slog.Logger
	running  bool
}

// NewScheduler creates a cleanup scheduler for the given cleaner.
func NewScheduler(cleaner *Cleaner, schedule string) *Scheduler {
	return &Scheduler{
		cleaner:  cleaner,
		schedule: schedule,
		cron:     cron.New(),
		logger:   slog.Default().With("component", "chat.retention.scheduler"),
	}
}

// Start begins scheduled cleanup based on the cron expression.
//
// Common expressions:
//   - "0 3 * * *"    - Daily at 3 AM
//   - "0 0 * * 0"    - Weekly on Sunday at midnight
//
// If the schedule is empty, Start does nothing and returns nil: cleanup
// becomes manual-only.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("cleanup schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	_, err := s.cron.AddFunc(s.schedule, func() {
		s.runCleanup(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule cleanup: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("cleanup scheduler started",
		"schedule", s.schedule,
		"retention_hours", s.cleaner.DefaultRetentionHours(),
	)

	// Stop the scheduler when the host shuts down.
	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// runCleanup executes one scheduled cleanup with the default retention.
// Results are logged only; no caller awaits them.
func (s *Scheduler) runCleanup(ctx context.Context) {
	s.logger.Info("starting scheduled cleanup")

	stats, err := s.cleaner.Run(ctx, TriggerScheduled, s.cleaner.DefaultRetentionHours(), time.Now())
	if err != nil {
		// ErrCleanupInProgress here means a manual run overlapped the
		// schedule; the scheduled run degrades to a no-op.
		s.logger.Error("scheduled cleanup did not run", "error", err)
		return
	}

	if stats.Failed() {
		s.logger.Error("scheduled cleanup completed with errors",
			"messages_deleted", stats.MessagesDeleted,
			"conversations_deleted", stats.ConversationsDeleted,
			"errors", stats.Errors,
		)
	} else {
		s.logger.Info("scheduled cleanup completed",
			"messages_deleted", stats.MessagesDeleted,
			"conversations_deleted", stats.ConversationsDeleted,
		)
	}
}

// Stop stops the scheduler and waits for any running job to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		ctx := s.cron.Stop()
		<-ctx.Done() // Wait for running jobs to finish
		s.running = false
		s.logger.Info("cleanup scheduler stopped")
	}
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// NextRun returns the next scheduled cleanup time, or nil when the
// scheduler is not running.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}

	next := entries[0].Next
	return &next
}
