package retention

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"mercator-hq/callisto/pkg/chat"
)

// ErrCleanupInProgress is returned when a cleanup run is requested while
// another run is still executing. The second caller performs no deletions.
var ErrCleanupInProgress = errors.New("cleanup already in progress")

// Trigger identifies what initiated a cleanup run.
type Trigger string

const (
	// TriggerScheduled marks runs started by the cron scheduler.
	TriggerScheduled Trigger = "scheduled"
	// TriggerManual marks runs started through the admin API.
	TriggerManual Trigger = "manual"
	// TriggerCLI marks runs started from the command line.
	TriggerCLI Trigger = "cli"
)

// Config contains configuration for the cleanup pipeline.
type Config struct {
	// RetentionHours is the default retention period in hours.
	RetentionHours int

	// Schedule is a cron expression for scheduled cleanup.
	// Example: "0 3 * * *" (daily at 3 AM). Empty disables scheduling.
	Schedule string

	// MessageBatchSize bounds each message deletion batch.
	MessageBatchSize int

	// ConversationBatchSize bounds each conversation deletion batch.
	ConversationBatchSize int

	// MaxRunDuration bounds the wall-clock time of a run. On expiry the
	// in-flight phase is aborted and recorded as a phase error;
	// already-committed batches are preserved. 0 means no bound.
	MaxRunDuration time.Duration
}

// DefaultConfig returns the default cleanup configuration.
func DefaultConfig() *Config {
	return &Config{
		RetentionHours:        48,
		Schedule:              "0 3 * * *",
		MessageBatchSize:      DefaultMessageBatchSize,
		ConversationBatchSize: DefaultConversationBatchSize,
		MaxRunDuration:        10 * time.Minute,
	}
}

// RunRecorder persists cleanup run history. Implementations must not
// assume they can fail the run; recording errors are logged and dropped.
type RunRecorder interface {
	RecordRun(ctx context.Context, trigger string, stats *chat.CleanupStats) error
}

// Observer receives the stats of every completed run, typically to update
// metrics.
type Observer interface {
	ObserveRun(trigger string, stats *chat.CleanupStats)
}

// Cleaner orchestrates the two-phase cleanup: message reaping followed by
// conversation reaping. A single-flight gate rejects concurrent runs.
type Cleaner struct {
	store         chat.Store
	messages      *MessageReaper
	conversations *ConversationReaper
	logger        *slog.Logger

	mu             sync.RWMutex
	retentionHours int
	maxRunDuration time.Duration

	recorder RunRecorder
	observer Observer

	inProgress atomic.Bool
}

// NewCleaner creates a cleanup orchestrator over the given store.
func NewCleaner(store chat.Store, config *Config) *Cleaner {
	if config == nil {
		config = DefaultConfig()
	}

	return &Cleaner{
		store:          store,
		messages:       NewMessageReaper(store, config.MessageBatchSize),
		conversations:  NewConversationReaper(store, config.ConversationBatchSize),
		logger:         slog.Default().With("component", "chat.retention.cleaner"),
		retentionHours: config.RetentionHours,
		maxRunDuration: config.MaxRunDuration,
	}
}

// SetRunRecorder attaches a run history recorder. Call before Run.
func (c *Cleaner) SetRunRecorder(r RunRecorder) {
	c.recorder = r
}

// SetObserver attaches a run observer. Call before Run.
func (c *Cleaner) SetObserver(o Observer) {
	c.observer = o
}

// DefaultRetentionHours returns the currently configured default
// retention period.
func (c *Cleaner) DefaultRetentionHours() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.retentionHours
}

// SetDefaultRetentionHours updates the default retention period for
// subsequent runs. Non-positive values are rejected.
func (c *Cleaner) SetDefaultRetentionHours(hours int) error {
	if err := ValidateRetention(hours); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if hours != c.retentionHours {
		c.logger.Info("default retention updated",
			"old_hours", c.retentionHours,
			"new_hours", hours,
		)
		c.retentionHours = hours
	}
	return nil
}

// Run executes one cleanup: message phase, then conversation phase.
//
// Run fails fast, before any deletion, on an invalid retention period or
// when another run is in progress. Once started it always returns stats:
// a store failure in either phase is recorded in Stats.Errors, the other
// phase still executes, and counts from already-committed batches are
// preserved. Both phases use the cutoff derived from the single now
// argument.
func (c *Cleaner) Run(ctx context.Context, trigger Trigger, retentionHours int, now time.Time) (*chat.CleanupStats, error) {
	if err := ValidateRetention(retentionHours); err != nil {
		return nil, err
	}

	if !c.inProgress.CompareAndSwap(false, true) {
		return nil, ErrCleanupInProgress
	}
	defer c.inProgress.Store(false)

	c.mu.RLock()
	maxRunDuration := c.maxRunDuration
	c.mu.RUnlock()

	if maxRunDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, maxRunDuration)
		defer cancel()
	}

	stats := &chat.CleanupStats{
		RetentionHours: retentionHours,
		Cutoff:         Cutoff(retentionHours, now),
		Errors:         []string{},
		StartedAt:      now,
	}

	c.logger.Info("cleanup run started",
		"trigger", trigger,
		"retention_hours", retentionHours,
		"cutoff", stats.Cutoff,
	)

	started := time.Now()

	deleted, err := c.messages.Reap(ctx, stats.Cutoff)
	stats.MessagesDeleted = deleted
	if err != nil {
		stats.Errors = append(stats.Errors, fmt.Sprintf("message phase: %v", err))
	}

	// The conversation phase runs even if the message phase failed; the
	// two operate on largely independent row sets and reclaiming space
	// matters more than strict phase ordering on the failure path.
	deleted, err = c.conversations.Reap(ctx, stats.Cutoff)
	stats.ConversationsDeleted = deleted
	if err != nil {
		stats.Errors = append(stats.Errors, fmt.Sprintf("conversation phase: %v", err))
	}

	stats.Duration = time.Since(started)

	if stats.Failed() {
		c.logger.Error("cleanup run completed with errors",
			"trigger", trigger,
			"messages_deleted", stats.MessagesDeleted,
			"conversations_deleted", stats.ConversationsDeleted,
			"errors", stats.Errors,
			"duration", stats.Duration,
		)
	} else {
		c.logger.Info("cleanup run completed",
			"trigger", trigger,
			"messages_deleted", stats.MessagesDeleted,
			"conversations_deleted", stats.ConversationsDeleted,
			"duration", stats.Duration,
		)
	}

	if c.observer != nil {
		c.observer.ObserveRun(string(trigger), stats)
	}
	if c.recorder != nil {
		// Run history is best-effort; a recording failure must not fail
		// the cleanup. Recording survives a run-timeout cancellation.
		if err := c.recorder.RecordRun(context.WithoutCancel(ctx), string(trigger), stats); err != nil {
			c.logger.Warn("failed to record cleanup run", "error", err)
		}
	}

	return stats, nil
}
