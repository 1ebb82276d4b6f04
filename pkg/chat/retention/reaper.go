package retention

import (
	"context"
	"log/slog"
	"time"

	"mercator-hq/callisto/pkg/chat"
)

const (
	// DefaultMessageBatchSize bounds each message deletion batch.
	DefaultMessageBatchSize = 100

	// DefaultConversationBatchSize bounds each conversation deletion
	// batch. Conversation deletes cascade to messages, so batches are
	// kept smaller.
	DefaultConversationBatchSize = 50
)

// MessageReaper deletes messages created before a cutoff.
type MessageReaper struct {
	store     chat.Store
	batchSize int
	logger    *slog.Logger
}

// NewMessageReaper creates a message reaper. A non-positive batchSize
// falls back to DefaultMessageBatchSize.
func NewMessageReaper(store chat.Store, batchSize int) *MessageReaper {
	if batchSize <= 0 {
		batchSize = DefaultMessageBatchSize
	}
	return &MessageReaper{
		store:     store,
		batchSize: batchSize,
		logger:    slog.Default().With("component", "chat.retention.messages"),
	}
}

// Reap deletes all messages created before cutoff and returns the number
// deleted. It does not touch conversation rows; emptied conversations are
// picked up by the ConversationReaper, which must run afterward.
func (r *MessageReaper) Reap(ctx context.Context, cutoff time.Time) (int64, error) {
	deleter := NewBatchDeleter(r.batchSize,
		func(ctx context.Context, limit int) ([]string, error) {
			return r.store.ListExpiredMessageIDs(ctx, cutoff, limit)
		},
		r.store.DeleteMessages,
	)

	deleted, batches, err := deleter.Run(ctx)
	if deleted > 0 || err != nil {
		r.logger.Info("message reap finished",
			"deleted", deleted,
			"batches", batches,
			"cutoff", cutoff,
			"error", err,
		)
	}
	return deleted, err
}

// ConversationReaper deletes conversations that are stale or orphaned at
// a cutoff. Deleting a conversation removes its remaining messages via
// the store's cascade guarantee.
type ConversationReaper struct {
	store     chat.Store
	batchSize int
	logger    *slog.Logger
}

// NewConversationReaper creates a conversation reaper. A non-positive
// batchSize falls back to DefaultConversationBatchSize.
func NewConversationReaper(store chat.Store, batchSize int) *ConversationReaper {
	if batchSize <= 0 {
		batchSize = DefaultConversationBatchSize
	}
	return &ConversationReaper{
		store:     store,
		batchSize: batchSize,
		logger:    slog.Default().With("component", "chat.retention.conversations"),
	}
}

// Reap deletes all conversations eligible at cutoff and returns the
// number deleted.
func (r *ConversationReaper) Reap(ctx context.Context, cutoff time.Time) (int64, error) {
	deleter := NewBatchDeleter(r.batchSize,
		func(ctx context.Context, limit int) ([]string, error) {
			return r.store.ListExpiredConversationIDs(ctx, cutoff, limit)
		},
		r.store.DeleteConversations,
	)

	deleted, batches, err := deleter.Run(ctx)
	if deleted > 0 || err != nil {
		r.logger.Info("conversation reap finished",
			"deleted", deleted,
			"batches", batches,
			"cutoff", cutoff,
			"error", err,
		)
	}
	return deleted, err
}
