package chat

import (
	"context"
	"time"
)

// Message is a single chat message belonging to a conversation.
type Message struct {
	// ID uniquely identifies the message (UUID v4).
	ID string `json:"id"`

	// ConversationID references the parent conversation. Never empty.
	ConversationID string `json:"conversation_id"`

	// CreatedAt is when the message was recorded.
	CreatedAt time.Time `json:"created_at"`
}

// Conversation groups messages exchanged in a single chat session.
type Conversation struct {
	// ID uniquely identifies the conversation (UUID v4).
	ID string `json:"id"`

	// CreatedAt is when the conversation was created.
	CreatedAt time.Time `json:"created_at"`

	// LastMessageAt is the timestamp of the most recent message.
	// Nil means no message has ever been recorded.
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
}

// CleanupStats summarizes a single cleanup run. It is produced fresh per
// invocation and never persisted by the core (the runlog package keeps an
// optional history).
type CleanupStats struct {
	// RetentionHours is the retention period the run used.
	RetentionHours int `json:"retention_hours"`

	// Cutoff is the dividing line between data to keep and data to delete.
	Cutoff time.Time `json:"cutoff"`

	// MessagesDeleted is the number of messages removed.
	MessagesDeleted int64 `json:"messages_deleted"`

	// ConversationsDeleted is the number of conversations removed.
	ConversationsDeleted int64 `json:"conversations_deleted"`

	// Errors holds descriptions of failures encountered during the run,
	// in the order they occurred. Empty on full success.
	Errors []string `json:"errors"`

	// StartedAt is the consistently captured "now" of the run. Both
	// cleanup phases derive their cutoff from this single timestamp.
	StartedAt time.Time `json:"started_at"`

	// Duration is the total wall-clock time of the run.
	Duration time.Duration `json:"duration_ms"`
}

// Failed reports whether any phase of the run recorded an error.
func (s *CleanupStats) Failed() bool {
	return len(s.Errors) > 0
}

// Store is the persistence contract consumed by the retention pipeline.
// Implementations must be safe for concurrent use.
type Store interface {
	// CreateConversation inserts a new conversation.
	CreateConversation(ctx context.Context, conv *Conversation) error

	// AppendMessage inserts a message and advances the parent
	// conversation's last-message timestamp.
	AppendMessage(ctx context.Context, msg *Message) error

	// ListExpiredMessageIDs returns up to limit IDs of messages created
	// before cutoff.
	ListExpiredMessageIDs(ctx context.Context, cutoff time.Time, limit int) ([]string, error)

	// DeleteMessages removes exactly the given messages.
	DeleteMessages(ctx context.Context, ids []string) error

	// ListExpiredConversationIDs returns up to limit IDs of conversations
	// eligible for deletion at cutoff: last activity before cutoff,
	// created before cutoff with no activity ever, or created before
	// cutoff with no remaining messages.
	ListExpiredConversationIDs(ctx context.Context, cutoff time.Time, limit int) ([]string, error)

	// DeleteConversations removes exactly the given conversations and,
	// atomically, all of their messages.
	DeleteConversations(ctx context.Context, ids []string) error

	// CountMessages returns the total number of stored messages.
	CountMessages(ctx context.Context) (int64, error)

	// CountConversations returns the total number of stored conversations.
	CountConversations(ctx context.Context) (int64, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases resources held by the backend.
	Close() error
}
