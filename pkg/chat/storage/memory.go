package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"mercator-hq/callisto/pkg/chat"
)

// MemoryStore implements the chat.Store interface using in-memory maps.
// This implementation is intended for testing only and should not be used
// in production.
type MemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]*chat.Conversation
	messages      map[string]*chat.Message
}

// NewMemoryStore creates a new in-memory storage backend.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[string]*chat.Conversation),
		messages:      make(map[string]*chat.Message),
	}
}

// CreateConversation inserts a new conversation.
func (s *MemoryStore) CreateConversation(ctx context.Context, conv *chat.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[conv.ID]; ok {
		return chat.NewStorageError("memory", "create_conversation",
			fmt.Errorf("conversation %s already exists", conv.ID))
	}

	convCopy := *conv
	s.conversations[conv.ID] = &convCopy
	return nil
}

// AppendMessage inserts a message and advances the parent conversation's
// last-message timestamp.
func (s *MemoryStore) AppendMessage(ctx context.Context, msg *chat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[msg.ConversationID]
	if !ok {
		return chat.NewStorageError("memory", "append_message",
			fmt.Errorf("conversation %s not found", msg.ConversationID))
	}

	msgCopy := *msg
	s.messages[msg.ID] = &msgCopy

	if conv.LastMessageAt == nil || conv.LastMessageAt.Before(msg.CreatedAt) {
		t := msg.CreatedAt
		conv.LastMessageAt = &t
	}
	return nil
}

// ListExpiredMessageIDs returns up to limit IDs of messages created before cutoff.
func (s *MemoryStore) ListExpiredMessageIDs(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var candidates []*chat.Message
	for _, msg := range s.messages {
		if msg.CreatedAt.Before(cutoff) {
			candidates = append(candidates, msg)
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})

	ids := make([]string, 0, limit)
	for _, msg := range candidates {
		if len(ids) == limit {
			break
		}
		ids = append(ids, msg.ID)
	}
	return ids, nil
}

// DeleteMessages removes exactly the given messages.
func (s *MemoryStore) DeleteMessages(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		delete(s.messages, id)
	}
	return nil
}

// ListExpiredConversationIDs returns up to limit IDs of conversations that
// are stale or orphaned at the cutoff.
func (s *MemoryStore) ListExpiredConversationIDs(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var candidates []*chat.Conversation
	for _, conv := range s.conversations {
		if s.expiredLocked(conv, cutoff) {
			candidates = append(candidates, conv)
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})

	ids := make([]string, 0, limit)
	for _, conv := range candidates {
		if len(ids) == limit {
			break
		}
		ids = append(ids, conv.ID)
	}
	return ids, nil
}

// expiredLocked evaluates the conversation retention predicate. Callers must
// hold at least a read lock.
func (s *MemoryStore) expiredLocked(conv *chat.Conversation, cutoff time.Time) bool {
	// Stale with activity.
	if conv.LastMessageAt != nil && conv.LastMessageAt.Before(cutoff) {
		return true
	}
	// Stale, never had activity.
	if conv.LastMessageAt == nil && conv.CreatedAt.Before(cutoff) {
		return true
	}
	// Orphaned: old enough and no remaining messages.
	if conv.CreatedAt.Before(cutoff) && !s.hasMessagesLocked(conv.ID) {
		return true
	}
	return false
}

func (s *MemoryStore) hasMessagesLocked(conversationID string) bool {
	for _, msg := range s.messages {
		if msg.ConversationID == conversationID {
			return true
		}
	}
	return false
}

// DeleteConversations removes exactly the given conversations along with
// all of their messages, mirroring the SQLite cascade.
func (s *MemoryStore) DeleteConversations(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		delete(s.conversations, id)
		for msgID, msg := range s.messages {
			if msg.ConversationID == id {
				delete(s.messages, msgID)
			}
		}
	}
	return nil
}

// CountMessages returns the total number of stored messages.
func (s *MemoryStore) CountMessages(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.messages)), nil
}

// CountConversations returns the total number of stored conversations.
func (s *MemoryStore) CountConversations(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.conversations)), nil
}

// Ping always succeeds for the memory backend.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close releases the stored data.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversations = make(map[string]*chat.Conversation)
	s.messages = make(map[string]*chat.Message)
	return nil
}
