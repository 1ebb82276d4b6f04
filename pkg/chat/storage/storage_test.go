package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"mercator-hq/callisto/pkg/chat"
)

// newBackends returns a fresh instance of every Store backend under test.
func newBackends(t *testing.T) map[string]chat.Store {
	t.Helper()

	sqlite, err := NewSQLiteStore(&SQLiteConfig{
		Path:         filepath.Join(t.TempDir(), "chat.db"),
		MaxOpenConns: 2,
		MaxIdleConns: 1,
		WALMode:      true,
		BusyTimeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("NewSQLiteStore() failed: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	memory := NewMemoryStore()
	t.Cleanup(func() { memory.Close() })

	return map[string]chat.Store{
		"sqlite": sqlite,
		"memory": memory,
	}
}

func mustCreateConversation(t *testing.T, store chat.Store, id string, createdAt time.Time) {
	t.Helper()
	err := store.CreateConversation(context.Background(), &chat.Conversation{
		ID:        id,
		CreatedAt: createdAt,
	})
	if err != nil {
		t.Fatalf("CreateConversation(%s) failed: %v", id, err)
	}
}

func mustAppendMessage(t *testing.T, store chat.Store, id, convID string, createdAt time.Time) {
	t.Helper()
	err := store.AppendMessage(context.Background(), &chat.Message{
		ID:             id,
		ConversationID: convID,
		CreatedAt:      createdAt,
	})
	if err != nil {
		t.Fatalf("AppendMessage(%s) failed: %v", id, err)
	}
}

func TestStore_ListExpiredMessageIDs(t *testing.T) {
	for name, store := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			now := time.Now().UTC()
			cutoff := now.Add(-48 * time.Hour)

			mustCreateConversation(t, store, "conv-1", now.Add(-100*time.Hour))
			mustAppendMessage(t, store, "msg-old-1", "conv-1", now.Add(-72*time.Hour))
			mustAppendMessage(t, store, "msg-old-2", "conv-1", now.Add(-60*time.Hour))
			mustAppendMessage(t, store, "msg-recent", "conv-1", now.Add(-1*time.Hour))

			ids, err := store.ListExpiredMessageIDs(ctx, cutoff, 10)
			if err != nil {
				t.Fatalf("ListExpiredMessageIDs() failed: %v", err)
			}
			if len(ids) != 2 {
				t.Fatalf("expected 2 expired messages, got %d (%v)", len(ids), ids)
			}
			// Oldest first.
			if ids[0] != "msg-old-1" || ids[1] != "msg-old-2" {
				t.Errorf("expected oldest-first order, got %v", ids)
			}

			// Limit is honored.
			ids, err = store.ListExpiredMessageIDs(ctx, cutoff, 1)
			if err != nil {
				t.Fatalf("ListExpiredMessageIDs(limit=1) failed: %v", err)
			}
			if len(ids) != 1 {
				t.Errorf("expected 1 id with limit 1, got %d", len(ids))
			}
		})
	}
}

func TestStore_DeleteMessages(t *testing.T) {
	for name, store := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			now := time.Now().UTC()

			mustCreateConversation(t, store, "conv-1", now)
			mustAppendMessage(t, store, "msg-1", "conv-1", now)
			mustAppendMessage(t, store, "msg-2", "conv-1", now)
			mustAppendMessage(t, store, "msg-3", "conv-1", now)

			if err := store.DeleteMessages(ctx, []string{"msg-1", "msg-3"}); err != nil {
				t.Fatalf("DeleteMessages() failed: %v", err)
			}

			count, err := store.CountMessages(ctx)
			if err != nil {
				t.Fatalf("CountMessages() failed: %v", err)
			}
			if count != 1 {
				t.Errorf("expected 1 remaining message, got %d", count)
			}

			// Deleting an empty batch is a no-op.
			if err := store.DeleteMessages(ctx, nil); err != nil {
				t.Errorf("DeleteMessages(nil) failed: %v", err)
			}
		})
	}
}

func TestStore_ListExpiredConversationIDs(t *testing.T) {
	for name, store := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			now := time.Now().UTC()
			cutoff := now.Add(-48 * time.Hour)

			// Stale with activity: old last message.
			mustCreateConversation(t, store, "conv-stale", now.Add(-200*time.Hour))
			mustAppendMessage(t, store, "msg-stale", "conv-stale", now.Add(-100*time.Hour))

			// Active: recent last message.
			mustCreateConversation(t, store, "conv-active", now.Add(-200*time.Hour))
			mustAppendMessage(t, store, "msg-active", "conv-active", now.Add(-1*time.Hour))

			// Never active, created before cutoff.
			mustCreateConversation(t, store, "conv-empty-old", now.Add(-100*time.Hour))

			// Never active, created after cutoff: must survive.
			mustCreateConversation(t, store, "conv-empty-new", now.Add(-1*time.Hour))

			ids, err := store.ListExpiredConversationIDs(ctx, cutoff, 10)
			if err != nil {
				t.Fatalf("ListExpiredConversationIDs() failed: %v", err)
			}

			got := make(map[string]bool, len(ids))
			for _, id := range ids {
				got[id] = true
			}

			if !got["conv-stale"] {
				t.Error("conversation with stale activity should be expired")
			}
			if !got["conv-empty-old"] {
				t.Error("old conversation with no activity should be expired")
			}
			if got["conv-active"] {
				t.Error("conversation with recent activity should not be expired")
			}
			if got["conv-empty-new"] {
				t.Error("recently created empty conversation should not be expired")
			}
		})
	}
}

func TestStore_OrphanAfterMessageDeletion(t *testing.T) {
	for name, store := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			now := time.Now().UTC()
			cutoff := now.Add(-48 * time.Hour)

			// An old conversation whose only message gets reaped becomes
			// an orphan and must be listed as expired.
			mustCreateConversation(t, store, "conv-orphan", now.Add(-100*time.Hour))
			mustAppendMessage(t, store, "msg-gone", "conv-orphan", now.Add(-90*time.Hour))

			if err := store.DeleteMessages(ctx, []string{"msg-gone"}); err != nil {
				t.Fatalf("DeleteMessages() failed: %v", err)
			}

			ids, err := store.ListExpiredConversationIDs(ctx, cutoff, 10)
			if err != nil {
				t.Fatalf("ListExpiredConversationIDs() failed: %v", err)
			}
			if len(ids) != 1 || ids[0] != "conv-orphan" {
				t.Errorf("expected [conv-orphan], got %v", ids)
			}
		})
	}
}

func TestStore_DeleteConversationsCascades(t *testing.T) {
	for name, store := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			now := time.Now().UTC()

			mustCreateConversation(t, store, "conv-1", now)
			mustAppendMessage(t, store, "msg-1", "conv-1", now)
			mustAppendMessage(t, store, "msg-2", "conv-1", now)

			mustCreateConversation(t, store, "conv-2", now)
			mustAppendMessage(t, store, "msg-3", "conv-2", now)

			if err := store.DeleteConversations(ctx, []string{"conv-1"}); err != nil {
				t.Fatalf("DeleteConversations() failed: %v", err)
			}

			msgCount, err := store.CountMessages(ctx)
			if err != nil {
				t.Fatalf("CountMessages() failed: %v", err)
			}
			if msgCount != 1 {
				t.Errorf("expected cascade to leave 1 message, got %d", msgCount)
			}

			convCount, err := store.CountConversations(ctx)
			if err != nil {
				t.Fatalf("CountConversations() failed: %v", err)
			}
			if convCount != 1 {
				t.Errorf("expected 1 remaining conversation, got %d", convCount)
			}
		})
	}
}

func TestStore_AppendMessageAdvancesLastMessageAt(t *testing.T) {
	for name, store := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			now := time.Now().UTC()
			cutoff := now.Add(-48 * time.Hour)

			// The conversation is old, but a fresh message must keep it
			// out of the expired set.
			mustCreateConversation(t, store, "conv-1", now.Add(-100*time.Hour))
			mustAppendMessage(t, store, "msg-old", "conv-1", now.Add(-90*time.Hour))
			mustAppendMessage(t, store, "msg-new", "conv-1", now.Add(-1*time.Hour))

			ids, err := store.ListExpiredConversationIDs(ctx, cutoff, 10)
			if err != nil {
				t.Fatalf("ListExpiredConversationIDs() failed: %v", err)
			}
			if len(ids) != 0 {
				t.Errorf("expected no expired conversations, got %v", ids)
			}
		})
	}
}

func TestSQLiteStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.db")
	cfg := &SQLiteConfig{Path: path, WALMode: true, BusyTimeout: time.Second}

	store, err := NewSQLiteStore(cfg)
	if err != nil {
		t.Fatalf("NewSQLiteStore() failed: %v", err)
	}

	ctx := context.Background()
	now := time.Now().UTC()
	mustCreateConversation(t, store, "conv-1", now)
	mustAppendMessage(t, store, "msg-1", "conv-1", now)

	if err := store.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	reopened, err := NewSQLiteStore(cfg)
	if err != nil {
		t.Fatalf("NewSQLiteStore() reopen failed: %v", err)
	}
	defer reopened.Close()

	count, err := reopened.CountMessages(ctx)
	if err != nil {
		t.Fatalf("CountMessages() failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 message after reopen, got %d", count)
	}
}

func TestSQLiteStore_CascadeOnEveryPooledConnection(t *testing.T) {
	store, err := NewSQLiteStore(&SQLiteConfig{
		Path:         filepath.Join(t.TempDir(), "chat.db"),
		MaxOpenConns: 2,
		MaxIdleConns: 2,
		WALMode:      true,
		BusyTimeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("NewSQLiteStore() failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	now := time.Now().UTC()
	mustCreateConversation(t, store, "conv-1", now.Add(-72*time.Hour))
	mustAppendMessage(t, store, "msg-1", "conv-1", now.Add(-72*time.Hour))

	// Pin the connection that ran the schema setup so the delete below
	// is forced onto a second, freshly opened pooled connection.
	conn, err := store.db.Conn(ctx)
	if err != nil {
		t.Fatalf("Conn() failed: %v", err)
	}
	defer conn.Close()

	if err := store.DeleteConversations(ctx, []string{"conv-1"}); err != nil {
		t.Fatalf("DeleteConversations() failed: %v", err)
	}

	count, err := store.CountMessages(ctx)
	if err != nil {
		t.Fatalf("CountMessages() failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected cascade to fire on every pooled connection, %d orphan message(s) remain", count)
	}
}
