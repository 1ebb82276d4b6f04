package retention

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"mercator-hq/callisto/pkg/chat"
	"mercator-hq/callisto/pkg/chat/storage"
)

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

// brokenMessageStore fails every message listing, simulating a store
// outage confined to the message phase.
type brokenMessageStore struct {
	chat.Store
}

func (s *brokenMessageStore) ListExpiredMessageIDs(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	return nil, chat.NewStorageError("memory", "list_expired_messages", errors.New("disk on fire"))
}

// blockingStore parks message listings until released, to hold a run open.
type blockingStore struct {
	chat.Store
	entered   chan struct{}
	release   chan struct{}
	enterOnce sync.Once
}

func (s *blockingStore) ListExpiredMessageIDs(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	s.enterOnce.Do(func() { close(s.entered) })
	select {
	case <-s.release:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestCleaner_EndToEnd(t *testing.T) {
	// Retention 24h at 2025-12-08T02:00:00Z: one expired message in one
	// conversation, one fresh message in another.
	now := time.Date(2025, 12, 8, 2, 0, 0, 0, time.UTC)
	ctx := context.Background()

	store := storage.NewMemoryStore()
	mustCreateConversation(t, store, "conv-expired", time.Date(2025, 12, 5, 23, 0, 0, 0, time.UTC))
	mustAppendMessage(t, store, "msg-expired", "conv-expired", time.Date(2025, 12, 6, 0, 0, 0, 0, time.UTC))
	mustCreateConversation(t, store, "conv-fresh", time.Date(2025, 12, 8, 0, 30, 0, 0, time.UTC))
	mustAppendMessage(t, store, "msg-fresh", "conv-fresh", time.Date(2025, 12, 8, 1, 0, 0, 0, time.UTC))

	cleaner := NewCleaner(store, DefaultConfig())
	stats, err := cleaner.Run(ctx, TriggerManual, 24, now)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if len(stats.Errors) != 0 {
		t.Errorf("Errors = %v, want none", stats.Errors)
	}
	if stats.MessagesDeleted != 1 {
		t.Errorf("MessagesDeleted = %d, want 1", stats.MessagesDeleted)
	}
	// The expired message's conversation went stale with it and is
	// reclaimed in the same run.
	if stats.ConversationsDeleted != 1 {
		t.Errorf("ConversationsDeleted = %d, want 1", stats.ConversationsDeleted)
	}

	wantCutoff := time.Date(2025, 12, 7, 2, 0, 0, 0, time.UTC)
	if !stats.Cutoff.Equal(wantCutoff) {
		t.Errorf("Cutoff = %v, want %v", stats.Cutoff, wantCutoff)
	}

	msgCount, _ := store.CountMessages(ctx)
	convCount, _ := store.CountConversations(ctx)
	if msgCount != 1 || convCount != 1 {
		t.Errorf("store left with %d messages, %d conversations; want 1 and 1", msgCount, convCount)
	}
}

func TestCleaner_Idempotent(t *testing.T) {
	now := time.Now().UTC()
	ctx := context.Background()

	store := storage.NewMemoryStore()
	mustCreateConversation(t, store, "conv-1", now.Add(-100*time.Hour))
	mustAppendMessage(t, store, "msg-1", "conv-1", now.Add(-72*time.Hour))

	cleaner := NewCleaner(store, DefaultConfig())

	first, err := cleaner.Run(ctx, TriggerManual, 48, now)
	if err != nil {
		t.Fatalf("first Run() failed: %v", err)
	}
	if first.MessagesDeleted != 1 || first.ConversationsDeleted != 1 {
		t.Fatalf("first run deleted %d/%d, want 1/1", first.MessagesDeleted, first.ConversationsDeleted)
	}

	second, err := cleaner.Run(ctx, TriggerManual, 48, now)
	if err != nil {
		t.Fatalf("second Run() failed: %v", err)
	}
	if second.MessagesDeleted != 0 || second.ConversationsDeleted != 0 {
		t.Errorf("second run deleted %d/%d, want 0/0", second.MessagesDeleted, second.ConversationsDeleted)
	}
	if len(second.Errors) != 0 {
		t.Errorf("second run Errors = %v, want none", second.Errors)
	}
}

func TestCleaner_InvalidRetention(t *testing.T) {
	now := time.Now().UTC()
	ctx := context.Background()

	store := storage.NewMemoryStore()
	mustCreateConversation(t, store, "conv-1", now.Add(-100*time.Hour))
	mustAppendMessage(t, store, "msg-1", "conv-1", now.Add(-72*time.Hour))

	cleaner := NewCleaner(store, DefaultConfig())

	for _, hours := range []int{0, -1, -48} {
		stats, err := cleaner.Run(ctx, TriggerManual, hours, now)
		if stats != nil {
			t.Errorf("Run(%d) returned stats, want nil", hours)
		}
		var invalidErr *InvalidRetentionError
		if !errors.As(err, &invalidErr) {
			t.Errorf("Run(%d) error = %v, want *InvalidRetentionError", hours, err)
		}
	}

	// Rejected before any deletion side effect.
	msgCount, _ := store.CountMessages(ctx)
	convCount, _ := store.CountConversations(ctx)
	if msgCount != 1 || convCount != 1 {
		t.Errorf("store modified by rejected run: %d messages, %d conversations", msgCount, convCount)
	}
}

func TestCleaner_PhaseIsolation(t *testing.T) {
	now := time.Now().UTC()
	ctx := context.Background()

	inner := storage.NewMemoryStore()
	mustCreateConversation(t, inner, "conv-stale", now.Add(-100*time.Hour))
	mustAppendMessage(t, inner, "msg-stale", "conv-stale", now.Add(-90*time.Hour))

	store := &brokenMessageStore{Store: inner}
	cleaner := NewCleaner(store, DefaultConfig())

	stats, err := cleaner.Run(ctx, TriggerManual, 48, now)
	if err != nil {
		t.Fatalf("Run() must not raise store failures, got %v", err)
	}

	if len(stats.Errors) != 1 {
		t.Fatalf("Errors = %v, want exactly one message-phase entry", stats.Errors)
	}
	if !strings.HasPrefix(stats.Errors[0], "message phase:") {
		t.Errorf("error entry %q should identify the message phase", stats.Errors[0])
	}
	if stats.MessagesDeleted != 0 {
		t.Errorf("MessagesDeleted = %d, want 0", stats.MessagesDeleted)
	}
	// The conversation phase still ran and reclaimed the stale
	// conversation (cascading away its message).
	if stats.ConversationsDeleted != 1 {
		t.Errorf("ConversationsDeleted = %d, want 1", stats.ConversationsDeleted)
	}
}

func TestCleaner_BothPhasesFailStillReturnsStats(t *testing.T) {
	now := time.Now().UTC()
	ctx := context.Background()

	cleaner := NewCleaner(&brokenStore{}, DefaultConfig())

	stats, err := cleaner.Run(ctx, TriggerScheduled, 48, now)
	if err != nil {
		t.Fatalf("Run() must not raise store failures, got %v", err)
	}
	if len(stats.Errors) != 2 {
		t.Errorf("Errors = %v, want two entries", stats.Errors)
	}
	if stats.MessagesDeleted != 0 || stats.ConversationsDeleted != 0 {
		t.Errorf("counts = %d/%d, want 0/0", stats.MessagesDeleted, stats.ConversationsDeleted)
	}
}

// brokenStore fails every listing.
type brokenStore struct {
	storage.MemoryStore
}

func (s *brokenStore) ListExpiredMessageIDs(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	return nil, chat.NewStorageError("memory", "list_expired_messages", errors.New("down"))
}

func (s *brokenStore) ListExpiredConversationIDs(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	return nil, chat.NewStorageError("memory", "list_expired_conversations", errors.New("down"))
}

func TestCleaner_SingleFlight(t *testing.T) {
	now := time.Now().UTC()

	store := &blockingStore{
		Store:   storage.NewMemoryStore(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	cleaner := NewCleaner(store, DefaultConfig())

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := cleaner.Run(context.Background(), TriggerScheduled, 48, now); err != nil {
			t.Errorf("first Run() failed: %v", err)
		}
	}()

	// Wait for the first run to be inside the message phase.
	<-store.entered

	_, err := cleaner.Run(context.Background(), TriggerManual, 48, now)
	if !errors.Is(err, ErrCleanupInProgress) {
		t.Errorf("concurrent Run() error = %v, want ErrCleanupInProgress", err)
	}

	close(store.release)
	<-done

	// The gate is released once the first run finishes.
	if _, err := cleaner.Run(context.Background(), TriggerManual, 48, now); err != nil {
		t.Errorf("Run() after release failed: %v", err)
	}
}

func TestCleaner_RunTimeout(t *testing.T) {
	now := time.Now().UTC()

	store := &blockingStore{
		Store:   storage.NewMemoryStore(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}

	cfg := DefaultConfig()
	cfg.MaxRunDuration = 25 * time.Millisecond
	cleaner := NewCleaner(store, cfg)

	stats, err := cleaner.Run(context.Background(), TriggerManual, 48, now)
	if err != nil {
		t.Fatalf("Run() must report a timeout through stats, got %v", err)
	}
	if len(stats.Errors) == 0 {
		t.Fatal("expected the aborted phase to record an error")
	}
	if !strings.Contains(stats.Errors[0], "deadline") {
		t.Errorf("error entry %q should reflect the deadline", stats.Errors[0])
	}
}

func TestCleaner_SetDefaultRetentionHours(t *testing.T) {
	cleaner := NewCleaner(storage.NewMemoryStore(), DefaultConfig())

	if got := cleaner.DefaultRetentionHours(); got != 48 {
		t.Errorf("DefaultRetentionHours() = %d, want 48", got)
	}

	if err := cleaner.SetDefaultRetentionHours(72); err != nil {
		t.Fatalf("SetDefaultRetentionHours(72) failed: %v", err)
	}
	if got := cleaner.DefaultRetentionHours(); got != 72 {
		t.Errorf("DefaultRetentionHours() = %d, want 72", got)
	}

	if err := cleaner.SetDefaultRetentionHours(0); err == nil {
		t.Error("SetDefaultRetentionHours(0) should fail")
	}
	if got := cleaner.DefaultRetentionHours(); got != 72 {
		t.Errorf("rejected update must not change retention, got %d", got)
	}
}
