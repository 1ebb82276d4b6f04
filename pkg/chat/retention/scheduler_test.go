package retention

import (
	"context"
	"testing"
	"time"

	"mercator-hq/callisto/pkg/chat/storage"
)

func TestScheduler_Start(t *testing.T) {
	tests := []struct {
		name        string
		schedule    string
		wantRunning bool
		wantError   bool
	}{
		{
			name:        "valid daily schedule",
			schedule:    "0 3 * * *",
			wantRunning: true,
			wantError:   false,
		},
		{
			name:        "valid hourly schedule",
			schedule:    "0 * * * *",
			wantRunning: true,
			wantError:   false,
		},
		{
			name:        "empty schedule - no error, not running",
			schedule:    "",
			wantRunning: false,
			wantError:   false,
		},
		{
			name:        "invalid schedule",
			schedule:    "invalid cron",
			wantRunning: false,
			wantError:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleaner := NewCleaner(storage.NewMemoryStore(), DefaultConfig())
			scheduler := NewScheduler(cleaner, tt.schedule)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			err := scheduler.Start(ctx)

			if (err != nil) != tt.wantError {
				t.Errorf("Start() error = %v, wantError %v", err, tt.wantError)
			}

			if scheduler.IsRunning() != tt.wantRunning {
				t.Errorf("IsRunning() = %v, want %v",
					scheduler.IsRunning(), tt.wantRunning)
			}

			if tt.wantRunning {
				next := scheduler.NextRun()
				if next == nil {
					t.Error("NextRun() returned nil for running scheduler")
				} else if !next.After(time.Now()) {
					t.Errorf("NextRun() = %v, want a future time", next)
				}
			}

			scheduler.Stop()
			if scheduler.IsRunning() {
				t.Error("IsRunning() = true after Stop()")
			}
		})
	}
}

func TestScheduler_StopIsIdempotent(t *testing.T) {
	cleaner := NewCleaner(storage.NewMemoryStore(), DefaultConfig())
	scheduler := NewScheduler(cleaner, "0 3 * * *")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := scheduler.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	scheduler.Stop()
	scheduler.Stop() // Second stop must not panic or block.

	if scheduler.IsRunning() {
		t.Error("IsRunning() = true after Stop()")
	}
}

func TestScheduler_ContextCancellationStops(t *testing.T) {
	cleaner := NewCleaner(storage.NewMemoryStore(), DefaultConfig())
	scheduler := NewScheduler(cleaner, "0 3 * * *")

	ctx, cancel := context.WithCancel(context.Background())
	if err := scheduler.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	cancel()

	// Stop runs from a goroutine watching the context; poll briefly.
	deadline := time.Now().Add(2 * time.Second)
	for scheduler.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if scheduler.IsRunning() {
		t.Error("scheduler still running after context cancellation")
	}
}
