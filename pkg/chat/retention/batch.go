package retention

import (
	"context"
	"fmt"
	"log/slog"
)

// FetchFunc returns up to limit candidate IDs for deletion.
type FetchFunc func(ctx context.Context, limit int) ([]string, error)

// DeleteFunc deletes exactly the given IDs.
type DeleteFunc func(ctx context.Context, ids []string) error

// BatchDeleter deletes an unbounded candidate set in bounded batches so
// that no single statement or transaction spans the whole set. Each batch
// commits independently: a failure on batch N does not roll back batches
// 1..N-1. This at-least-partial-progress policy is deliberate; space
// reclaimed by earlier batches survives a transient store error later in
// the run.
type BatchDeleter struct {
	batchSize int
	fetch     FetchFunc
	delete    DeleteFunc
	logger    *slog.Logger
}

// NewBatchDeleter creates a batch deleter over the given fetch and delete
// operations. batchSize must be positive.
func NewBatchDeleter(batchSize int, fetch FetchFunc, delete DeleteFunc) *BatchDeleter {
	return &BatchDeleter{
		batchSize: batchSize,
		fetch:     fetch,
		delete:    delete,
		logger:    slog.Default().With("component", "chat.retention.batch"),
	}
}

// Run repeatedly fetches up to batchSize candidate IDs and deletes them,
// stopping when a fetch returns fewer than batchSize rows (exhaustion) or
// when an operation fails. It returns the total rows deleted and the
// number of batches attempted; on failure the totals cover the batches
// already committed.
func (d *BatchDeleter) Run(ctx context.Context) (deleted int64, batches int, err error) {
	for {
		if err := ctx.Err(); err != nil {
			return deleted, batches, fmt.Errorf("batch delete aborted: %w", err)
		}

		ids, err := d.fetch(ctx, d.batchSize)
		if err != nil {
			return deleted, batches, fmt.Errorf("batch fetch failed: %w", err)
		}
		if len(ids) == 0 {
			return deleted, batches, nil
		}

		batches++
		if err := d.delete(ctx, ids); err != nil {
			return deleted, batches, fmt.Errorf("batch delete failed: %w", err)
		}
		deleted += int64(len(ids))

		d.logger.Debug("batch deleted",
			"batch", batches,
			"rows", len(ids),
			"total_deleted", deleted,
		)

		// A short batch means the candidate set is exhausted.
		if len(ids) < d.batchSize {
			return deleted, batches, nil
		}
	}
}
