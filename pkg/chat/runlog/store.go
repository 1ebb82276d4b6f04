package runlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"mercator-hq/callisto/pkg/chat"
)

// RunRecord is one persisted cleanup run.
type RunRecord struct {
	// ID uniquely identifies the run (UUID v4).
	ID string `json:"id"`

	// Trigger is what initiated the run ("scheduled", "manual", "cli").
	Trigger string `json:"trigger"`

	// StartedAt is the run's captured now.
	StartedAt time.Time `json:"started_at"`

	// CompletedAt is when the record was written.
	CompletedAt time.Time `json:"completed_at"`

	// RetentionHours is the retention period the run used.
	RetentionHours int `json:"retention_hours"`

	// Cutoff is the computed deletion threshold.
	Cutoff time.Time `json:"cutoff"`

	// MessagesDeleted and ConversationsDeleted are the per-phase counts.
	MessagesDeleted      int64 `json:"messages_deleted"`
	ConversationsDeleted int64 `json:"conversations_deleted"`

	// Errors holds the run's recorded failures in order.
	Errors []string `json:"errors"`
}

const schema = `
CREATE TABLE IF NOT EXISTS cleanup_runs (
    id TEXT PRIMARY KEY,
    trigger_source TEXT NOT NULL,
    started_at TIMESTAMP NOT NULL,
    completed_at TIMESTAMP NOT NULL,
    retention_hours INTEGER NOT NULL,
    cutoff TIMESTAMP NOT NULL,
    messages_deleted INTEGER NOT NULL,
    conversations_deleted INTEGER NOT NULL,
    errors TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cleanup_runs_started_at ON cleanup_runs(started_at);
`

// SQLiteRunLog stores cleanup run history in a standalone SQLite
// database. It satisfies retention.RunRecorder.
type SQLiteRunLog struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteRunLog opens (creating if needed) the run history database at
// the given path.
func NewSQLiteRunLog(path string) (*SQLiteRunLog, error) {
	if path == "" {
		return nil, fmt.Errorf("runlog path cannot be empty")
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, chat.NewStorageError("runlog", "open", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, chat.NewStorageError("runlog", "create_schema", err)
	}

	logger := slog.Default().With("component", "chat.runlog")
	logger.Info("run history store initialized", "path", path)

	return &SQLiteRunLog{db: db, logger: logger}, nil
}

// RecordRun persists one cleanup run.
func (l *SQLiteRunLog) RecordRun(ctx context.Context, trigger string, stats *chat.CleanupStats) error {
	errorsJSON, err := json.Marshal(stats.Errors)
	if err != nil {
		return chat.NewStorageError("runlog", "marshal_errors", err)
	}

	_, err = l.db.ExecContext(ctx, `
		INSERT INTO cleanup_runs (
			id, trigger_source, started_at, completed_at,
			retention_hours, cutoff, messages_deleted, conversations_deleted, errors
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), trigger, stats.StartedAt, time.Now().UTC(),
		stats.RetentionHours, stats.Cutoff,
		stats.MessagesDeleted, stats.ConversationsDeleted, string(errorsJSON),
	)
	if err != nil {
		return chat.NewStorageError("runlog", "record_run", err)
	}
	return nil
}

// List returns the most recent runs, newest first, bounded by limit.
func (l *SQLiteRunLog) List(ctx context.Context, limit int) ([]*RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT id, trigger_source, started_at, completed_at,
		       retention_hours, cutoff, messages_deleted, conversations_deleted, errors
		FROM cleanup_runs
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, chat.NewStorageError("runlog", "list_runs", err)
	}
	defer rows.Close()

	var records []*RunRecord
	for rows.Next() {
		var rec RunRecord
		var errorsJSON string
		err := rows.Scan(&rec.ID, &rec.Trigger, &rec.StartedAt, &rec.CompletedAt,
			&rec.RetentionHours, &rec.Cutoff,
			&rec.MessagesDeleted, &rec.ConversationsDeleted, &errorsJSON)
		if err != nil {
			return nil, chat.NewStorageError("runlog", "scan_run", err)
		}
		if err := json.Unmarshal([]byte(errorsJSON), &rec.Errors); err != nil {
			return nil, chat.NewStorageError("runlog", "unmarshal_errors", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, chat.NewStorageError("runlog", "list_runs", err)
	}

	return records, nil
}

// Ping verifies the backend is reachable.
func (l *SQLiteRunLog) Ping(ctx context.Context) error {
	if err := l.db.PingContext(ctx); err != nil {
		return chat.NewStorageError("runlog", "ping", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (l *SQLiteRunLog) Close() error {
	return l.db.Close()
}
