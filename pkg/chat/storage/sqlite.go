package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"mercator-hq/callisto/pkg/chat"
)

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/chat.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStore implements the chat.Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite storage backend.
// It initializes the database schema, enables foreign-key enforcement
// (required for cascading deletes), and enables WAL mode if configured.
func NewSQLiteStore(config *SQLiteConfig) (*SQLiteStore, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}

	logger := slog.Default().With("component", "chat.storage.sqlite")

	db, err := sql.Open("sqlite3", config.dsn())
	if err != nil {
		return nil, chat.NewStorageError("sqlite", "open", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &SQLiteStore{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite chat store initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
		"max_open_conns", config.MaxOpenConns,
	)

	return s, nil
}

// dsn builds the connection string. Foreign-key enforcement, the busy
// timeout, and the journal mode are per-connection SQLite settings, so
// they live in the DSN where every pooled connection picks them up; a
// one-off PRAGMA would only configure whichever connection ran it.
// Cascading message deletion depends on foreign keys being ON.
func (c *SQLiteConfig) dsn() string {
	params := []string{
		"_foreign_keys=on",
		fmt.Sprintf("_busy_timeout=%d", c.BusyTimeout.Milliseconds()),
	}
	if c.WALMode {
		params = append(params, "_journal_mode=WAL")
	}
	return fmt.Sprintf("file:%s?%s", c.Path, strings.Join(params, "&"))
}

// initialize sets up the database schema.
func (s *SQLiteStore) initialize() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return chat.NewStorageError("sqlite", "create_schema", err)
	}
	s.logger.Debug("database schema created")

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return chat.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return chat.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return chat.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	return nil
}

// CreateConversation inserts a new conversation.
func (s *SQLiteStore) CreateConversation(ctx context.Context, conv *chat.Conversation) error {
	var lastMessageAt interface{}
	if conv.LastMessageAt != nil {
		lastMessageAt = *conv.LastMessageAt
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, created_at, last_message_at) VALUES (?, ?, ?)`,
		conv.ID, conv.CreatedAt, lastMessageAt,
	)
	if err != nil {
		return chat.NewStorageError("sqlite", "create_conversation", err)
	}
	return nil
}

// AppendMessage inserts a message and advances the parent conversation's
// last-message timestamp within a single transaction.
func (s *SQLiteStore) AppendMessage(ctx context.Context, msg *chat.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return chat.NewStorageError("sqlite", "append_message", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, created_at) VALUES (?, ?, ?)`,
		msg.ID, msg.ConversationID, msg.CreatedAt,
	)
	if err != nil {
		return chat.NewStorageError("sqlite", "append_message", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE conversations SET last_message_at = ? WHERE id = ?
		 AND (last_message_at IS NULL OR last_message_at < ?)`,
		msg.CreatedAt, msg.ConversationID, msg.CreatedAt,
	)
	if err != nil {
		return chat.NewStorageError("sqlite", "update_last_message_at", err)
	}

	if err := tx.Commit(); err != nil {
		return chat.NewStorageError("sqlite", "append_message", err)
	}
	return nil
}

// ListExpiredMessageIDs returns up to limit IDs of messages created before cutoff.
func (s *SQLiteStore) ListExpiredMessageIDs(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, selectExpiredMessages, cutoff, limit)
	if err != nil {
		return nil, chat.NewStorageError("sqlite", "list_expired_messages", err)
	}
	defer rows.Close()

	return scanIDs(rows, "list_expired_messages")
}

// DeleteMessages removes exactly the given messages in one statement.
func (s *SQLiteStore) DeleteMessages(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	query := fmt.Sprintf("DELETE FROM messages WHERE id IN (%s)", placeholders(len(ids)))
	if _, err := s.db.ExecContext(ctx, query, idArgs(ids)...); err != nil {
		return chat.NewStorageError("sqlite", "delete_messages", err)
	}
	return nil
}

// ListExpiredConversationIDs returns up to limit IDs of conversations that
// are stale or orphaned at the cutoff.
func (s *SQLiteStore) ListExpiredConversationIDs(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, selectExpiredConversations, cutoff, cutoff, cutoff, limit)
	if err != nil {
		return nil, chat.NewStorageError("sqlite", "list_expired_conversations", err)
	}
	defer rows.Close()

	return scanIDs(rows, "list_expired_conversations")
}

// DeleteConversations removes exactly the given conversations. Their
// messages are removed atomically by the ON DELETE CASCADE foreign key.
func (s *SQLiteStore) DeleteConversations(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	query := fmt.Sprintf("DELETE FROM conversations WHERE id IN (%s)", placeholders(len(ids)))
	if _, err := s.db.ExecContext(ctx, query, idArgs(ids)...); err != nil {
		return chat.NewStorageError("sqlite", "delete_conversations", err)
	}
	return nil
}

// CountMessages returns the total number of stored messages.
func (s *SQLiteStore) CountMessages(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM messages").Scan(&count)
	if err != nil {
		return 0, chat.NewStorageError("sqlite", "count_messages", err)
	}
	return count, nil
}

// CountConversations returns the total number of stored conversations.
func (s *SQLiteStore) CountConversations(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM conversations").Scan(&count)
	if err != nil {
		return 0, chat.NewStorageError("sqlite", "count_conversations", err)
	}
	return count, nil
}

// Ping verifies the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return chat.NewStorageError("sqlite", "ping", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// scanIDs collects a single-column id result set.
func scanIDs(rows *sql.Rows, operation string) ([]string, error) {
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, chat.NewStorageError("sqlite", operation, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, chat.NewStorageError("sqlite", operation, err)
	}
	return ids, nil
}

// placeholders returns n comma-separated SQL placeholders.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// idArgs converts string IDs to driver arguments.
func idArgs(ids []string) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
