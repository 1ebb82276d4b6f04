package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the chat database schema.
const Schema = `
-- Conversations table
CREATE TABLE IF NOT EXISTS conversations (
    id TEXT PRIMARY KEY,
    created_at TIMESTAMP NOT NULL,
    last_message_at TIMESTAMP
);

-- Messages table
CREATE TABLE IF NOT EXISTS messages (
    id TEXT PRIMARY KEY,
    conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
    created_at TIMESTAMP NOT NULL
);

-- Schema version table
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

-- Indexes for retention queries
CREATE INDEX IF NOT EXISTS idx_messages_created_at ON messages(created_at);
CREATE INDEX IF NOT EXISTS idx_messages_conversation_id ON messages(conversation_id);
CREATE INDEX IF NOT EXISTS idx_conversations_created_at ON conversations(created_at);
CREATE INDEX IF NOT EXISTS idx_conversations_last_message_at ON conversations(last_message_at);
`

// InsertSchemaVersion inserts the schema version into the schema_version table.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

// selectExpiredMessages lists messages created before the cutoff, oldest
// first, bounded by the limit.
const selectExpiredMessages = `
SELECT id FROM messages
WHERE created_at < ?
ORDER BY created_at
LIMIT ?;
`

// selectExpiredConversations lists conversations eligible for deletion at
// the cutoff: stale with activity, stale without any activity, or created
// before the cutoff with no remaining messages.
const selectExpiredConversations = `
SELECT id FROM conversations
WHERE (last_message_at IS NOT NULL AND last_message_at < ?)
   OR (last_message_at IS NULL AND created_at < ?)
   OR (created_at < ? AND NOT EXISTS (
        SELECT 1 FROM messages WHERE messages.conversation_id = conversations.id
   ))
ORDER BY created_at
LIMIT ?;
`
