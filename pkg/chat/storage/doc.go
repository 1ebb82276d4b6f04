// Package storage provides persistence backends for chat data.
//
// # Backends
//
// Two backends implement the chat.Store interface:
//
//   - SQLiteStore: production backend using SQLite with WAL mode,
//     foreign-key enforcement, and cascading deletes.
//   - MemoryStore: in-memory backend for testing.
//
// # Cascading Deletes
//
// Both backends guarantee that deleting a conversation atomically removes
// all of its messages. The SQLite backend enforces this with
// ON DELETE CASCADE foreign keys, enabled through the DSN so the
// enforcement holds on every pooled connection; the memory backend
// mirrors the behavior in code.
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStore(&storage.SQLiteConfig{
//	    Path: "data/chat.db",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
package storage
