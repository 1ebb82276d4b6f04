// Package chat defines the domain model for chat data retention.
//
// # Data Model
//
// Two entities are subject to retention:
//
//   - Message: belongs to exactly one Conversation and carries a creation
//     timestamp. A message never outlives its conversation; the store
//     guarantees cascading deletion of messages when their conversation
//     is removed.
//   - Conversation: carries a creation timestamp and a nullable
//     last-message timestamp. A nil LastMessageAt means no message has
//     ever been recorded for the conversation.
//
// # Store Contract
//
// The Store interface is the boundary between the retention logic and the
// persistence layer. It exposes bounded candidate listing and delete-by-id
// operations so that callers can delete unbounded candidate sets in small
// batches without a single long-running statement:
//
//	ids, err := store.ListExpiredMessageIDs(ctx, cutoff, 100)
//	if err == nil && len(ids) > 0 {
//	    err = store.DeleteMessages(ctx, ids)
//	}
//
// Backends live in the storage subpackage; the retention subpackage builds
// the cleanup pipeline on top of this contract.
package chat
