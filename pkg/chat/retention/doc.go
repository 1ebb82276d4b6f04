// Package retention enforces the retention policy on chat data.
//
// # Cleanup Pipeline
//
// A cleanup run walks two sequential phases against the store:
//
//  1. Message phase: delete messages created before the cutoff
//     (batches of 100).
//  2. Conversation phase: delete conversations that are stale or
//     orphaned at the cutoff (batches of 50). Running second lets this
//     phase catch conversations the message phase just emptied.
//
// Both phases derive their cutoff from a single captured timestamp, so a
// message arriving between phases cannot produce an inconsistent partial
// state. A failure in one phase is recorded in the run's stats and does
// not abort the other phase; deletions committed by earlier batches are
// always preserved.
//
// # Basic Usage
//
//	cleaner := retention.NewCleaner(store, retention.DefaultConfig())
//
//	stats, err := cleaner.Run(ctx, retention.TriggerManual, 48, time.Now())
//	if err != nil {
//	    // Rejected before any deletion: invalid retention or a run
//	    // already in progress.
//	    log.Fatal(err)
//	}
//	log.Printf("deleted %d messages, %d conversations",
//	    stats.MessagesDeleted, stats.ConversationsDeleted)
//
// # Scheduling
//
// The Scheduler runs the cleaner on a cron schedule (default daily at
// 3 AM) with the configured default retention:
//
//	scheduler := retention.NewScheduler(cleaner, "0 3 * * *")
//	if err := scheduler.Start(ctx); err != nil {
//	    // Scheduler init failure leaves manual cleanup as the only
//	    // path; the host keeps running.
//	    log.Printf("scheduler disabled: %v", err)
//	}
//	defer scheduler.Stop()
//
// Store failures during a run never surface as errors from Run; the
// scheduled unattended path cannot crash the host. Concurrent runs are
// excluded by a single-flight gate: a second caller receives
// ErrCleanupInProgress and no deletions occur on its behalf.
package retention
