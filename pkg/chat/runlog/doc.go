// Package runlog persists the history of cleanup runs.
//
// Every cleanup run produces one RunRecord: what triggered it, the
// retention period and cutoff it used, how many rows each phase deleted,
// and any errors the run recorded. The history is an operational audit
// trail; cleanup itself never depends on it, and a failed history write
// never fails a run.
//
// The backend is a standalone SQLite database (pure-Go driver) separate
// from the chat database, so run history survives chat store maintenance
// and vice versa.
//
//	log, err := runlog.NewSQLiteRunLog("data/runlog.db")
//	if err != nil {
//	    return err
//	}
//	defer log.Close()
//	cleaner.SetRunRecorder(log)
package runlog
