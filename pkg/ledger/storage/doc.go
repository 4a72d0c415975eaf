// Package storage keeps the usage ledger in SQLite.
//
// Each invocation of the batch processor is a run, identified by a UUID.
// Records are inserted as they are produced and the run totals are written
// once when the session closes:
//
//	store, err := storage.Open(storage.Config{Path: "data/ledger.db"})
//	run, err := store.StartRun(ctx)
//	sess := session.New(tracker, csvLogger, session.WithSinks(run))
//
// The database uses WAL mode and a single connection.
package storage
