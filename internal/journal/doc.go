// Package journal persists a durable record of stage exceptions and
// generated artifacts in SQLite so operators can inspect what happened after
// the in-memory queues have moved on.
//
// The database lives at <state_dir>/journal.db and runs in WAL mode. Writes
// retry briefly when SQLite reports the database as busy. The schema is
// versioned; after a schema change, clear the journal with
// `streamer journal clear` or delete the file.
package journal
