// Package queue models the migration queue and persists it in SQLite.
//
// A Queue is an ordered list of Tasks plus the isRunning flag of the
// processing loop. The Store saves and loads the whole Queue as one snapshot:
// every Save replaces the persisted state inside a single transaction, so a
// crash between checkpoints leaves the previous snapshot intact. Completed
// tasks are evicted by the migration manager before saving; the database
// keeps no history.
//
// Schema changes bump the version in schema.go; users delete the database to
// adopt the new schema.
package queue
