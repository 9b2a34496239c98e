// Package migration owns the durable queue of reference renames and the
// single processing loop that drains it.
//
// QueueMigration and ResumeMigrations are the only entry points that mutate
// the queue. Each task walks the whole vault, applies the rewrite rule to
// every note through the document store and checkpoints its progress every
// few notes. Per-note failures are logged and skipped; a failure to persist
// the queue stops the loop and is reported through Wait and Status. After a
// crash, ResumeMigrations restarts interrupted tasks from zero, which is safe
// because rewriting is idempotent.
package migration
