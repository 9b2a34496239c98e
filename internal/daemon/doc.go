// Package daemon coordinates the long-running bibleref process.
//
// It wires configuration, the queue store, the migration manager and the HTTP
// API into a single lifecycle with flock-based locking to prevent multiple
// instances. On start the daemon resumes interrupted migrations before it
// accepts new requests.
//
// Keep orchestration logic here: rewriting and queue bookkeeping live in the
// migration package while the daemon focuses on startup, shutdown, and high
// level coordination.
package daemon
