// Package logs reads the daemon's JSON log file for `bibleref logs`.
//
// Tail returns the last N lines or everything after a byte offset, and can
// poll for new lines in follow mode. Record parses a single JSON line so the
// CLI can filter by level, event type or task before printing.
package logs
