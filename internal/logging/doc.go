// Package logging assembles structured slog loggers and formatting helpers used
// across bibleref.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so migration code can tag log
// lines with task IDs, entity IDs, and correlation IDs. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so new components emit
// data with the same shape as the rest of the daemon.
package logging
