// Package api defines wire-format types and converters for the IPC and HTTP
// API layer. It translates migration queue models into transport-friendly DTOs
// so the CLI and other consumers can render them without coupling to internal
// types.
//
// # Key Types
//
// Task: transport representation of a migration task with progress.
//
// MigrationStatus: processing loop state, queue counts, the task in progress
// and the last loop error.
//
// DaemonStatus: aggregated runtime information including file locations.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Internal enums (queue.Status) are exposed as
// lowercase strings. Timestamps use RFC3339 with milliseconds.
package api
