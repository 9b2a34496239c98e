// Package services defines shared utilities consumed by the migration manager,
// the document store, and the daemon surfaces.
//
// Key responsibilities:
//   - Context helpers that stamp task IDs, entity IDs, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that tag failures so the
//     CLI and HTTP API can report them consistently.
//
// Use these helpers when wiring new components so operational behaviour (error
// handling, observability) stays uniform across the daemon.
package services
