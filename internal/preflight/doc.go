// Package preflight provides readiness checks for the filesystem paths and
// external services bibleref depends on.
//
// The daemon runs RunAll at startup and logs failures; the CLI "doctor"
// command renders the same results as a table.
package preflight
