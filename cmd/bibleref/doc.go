// Package main hosts the bibleref CLI entrypoint and command graph.
//
// Commands talk to a running daemon over the IPC socket when one is
// reachable. Without a daemon, migrate --wait and resume take the daemon
// lock themselves and run the migration loop in-process until the queue
// drains, so the vault is never rewritten by two processes at once.
package main
