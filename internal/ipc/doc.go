// Package ipc exposes the daemon over JSON-RPC Unix sockets and ships the
// matching client used by the CLI.
//
// The wire types alias the HTTP API DTOs where they overlap so both
// surfaces report tasks identically.
package ipc
