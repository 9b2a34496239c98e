// Package vault is the document store for a directory of markdown notes.
//
// Notes carry their references in YAML frontmatter. The store enumerates
// notes, exposes frontmatter as a rewrite.Block and commits changes one file
// at a time with an atomic replace, serialized across processes by a lock
// file in the state directory. Keys the caller never touches keep their
// order, styling and comments, and the note body is written back untouched.
package vault
