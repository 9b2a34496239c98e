// Package rewrite renames reference tags inside a document's metadata block.
//
// A Rule maps every tag that starts with "<prefix><oldID>/" to the same tag
// under "<prefix><newID>/". The trailing separator is part of the pattern, so
// renaming "Joh" never touches tags under "Johannes". Rewriting is pure and
// idempotent: once applied, no value starts with the old pattern, so a second
// pass reports no change.
package rewrite
