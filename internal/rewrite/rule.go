package rewrite

import "strings"

// Separator terminates each identifier segment inside a reference tag.
const Separator = "/"

// Rule rewrites tag values that start with OldPattern.
type Rule struct {
	OldPattern string
	NewPattern string
}

// NewRule builds the rule for renaming oldID to newID under tagPrefix. A
// prefix without a trailing separator gets one.
func NewRule(tagPrefix, oldID, newID string) Rule {
	if tagPrefix != "" && !strings.HasSuffix(tagPrefix, Separator) {
		tagPrefix += Separator
	}
	return Rule{
		OldPattern: tagPrefix + oldID + Separator,
		NewPattern: tagPrefix + newID + Separator,
	}
}

// IsNoop reports whether the rule cannot change anything.
func (r Rule) IsNoop() bool {
	return r.OldPattern == "" || r.OldPattern == r.NewPattern
}

// Value returns value with OldPattern replaced by NewPattern when it is a
// prefix of value.
func (r Rule) Value(value string) (string, bool) {
	if r.IsNoop() || !strings.HasPrefix(value, r.OldPattern) {
		return value, false
	}
	return r.NewPattern + value[len(r.OldPattern):], true
}
