package rewrite

// Apply rewrites the tag lists stored at keys and reports whether any value
// changed. Missing keys and values that are not lists are left untouched, as
// are list items that are not strings. Duplicate or empty keys are visited once.
func Apply(block Block, rule Rule, keys ...string) bool {
	if block == nil || rule.IsNoop() {
		return false
	}
	changed := false
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		raw, ok := block.Get(key)
		if !ok {
			continue
		}
		list, ok := raw.([]any)
		if !ok {
			continue
		}
		if next, ok := rewriteList(list, rule); ok {
			block.Set(key, next)
			changed = true
		}
	}
	return changed
}

func rewriteList(list []any, rule Rule) ([]any, bool) {
	var out []any
	for i, item := range list {
		s, ok := item.(string)
		if !ok {
			continue
		}
		rewritten, ok := rule.Value(s)
		if !ok {
			continue
		}
		if out == nil {
			out = append([]any(nil), list...)
		}
		out[i] = rewritten
	}
	return out, out != nil
}

// Count reports how many list values under keys the rule would rewrite,
// without modifying block.
func Count(block Block, rule Rule, keys ...string) int {
	if block == nil || rule.IsNoop() {
		return 0
	}
	total := 0
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if _, dup := seen[key]; dup || key == "" {
			continue
		}
		seen[key] = struct{}{}
		raw, ok := block.Get(key)
		if !ok {
			continue
		}
		list, ok := raw.([]any)
		if !ok {
			continue
		}
		for _, item := range list {
			if s, ok := item.(string); ok {
				if _, hit := rule.Value(s); hit {
					total++
				}
			}
		}
	}
	return total
}
