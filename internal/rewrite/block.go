package rewrite

// Block is a document's structured metadata as seen by the rewriter.
// Get reports whether key is present; Set replaces the value stored at key.
type Block interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// MapBlock is an in-memory Block, used for dry runs and tests.
type MapBlock map[string]any

func (b MapBlock) Get(key string) (any, bool) {
	v, ok := b[key]
	return v, ok
}

func (b MapBlock) Set(key string, value any) {
	b[key] = value
}

// Clone returns a copy whose lists can be rewritten without touching b.
func (b MapBlock) Clone() MapBlock {
	out := make(MapBlock, len(b))
	for k, v := range b {
		if list, ok := v.([]any); ok {
			v = append([]any(nil), list...)
		}
		out[k] = v
	}
	return out
}
