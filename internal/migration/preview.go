package migration

import (
	"context"
	"fmt"

	"bibleref/internal/rewrite"
	"bibleref/internal/vault"
)

// Inspector reads frontmatter without writing.
type Inspector interface {
	List(ctx context.Context) ([]vault.Document, error)
	Inspect(ctx context.Context, doc vault.Document) (rewrite.MapBlock, error)
}

// PreviewMatch is a note a rename would change.
type PreviewMatch struct {
	Document   string `json:"document"`
	References int    `json:"references"`
}

// PreviewResult describes what a rename would do without touching the vault.
type PreviewResult struct {
	OldPattern string         `json:"old_pattern"`
	NewPattern string         `json:"new_pattern"`
	Total      int            `json:"total"`
	Matches    []PreviewMatch `json:"matches"`
	Unreadable []string       `json:"unreadable,omitempty"`
}

// Preview counts the references a rename of oldID to newID would rewrite.
func Preview(ctx context.Context, docs Inspector, oldID, newID string, opts ...Option) (PreviewResult, error) {
	oldID = normalizeID(oldID)
	newID = normalizeID(newID)
	if err := validateRequest("preview", oldID, newID); err != nil {
		return PreviewResult{}, err
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	rule := rewrite.NewRule(o.tagPrefix, oldID, newID)
	result := PreviewResult{
		OldPattern: rule.OldPattern,
		NewPattern: rule.NewPattern,
		Matches:    []PreviewMatch{},
	}

	list, err := docs.List(ctx)
	if err != nil {
		return result, fmt.Errorf("list documents: %w", err)
	}
	result.Total = len(list)
	keys := o.keys()
	for _, doc := range list {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		block, err := docs.Inspect(ctx, doc)
		if err != nil {
			result.Unreadable = append(result.Unreadable, doc.RelPath)
			continue
		}
		if n := rewrite.Count(block, rule, keys...); n > 0 {
			result.Matches = append(result.Matches, PreviewMatch{Document: doc.RelPath, References: n})
		}
	}
	return result, nil
}
