package rewrite_test

import (
	"reflect"
	"testing"

	"bibleref/internal/rewrite"
)

func TestNewRuleAddsSeparators(t *testing.T) {
	tests := []struct {
		prefix  string
		wantOld string
		wantNew string
	}{
		{prefix: "bible/", wantOld: "bible/Johannes/", wantNew: "bible/Joh/"},
		{prefix: "bible", wantOld: "bible/Johannes/", wantNew: "bible/Joh/"},
		{prefix: "", wantOld: "Johannes/", wantNew: "Joh/"},
	}
	for _, tc := range tests {
		rule := rewrite.NewRule(tc.prefix, "Johannes", "Joh")
		if rule.OldPattern != tc.wantOld || rule.NewPattern != tc.wantNew {
			t.Fatalf("NewRule(%q) = %+v", tc.prefix, rule)
		}
	}
}

func TestApplyRewritesMatchingPrefixOnly(t *testing.T) {
	block := rewrite.MapBlock{
		"bible-refs": []any{"bible/Johannes/3/16", "bible/Gen/1/1", "bible/Johannes/1"},
		"title":      "Notes",
	}
	rule := rewrite.NewRule("bible/", "Johannes", "Joh")

	if !rewrite.Apply(block, rule, "bible-refs") {
		t.Fatal("expected change")
	}
	want := []any{"bible/Joh/3/16", "bible/Gen/1/1", "bible/Joh/1"}
	if !reflect.DeepEqual(block["bible-refs"], want) {
		t.Fatalf("unexpected refs: %v", block["bible-refs"])
	}
	if block["title"] != "Notes" {
		t.Fatalf("unrelated field changed: %v", block["title"])
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	block := rewrite.MapBlock{"bible-refs": []any{"bible/Johannes/3/16"}}
	rule := rewrite.NewRule("bible/", "Johannes", "Joh")

	if !rewrite.Apply(block, rule, "bible-refs") {
		t.Fatal("expected first application to change the block")
	}
	once := block.Clone()
	if rewrite.Apply(block, rule, "bible-refs") {
		t.Fatal("expected second application to report no change")
	}
	if !reflect.DeepEqual(block, once) {
		t.Fatalf("second application altered block: %v vs %v", block, once)
	}
}

func TestApplyRespectsSegmentBoundary(t *testing.T) {
	block := rewrite.MapBlock{"bible-refs": []any{"bible/Johannes/3/16", "bible/Joh/1/1"}}
	rule := rewrite.NewRule("bible/", "Joh", "Jo")

	if !rewrite.Apply(block, rule, "bible-refs") {
		t.Fatal("expected Joh tag to change")
	}
	want := []any{"bible/Johannes/3/16", "bible/Jo/1/1"}
	if !reflect.DeepEqual(block["bible-refs"], want) {
		t.Fatalf("unexpected refs: %v", block["bible-refs"])
	}

	onlyLong := rewrite.MapBlock{"bible-refs": []any{"bible/Johannes/3/16"}}
	if rewrite.Apply(onlyLong, rule, "bible-refs") {
		t.Fatal("renaming Joh must not touch Johannes")
	}
}

func TestApplyLeavesNonListFieldsUntouched(t *testing.T) {
	tests := []struct {
		name  string
		block rewrite.MapBlock
	}{
		{name: "missing", block: rewrite.MapBlock{"title": "x"}},
		{name: "scalar", block: rewrite.MapBlock{"bible-refs": "bible/Johannes/3/16"}},
		{name: "map", block: rewrite.MapBlock{"bible-refs": map[string]any{"a": "bible/Johannes/3/16"}}},
		{name: "nil", block: rewrite.MapBlock{"bible-refs": nil}},
	}
	rule := rewrite.NewRule("bible/", "Johannes", "Joh")
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			before := tc.block.Clone()
			if rewrite.Apply(tc.block, rule, "bible-refs") {
				t.Fatal("expected no change")
			}
			if !reflect.DeepEqual(before, tc.block) {
				t.Fatalf("block modified: %v", tc.block)
			}
		})
	}
}

func TestApplyPassesThroughNonStringItems(t *testing.T) {
	block := rewrite.MapBlock{"bible-refs": []any{42, "bible/Johannes/1/1", nil, true}}
	rule := rewrite.NewRule("bible/", "Johannes", "Joh")

	if !rewrite.Apply(block, rule, "bible-refs") {
		t.Fatal("expected change")
	}
	want := []any{42, "bible/Joh/1/1", nil, true}
	if !reflect.DeepEqual(block["bible-refs"], want) {
		t.Fatalf("unexpected refs: %v", block["bible-refs"])
	}
}

func TestApplyGenericTagsField(t *testing.T) {
	block := rewrite.MapBlock{
		"bible-refs": []any{"bible/Gen/1/1"},
		"tags":       []any{"study", "bible/Johannes/3/16"},
	}
	rule := rewrite.NewRule("bible/", "Johannes", "Joh")

	if rewrite.Apply(block.Clone(), rule, "bible-refs") {
		t.Fatal("expected no change when tags field is not selected")
	}
	if !rewrite.Apply(block, rule, "bible-refs", "tags") {
		t.Fatal("expected change in tags field")
	}
	if !reflect.DeepEqual(block["tags"], []any{"study", "bible/Joh/3/16"}) {
		t.Fatalf("unexpected tags: %v", block["tags"])
	}
}

func TestApplyDoesNotMutateInputList(t *testing.T) {
	original := []any{"bible/Johannes/3/16"}
	block := rewrite.MapBlock{"bible-refs": original}
	rewrite.Apply(block, rewrite.NewRule("bible/", "Johannes", "Joh"), "bible-refs")
	if original[0] != "bible/Johannes/3/16" {
		t.Fatalf("input list mutated: %v", original)
	}
}

func TestNoopRule(t *testing.T) {
	block := rewrite.MapBlock{"bible-refs": []any{"bible/Joh/1/1"}}
	if rewrite.Apply(block, rewrite.NewRule("bible/", "Joh", "Joh"), "bible-refs") {
		t.Fatal("identical ids must not report a change")
	}
	if rewrite.Apply(nil, rewrite.NewRule("bible/", "Joh", "Jo"), "bible-refs") {
		t.Fatal("nil block must not report a change")
	}
}

func TestCount(t *testing.T) {
	block := rewrite.MapBlock{
		"bible-refs": []any{"bible/Johannes/3/16", "bible/Johannes/1/1", "bible/Gen/1/1"},
		"tags":       []any{"bible/Johannes/2/1"},
	}
	rule := rewrite.NewRule("bible/", "Johannes", "Joh")
	if got := rewrite.Count(block, rule, "bible-refs", "tags", "bible-refs"); got != 3 {
		t.Fatalf("Count = %d, want 3", got)
	}
	if got := rewrite.Count(block, rule, "bible-refs"); got != 2 {
		t.Fatalf("Count = %d, want 2", got)
	}
}
