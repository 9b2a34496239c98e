package migration_test

import (
	"context"
	"strings"
	"testing"

	"bibleref/internal/migration"
	"bibleref/internal/testsupport"
	"bibleref/internal/vault"
)

func TestManagerRewritesVaultNotes(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithWriteToTags())
	store := testsupport.MustOpenStore(t, cfg)
	docs := vault.NewFromConfig(cfg, nil)
	dir := cfg.Paths.VaultDir

	first := testsupport.WriteNote(t, dir, "john.md", "bible-refs:\n  - bible/Johannes/3/16\n", "# John\n")
	second := testsupport.WriteNote(t, dir, "notes/mixed.md",
		"bible-refs:\n  - bible/Johannes/3/16\n  - bible/Gen/1/1\ntags:\n  - bible/Johannes/3/16\n", "mixed\n")
	third := testsupport.WriteNote(t, dir, "other.md", "tags:\n  - unrelated/tag\n", "other\n")
	thirdBefore := testsupport.ReadFile(t, third)
	testsupport.WriteNote(t, dir, "broken.md", "bible-refs: [bible/Johannes/1/1\n", "broken\n")

	notifier := &recordingNotifier{}
	m := migration.New(store, docs, notifier, nil, migration.OptionsFromConfig(cfg)...)
	t.Cleanup(m.Stop)
	ctx := context.Background()
	if err := m.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := m.ResumeMigrations(ctx); err != nil {
		t.Fatal(err)
	}
	if _, _, err := m.QueueMigration(ctx, "john", "Johannes", "Joh"); err != nil {
		t.Fatal(err)
	}
	if err := waitIdle(t, m); err != nil {
		t.Fatalf("loop error: %v", err)
	}

	if got := testsupport.ReadFile(t, first); !strings.Contains(got, "bible/Joh/3/16") || !strings.HasSuffix(got, "# John\n") {
		t.Fatalf("john.md not rewritten:\n%s", got)
	}
	got := testsupport.ReadFile(t, second)
	if strings.Contains(got, "Johannes") || !strings.Contains(got, "bible/Gen/1/1") {
		t.Fatalf("mixed.md not rewritten:\n%s", got)
	}
	if after := testsupport.ReadFile(t, third); after != thirdBefore {
		t.Fatalf("unrelated note changed:\n%s", after)
	}

	completed := notifier.byEvent("migration_completed")
	if len(completed) != 1 || completed[0]["changed"] != 2 || completed[0]["total"] != 4 {
		t.Fatalf("unexpected completion: %#v", completed)
	}

	persisted, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if persisted == nil || persisted.Len() != 0 || persisted.IsRunning {
		t.Fatalf("expected drained queue in storage, got %#v", persisted)
	}
}
