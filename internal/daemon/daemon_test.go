package daemon_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"bibleref/internal/api"
	"bibleref/internal/config"
	"bibleref/internal/daemon"
	"bibleref/internal/migration"
	"bibleref/internal/queue"
	"bibleref/internal/testsupport"
	"bibleref/internal/vault"
)

func newDaemon(t *testing.T, cfg *config.Config) (*daemon.Daemon, *queue.Store) {
	t.Helper()
	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	docs := vault.NewFromConfig(cfg, nil)
	mgr := migration.New(store, docs, nil, nil, migration.OptionsFromConfig(cfg)...)
	d, err := daemon.New(cfg, store, mgr, nil, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
	})
	return d, store
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = ""
	d, _ := newDaemon(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	status := d.Status()
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if status.LockFilePath != cfg.LockPath() || status.QueueDBPath != cfg.QueueDBPath() {
		t.Fatalf("unexpected paths: %#v", status)
	}

	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	if d.Status().Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestDaemonSingleInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = ""
	first, _ := newDaemon(t, cfg)
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("first Start failed: %v", err)
	}

	second, _ := newDaemon(t, cfg)
	err := second.Start(context.Background())
	if !errors.Is(err, daemon.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
}

func TestDaemonResumesInterruptedMigration(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = ""
	note := testsupport.WriteNote(t, cfg.Paths.VaultDir, "john.md", "bible-refs:\n  - bible/Johannes/3/16\n", "body\n")

	seed := testsupport.MustOpenStore(t, cfg)
	started := time.Now().Add(-time.Minute)
	if err := seed.Save(context.Background(), &queue.Queue{
		IsRunning: true,
		Tasks: []*queue.Task{{
			ID: "interrupted", EntityID: "john", OldID: "Johannes", NewID: "Joh",
			Status: queue.StatusRunning, FilesProcessed: 1, FilesTotal: 1, StartedAt: &started,
			CreatedAt: started,
		}},
	}); err != nil {
		t.Fatalf("seed Save: %v", err)
	}

	d, store := newDaemon(t, cfg)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	deadline := time.Now().Add(10 * time.Second)
	for {
		q, err := store.Load(context.Background())
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if q != nil && q.Len() == 0 && !q.IsRunning {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("interrupted migration never finished: %#v", q)
		}
		time.Sleep(20 * time.Millisecond)
	}
	if got := testsupport.ReadFile(t, note); !strings.Contains(got, "bible/Joh/3/16") {
		t.Fatalf("note not rewritten after resume:\n%s", got)
	}
}

func TestDaemonHTTPAPI(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Paths.APIToken = "secret"
	d, _ := newDaemon(t, cfg)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	base := "http://" + daemon.APIAddr(d)

	resp, err := http.Get(base + "/api/status")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}

	do := func(method, path, body string) *http.Response {
		t.Helper()
		req, err := http.NewRequest(method, base+path, strings.NewReader(body))
		if err != nil {
			t.Fatal(err)
		}
		req.Header.Set("Authorization", "Bearer secret")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("%s %s: %v", method, path, err)
		}
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	statusResp := do(http.MethodGet, "/api/status", "")
	if statusResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", statusResp.StatusCode)
	}
	var status api.DaemonStatus
	if err := json.NewDecoder(statusResp.Body).Decode(&status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if !status.Running || status.VaultDir != cfg.Paths.VaultDir {
		t.Fatalf("unexpected status: %#v", status)
	}

	bad := do(http.MethodPost, "/api/migrations", `{"entityId":"john","oldId":"Joh","newId":"Joh"}`)
	if bad.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid rename, got %d", bad.StatusCode)
	}
	malformed := do(http.MethodPost, "/api/migrations", `{"entityId":`)
	if malformed.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", malformed.StatusCode)
	}

	ok := do(http.MethodPost, "/api/migrations", `{"entityId":"john","oldId":"Johannes","newId":"Joh"}`)
	if ok.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", ok.StatusCode)
	}
	var migrate api.MigrateResponse
	if err := json.NewDecoder(ok.Body).Decode(&migrate); err != nil {
		t.Fatalf("decode migrate: %v", err)
	}
	if !migrate.Created || migrate.Task.NewID != "Joh" {
		t.Fatalf("unexpected migrate response: %#v", migrate)
	}

	queueResp := do(http.MethodGet, "/api/queue", "")
	var list api.QueueListResponse
	if err := json.NewDecoder(queueResp.Body).Decode(&list); err != nil {
		t.Fatalf("decode queue: %v", err)
	}
	if list.Tasks == nil {
		t.Fatal("expected a tasks array")
	}

	if missing := do(http.MethodGet, "/api/nope", ""); missing.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", missing.StatusCode)
	}
	if wrong := do(http.MethodDelete, "/api/queue", ""); wrong.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", wrong.StatusCode)
	}
}
