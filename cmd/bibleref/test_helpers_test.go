package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"bibleref/internal/config"
	"bibleref/internal/daemon"
	"bibleref/internal/ipc"
	"bibleref/internal/logging"
	"bibleref/internal/migration"
	"bibleref/internal/testsupport"
	"bibleref/internal/vault"
)

type cliTestEnv struct {
	cfg        *config.Config
	daemon     *daemon.Daemon
	server     *ipc.Server
	configPath string
	baseDir    string
}

// setupCLITestEnv writes a config file for a fresh vault. With withDaemon the
// daemon and its IPC server run in-process on the configured socket.
func setupCLITestEnv(t *testing.T, withDaemon bool) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("BIBLEREF_VAULT_DIR", "")
	t.Setenv("BIBLEREF_NTFY_TOPIC", "")
	t.Setenv("BIBLEREF_API_TOKEN", "")

	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = ""
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	env := &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
	if !withDaemon {
		return env
	}

	store := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()
	mgr := migration.New(store, vault.NewFromConfig(cfg, logger), nil, logger, migration.OptionsFromConfig(cfg)...)
	d, err := daemon.New(cfg, store, mgr, nil, logger)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := d.Start(ctx); err != nil {
		cancel()
		t.Fatalf("daemon.Start: %v", err)
	}
	srv, err := ipc.NewServer(ctx, cfg.SocketPath(), d, logger, nil)
	if err != nil {
		cancel()
		d.Stop()
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()

	env.daemon = d
	env.server = srv
	t.Cleanup(func() {
		cancel()
		srv.Close()
		d.Stop()
	})
	return env
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--socket", e.cfg.SocketPath(), "--config", e.configPath}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func (e *cliTestEnv) writeNote(t *testing.T, name string, refs ...string) string {
	t.Helper()
	var fm strings.Builder
	if len(refs) > 0 {
		fm.WriteString("bible-refs:\n")
		for _, ref := range refs {
			fm.WriteString("  - " + ref + "\n")
		}
	} else {
		fm.WriteString("title: plain\n")
	}
	return testsupport.WriteNote(t, e.cfg.Paths.VaultDir, name, fm.String(), "Body text.\n")
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\nvault_dir = %q\nstate_dir = %q\napi_bind = %q\n\n[notifications]\nntfy_topic = %q\n",
		cfg.Paths.VaultDir,
		cfg.Paths.StateDir,
		cfg.Paths.APIBind,
		cfg.Notifications.NtfyTopic,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func waitFor(t *testing.T, duration time.Duration, fn func() bool) {
	t.Helper()
	deadline := time.Now().Add(duration)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", duration)
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
