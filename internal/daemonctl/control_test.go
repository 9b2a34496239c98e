package daemonctl_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"bibleref/internal/daemon"
	"bibleref/internal/daemonctl"
	"bibleref/internal/ipc"
	"bibleref/internal/logging"
	"bibleref/internal/migration"
	"bibleref/internal/testsupport"
	"bibleref/internal/vault"
)

func startDaemon(t *testing.T) (string, *daemon.Daemon) {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = ""
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	store := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()
	mgr := migration.New(store, vault.NewFromConfig(cfg, logger), nil, logger, migration.OptionsFromConfig(cfg)...)
	d, err := daemon.New(cfg, store, mgr, nil, logger)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := d.Start(ctx); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}
	t.Cleanup(d.Stop)

	srv, err := ipc.NewServer(ctx, cfg.SocketPath(), d, logger, nil)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(srv.Close)
	return cfg.SocketPath(), d
}

func TestStopAndTerminateWithoutDaemon(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "missing.sock")
	_, err := daemonctl.StopAndTerminate(socket, time.Second)
	if !errors.Is(err, daemonctl.ErrDaemonNotRunning) {
		t.Fatalf("expected ErrDaemonNotRunning, got %v", err)
	}
}

func TestWaitForShutdownWithoutSocket(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "missing.sock")
	if err := daemonctl.WaitForShutdown(socket, time.Second); err != nil {
		t.Fatalf("WaitForShutdown: %v", err)
	}
}

func TestEnsureStartedReusesRunningDaemon(t *testing.T) {
	socket, _ := startDaemon(t)

	result, err := daemonctl.EnsureStarted(socket, "", daemonctl.LaunchOptions{}, time.Second)
	if err != nil {
		t.Fatalf("EnsureStarted: %v", err)
	}
	if result.Launched {
		t.Fatal("expected existing daemon to be reused")
	}
	if result.PID != os.Getpid() {
		t.Fatalf("pid = %d, want %d", result.PID, os.Getpid())
	}
}

func TestStopAndTerminateGraceful(t *testing.T) {
	socket, d := startDaemon(t)

	result, err := daemonctl.StopAndTerminate(socket, 2*time.Second)
	if err != nil {
		t.Fatalf("StopAndTerminate: %v", err)
	}
	if !result.StopAcknowledged {
		t.Fatal("expected stop to be acknowledged")
	}
	if result.ForcedKill {
		t.Fatal("did not expect a forced kill")
	}
	if d.Running() {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestLaunchRequiresExecutable(t *testing.T) {
	if err := daemonctl.Launch("  ", daemonctl.LaunchOptions{}); err == nil {
		t.Fatal("expected error for empty executable path")
	}
}

func TestForceKillProcessRefusesCurrentProcess(t *testing.T) {
	pidPath := filepath.Join(t.TempDir(), daemonctl.PIDFileName)
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644); err != nil {
		t.Fatalf("write pid: %v", err)
	}
	_, err := daemonctl.ForceKillProcess(pidPath, 0)
	if err == nil || !strings.Contains(err.Error(), "refusing") {
		t.Fatalf("expected refusal, got %v", err)
	}
	if _, statErr := os.Stat(pidPath); statErr != nil {
		t.Fatalf("pid file should remain: %v", statErr)
	}
}

func TestForceKillProcessWithoutPID(t *testing.T) {
	pidPath := filepath.Join(t.TempDir(), daemonctl.PIDFileName)
	if _, err := daemonctl.ForceKillProcess(pidPath, 0); err == nil {
		t.Fatal("expected error when no pid is known")
	}
}
