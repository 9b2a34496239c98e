package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"bibleref/internal/config"
	"bibleref/internal/daemon"
	"bibleref/internal/daemonctl"
	"bibleref/internal/ipc"
	"bibleref/internal/logging"
	"bibleref/internal/migration"
	"bibleref/internal/notifications"
	"bibleref/internal/preflight"
	"bibleref/internal/queue"
	"bibleref/internal/vault"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	// SocketPath overrides cfg.SocketPath() for the IPC listener.
	SocketPath string
}

// Run starts the bibleref daemon and blocks until it receives a signal or a
// stop request over IPC.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if opts.Development {
		logger = logger.With(logging.Bool("development", true))
	}

	logPreflight(signalCtx, logger, cfg)

	pidPath := filepath.Join(cfg.Paths.StateDir, daemonctl.PIDFileName)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return err
	}

	notifier := notifications.NewService(cfg)
	docs := vault.NewFromConfig(cfg, logger)
	manager := migration.New(store, docs, notifier, logger, migration.OptionsFromConfig(cfg)...)

	d, err := daemon.New(cfg, store, manager, notifier, logger)
	if err != nil {
		store.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	socketPath := opts.SocketPath
	if socketPath == "" {
		socketPath = cfg.SocketPath()
	}
	ipcServer, err := ipc.NewServer(signalCtx, socketPath, d, logger, cancel)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	<-signalCtx.Done()
	logger.Info("bibleref daemon shutting down",
		logging.Event("daemon_shutdown"))
	return nil
}

func logPreflight(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	for _, result := range preflight.Failed(preflight.RunAll(ctx, cfg)) {
		logger.Warn("preflight check failed",
			logging.Event("preflight_failed"),
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldErrorHint, "run bibleref doctor for details"),
		)
	}
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
