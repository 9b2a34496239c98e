package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"bibleref/internal/config"
	"bibleref/internal/logging"
	"bibleref/internal/migration"
	"bibleref/internal/notifications"
	"bibleref/internal/queue"
)

// ErrAlreadyRunning reports that another daemon holds the lock.
var ErrAlreadyRunning = errors.New("another bibleref daemon instance is already running")

// Daemon coordinates the migration manager and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *queue.Store
	manager  *migration.Manager
	notifier notifications.Service

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	mu      sync.Mutex
	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	Migration    migration.Status
	VaultDir     string
	QueueDBPath  string
	LockFilePath string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *queue.Store, manager *migration.Manager, notifier notifications.Service, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || manager == nil {
		return nil, errors.New("daemon requires config, store, and migration manager")
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		manager:  manager,
		notifier: notifier,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock, resumes interrupted migrations and starts
// the HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if err := d.cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	fail := func(err error) error {
		d.manager.Stop()
		cancel()
		_ = d.lock.Unlock()
		return err
	}

	if err := d.manager.Start(runCtx); err != nil {
		return fail(fmt.Errorf("start migration manager: %w", err))
	}
	if err := d.manager.ResumeMigrations(runCtx); err != nil {
		return fail(fmt.Errorf("resume migrations: %w", err))
	}
	if err := d.api.start(runCtx); err != nil {
		return fail(err)
	}

	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("bibleref daemon started",
		logging.Event("daemon_started"),
		logging.String("lock", d.lockPath),
		logging.String("vault", d.cfg.Paths.VaultDir),
	)
	return nil
}

// Stop stops background processing and releases the daemon lock. A task in
// progress stops at its next checkpoint and resumes on the next start.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running.Load() {
		return
	}

	d.api.stop()
	d.manager.Stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock",
			logging.Error(err),
			logging.Event("daemon_lock_release_failed"),
			logging.String(logging.FieldErrorHint, "remove the lock file if the next start fails"),
			logging.String(logging.FieldImpact, "a stale lock may block the next start"),
		)
	}
	d.running.Store(false)
	d.logger.Info("bibleref daemon stopped", logging.Event("daemon_stopped"))
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Running reports whether the daemon has been started.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// Migrate queues a rename.
func (d *Daemon) Migrate(ctx context.Context, entityID, oldID, newID string) (queue.Task, bool, error) {
	return d.manager.QueueMigration(ctx, entityID, oldID, newID)
}

// Resume requeues interrupted migrations and restarts processing.
func (d *Daemon) Resume(ctx context.Context) error {
	if !d.running.Load() {
		return errors.New("daemon not running")
	}
	return d.manager.ResumeMigrations(ctx)
}

// QueueTasks returns the queued tasks in processing order.
func (d *Daemon) QueueTasks() []*queue.Task {
	snapshot := d.manager.Snapshot()
	return snapshot.Tasks
}

// DatabaseHealth returns detailed database diagnostics.
func (d *Daemon) DatabaseHealth(ctx context.Context) (queue.DatabaseHealth, error) {
	if d.store == nil {
		return queue.DatabaseHealth{}, errors.New("queue store unavailable")
	}
	return d.store.CheckHealth(ctx)
}

// TestNotification sends a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.Publish(ctx, notifications.EventTest, nil); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Migration:    d.manager.Status(),
		VaultDir:     d.cfg.Paths.VaultDir,
		QueueDBPath:  d.cfg.QueueDBPath(),
		LockFilePath: d.lockPath,
	}
}
