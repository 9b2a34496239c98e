package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"bibleref/internal/config"
	"bibleref/internal/daemon"
	"bibleref/internal/logging"
	"bibleref/internal/migration"
	"bibleref/internal/notifications"
	"bibleref/internal/queue"
	"bibleref/internal/vault"
)

// localRuntime runs the migration loop inside the CLI process. It holds the
// daemon lock for its lifetime so a daemon cannot start underneath it.
type localRuntime struct {
	lock    *flock.Flock
	store   *queue.Store
	manager *migration.Manager
	out     io.Writer
}

func openLocalRuntime(cfg *config.Config, out io.Writer) (*localRuntime, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w; the daemon socket did not answer, check %s", daemon.ErrAlreadyRunning, cfg.LockPath())
	}

	store, err := queue.Open(cfg)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	logger := localLogger(cfg)
	shared := &lockedWriter{w: out}
	notifier := &reportingNotifier{next: notifications.NewService(cfg), out: shared}
	manager := migration.New(store, vault.NewFromConfig(cfg, logger), notifier, logger, migration.OptionsFromConfig(cfg)...)
	return &localRuntime{lock: lock, store: store, manager: manager, out: shared}, nil
}

// run starts the loop, resumes interrupted work, runs enqueue if given and
// blocks until the queue drains.
func (r *localRuntime) run(ctx context.Context, enqueue func(context.Context, *migration.Manager) error) error {
	if err := r.manager.Start(ctx); err != nil {
		return err
	}
	defer r.manager.Stop()

	if err := r.manager.ResumeMigrations(ctx); err != nil {
		return err
	}
	if enqueue != nil {
		if err := enqueue(ctx, r.manager); err != nil {
			return err
		}
	}
	return r.manager.Wait(ctx)
}

func (r *localRuntime) Close() error {
	err := r.store.Close()
	if unlockErr := r.lock.Unlock(); err == nil {
		err = unlockErr
	}
	return err
}

// localLogger keeps in-process runs quiet on the terminal; warnings and
// errors still reach stderr.
func localLogger(cfg *config.Config) *slog.Logger {
	logger, err := logging.New(logging.Options{
		Level:       "warn",
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return logging.NewNop()
	}
	return logger
}

// reportingNotifier prints completion notices for in-process runs and
// forwards every event to the configured service.
type reportingNotifier struct {
	next notifications.Service
	out  io.Writer
}

func (n *reportingNotifier) Publish(ctx context.Context, event notifications.Event, payload notifications.Payload) error {
	if event == notifications.EventMigrationCompleted && n.out != nil {
		fmt.Fprintln(n.out, completionLine(payload))
	}
	return n.next.Publish(ctx, event, payload)
}

func completionLine(payload notifications.Payload) string {
	oldID, _ := payload["oldId"].(string)
	newID, _ := payload["newId"].(string)
	changed, _ := payload["changed"].(int)
	total, _ := payload["total"].(int)
	duration, _ := payload["duration"].(time.Duration)
	return fmt.Sprintf("Renamed %s → %s: %d of %d notes updated in %s",
		oldID, newID, changed, total, duration.Round(time.Millisecond))
}

// lockedWriter serializes writes from the command and the migration loop.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
