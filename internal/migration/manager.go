package migration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"bibleref/internal/logging"
	"bibleref/internal/notifications"
	"bibleref/internal/queue"
	"bibleref/internal/rewrite"
	"bibleref/internal/services"
	"bibleref/internal/vault"
)

// ErrInvalidRequest marks a rejected QueueMigration call.
var ErrInvalidRequest = fmt.Errorf("invalid migration request: %w", services.ErrValidation)

// StateStore persists the queue.
type StateStore interface {
	Load(ctx context.Context) (*queue.Queue, error)
	Save(ctx context.Context, q *queue.Queue) error
}

// DocumentStore enumerates notes and commits frontmatter edits one note at a
// time.
type DocumentStore interface {
	List(ctx context.Context) ([]vault.Document, error)
	Update(ctx context.Context, doc vault.Document, mutate func(rewrite.Block)) error
}

// Manager owns the migration queue and its processing loop.
type Manager struct {
	state    StateStore
	docs     DocumentStore
	notifier notifications.Service
	logger   *slog.Logger
	opts     options

	mu      sync.Mutex
	q       *queue.Queue
	started bool
	runCtx  context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	done    chan struct{}
	lastErr error
}

// New constructs a manager. The queue is loaded lazily on first use.
func New(state StateStore, docs DocumentStore, notifier notifications.Service, logger *slog.Logger, opts ...Option) *Manager {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if notifier == nil {
		notifier = notifications.NewService(nil)
	}
	return &Manager{
		state:    state,
		docs:     docs,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "migration"),
		opts:     o,
	}
}

// QueueMigration enqueues a rename of entityID from oldID to newID. A pending
// task for the same entity and target is returned unchanged with created set
// to false. The call returns once the task is persisted.
func (m *Manager) QueueMigration(ctx context.Context, entityID, oldID, newID string) (queue.Task, bool, error) {
	entityID = normalizeID(entityID)
	oldID = normalizeID(oldID)
	newID = normalizeID(newID)
	if err := validateRequest(entityID, oldID, newID); err != nil {
		return queue.Task{}, false, err
	}

	m.mu.Lock()
	if err := m.ensureLoadedLocked(ctx); err != nil {
		m.mu.Unlock()
		return queue.Task{}, false, err
	}
	if existing := m.q.FindPending(entityID, newID); existing != nil {
		task := *existing.Clone()
		m.mu.Unlock()
		m.logger.Debug("migration already queued",
			logging.String(logging.FieldTaskID, task.ID),
			logging.String(logging.FieldEntityID, entityID),
		)
		return task, false, nil
	}

	task := &queue.Task{
		ID:        uuid.NewString(),
		EntityID:  entityID,
		OldID:     oldID,
		NewID:     newID,
		Status:    queue.StatusPending,
		CreatedAt: m.opts.now().UTC(),
	}
	m.q.Append(task)
	if err := m.state.Save(ctx, m.q); err != nil {
		m.q.Tasks = m.q.Tasks[:len(m.q.Tasks)-1]
		m.mu.Unlock()
		return queue.Task{}, false, services.Wrap(services.ErrTransient, "migration", "queue", "persist queue", err)
	}
	pending := m.q.Counts()[queue.StatusPending]
	snapshot := *task.Clone()
	m.mu.Unlock()

	m.logger.Info("migration queued",
		logging.Event("migration_queued"),
		logging.String(logging.FieldTaskID, snapshot.ID),
		logging.String(logging.FieldEntityID, entityID),
		logging.String("old_id", oldID),
		logging.String("new_id", newID),
		logging.Int("pending", pending),
	)
	m.notify(ctx, notifications.EventMigrationQueued, notifications.Payload{
		"entityId": entityID,
		"oldId":    oldID,
		"newId":    newID,
		"pending":  pending,
	})

	m.mu.Lock()
	m.kickLocked()
	m.mu.Unlock()
	return snapshot, true, nil
}

// ResumeMigrations recovers from an interrupted run: running tasks go back to
// pending with their processed count cleared, the running flag is cleared and
// persisted, and processing restarts when any task remains.
func (m *Manager) ResumeMigrations(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureLoadedLocked(ctx); err != nil {
		return err
	}
	if m.q.IsRunning {
		return nil
	}
	reset := m.q.ResetRunning()
	m.q.IsRunning = false
	if err := m.state.Save(ctx, m.q); err != nil {
		return services.Wrap(services.ErrTransient, "migration", "resume", "persist queue", err)
	}
	if reset > 0 || m.q.Len() > 0 {
		m.logger.Info("migrations resumed",
			logging.Event("migration_resumed"),
			logging.Int("reset", reset),
			logging.Int("queued", m.q.Len()),
		)
	}
	m.lastErr = nil
	m.kickLocked()
	return nil
}

// Start binds the processing loop to ctx. Tasks queued before Start begin
// processing once it is called.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return errors.New("migration manager already started")
	}
	m.runCtx, m.cancel = context.WithCancel(ctx)
	m.started = true
	m.kickLocked()
	return nil
}

// Stop cancels the loop at its next checkpoint, or before it starts the next
// task, and waits for it to exit. An interrupted task stays running in storage
// for ResumeMigrations.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.started = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

// Wait blocks until the processing loop is idle and returns the error that
// stopped the last loop, if any.
func (m *Manager) Wait(ctx context.Context) error {
	for {
		m.mu.Lock()
		if m.q == nil || !m.q.IsRunning || m.done == nil {
			err := m.lastErr
			m.mu.Unlock()
			return err
		}
		done := m.done
		m.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (m *Manager) ensureLoadedLocked(ctx context.Context) error {
	if m.q != nil {
		return nil
	}
	q, err := m.state.Load(ctx)
	if err != nil {
		return services.Wrap(services.ErrTransient, "migration", "load", "read queue", err)
	}
	if q == nil {
		q = &queue.Queue{}
	}
	// A persisted running flag belongs to a previous process.
	q.IsRunning = false
	m.q = q
	return nil
}

// kickLocked starts the loop unless one is active, the manager is not
// started, or nothing is queued.
func (m *Manager) kickLocked() {
	if !m.started || m.q == nil || m.q.IsRunning || m.q.Len() == 0 {
		return
	}
	m.q.IsRunning = true
	m.lastErr = nil
	m.done = make(chan struct{})
	m.wg.Add(1)
	go m.run(m.runCtx, m.done)
}

func (m *Manager) notify(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if err := m.notifier.Publish(context.WithoutCancel(ctx), event, payload); err != nil {
		logging.WarnWithContext(m.logger, "notification failed", "notification_failed",
			logging.String("event", string(event)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			logging.String(logging.FieldImpact, "migration continues without a notice"),
		)
	}
}

func normalizeID(value string) string {
	return norm.NFC.String(strings.TrimSpace(value))
}

func validateRequest(entityID, oldID, newID string) error {
	switch {
	case entityID == "":
		return fmt.Errorf("%w: entity id is required", ErrInvalidRequest)
	case oldID == "":
		return fmt.Errorf("%w: old id is required", ErrInvalidRequest)
	case newID == "":
		return fmt.Errorf("%w: new id is required", ErrInvalidRequest)
	case oldID == newID:
		return fmt.Errorf("%w: old and new id are both %q", ErrInvalidRequest, oldID)
	}
	return nil
}
