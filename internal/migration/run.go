package migration

import (
	"context"
	"errors"

	"bibleref/internal/logging"
	"bibleref/internal/notifications"
	"bibleref/internal/queue"
	"bibleref/internal/rewrite"
	"bibleref/internal/services"
)

func (m *Manager) run(ctx context.Context, done chan struct{}) {
	defer m.wg.Done()
	defer close(done)

	err := m.drain(ctx)

	m.mu.Lock()
	if err != nil {
		m.q.IsRunning = false
		if !errors.Is(err, context.Canceled) {
			m.lastErr = err
		}
	}
	m.mu.Unlock()

	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		m.logger.Info("migration loop interrupted; the current task resumes on next start",
			logging.Event("migration_interrupted"),
		)
	default:
		logging.ErrorWithContext(m.logger, "migration loop stopped", "migration_persist_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the state directory is writable, then run bibleref resume"),
		)
	}
}

// drain processes tasks front to back until the queue is empty.
func (m *Manager) drain(ctx context.Context) error {
	store := context.WithoutCancel(ctx)

	if err := m.persist(store); err != nil {
		return err
	}
	m.logger.Debug("migration loop started")

	for {
		m.mu.Lock()
		task := m.q.Front()
		if task == nil {
			m.q.IsRunning = false
			err := m.saveLocked(store)
			m.mu.Unlock()
			if err != nil {
				return err
			}
			m.logger.Debug("migration loop idle")
			return nil
		}
		m.mu.Unlock()

		// Between tasks is a checkpoint too; the front task stays pending.
		if err := ctx.Err(); err != nil {
			return err
		}

		if task.Status != queue.StatusCompleted {
			if err := m.runTask(ctx, task); err != nil {
				return err
			}
		}

		m.mu.Lock()
		m.q.PopFront()
		err := m.saveLocked(store)
		m.mu.Unlock()
		if err != nil {
			return err
		}
	}
}

// runTask rewrites every document for task. Cancellation is observed only at
// checkpoints; document writes and persistence ignore it.
func (m *Manager) runTask(ctx context.Context, task *queue.Task) error {
	store := context.WithoutCancel(ctx)
	taskCtx := services.WithEntityID(services.WithTaskID(store, task.ID), task.EntityID)
	logger := logging.WithContext(taskCtx, m.logger)

	m.mu.Lock()
	started := m.opts.now().UTC()
	task.Status = queue.StatusRunning
	task.StartedAt = &started
	task.CompletedAt = nil
	task.FilesProcessed = 0
	task.FilesChanged = 0
	m.mu.Unlock()

	docs, err := m.docs.List(taskCtx)
	if err != nil {
		return services.Wrap(services.ErrUnavailable, "migration", "list documents", "", err)
	}

	m.mu.Lock()
	task.FilesTotal = len(docs)
	err = m.saveLocked(store)
	m.mu.Unlock()
	if err != nil {
		return err
	}

	logger.Info("migration started",
		logging.Event("migration_started"),
		logging.String("old_id", task.OldID),
		logging.String("new_id", task.NewID),
		logging.Int("files_total", len(docs)),
	)

	rule := rewrite.NewRule(m.opts.tagPrefix, task.OldID, task.NewID)
	keys := m.opts.keys()
	sampler := logging.NewProgressSampler(10)
	interval := m.opts.checkpointInterval

	for _, doc := range docs {
		changed := false
		updateErr := m.docs.Update(taskCtx, doc, func(block rewrite.Block) {
			changed = rewrite.Apply(block, rule, keys...)
		})
		if updateErr != nil {
			logging.WarnWithContext(logger, "document skipped", "migration_document_failed",
				logging.Document(doc.RelPath),
				logging.Error(updateErr),
				logging.String(logging.FieldErrorHint, "fix the note's frontmatter and queue the rename again"),
				logging.String(logging.FieldImpact, "references in this note were not renamed"),
			)
		}

		m.mu.Lock()
		if updateErr == nil && changed {
			task.FilesChanged++
		}
		task.FilesProcessed++
		processed := task.FilesProcessed
		m.mu.Unlock()

		if sampler.ShouldLog(processed, len(docs)) {
			logger.Debug("migration progress",
				logging.Int("files_processed", processed),
				logging.Int("files_total", len(docs)),
			)
		}

		if processed%interval == 0 {
			m.opts.yield()
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := m.persist(store); err != nil {
				return err
			}
		}
	}

	m.mu.Lock()
	completed := m.opts.now().UTC()
	task.Status = queue.StatusCompleted
	task.CompletedAt = &completed
	result := *task.Clone()
	m.mu.Unlock()

	duration := result.Duration(completed)
	logger.Info("migration completed",
		logging.Event("migration_completed"),
		logging.String("old_id", result.OldID),
		logging.String("new_id", result.NewID),
		logging.Int("files_changed", result.FilesChanged),
		logging.Int("files_total", result.FilesTotal),
		logging.Duration("duration", duration),
	)
	m.notify(store, notifications.EventMigrationCompleted, notifications.Payload{
		"entityId": result.EntityID,
		"oldId":    result.OldID,
		"newId":    result.NewID,
		"changed":  result.FilesChanged,
		"total":    result.FilesTotal,
		"duration": duration,
	})
	return nil
}

func (m *Manager) persist(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveLocked(ctx)
}

func (m *Manager) saveLocked(ctx context.Context) error {
	if err := m.state.Save(ctx, m.q); err != nil {
		return services.Wrap(services.ErrTransient, "migration", "checkpoint", "persist queue", err)
	}
	return nil
}
