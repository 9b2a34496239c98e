package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"
)

// Load reads the persisted queue. It returns nil, nil when no queue has
// ever been saved.
func (s *Store) Load(ctx context.Context) (*Queue, error) {
	ctx = ensureContext(ctx)

	var isRunning int
	err := s.db.QueryRowContext(ctx, "SELECT is_running FROM queue_state WHERE id = 1").Scan(&isRunning)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read queue state: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT "+taskColumns+" FROM migration_tasks ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	q := &Queue{IsRunning: isRunning != 0, Tasks: []*Task{}}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		q.Tasks = append(q.Tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return q, nil
}

// Save replaces the persisted queue with q in a single transaction.
func (s *Store) Save(ctx context.Context, q *Queue) error {
	ctx = ensureContext(ctx)
	if q == nil {
		return errors.New("save queue: nil queue")
	}
	return retryOnBusy(ctx, func() error {
		return s.save(ctx, q)
	})
}

func (s *Store) save(ctx context.Context, q *Queue) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM migration_tasks"); err != nil {
		return fmt.Errorf("clear tasks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO migration_tasks (position, "+taskColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, task := range q.Tasks {
		if task == nil {
			continue
		}
		if _, err := stmt.ExecContext(ctx,
			i,
			task.ID,
			task.EntityID,
			task.OldID,
			task.NewID,
			string(task.Status),
			task.FilesProcessed,
			task.FilesTotal,
			task.FilesChanged,
			nullableTime(task.StartedAt),
			nullableTime(task.CompletedAt),
			formatTime(task.CreatedAt),
		); err != nil {
			return fmt.Errorf("insert task %s: %w", task.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO queue_state (id, is_running, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET is_running = excluded.is_running, updated_at = excluded.updated_at`,
		boolToInt(q.IsRunning), formatTime(time.Now()),
	); err != nil {
		return fmt.Errorf("update queue state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// Stats returns the number of persisted tasks per status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM migration_tasks GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int, len(allStatuses))
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats[Status(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stats: %w", err)
	}
	return stats, nil
}

// CheckHealth inspects the database for diagnostics.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	ctx = ensureContext(ctx)
	health := DatabaseHealth{DBPath: s.path}

	if _, err := os.Stat(s.path); err == nil {
		health.DatabaseExists = true
	} else if !errors.Is(err, os.ErrNotExist) {
		health.Error = err.Error()
		return health, nil
	}

	if err := s.db.PingContext(ctx); err != nil {
		health.Error = fmt.Sprintf("ping: %v", err)
		return health, nil
	}
	health.DatabaseReadable = true

	version, err := s.readSchemaVersion(ctx)
	if err != nil {
		health.Error = err.Error()
		return health, nil
	}
	health.SchemaVersion = version

	var tableCount int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='migration_tasks'",
	).Scan(&tableCount); err != nil {
		health.Error = fmt.Sprintf("check table: %v", err)
		return health, nil
	}
	health.TableExists = tableCount > 0

	var integrity string
	if err := s.db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&integrity); err != nil {
		health.Error = fmt.Sprintf("integrity check: %v", err)
		return health, nil
	}
	health.IntegrityCheck = integrity == "ok"

	if health.TableExists {
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM migration_tasks").Scan(&health.TotalTasks); err != nil {
			health.Error = fmt.Sprintf("count tasks: %v", err)
		}
	}
	return health, nil
}
