package queue

import (
	"database/sql"
	"errors"
	"time"
)

const taskColumns = "task_id, entity_id, old_id, new_id, status, files_processed, files_total, files_changed, started_at, completed_at, created_at"

func scanTask(scanner interface{ Scan(dest ...any) error }) (*Task, error) {
	var (
		id             string
		entityID       string
		oldID          string
		newID          string
		statusStr      string
		filesProcessed sql.NullInt64
		filesTotal     sql.NullInt64
		filesChanged   sql.NullInt64
		startedRaw     sql.NullString
		completedRaw   sql.NullString
		createdRaw     sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&entityID,
		&oldID,
		&newID,
		&statusStr,
		&filesProcessed,
		&filesTotal,
		&filesChanged,
		&startedRaw,
		&completedRaw,
		&createdRaw,
	); err != nil {
		return nil, err
	}

	task := &Task{
		ID:             id,
		EntityID:       entityID,
		OldID:          oldID,
		NewID:          newID,
		Status:         Status(statusStr),
		FilesProcessed: int(filesProcessed.Int64),
		FilesTotal:     int(filesTotal.Int64),
		FilesChanged:   int(filesChanged.Int64),
	}
	if startedRaw.Valid {
		if started, err := parseTimeString(startedRaw.String); err == nil {
			task.StartedAt = &started
		}
	}
	if completedRaw.Valid {
		if completed, err := parseTimeString(completedRaw.String); err == nil {
			task.CompletedAt = &completed
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		task.CreatedAt = created
	}
	return task, nil
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		value = time.Now()
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
