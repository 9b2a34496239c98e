package api

import (
	"time"

	"bibleref/internal/migration"
	"bibleref/internal/queue"
)

// FromTask converts a queue task to its API representation.
func FromTask(task *queue.Task) Task {
	if task == nil {
		return Task{}
	}
	dto := Task{
		ID:       task.ID,
		EntityID: task.EntityID,
		OldID:    task.OldID,
		NewID:    task.NewID,
		Status:   string(task.Status),
		Progress: TaskProgress{
			FilesProcessed: task.FilesProcessed,
			FilesTotal:     task.FilesTotal,
			FilesChanged:   task.FilesChanged,
			Percent:        task.Percent(),
		},
		CreatedAt:   formatTime(task.CreatedAt),
		StartedAt:   formatTimePtr(task.StartedAt),
		CompletedAt: formatTimePtr(task.CompletedAt),
	}
	return dto
}

// FromTasks converts tasks preserving order.
func FromTasks(tasks []*queue.Task) []Task {
	out := make([]Task, 0, len(tasks))
	for _, task := range tasks {
		if task == nil {
			continue
		}
		out = append(out, FromTask(task))
	}
	return out
}

// MergeQueueStats reports a count for every status, including empty ones.
func MergeQueueStats(stats map[queue.Status]int) map[string]int {
	out := make(map[string]int, len(queue.AllStatuses()))
	for _, status := range queue.AllStatuses() {
		out[string(status)] = 0
	}
	for status, count := range stats {
		out[string(status)] = count
	}
	return out
}

// FromMigrationStatus converts a manager status snapshot.
func FromMigrationStatus(status migration.Status) MigrationStatus {
	out := MigrationStatus{
		Running:    status.Running,
		Queued:     status.Queued,
		QueueStats: MergeQueueStats(status.Counts),
		LastError:  status.LastError,
	}
	if status.Current != nil {
		current := FromTask(status.Current)
		out.Current = &current
		out.ElapsedMs = status.Elapsed.Milliseconds()
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

// ParseTime reads a timestamp produced by this package.
func ParseTime(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(dateTimeFormat, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
