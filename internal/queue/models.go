package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a migration task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
)

var allStatuses = []Status{StatusPending, StatusRunning, StatusCompleted}

// AllStatuses returns every status in lifecycle order.
func AllStatuses() []Status {
	return append([]Status(nil), allStatuses...)
}

// ParseStatus converts a user supplied string into a Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if status == normalized {
			return status, true
		}
	}
	return "", false
}

// Task is a single migration: rewrite every reference to EntityID's OldID
// into NewID across the whole vault.
type Task struct {
	ID             string     `json:"id"`
	EntityID       string     `json:"entity_id"`
	OldID          string     `json:"old_id"`
	NewID          string     `json:"new_id"`
	Status         Status     `json:"status"`
	FilesProcessed int        `json:"files_processed"`
	FilesTotal     int        `json:"files_total"`
	FilesChanged   int        `json:"files_changed"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	if t.StartedAt != nil {
		started := *t.StartedAt
		c.StartedAt = &started
	}
	if t.CompletedAt != nil {
		completed := *t.CompletedAt
		c.CompletedAt = &completed
	}
	return &c
}

// Percent reports processing progress in the range [0, 100].
func (t *Task) Percent() float64 {
	if t == nil || t.FilesTotal <= 0 {
		return 0
	}
	p := float64(t.FilesProcessed) / float64(t.FilesTotal) * 100
	if p > 100 {
		return 100
	}
	return p
}

// Duration is the elapsed processing time, measured to now while running.
func (t *Task) Duration(now time.Time) time.Duration {
	if t == nil || t.StartedAt == nil {
		return 0
	}
	end := now
	if t.CompletedAt != nil {
		end = *t.CompletedAt
	}
	if d := end.Sub(*t.StartedAt); d > 0 {
		return d
	}
	return 0
}

// Queue is the unit of persisted state: tasks in processing order plus
// whether a processing loop is active.
type Queue struct {
	Tasks     []*Task `json:"tasks"`
	IsRunning bool    `json:"is_running"`
}

// Len returns the number of queued tasks.
func (q *Queue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.Tasks)
}

// FindPending returns the pending task for entityID renamed to newID, if any.
func (q *Queue) FindPending(entityID, newID string) *Task {
	if q == nil {
		return nil
	}
	for _, task := range q.Tasks {
		if task.Status == StatusPending && task.EntityID == entityID && task.NewID == newID {
			return task
		}
	}
	return nil
}

// Append adds task at the back of the queue.
func (q *Queue) Append(task *Task) {
	q.Tasks = append(q.Tasks, task)
}

// Front returns the oldest task, or nil when the queue is empty.
func (q *Queue) Front() *Task {
	if q.Len() == 0 {
		return nil
	}
	return q.Tasks[0]
}

// PopFront removes the oldest task.
func (q *Queue) PopFront() {
	if q.Len() == 0 {
		return
	}
	q.Tasks[0] = nil
	q.Tasks = q.Tasks[1:]
}

// ResetRunning moves interrupted tasks back to pending with their processed
// count cleared. FilesTotal is kept until the task restarts. It returns the
// number of tasks reset.
func (q *Queue) ResetRunning() int {
	if q == nil {
		return 0
	}
	reset := 0
	for _, task := range q.Tasks {
		if task.Status != StatusRunning {
			continue
		}
		task.Status = StatusPending
		task.FilesProcessed = 0
		task.FilesChanged = 0
		reset++
	}
	return reset
}

// Counts returns the number of tasks in each status.
func (q *Queue) Counts() map[Status]int {
	counts := make(map[Status]int, len(allStatuses))
	if q == nil {
		return counts
	}
	for _, task := range q.Tasks {
		counts[task.Status]++
	}
	return counts
}

// Clone returns a deep copy of the queue.
func (q *Queue) Clone() *Queue {
	if q == nil {
		return nil
	}
	c := &Queue{IsRunning: q.IsRunning, Tasks: make([]*Task, 0, len(q.Tasks))}
	for _, task := range q.Tasks {
		c.Tasks = append(c.Tasks, task.Clone())
	}
	return c
}

// DatabaseHealth captures diagnostic details about the queue database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    int
	TableExists      bool
	IntegrityCheck   bool
	TotalTasks       int
	Error            string
}
