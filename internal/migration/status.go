package migration

import (
	"time"

	"bibleref/internal/queue"
)

// Status is a point-in-time view of the manager for status readers.
type Status struct {
	Running   bool                 `json:"running"`
	Started   bool                 `json:"started"`
	LastError string               `json:"last_error,omitempty"`
	Current   *queue.Task          `json:"current,omitempty"`
	Elapsed   time.Duration        `json:"elapsed,omitempty"`
	Counts    map[queue.Status]int `json:"counts"`
	Queued    int                  `json:"queued"`
}

// Snapshot returns a copy of the in-memory queue.
func (m *Manager) Snapshot() queue.Queue {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.q == nil {
		return queue.Queue{Tasks: []*queue.Task{}}
	}
	return *m.q.Clone()
}

// Status summarizes the loop state and the task in progress.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := Status{Started: m.started, Counts: map[queue.Status]int{}}
	if m.lastErr != nil {
		status.LastError = m.lastErr.Error()
	}
	if m.q == nil {
		return status
	}
	status.Running = m.q.IsRunning
	status.Counts = m.q.Counts()
	status.Queued = m.q.Len()
	if front := m.q.Front(); front != nil && front.Status == queue.StatusRunning {
		status.Current = front.Clone()
		status.Elapsed = front.Duration(m.opts.now())
	}
	return status
}
