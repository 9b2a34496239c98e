package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Task describes a migration task in a transport-friendly format.
type Task struct {
	ID          string       `json:"id"`
	EntityID    string       `json:"entityId"`
	OldID       string       `json:"oldId"`
	NewID       string       `json:"newId"`
	Status      string       `json:"status"`
	Progress    TaskProgress `json:"progress"`
	CreatedAt   string       `json:"createdAt,omitempty"`
	StartedAt   string       `json:"startedAt,omitempty"`
	CompletedAt string       `json:"completedAt,omitempty"`
}

// TaskProgress captures document counters for a task.
type TaskProgress struct {
	FilesProcessed int     `json:"filesProcessed"`
	FilesTotal     int     `json:"filesTotal"`
	FilesChanged   int     `json:"filesChanged"`
	Percent        float64 `json:"percent"`
}

// MigrationStatus summarizes the processing loop.
type MigrationStatus struct {
	Running    bool           `json:"running"`
	Queued     int            `json:"queued"`
	QueueStats map[string]int `json:"queueStats"`
	Current    *Task          `json:"current,omitempty"`
	ElapsedMs  int64          `json:"elapsedMs,omitempty"`
	LastError  string         `json:"lastError,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool            `json:"running"`
	PID          int             `json:"pid"`
	VaultDir     string          `json:"vaultDir"`
	QueueDBPath  string          `json:"queueDbPath"`
	LockFilePath string          `json:"lockFilePath"`
	Migration    MigrationStatus `json:"migration"`
}

// QueueListResponse wraps the queued tasks in processing order.
type QueueListResponse struct {
	Tasks []Task `json:"tasks"`
}

// MigrateRequest asks for an entity rename.
type MigrateRequest struct {
	EntityID string `json:"entityId"`
	OldID    string `json:"oldId"`
	NewID    string `json:"newId"`
}

// MigrateResponse reports the queued task and whether it was newly created.
type MigrateResponse struct {
	Task    Task `json:"task"`
	Created bool `json:"created"`
}

// ErrorResponse is the body of every failed HTTP request.
type ErrorResponse struct {
	Error string `json:"error"`
}
