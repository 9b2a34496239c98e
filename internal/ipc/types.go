package ipc

import "bibleref/internal/api"

// Task mirrors the HTTP API task DTO for IPC callers.
type Task = api.Task

// MigrationStatus mirrors the HTTP API loop summary.
type MigrationStatus = api.MigrationStatus

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon and migration status.
type StatusResponse = api.DaemonStatus

// QueueListRequest filters queue listing by status.
type QueueListRequest struct {
	Statuses []string `json:"statuses"`
}

// QueueListResponse contains queued tasks in processing order.
type QueueListResponse struct {
	Tasks []Task `json:"tasks"`
}

// MigrateRequest queues an entity rename.
type MigrateRequest = api.MigrateRequest

// MigrateResponse reports the queued task.
type MigrateResponse = api.MigrateResponse

// ResumeRequest requeues interrupted migrations.
type ResumeRequest struct{}

// ResumeResponse reports how many tasks are queued after the resume.
type ResumeResponse struct {
	Queued int `json:"queued"`
}

// DatabaseHealthRequest fetches detailed database diagnostics.
type DatabaseHealthRequest struct{}

// DatabaseHealthResponse reports database health information.
type DatabaseHealthResponse struct {
	DBPath           string `json:"db_path"`
	DatabaseExists   bool   `json:"database_exists"`
	DatabaseReadable bool   `json:"database_readable"`
	SchemaVersion    int    `json:"schema_version"`
	TableExists      bool   `json:"table_exists"`
	IntegrityCheck   bool   `json:"integrity_check"`
	TotalTasks       int    `json:"total_tasks"`
	Error            string `json:"error"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

// StopRequest asks the daemon process to shut down.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}
