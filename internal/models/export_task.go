package models

import "time"

// Export task lifecycle in the tasks table.
const (
	TaskStatusQueued = "queued"
	TaskStatusDone   = "done"
	TaskStatusFailed = "failed"
)

// ExportTask asks the worker to render an agenda workbook for a date range.
type ExportTask struct {
	ID        int64     `json:"id"`
	FromDate  string    `json:"from_date"`
	ToDate    string    `json:"to_date"`
	Status    string    `json:"status"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"last_error,omitempty"`
	FilePath  string    `json:"file_path,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
