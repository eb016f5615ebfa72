package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"turnero/internal/models"
)

// CreateExportTask persists a queued agenda export so the worker can
// recover pending work after a restart.
func (db *DB) CreateExportTask(ctx context.Context, task *models.ExportTask) error {
	now := time.Now()
	query := `INSERT INTO export_tasks (from_date, to_date, status, attempts, last_error, file_path, created_at, updated_at)
              VALUES (?, ?, ?, 0, '', '', ?, ?)`
	result, err := db.ExecContext(ctx, query, task.FromDate, task.ToDate, models.TaskStatusQueued, now, now)
	if err != nil {
		return fmt.Errorf("create export task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("export task id: %w", err)
	}
	task.ID = id
	task.Status = models.TaskStatusQueued
	task.CreatedAt = now
	task.UpdatedAt = now
	return nil
}

func (db *DB) GetExportTask(ctx context.Context, id int64) (*models.ExportTask, error) {
	query := `SELECT id, from_date, to_date, status, attempts, last_error, file_path, created_at, updated_at
              FROM export_tasks WHERE id = ?`
	var t models.ExportTask
	err := db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.FromDate, &t.ToDate, &t.Status, &t.Attempts,
		&t.LastError, &t.FilePath, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get export task: %w", err)
	}
	return &t, nil
}

// ListQueuedExportTasks returns unfinished tasks oldest first, for
// requeueing on startup.
func (db *DB) ListQueuedExportTasks(ctx context.Context) ([]*models.ExportTask, error) {
	query := `SELECT id, from_date, to_date, status, attempts, last_error, file_path, created_at, updated_at
              FROM export_tasks WHERE status = ? ORDER BY id`
	rows, err := db.QueryContext(ctx, query, models.TaskStatusQueued)
	if err != nil {
		return nil, fmt.Errorf("list queued export tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.ExportTask
	for rows.Next() {
		var t models.ExportTask
		err := rows.Scan(
			&t.ID, &t.FromDate, &t.ToDate, &t.Status, &t.Attempts,
			&t.LastError, &t.FilePath, &t.CreatedAt, &t.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan export task: %w", err)
		}
		tasks = append(tasks, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate export tasks: %w", err)
	}
	return tasks, nil
}

func (db *DB) MarkExportTaskDone(ctx context.Context, id int64, filePath string) error {
	query := `UPDATE export_tasks SET status = ?, file_path = ?, updated_at = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, query, models.TaskStatusDone, filePath, time.Now(), id)
	if err != nil {
		return fmt.Errorf("mark export task done: %w", err)
	}
	return nil
}

func (db *DB) MarkExportTaskFailed(ctx context.Context, id int64, attempts int, lastError string) error {
	query := `UPDATE export_tasks SET status = ?, attempts = ?, last_error = ?, updated_at = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, query, models.TaskStatusFailed, attempts, lastError, time.Now(), id)
	if err != nil {
		return fmt.Errorf("mark export task failed: %w", err)
	}
	return nil
}

func (db *DB) BumpExportTaskAttempts(ctx context.Context, id int64, attempts int, lastError string) error {
	query := `UPDATE export_tasks SET attempts = ?, last_error = ?, updated_at = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, query, attempts, lastError, time.Now(), id)
	if err != nil {
		return fmt.Errorf("bump export task attempts: %w", err)
	}
	return nil
}
