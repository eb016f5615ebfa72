package worker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"turnero/internal/database"
	"turnero/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// AgendaWorker renders Excel agenda workbooks for date ranges requested
// by the admin portal. Tasks are durable in the export_tasks table;
// scheduling goes through a Redis list when available, otherwise an
// in-memory queue. Failed renders retry with exponential backoff.
type AgendaWorker struct {
	db            *database.DB
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan int64
	redisQueueKey string
	pollInterval  time.Duration
	exportPath    string
	logger        *zerolog.Logger
}

func NewAgendaWorker(db *database.DB, redisClient *redis.Client, retry RetryPolicy, exportPath string, logger *zerolog.Logger) *AgendaWorker {
	return &AgendaWorker{
		db:            db,
		redis:         redisClient,
		retryPolicy:   retry.withDefaults(),
		queue:         make(chan int64, models.WorkerQueueSize),
		redisQueueKey: "agenda:export_queue",
		pollInterval:  2 * time.Second,
		exportPath:    exportPath,
		logger:        logger,
	}
}

// EnqueueExport persists the task and schedules it.
func (w *AgendaWorker) EnqueueExport(ctx context.Context, fromDate, toDate string) (*models.ExportTask, error) {
	from, err := time.Parse(models.DateLayout, fromDate)
	if err != nil {
		return nil, fmt.Errorf("invalid from date %q: %w", fromDate, err)
	}
	to, err := time.Parse(models.DateLayout, toDate)
	if err != nil {
		return nil, fmt.Errorf("invalid to date %q: %w", toDate, err)
	}
	if to.Before(from) {
		return nil, fmt.Errorf("export range ends before it starts")
	}

	task := &models.ExportTask{FromDate: fromDate, ToDate: toDate}
	if err := w.db.CreateExportTask(ctx, task); err != nil {
		return nil, err
	}

	w.schedule(ctx, task.ID)
	return task, nil
}

func (w *AgendaWorker) schedule(ctx context.Context, taskID int64) {
	if w.redis != nil {
		if err := w.redis.LPush(ctx, w.redisQueueKey, taskID).Err(); err == nil {
			return
		} else {
			w.logger.Warn().Err(err).Int64("task_id", taskID).Msg("redis enqueue failed, using memory queue")
		}
	}
	select {
	case w.queue <- taskID:
	default:
		w.logger.Error().Int64("task_id", taskID).Msg("export queue full, task stays queued in db")
	}
}

// Start runs the consume loop until ctx is cancelled. Unfinished tasks
// from a previous run are requeued first.
func (w *AgendaWorker) Start(ctx context.Context) {
	if pending, err := w.db.ListQueuedExportTasks(ctx); err != nil {
		w.logger.Error().Err(err).Msg("requeue pending export tasks")
	} else {
		for _, task := range pending {
			w.schedule(ctx, task.ID)
		}
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info().Str("path", w.exportPath).Msg("agenda export worker started")

	for {
		select {
		case <-ctx.Done():
			return
		case taskID := <-w.queue:
			w.process(ctx, taskID)
		case <-ticker.C:
			w.drainRedis(ctx)
		}
	}
}

func (w *AgendaWorker) drainRedis(ctx context.Context) {
	if w.redis == nil {
		return
	}
	for {
		raw, err := w.redis.RPop(ctx, w.redisQueueKey).Result()
		if err == redis.Nil {
			return
		}
		if err != nil {
			w.logger.Warn().Err(err).Msg("redis dequeue failed")
			return
		}
		taskID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			w.logger.Error().Str("raw", raw).Msg("malformed task id in redis queue")
			continue
		}
		w.process(ctx, taskID)
	}
}

func (w *AgendaWorker) process(ctx context.Context, taskID int64) {
	task, err := w.db.GetExportTask(ctx, taskID)
	if err != nil {
		w.logger.Error().Err(err).Int64("task_id", taskID).Msg("load export task")
		return
	}
	if task.Status != models.TaskStatusQueued {
		return
	}

	attempts := task.Attempts
	for !w.retryPolicy.Exhausted(attempts) {
		attempts++
		filePath, err := w.renderAgenda(ctx, task)
		if err == nil {
			if err := w.db.MarkExportTaskDone(ctx, task.ID, filePath); err != nil {
				w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark export done")
			}
			w.logger.Info().Int64("task_id", task.ID).Str("file", filePath).Msg("agenda export completed")
			return
		}

		w.logger.Warn().Err(err).Int64("task_id", task.ID).Int("attempt", attempts).Msg("agenda export attempt failed")
		if err := w.db.BumpExportTaskAttempts(ctx, task.ID, attempts, err.Error()); err != nil {
			w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("record export attempt")
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.retryPolicy.NextDelay(attempts)):
		}
	}

	if err := w.db.MarkExportTaskFailed(ctx, task.ID, attempts, "max retries exceeded"); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark export failed")
	}
}
