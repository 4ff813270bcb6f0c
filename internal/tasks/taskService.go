// Package tasks owns the agent task lifecycle: enqueue onto the worker
// channel, mirror live status in Redis, archive durably in Postgres.
package tasks

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/jurisai/jurisai/internal/adapter/utils"
	"github.com/jurisai/jurisai/internal/config"
	"github.com/jurisai/jurisai/internal/domain/taskmodel"
	"github.com/jurisai/jurisai/internal/metrics"
	"github.com/jurisai/jurisai/pkg/logger_i"
)

type Service struct {
	TaskChannel       chan taskmodel.Task
	RequestCount      int64
	DispatcherChannel chan bool
	StatusStore       taskmodel.StatusStore
	Archive           taskmodel.Archive

	logger *logger_i.Logger
}

type ServiceConfig struct {
	TaskChannel       chan taskmodel.Task
	DispatcherChannel chan bool
	StatusStore       taskmodel.StatusStore
	Archive           taskmodel.Archive
}

func InitTaskService(cfg ServiceConfig) *Service {
	return &Service{
		TaskChannel:       cfg.TaskChannel,
		DispatcherChannel: cfg.DispatcherChannel,
		StatusStore:       cfg.StatusStore,
		Archive:           cfg.Archive,
		logger:            logger_i.NewLogger("TaskService"),
	}
}

// Enqueue fills in the task bookkeeping fields, records it, and pushes it to
// the worker channel. The channel send blocks when the buffer is full, which
// is the system's natural backpressure.
func (s *Service) Enqueue(ctx context.Context, task taskmodel.Task) (taskmodel.Task, error) {
	task.Id = utils.GetNewUUID()
	task.CreatedTime = time.Now()
	task.Status = taskmodel.TaskStatusPending
	task.CurrentStep = taskmodel.StepInit
	if traceId, ok := ctx.Value(config.TRACE_ID_KEY).(string); ok {
		task.TraceId = traceId
	}

	if err := s.Archive.InsertTask(ctx, task); err != nil {
		return taskmodel.Task{}, err
	}
	if err := s.StatusStore.SaveTask(ctx, task); err != nil {
		s.logger.Error("Failed to mirror task status", "taskId", task.Id, "error", err)
	}

	metrics.IncrementTasksInQueue()
	s.TaskChannel <- task
	s.logger.Info("Enqueued task", "taskId", task.Id, "agent", task.AgentType)

	// Ingest tasks get a worker immediately since they batch against external
	// services; otherwise scale up every N requests and let idle workers
	// retire on their own.
	accurateCount := atomic.AddInt64(&s.RequestCount, 1)
	if accurateCount%config.RequestsPerNewWorkerCount == 0 || task.TaskType == taskmodel.TaskTypeDocumentIngest {
		metrics.StartDispatcherSignalCount()
		s.DispatcherChannel <- true
	}

	return task, nil
}

// Status reads the live mirror first and falls back to the archive, so
// finished tasks stay visible after their Redis entry expires.
func (s *Service) Status(ctx context.Context, taskId string, userId int64) (taskmodel.Task, bool) {
	if task, found := s.StatusStore.GetTask(ctx, taskId); found {
		if task.UserId == userId {
			return task, true
		}
		return taskmodel.Task{}, false
	}

	task, err := s.Archive.GetTask(ctx, taskId, userId)
	if err != nil {
		return taskmodel.Task{}, false
	}
	return task, true
}

func (s *Service) List(ctx context.Context, userId int64, status string, limit int) ([]taskmodel.Task, error) {
	return s.Archive.ListTasks(ctx, userId, status, limit)
}

// Cancel marks a task cancelled if it has not finished. A running task only
// stops at its next status checkpoint; the record flips immediately.
func (s *Service) Cancel(ctx context.Context, taskId string, userId int64) (bool, error) {
	cancelled, err := s.Archive.CancelTask(ctx, taskId, userId)
	if err != nil || !cancelled {
		return false, err
	}

	if task, found := s.StatusStore.GetTask(ctx, taskId); found {
		task.Status = taskmodel.TaskStatusCancelled
		task.EndTime = time.Now()
		if err := s.StatusStore.SaveTask(ctx, task); err != nil {
			s.logger.Error("Failed to mirror cancellation", "taskId", taskId, "error", err)
		}
	}
	return true, nil
}

// Cancelled reports whether the task was cancelled out from under a worker.
func (s *Service) Cancelled(ctx context.Context, taskId string, userId int64) bool {
	task, err := s.Archive.GetTask(ctx, taskId, userId)
	if err != nil {
		return false
	}
	return task.Status == taskmodel.TaskStatusCancelled
}

// SaveProgress mirrors an in-flight state change to the status store.
func (s *Service) SaveProgress(ctx context.Context, task taskmodel.Task) {
	if err := s.StatusStore.SaveTask(ctx, task); err != nil {
		s.logger.Error("Failed to update status mirror", "taskId", task.Id, "error", err)
	}
}

// Finish writes the terminal state to both stores. When the task was
// cancelled while it ran, the cancellation is what stays on record and the
// worker's result is discarded.
func (s *Service) Finish(ctx context.Context, task taskmodel.Task) {
	if err := s.Archive.UpdateTask(ctx, task); err != nil {
		s.logger.Error("Failed to archive task result", "taskId", task.Id, "error", err)
	}
	if s.Cancelled(ctx, task.Id, task.UserId) {
		s.logger.Info("Task was cancelled mid-run", "taskId", task.Id)
		return
	}
	s.SaveProgress(ctx, task)
}
