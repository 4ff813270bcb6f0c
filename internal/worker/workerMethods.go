package worker

import (
	"context"
	"time"

	"github.com/jurisai/jurisai/internal/config"
	"github.com/jurisai/jurisai/internal/domain/taskmodel"
	"github.com/jurisai/jurisai/internal/metrics"
)

// Execution deadlines per task type. Ingest batches against external APIs
// and gets a longer leash.
const (
	ingestDeadline  = 10 * time.Minute
	defaultDeadline = 2 * time.Minute
)

func executeTask(task taskmodel.Task) {
	start := time.Now()
	defer func() {
		metrics.CaptureTaskMetrics(string(task.Status), time.Since(start))
	}()

	ctxTrace := context.WithValue(context.Background(), config.TRACE_ID_KEY, task.TraceId)
	ctx, cancel := context.WithTimeout(ctxTrace, deadlineFor(task))
	defer cancel()

	log := logger.With("traceId", task.TraceId, "taskId", task.Id)
	log.Debug("Processing task", "agent", task.AgentType)

	// The task may have been cancelled while queued.
	if _taskService.Cancelled(ctx, task.Id, task.UserId) {
		log.Info("Skipping cancelled task")
		return
	}

	task.Status = taskmodel.TaskStatusRunning
	task.StartedTime = time.Now()
	_taskService.SaveProgress(ctx, task)

	task = _registry.Execute(ctx, task)

	if !task.Finished() {
		// Agents should always land in a terminal state; treat anything
		// else as completed so the record does not hang in RUNNING.
		task.Status = taskmodel.TaskStatusCompleted
	}
	task.EndTime = time.Now()
	_taskService.Finish(ctx, task)
	log.Debug("Task finished", "status", task.Status)
}

func deadlineFor(task taskmodel.Task) time.Duration {
	if task.TaskType == taskmodel.TaskTypeDocumentIngest {
		return ingestDeadline
	}
	return defaultDeadline
}
