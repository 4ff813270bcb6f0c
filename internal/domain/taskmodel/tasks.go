package taskmodel

import (
	"context"
	"time"
)

type TaskStatus string
type InternalStatus string

type AgentType string
type TaskType string

const (
	TaskStatusPending   TaskStatus = "PENDING"
	TaskStatusRunning   TaskStatus = "RUNNING"
	TaskStatusCompleted TaskStatus = "COMPLETED"
	TaskStatusFailed    TaskStatus = "FAILED"
	TaskStatusCancelled TaskStatus = "CANCELLED"

	StepInit             InternalStatus = "Init"
	StepCacheCall        InternalStatus = "CacheCall"
	StepVectorDBCall     InternalStatus = "VectorDB"
	StepEmbeddingAPICall InternalStatus = "EmbeddingAPI"
	StepLLMCall          InternalStatus = "LLM"
	StepIngestInit       InternalStatus = "IngestInit"
	StepIngestProcessing InternalStatus = "IngestProcessing"
	StepAnalysis         InternalStatus = "Analysis"
	StepError            InternalStatus = "Error"
	StepComplete         InternalStatus = "Complete"

	AgentDocumentAnalyzer AgentType = "document_analyzer"
	AgentRAGIngest        AgentType = "rag_ingest"

	TaskTypeDocumentAnalysis TaskType = "document_analysis"
	TaskTypeDocumentIngest   TaskType = "document_ingest"
)

// Task is one unit of agent work. It is queued on the task channel, mirrored
// to the status store while running, and persisted durably on completion.
type Task struct {
	Id          string         `json:"id"`
	TraceId     string         `json:"trace_id"`
	AgentType   AgentType      `json:"agent_type"`
	TaskType    TaskType       `json:"task_type"`
	UserId      int64          `json:"user_id"`
	DocumentId  int64          `json:"document_id,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
	Results     map[string]any `json:"results,omitempty"`
	Error       TaskError      `json:"error,omitempty"`
	Confidence  float64        `json:"confidence,omitempty"`
	CreatedTime time.Time      `json:"created_time"`
	StartedTime time.Time      `json:"started_time,omitempty"`
	EndTime     time.Time      `json:"end_time,omitempty"`
	Status      TaskStatus     `json:"status"`
	CurrentStep InternalStatus `json:"current_step"`
}

type TaskError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Retry   bool   `json:"retry"`
}

// Finished reports whether the task reached a terminal state. Cancellation
// is only allowed while this is false.
func (t Task) Finished() bool {
	switch t.Status {
	case TaskStatusCompleted, TaskStatusFailed, TaskStatusCancelled:
		return true
	}
	return false
}

// StatusStore mirrors live task state for cheap polling. Redis-backed in
// production, in-memory when Redis is unavailable.
type StatusStore interface {
	GetTask(ctx context.Context, taskId string) (Task, bool)
	SaveTask(ctx context.Context, task Task) error
	DeleteTask(ctx context.Context, taskId string)
}

// Archive is the durable record of tasks, queried by the agents API.
type Archive interface {
	InsertTask(ctx context.Context, task Task) error
	UpdateTask(ctx context.Context, task Task) error
	GetTask(ctx context.Context, taskId string, userId int64) (Task, error)
	ListTasks(ctx context.Context, userId int64, status string, limit int) ([]Task, error)
	CancelTask(ctx context.Context, taskId string, userId int64) (bool, error)
}
