package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jurisai/jurisai/internal/domain/taskmodel"
)

// TaskArchive is the durable record of agent tasks (taskmodel.Archive).
// The Redis mirror serves polling; this table serves history and audits.
type TaskArchive struct {
	pool *pgxpool.Pool
}

func NewTaskArchive(pool *pgxpool.Pool) *TaskArchive {
	return &TaskArchive{pool: pool}
}

func (s *TaskArchive) InsertTask(ctx context.Context, t taskmodel.Task) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO agent_tasks
		 (id, agent_type, task_type, status, user_id, document_id, parameters, created_at)
		 VALUES ($1, $2, $3, $4, NULLIF($5, 0), NULLIF($6, 0), $7, $8)`,
		t.Id, t.AgentType, t.TaskType, t.Status, t.UserId, t.DocumentId, t.Parameters, t.CreatedTime)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

func (s *TaskArchive) UpdateTask(ctx context.Context, t taskmodel.Task) error {
	var started, completed *time.Time
	if !t.StartedTime.IsZero() {
		started = &t.StartedTime
	}
	if !t.EndTime.IsZero() {
		completed = &t.EndTime
	}
	// Cancellation is terminal; a worker result arriving after a mid-run
	// cancel must not overwrite it.
	tag, err := s.pool.Exec(ctx,
		`UPDATE agent_tasks SET status = $2, results = $3, error_message = NULLIF($4, ''),
		        confidence = $5, started_at = COALESCE($6, started_at),
		        completed_at = COALESCE($7, completed_at)
		 WHERE id = $1 AND status <> $8`,
		t.Id, t.Status, t.Results, t.Error.Message, t.Confidence, started, completed,
		taskmodel.TaskStatusCancelled)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM agent_tasks WHERE id = $1)`, t.Id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}
		if !exists {
			return ErrNotFound
		}
	}
	return nil
}

const taskColumns = `id, agent_type, task_type, status, COALESCE(user_id, 0),
	COALESCE(document_id, 0), parameters, results, COALESCE(error_message, ''),
	COALESCE(confidence, 0), created_at, started_at, completed_at`

func scanTask(row pgx.Row) (taskmodel.Task, error) {
	var t taskmodel.Task
	var started, completed *time.Time
	err := row.Scan(&t.Id, &t.AgentType, &t.TaskType, &t.Status, &t.UserId,
		&t.DocumentId, &t.Parameters, &t.Results, &t.Error.Message,
		&t.Confidence, &t.CreatedTime, &started, &completed)
	if started != nil {
		t.StartedTime = *started
	}
	if completed != nil {
		t.EndTime = *completed
	}
	return t, err
}

// GetTask is owner-scoped: a task is only visible to the user who created it.
func (s *TaskArchive) GetTask(ctx context.Context, taskId string, userId int64) (taskmodel.Task, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM agent_tasks WHERE id = $1 AND user_id = $2`, taskId, userId)
	t, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrNotFound
	}
	if err != nil {
		return t, fmt.Errorf("failed to load task: %w", err)
	}
	return t, nil
}

func (s *TaskArchive) ListTasks(ctx context.Context, userId int64, status string, limit int) ([]taskmodel.Task, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM agent_tasks
		 WHERE user_id = $1 AND ($2 = '' OR status = $2)
		 ORDER BY created_at DESC LIMIT $3`, userId, status, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []taskmodel.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// CancelTask flips a task to CANCELLED only while it has not finished.
// Returns false when the task is unknown, not owned, or already terminal.
func (s *TaskArchive) CancelTask(ctx context.Context, taskId string, userId int64) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE agent_tasks SET status = $3, completed_at = now()
		 WHERE id = $1 AND user_id = $2 AND status IN ($4, $5)`,
		taskId, userId, taskmodel.TaskStatusCancelled,
		taskmodel.TaskStatusPending, taskmodel.TaskStatusRunning)
	if err != nil {
		return false, fmt.Errorf("failed to cancel task: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
