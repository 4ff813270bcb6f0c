package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jurisai/jurisai/internal/config"
	"github.com/jurisai/jurisai/internal/data/postgres"
	"github.com/jurisai/jurisai/internal/domain/taskmodel"
)

type stubStatusStore struct {
	mu    sync.Mutex
	tasks map[string]taskmodel.Task
}

func newStubStatusStore() *stubStatusStore {
	return &stubStatusStore{tasks: make(map[string]taskmodel.Task)}
}

func (s *stubStatusStore) GetTask(_ context.Context, taskId string) (taskmodel.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, found := s.tasks[taskId]
	return task, found
}

func (s *stubStatusStore) SaveTask(_ context.Context, task taskmodel.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.Id] = task
	return nil
}

func (s *stubStatusStore) DeleteTask(_ context.Context, taskId string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, taskId)
}

type stubArchive struct {
	mu        sync.Mutex
	tasks     map[string]taskmodel.Task
	insertErr error
}

func newStubArchive() *stubArchive {
	return &stubArchive{tasks: make(map[string]taskmodel.Task)}
}

func (a *stubArchive) InsertTask(_ context.Context, t taskmodel.Task) error {
	if a.insertErr != nil {
		return a.insertErr
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tasks[t.Id] = t
	return nil
}

func (a *stubArchive) UpdateTask(_ context.Context, t taskmodel.Task) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	existing, found := a.tasks[t.Id]
	if !found {
		return postgres.ErrNotFound
	}
	// same contract as the real archive: cancellation is terminal
	if existing.Status == taskmodel.TaskStatusCancelled {
		return nil
	}
	a.tasks[t.Id] = t
	return nil
}

func (a *stubArchive) GetTask(_ context.Context, taskId string, userId int64) (taskmodel.Task, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	task, found := a.tasks[taskId]
	if !found || task.UserId != userId {
		return taskmodel.Task{}, postgres.ErrNotFound
	}
	return task, nil
}

func (a *stubArchive) ListTasks(_ context.Context, userId int64, status string, _ int) ([]taskmodel.Task, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []taskmodel.Task
	for _, t := range a.tasks {
		if t.UserId == userId && (status == "" || string(t.Status) == status) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (a *stubArchive) CancelTask(_ context.Context, taskId string, userId int64) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	task, found := a.tasks[taskId]
	if !found || task.UserId != userId || task.Finished() {
		return false, nil
	}
	task.Status = taskmodel.TaskStatusCancelled
	a.tasks[taskId] = task
	return true, nil
}

func newService(archive *stubArchive, mirror *stubStatusStore) *Service {
	return InitTaskService(ServiceConfig{
		TaskChannel:       make(chan taskmodel.Task, config.BufferLimit),
		DispatcherChannel: make(chan bool, 10),
		StatusStore:       mirror,
		Archive:           archive,
	})
}

func TestEnqueue_FillsBookkeepingFields(t *testing.T) {
	archive := newStubArchive()
	mirror := newStubStatusStore()
	svc := newService(archive, mirror)

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "trace-99")
	task, err := svc.Enqueue(ctx, taskmodel.Task{
		AgentType: taskmodel.AgentDocumentAnalyzer,
		TaskType:  taskmodel.TaskTypeDocumentAnalysis,
		UserId:    7,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, task.Id)
	assert.Equal(t, taskmodel.TaskStatusPending, task.Status)
	assert.Equal(t, taskmodel.StepInit, task.CurrentStep)
	assert.Equal(t, "trace-99", task.TraceId)
	assert.False(t, task.CreatedTime.IsZero())

	// archived and mirrored
	_, err = archive.GetTask(ctx, task.Id, 7)
	require.NoError(t, err)
	_, found := mirror.GetTask(ctx, task.Id)
	assert.True(t, found)

	// and on the worker channel
	queued := <-svc.TaskChannel
	assert.Equal(t, task.Id, queued.Id)
}

func TestEnqueue_ArchiveFailureAborts(t *testing.T) {
	archive := newStubArchive()
	archive.insertErr = errors.New("connection refused")
	svc := newService(archive, newStubStatusStore())

	_, err := svc.Enqueue(context.Background(), taskmodel.Task{UserId: 7})
	require.Error(t, err)
	assert.Len(t, svc.TaskChannel, 0, "nothing should reach the worker channel")
}

func TestEnqueue_IngestSignalsDispatcher(t *testing.T) {
	svc := newService(newStubArchive(), newStubStatusStore())

	_, err := svc.Enqueue(context.Background(), taskmodel.Task{
		TaskType: taskmodel.TaskTypeDocumentIngest,
		UserId:   7,
	})
	require.NoError(t, err)
	assert.Len(t, svc.DispatcherChannel, 1, "ingest tasks request a worker immediately")
}

func TestStatus_MirrorIsOwnerScoped(t *testing.T) {
	archive := newStubArchive()
	mirror := newStubStatusStore()
	svc := newService(archive, mirror)
	ctx := context.Background()

	task, err := svc.Enqueue(ctx, taskmodel.Task{UserId: 7})
	require.NoError(t, err)

	_, found := svc.Status(ctx, task.Id, 7)
	assert.True(t, found)

	_, found = svc.Status(ctx, task.Id, 8)
	assert.False(t, found, "another user must not see the task")
}

func TestStatus_FallsBackToArchive(t *testing.T) {
	archive := newStubArchive()
	mirror := newStubStatusStore()
	svc := newService(archive, mirror)
	ctx := context.Background()

	task, err := svc.Enqueue(ctx, taskmodel.Task{UserId: 7})
	require.NoError(t, err)

	// Simulate the Redis entry expiring.
	mirror.DeleteTask(ctx, task.Id)

	got, found := svc.Status(ctx, task.Id, 7)
	assert.True(t, found)
	assert.Equal(t, task.Id, got.Id)
}

func TestCancel_FlipsBothStores(t *testing.T) {
	archive := newStubArchive()
	mirror := newStubStatusStore()
	svc := newService(archive, mirror)
	ctx := context.Background()

	task, err := svc.Enqueue(ctx, taskmodel.Task{UserId: 7})
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, task.Id, 7)
	require.NoError(t, err)
	assert.True(t, cancelled)

	mirrored, found := mirror.GetTask(ctx, task.Id)
	require.True(t, found)
	assert.Equal(t, taskmodel.TaskStatusCancelled, mirrored.Status)
	assert.True(t, svc.Cancelled(ctx, task.Id, 7))
}

func TestFinish_DoesNotOverwriteCancellation(t *testing.T) {
	archive := newStubArchive()
	mirror := newStubStatusStore()
	svc := newService(archive, mirror)
	ctx := context.Background()

	task, err := svc.Enqueue(ctx, taskmodel.Task{UserId: 7})
	require.NoError(t, err)

	task.Status = taskmodel.TaskStatusRunning
	svc.SaveProgress(ctx, task)

	cancelled, err := svc.Cancel(ctx, task.Id, 7)
	require.NoError(t, err)
	require.True(t, cancelled)

	// The worker finishes anyway; the cancellation must stick in both stores.
	task.Status = taskmodel.TaskStatusCompleted
	svc.Finish(ctx, task)

	got, found := svc.Status(ctx, task.Id, 7)
	require.True(t, found)
	assert.Equal(t, taskmodel.TaskStatusCancelled, got.Status)

	archived, err := archive.GetTask(ctx, task.Id, 7)
	require.NoError(t, err)
	assert.Equal(t, taskmodel.TaskStatusCancelled, archived.Status)
}

func TestCancel_FinishedTaskIsRefused(t *testing.T) {
	archive := newStubArchive()
	svc := newService(archive, newStubStatusStore())
	ctx := context.Background()

	task, err := svc.Enqueue(ctx, taskmodel.Task{UserId: 7})
	require.NoError(t, err)

	task.Status = taskmodel.TaskStatusCompleted
	svc.Finish(ctx, task)

	cancelled, err := svc.Cancel(ctx, task.Id, 7)
	require.NoError(t, err)
	assert.False(t, cancelled)
}
