package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jurisai/jurisai/internal/agents"
	"github.com/jurisai/jurisai/internal/config"
	"github.com/jurisai/jurisai/internal/domain/taskmodel"
	"github.com/jurisai/jurisai/internal/tasks"
	"github.com/jurisai/jurisai/pkg/logger_i"
)

// countingAgent tracks how many tasks the pool handed it.
type countingAgent struct {
	ExecutedCount int32
}

func (a *countingAgent) Type() taskmodel.AgentType {
	return taskmodel.AgentDocumentAnalyzer
}

func (a *countingAgent) Execute(ctx context.Context, task taskmodel.Task) taskmodel.Task {
	atomic.AddInt32(&a.ExecutedCount, 1)
	task.Status = taskmodel.TaskStatusCompleted
	return task
}

type mockStatusStore struct {
	mu    sync.Mutex
	saved map[string]taskmodel.Task
}

func newMockStatusStore() *mockStatusStore {
	return &mockStatusStore{saved: map[string]taskmodel.Task{}}
}

func (m *mockStatusStore) GetTask(ctx context.Context, taskId string) (taskmodel.Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.saved[taskId]
	return t, ok
}

func (m *mockStatusStore) SaveTask(ctx context.Context, task taskmodel.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[task.Id] = task
	return nil
}

func (m *mockStatusStore) DeleteTask(ctx context.Context, taskId string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.saved, taskId)
}

type mockArchive struct {
	mu    sync.Mutex
	tasks map[string]taskmodel.Task
}

func newMockArchive() *mockArchive {
	return &mockArchive{tasks: map[string]taskmodel.Task{}}
}

func (m *mockArchive) InsertTask(ctx context.Context, task taskmodel.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[task.Id] = task
	return nil
}

func (m *mockArchive) UpdateTask(ctx context.Context, task taskmodel.Task) error {
	return m.InsertTask(ctx, task)
}

func (m *mockArchive) GetTask(ctx context.Context, taskId string, userId int64) (taskmodel.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tasks[taskId]; ok {
		return t, nil
	}
	return taskmodel.Task{}, context.Canceled
}

func (m *mockArchive) ListTasks(ctx context.Context, userId int64, status string, limit int) ([]taskmodel.Task, error) {
	return nil, nil
}

func (m *mockArchive) CancelTask(ctx context.Context, taskId string, userId int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[taskId]
	if !ok || t.Finished() {
		return false, nil
	}
	t.Status = taskmodel.TaskStatusCancelled
	m.tasks[taskId] = t
	return true, nil
}

func newTestTaskService() (*tasks.Service, *mockArchive, *mockStatusStore) {
	archive := newMockArchive()
	status := newMockStatusStore()
	svc := tasks.InitTaskService(tasks.ServiceConfig{
		TaskChannel:       make(chan taskmodel.Task, 10),
		DispatcherChannel: make(chan bool, 10),
		StatusStore:       status,
		Archive:           archive,
	})
	return svc, archive, status
}

func TestWorkerPool_Flow(t *testing.T) {
	taskSvc, archive, _ := newTestTaskService()
	agent := &countingAgent{}
	stopChan := make(chan bool)
	wg := &sync.WaitGroup{}

	InitServices(taskSvc, agents.NewRegistry(agent))
	InitWorkerPool(stopChan, wg)

	atomic.StoreInt64(&currentWorkerCount, 0)

	t.Run("Dispatcher creates worker on signal", func(t *testing.T) {
		taskSvc.DispatcherChannel <- true

		time.Sleep(50 * time.Millisecond)

		count := atomic.LoadInt64(&currentWorkerCount)
		if count < 1 {
			t.Errorf("Expected at least 1 worker, got %d", count)
		}
	})

	t.Run("Worker processes a task", func(t *testing.T) {
		testTask := taskmodel.Task{
			Id:        "test-1",
			AgentType: taskmodel.AgentDocumentAnalyzer,
			Status:    taskmodel.TaskStatusPending,
		}
		archive.InsertTask(context.Background(), testTask)
		taskSvc.TaskChannel <- testTask

		time.Sleep(100 * time.Millisecond)

		processed := atomic.LoadInt32(&agent.ExecutedCount)
		if processed != 1 {
			t.Errorf("Expected 1 task processed, got %d", processed)
		}

		stored, err := archive.GetTask(context.Background(), "test-1", 0)
		if err != nil {
			t.Fatalf("task not archived: %v", err)
		}
		if stored.Status != taskmodel.TaskStatusCompleted {
			t.Errorf("archived status got %v, want COMPLETED", stored.Status)
		}
	})

	t.Run("Cancelled task is skipped", func(t *testing.T) {
		testTask := taskmodel.Task{
			Id:        "test-2",
			AgentType: taskmodel.AgentDocumentAnalyzer,
			Status:    taskmodel.TaskStatusCancelled,
		}
		archive.InsertTask(context.Background(), testTask)
		taskSvc.TaskChannel <- testTask

		time.Sleep(100 * time.Millisecond)

		processed := atomic.LoadInt32(&agent.ExecutedCount)
		if processed != 1 {
			t.Errorf("Cancelled task must not execute, processed=%d", processed)
		}
	})

	t.Run("Stop signal retires workers", func(t *testing.T) {
		close(stopChan)

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("Workers did not stop within timeout")
		}
	})
}

func TestWorker_IdleTimeout(t *testing.T) {
	atomic.StoreInt64(&currentWorkerCount, 0)
	atomic.StoreInt64(&minWorkerCount, 0)
	defer atomic.StoreInt64(&minWorkerCount, config.MinWorkerCount)
	logger = logger_i.NewLogger("TestWorkerPool")

	taskSvc, _, _ := newTestTaskService()
	InitServices(taskSvc, agents.NewRegistry(&countingAgent{}))

	wg := &sync.WaitGroup{}
	stopChan := make(chan bool)
	workerWaitGroup = wg
	stopWorkerChannel = stopChan

	createWorker()
	time.Sleep(config.IdleWorkerTimeout)

	time.Sleep(100 * time.Millisecond)
	count := atomic.LoadInt64(&currentWorkerCount)
	if count != 0 {
		t.Errorf("Worker should have timed out and retired, but count is %d", count)
	}
}
