package store

import (
	"context"
	"sync"

	"github.com/jurisai/jurisai/internal/domain/taskmodel"
	"github.com/jurisai/jurisai/pkg/logger_i"
)

var inMemLogger = logger_i.NewLogger("InMem TaskStore")

// InMemoryTaskStore is the fallback status mirror when Redis is offline.
// Entries never expire; acceptable for a degraded single-node mode.
type InMemoryTaskStore struct {
	taskMutex *sync.RWMutex
	taskMap   map[string]taskmodel.Task
}

func InitInMemoryTaskStore() *InMemoryTaskStore {
	return &InMemoryTaskStore{
		taskMutex: new(sync.RWMutex),
		taskMap:   make(map[string]taskmodel.Task),
	}
}

func (store *InMemoryTaskStore) SaveTask(ctx context.Context, task taskmodel.Task) error {
	store.taskMutex.Lock()
	defer store.taskMutex.Unlock()
	store.taskMap[task.Id] = task
	inMemLogger.Debug("Saved task to store", "taskId", task.Id)
	return nil
}

func (store *InMemoryTaskStore) GetTask(ctx context.Context, taskId string) (taskmodel.Task, bool) {
	store.taskMutex.RLock()
	defer store.taskMutex.RUnlock()
	task, found := store.taskMap[taskId]
	return task, found
}

func (store *InMemoryTaskStore) DeleteTask(ctx context.Context, taskId string) {
	store.taskMutex.Lock()
	defer store.taskMutex.Unlock()
	delete(store.taskMap, taskId)
}
