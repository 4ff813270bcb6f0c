package store

import (
	"context"
	"encoding/json"

	"github.com/jurisai/jurisai/internal/config"
	"github.com/jurisai/jurisai/internal/data/redisStore"
	"github.com/jurisai/jurisai/internal/domain/taskmodel"
	"github.com/jurisai/jurisai/pkg/logger_i"
)

// RedisTaskStore mirrors live task state into Redis so status polling never
// touches Postgres. Entries expire after config.RedisTaskStoreTTL.
type RedisTaskStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func GetRedisTaskStore(ctx context.Context) *RedisTaskStore {
	inner := redisStore.GetRedisStore(ctx, config.RedisTaskStore)
	if inner == nil {
		return nil
	}
	return &RedisTaskStore{
		store:  inner,
		logger: logger_i.NewLogger("TaskStore"),
	}
}

func (s *RedisTaskStore) SaveTask(ctx context.Context, task taskmodel.Task) error {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "task Id", task.Id)
	log.Debug("saving task")
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}

	err = s.store.Set(ctx, task.Id, data, config.RedisTaskStoreTTL)
	if err == nil {
		log.Debug("Saved task to Redis")
	}
	return err
}

func (s *RedisTaskStore) GetTask(ctx context.Context, taskId string) (taskmodel.Task, bool) {
	var task taskmodel.Task
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "task Id", taskId)
	val, err := s.store.Get(ctx, taskId)
	if s.store.IsNil(err) {
		return task, false
	} else if err != nil {
		log.Error("Failed to read task from Redis", "err", err)
		return task, false
	}

	if err := json.Unmarshal([]byte(val), &task); err != nil {
		log.Error("Failed to unmarshal task", "err", err)
		return task, false
	}
	return task, true
}

func (s *RedisTaskStore) DeleteTask(ctx context.Context, taskId string) {
	err := s.store.Del(ctx, taskId)
	if err != nil {
		s.logger.Error("Error deleting task from Redis", "taskId", taskId, "err", err)
		return
	}
	s.logger.Debug("Task deleted from Redis", "taskId", taskId)
}

func TestTaskStore(store *redisStore.Store) *RedisTaskStore {
	return &RedisTaskStore{
		store:  store,
		logger: logger_i.NewLogger("test redis"),
	}
}
