// Package worker runs the dynamic pool that drains the task channel. The
// pool starts at one worker, grows when the dispatcher is signalled, and
// idle workers retire themselves down to the minimum.
package worker

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/jurisai/jurisai/internal/agents"
	"github.com/jurisai/jurisai/internal/config"
	"github.com/jurisai/jurisai/internal/metrics"
	"github.com/jurisai/jurisai/internal/tasks"
	"github.com/jurisai/jurisai/pkg/logger_i"
)

var (
	_taskService       *tasks.Service
	_registry          *agents.Registry
	stopWorkerChannel  chan bool
	workerWaitGroup    *sync.WaitGroup
	dispatcherChannel  chan bool
	currentWorkerCount int64
	logger             *logger_i.Logger
	minWorkerCount     = config.MinWorkerCount
)

func InitServices(taskService *tasks.Service, registry *agents.Registry) {
	_taskService = taskService
	_registry = registry
	dispatcherChannel = taskService.DispatcherChannel
}

func InitWorkerPool(stopWorkerChan chan bool, waitGroup *sync.WaitGroup) {
	stopWorkerChannel = stopWorkerChan
	workerWaitGroup = waitGroup
	logger = logger_i.NewLogger("WorkerPool")
	logger.Info("Initializing worker pool")
	go dispatcher()
}

func dispatcher() {
	createWorker()
	logger.Info("Dispatcher started")
	for range dispatcherChannel {
		if atomic.LoadInt64(&currentWorkerCount) < config.MaxWorkerCount {
			logger.Info("Creating new worker", "workerCount", currentWorkerCount)
			createWorker()
		}
	}
}

func createWorker() {
	workerWaitGroup.Add(1)
	go worker()
	atomic.AddInt64(&currentWorkerCount, 1)
	metrics.IncrementActiveWorkerCount()
	logger.Info("Created new worker")
}

func worker() {
	for {
		select {
		case currentTask := <-_taskService.TaskChannel:
			executeTask(currentTask)
			metrics.DecrementTasksInQueue()

		case <-stopWorkerChannel:
			removeWorker("Stop worker signal received")
			return

		case <-time.After(config.IdleWorkerTimeout):
			// Idle too long; retire unless we are the floor.
			if atomic.LoadInt64(&currentWorkerCount) > minWorkerCount {
				removeWorker("Idle worker timeout")
				return
			}
		}
	}
}

func removeWorker(reason string) {
	workerWaitGroup.Done()
	atomic.AddInt64(&currentWorkerCount, -1)
	logger.Info("Removed worker", "reason", reason, "workerCount", currentWorkerCount)
	metrics.DecrementActiveWorkerCount()
}
