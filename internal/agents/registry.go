// Package agents holds the executable units behind the async task API. Each
// agent handles one AgentType; the worker pool looks them up in the Registry.
package agents

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jurisai/jurisai/internal/domain/taskmodel"
	"github.com/jurisai/jurisai/pkg/logger_i"
)

type Agent interface {
	Type() taskmodel.AgentType
	Execute(ctx context.Context, task taskmodel.Task) taskmodel.Task
}

type Registry struct {
	agents map[taskmodel.AgentType]Agent
	logger *logger_i.Logger
}

func NewRegistry(registered ...Agent) *Registry {
	r := &Registry{
		agents: make(map[taskmodel.AgentType]Agent, len(registered)),
		logger: logger_i.NewLogger("AgentRegistry"),
	}
	for _, a := range registered {
		r.agents[a.Type()] = a
	}
	return r
}

// Types lists the registered agent types, for the capabilities endpoint.
func (r *Registry) Types() []taskmodel.AgentType {
	out := make([]taskmodel.AgentType, 0, len(r.agents))
	for t := range r.agents {
		out = append(out, t)
	}
	return out
}

func (r *Registry) Known(agentType taskmodel.AgentType) bool {
	_, ok := r.agents[agentType]
	return ok
}

// Execute routes the task to its agent. An unknown agent type fails the task
// rather than panicking the worker.
func (r *Registry) Execute(ctx context.Context, task taskmodel.Task) taskmodel.Task {
	agent, ok := r.agents[task.AgentType]
	if !ok {
		r.logger.Error("No agent registered", "agentType", task.AgentType, "taskId", task.Id)
		return Fail(task, fmt.Sprintf("unknown agent type: %s", task.AgentType), false)
	}
	return agent.Execute(ctx, task)
}

// Fail marks a task failed with a structured error.
func Fail(task taskmodel.Task, message string, retry bool) taskmodel.Task {
	task.Status = taskmodel.TaskStatusFailed
	task.CurrentStep = taskmodel.StepError
	task.Error = taskmodel.TaskError{
		Code:    http.StatusInternalServerError,
		Message: message,
		Retry:   retry,
	}
	return task
}
