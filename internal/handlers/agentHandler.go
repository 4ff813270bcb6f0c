package handlers

import (
	"net/http"

	"github.com/jurisai/jurisai/internal/adapter"
	"github.com/jurisai/jurisai/internal/adapter/utils"
	"github.com/jurisai/jurisai/internal/agents"
	"github.com/jurisai/jurisai/internal/api"
	"github.com/jurisai/jurisai/internal/tasks"
	"github.com/jurisai/jurisai/pkg/logger_i"
)

type AgentHandler struct {
	tasks    *tasks.Service
	registry *agents.Registry
	logger   *logger_i.Logger
}

func NewAgentHandler(taskService *tasks.Service, registry *agents.Registry) *AgentHandler {
	return &AgentHandler{
		tasks:    taskService,
		registry: registry,
		logger:   logger_i.NewLogger("AgentHandler"),
	}
}

// Status godoc
// @Summary      Get task status
// @Description  Reads the Redis status mirror first, then the durable archive. Tasks are owner-scoped.
// @Tags         Agents
// @Produce      json
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  api.TaskResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /agents/tasks/{id} [get]
func (h *AgentHandler) Status(w http.ResponseWriter, r *http.Request) {
	taskId := utils.GetChiURLParam(r, "id")
	user, ok := currentUser(r)
	if taskId == "" || !ok {
		WriteErrorResponse(w, http.StatusBadRequest, "task id is required")
		return
	}

	task, found := h.tasks.Status(r.Context(), taskId, user.Id)
	if !found {
		WriteErrorResponse(w, http.StatusNotFound, "task not found")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToTaskResponse(task))
}

// List godoc
// @Summary      List the caller's tasks
// @Tags         Agents
// @Produce      json
// @Param        status  query  string  false  "Filter by status (PENDING, RUNNING, COMPLETED, FAILED, CANCELLED)"
// @Param        limit   query  int     false  "Page size"
// @Success      200  {array}  api.TaskResponse
// @Router       /agents/tasks [get]
func (h *AgentHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		WriteErrorResponse(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	list, err := h.tasks.List(r.Context(), user.Id, r.URL.Query().Get("status"), queryInt(r, "limit", 50))
	if err != nil {
		h.logger.Error("Failed to list tasks", "userId", user.Id, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToTaskListResponse(list))
}

// Cancel godoc
// @Summary      Cancel a queued or running task
// @Description  Finished tasks cannot be cancelled. A running task stops before its next step.
// @Tags         Agents
// @Param        id  path  string  true  "Task ID"
// @Success      204  "Task cancelled"
// @Failure      404  {object}  api.ErrorResponse  "Not found or already finished"
// @Router       /agents/tasks/{id} [delete]
func (h *AgentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	taskId := utils.GetChiURLParam(r, "id")
	user, ok := currentUser(r)
	if taskId == "" || !ok {
		WriteErrorResponse(w, http.StatusBadRequest, "task id is required")
		return
	}

	cancelled, err := h.tasks.Cancel(r.Context(), taskId, user.Id)
	if err != nil {
		h.logger.Error("Failed to cancel task", "taskId", taskId, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "failed to cancel task")
		return
	}
	if !cancelled {
		WriteErrorResponse(w, http.StatusNotFound, "task not found or already finished")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Capabilities godoc
// @Summary      List registered agent types
// @Tags         Agents
// @Produce      json
// @Success      200  {object}  api.CapabilitiesResponse
// @Router       /agents/capabilities [get]
func (h *AgentHandler) Capabilities(w http.ResponseWriter, r *http.Request) {
	types := h.registry.Types()
	out := make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, string(t))
	}
	writeJsonResponse(w, http.StatusOK, api.CapabilitiesResponse{Agents: out})
}
