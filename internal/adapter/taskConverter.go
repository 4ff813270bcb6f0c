package adapter

import (
	"fmt"

	"github.com/jurisai/jurisai/internal/api"
	"github.com/jurisai/jurisai/internal/domain/taskmodel"
)

func ToInitTaskResponse(id string) api.InitTaskResponse {
	return api.InitTaskResponse{
		Id:        id,
		StatusURL: fmt.Sprintf("/agents/tasks/%s", id),
	}
}

func ToTaskResponse(task taskmodel.Task) api.TaskResponse {
	var errorPtr *api.TaskError
	if task.Error.Message != "" || task.Error.Code != 0 {
		errorPtr = &api.TaskError{
			Code:    task.Error.Code,
			Message: task.Error.Message,
			Retry:   task.Error.Retry,
		}
	}

	res := api.TaskResponse{
		Id:          task.Id,
		AgentType:   string(task.AgentType),
		TaskType:    string(task.TaskType),
		Status:      string(task.Status),
		DocumentId:  task.DocumentId,
		Results:     task.Results,
		Error:       errorPtr,
		Confidence:  task.Confidence,
		CreatedTime: task.CreatedTime,
	}
	if !task.StartedTime.IsZero() {
		started := task.StartedTime
		res.StartedTime = &started
	}
	if !task.EndTime.IsZero() {
		ended := task.EndTime
		res.EndTime = &ended
	}
	return res
}

func ToTaskListResponse(tasks []taskmodel.Task) []api.TaskResponse {
	out := make([]api.TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, ToTaskResponse(t))
	}
	return out
}

// BadRequest builds the error envelope every handler writes on failure.
func BadRequest(message string, code int) api.ErrorResponse {
	return api.ErrorResponse{
		Code:    code,
		Message: message,
		Retry:   false,
	}
}
