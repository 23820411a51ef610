package task

import (
	domain "github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/pkg/apperror"
)

// CreateTaskRequest is the create-task service request.
type CreateTaskRequest struct {
	OwnerID string `json:"owner_id"`
	Input   Input  `json:"input"`
}

// GetTaskRequest is the get-task service request.
type GetTaskRequest struct {
	OwnerID string `json:"owner_id"`
	TaskID  string `json:"task_id"`
}

// UpdateTaskRequest is the update-task service request.
type UpdateTaskRequest struct {
	OwnerID string `json:"owner_id"`
	TaskID  string `json:"task_id"`
	Input   Input  `json:"input"`
}

// DeleteTaskRequest is the delete-task service request.
type DeleteTaskRequest struct {
	OwnerID string `json:"owner_id"`
	TaskID  string `json:"task_id"`
}

// ListTasksRequest is the list-tasks service request.
type ListTasksRequest struct {
	OwnerID string           `json:"owner_id"`
	Query   domain.ListQuery `json:"query"`
}

// TaskStatsRequest is the task-stats service request.
type TaskStatsRequest struct {
	OwnerID string `json:"owner_id"`
}

// TaskResponse carries a single task or a classified failure.
type TaskResponse struct {
	Task  *domain.Task       `json:"task,omitempty"`
	Error *apperror.Envelope `json:"error,omitempty"`
}

// ListTasksResponse carries one page of tasks.
type ListTasksResponse struct {
	Result *domain.ListResult `json:"result,omitempty"`
	Error  *apperror.Envelope `json:"error,omitempty"`
}

// DeleteTaskResponse acknowledges a deletion.
type DeleteTaskResponse struct {
	Deleted bool               `json:"deleted"`
	Error   *apperror.Envelope `json:"error,omitempty"`
}

// TaskStatsResponse carries per-status counts.
type TaskStatsResponse struct {
	Stats domain.Stats       `json:"stats"`
	Error *apperror.Envelope `json:"error,omitempty"`
}
