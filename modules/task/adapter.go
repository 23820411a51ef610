package task

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/pkg/apperror"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// TaskPort is how other modules reach the task service.
type TaskPort interface {
	Create(ctx context.Context, ownerID string, in Input) (*domain.Task, error)
	Get(ctx context.Context, ownerID, taskID string) (*domain.Task, error)
	List(ctx context.Context, ownerID string, q domain.ListQuery) (*domain.ListResult, error)
	Update(ctx context.Context, ownerID, taskID string, in Input) (*domain.Task, error)
	Delete(ctx context.Context, ownerID, taskID string) error
	Stats(ctx context.Context, ownerID string) (domain.Stats, error)
}

type taskAdapter struct {
	container mono.ServiceContainer
}

// NewTaskAdapter returns a TaskPort backed by the task module's services.
func NewTaskAdapter(container mono.ServiceContainer) TaskPort {
	return &taskAdapter{container: container}
}

func (a *taskAdapter) Create(ctx context.Context, ownerID string, in Input) (*domain.Task, error) {
	var resp TaskResponse
	req := CreateTaskRequest{OwnerID: ownerID, Input: in}
	if err := helper.CallRequestReplyService(
		ctx, a.container, "create-task", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("create-task request failed: %w", err)
	}
	return taskFromResponse(resp)
}

func (a *taskAdapter) Get(ctx context.Context, ownerID, taskID string) (*domain.Task, error) {
	var resp TaskResponse
	req := GetTaskRequest{OwnerID: ownerID, TaskID: taskID}
	if err := helper.CallRequestReplyService(
		ctx, a.container, "get-task", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("get-task request failed: %w", err)
	}
	return taskFromResponse(resp)
}

func (a *taskAdapter) List(ctx context.Context, ownerID string, q domain.ListQuery) (*domain.ListResult, error) {
	var resp ListTasksResponse
	req := ListTasksRequest{OwnerID: ownerID, Query: q}
	if err := helper.CallRequestReplyService(
		ctx, a.container, "list-tasks", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("list-tasks request failed: %w", err)
	}
	if resp.Error != nil {
		return nil, apperror.Unwrap(resp.Error, adapterErrors)
	}
	if resp.Result == nil {
		return nil, fmt.Errorf("list-tasks returned no result")
	}
	if resp.Result.Tasks == nil {
		resp.Result.Tasks = []domain.Task{}
	}
	return resp.Result, nil
}

func (a *taskAdapter) Update(ctx context.Context, ownerID, taskID string, in Input) (*domain.Task, error) {
	var resp TaskResponse
	req := UpdateTaskRequest{OwnerID: ownerID, TaskID: taskID, Input: in}
	if err := helper.CallRequestReplyService(
		ctx, a.container, "update-task", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("update-task request failed: %w", err)
	}
	return taskFromResponse(resp)
}

func (a *taskAdapter) Delete(ctx context.Context, ownerID, taskID string) error {
	var resp DeleteTaskResponse
	req := DeleteTaskRequest{OwnerID: ownerID, TaskID: taskID}
	if err := helper.CallRequestReplyService(
		ctx, a.container, "delete-task", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return fmt.Errorf("delete-task request failed: %w", err)
	}
	if resp.Error != nil {
		return apperror.Unwrap(resp.Error, adapterErrors)
	}
	return nil
}

func (a *taskAdapter) Stats(ctx context.Context, ownerID string) (domain.Stats, error) {
	var resp TaskStatsResponse
	req := TaskStatsRequest{OwnerID: ownerID}
	if err := helper.CallRequestReplyService(
		ctx, a.container, "task-stats", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return domain.Stats{}, fmt.Errorf("task-stats request failed: %w", err)
	}
	if resp.Error != nil {
		return domain.Stats{}, apperror.Unwrap(resp.Error, adapterErrors)
	}
	return resp.Stats, nil
}

func taskFromResponse(resp TaskResponse) (*domain.Task, error) {
	if resp.Error != nil {
		return nil, apperror.Unwrap(resp.Error, adapterErrors)
	}
	if resp.Task == nil {
		return nil, fmt.Errorf("task service returned no task")
	}
	return resp.Task, nil
}
