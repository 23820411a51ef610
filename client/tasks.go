package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	domain "github.com/example/task-manager/domain/task"
)

// TaskInput is the body of create and update calls. Nil fields are not
// sent; on update they are left unchanged. DueDate holds raw JSON so that
// ClearDueDate can send an explicit null.
type TaskInput struct {
	Title       *string         `json:"title,omitempty"`
	Description *string         `json:"description,omitempty"`
	Status      *string         `json:"status,omitempty"`
	Priority    *string         `json:"priority,omitempty"`
	Type        *string         `json:"type,omitempty"`
	DueDate     json.RawMessage `json:"dueDate,omitempty"`
}

// SetDueDate sets the due date to date (YYYY-MM-DD or RFC 3339).
func (in *TaskInput) SetDueDate(date string) {
	data, _ := json.Marshal(date)
	in.DueDate = data
}

// ClearDueDate asks the server to remove the due date.
func (in *TaskInput) ClearDueDate() {
	in.DueDate = json.RawMessage("null")
}

// TaskClient calls the /api/tasks endpoints.
type TaskClient struct {
	api *APIClient
}

// List fetches one page of the caller's tasks. Zero fields of q are not
// sent, leaving the server defaults in place.
func (t *TaskClient) List(ctx context.Context, q domain.ListQuery) (*domain.ListResult, error) {
	params := url.Values{}
	set := func(key, value string) {
		if value != "" {
			params.Set(key, value)
		}
	}
	set("status", q.Status)
	set("priority", q.Priority)
	set("type", q.Type)
	set("search", q.Search)
	set("sortBy", q.SortBy)
	set("sortOrder", q.SortOrder)
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	path := "/api/tasks"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var result domain.ListResult
	if err := t.api.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Create creates a task.
func (t *TaskClient) Create(ctx context.Context, in TaskInput) (*domain.Task, error) {
	var task domain.Task
	if err := t.api.do(ctx, http.MethodPost, "/api/tasks", in, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// Get fetches one task.
func (t *TaskClient) Get(ctx context.Context, id string) (*domain.Task, error) {
	var task domain.Task
	if err := t.api.do(ctx, http.MethodGet, "/api/tasks/"+url.PathEscape(id), nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// Update applies a partial update.
func (t *TaskClient) Update(ctx context.Context, id string, in TaskInput) (*domain.Task, error) {
	var task domain.Task
	if err := t.api.do(ctx, http.MethodPut, "/api/tasks/"+url.PathEscape(id), in, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// Delete removes a task.
func (t *TaskClient) Delete(ctx context.Context, id string) error {
	return t.api.do(ctx, http.MethodDelete, "/api/tasks/"+url.PathEscape(id), nil, nil)
}

// Stats fetches per-status counts.
func (t *TaskClient) Stats(ctx context.Context) (domain.Stats, error) {
	var stats domain.Stats
	if err := t.api.do(ctx, http.MethodGet, "/api/tasks/stats", nil, &stats); err != nil {
		return domain.Stats{}, err
	}
	return stats, nil
}
