package events

import (
	"time"

	domain "github.com/example/task-manager/domain/task"
	"github.com/go-monolith/mono/pkg/helper"
)

// TaskCreatedEvent is emitted when a user creates a task.
type TaskCreatedEvent struct {
	Task      domain.Task `json:"task"`
	OwnerID   string      `json:"owner_id"`
	CreatedAt time.Time   `json:"created_at"`
}

// TaskCreatedV1 is the typed event definition for task creation.
// Subject: events.task.v1.task-created
var TaskCreatedV1 = helper.EventDefinition[TaskCreatedEvent](
	"task", "TaskCreated", "v1",
)

// TaskUpdatedEvent is emitted after a partial update is applied.
type TaskUpdatedEvent struct {
	Task      domain.Task `json:"task"`
	OwnerID   string      `json:"owner_id"`
	Fields    []string    `json:"fields"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// TaskUpdatedV1 is the typed event definition for task updates.
// Subject: events.task.v1.task-updated
var TaskUpdatedV1 = helper.EventDefinition[TaskUpdatedEvent](
	"task", "TaskUpdated", "v1",
)

// TaskDeletedEvent is emitted when a task is removed.
type TaskDeletedEvent struct {
	TaskID    string    `json:"task_id"`
	OwnerID   string    `json:"owner_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

// TaskDeletedV1 is the typed event definition for task deletion.
// Subject: events.task.v1.task-deleted
var TaskDeletedV1 = helper.EventDefinition[TaskDeletedEvent](
	"task", "TaskDeleted", "v1",
)
