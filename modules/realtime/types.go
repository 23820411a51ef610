package realtime

import (
	"time"

	domain "github.com/example/task-manager/domain/task"
)

// Frame types sent to clients.
const (
	TypeConnected   = "connected"
	TypeTaskCreated = "task_created"
	TypeTaskUpdated = "task_updated"
	TypeTaskDeleted = "task_deleted"
)

// WSEvent is the JSON frame written to WebSocket clients.
type WSEvent struct {
	Type      string       `json:"type"`
	Task      *domain.Task `json:"task,omitempty"`
	TaskID    string       `json:"taskId,omitempty"`
	Fields    []string     `json:"fields,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}
