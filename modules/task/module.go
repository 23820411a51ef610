package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	domain "github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/events"
	"github.com/example/task-manager/pkg/apperror"
	"github.com/example/task-manager/pkg/database"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/gorm"
)

// TaskModule owns the task store and exposes it as request-reply services.
type TaskModule struct {
	db       *gorm.DB
	service  *TaskService
	dbConfig database.Config
	cache    StatsCache
	eventBus mono.EventBus
}

// Compile-time interface checks.
var _ mono.Module = (*TaskModule)(nil)
var _ mono.ServiceProviderModule = (*TaskModule)(nil)
var _ mono.EventEmitterModule = (*TaskModule)(nil)
var _ mono.HealthCheckableModule = (*TaskModule)(nil)

// NewModule creates a new TaskModule.
func NewModule(dbConfig database.Config) *TaskModule {
	return &TaskModule{dbConfig: dbConfig}
}

// SetCache sets the stats cache. It must be called before Start.
func (m *TaskModule) SetCache(cache StatsCache) {
	m.cache = cache
}

func (m *TaskModule) Name() string {
	return "task"
}

func (m *TaskModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

func (m *TaskModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TaskCreatedV1.ToBase(),
		events.TaskUpdatedV1.ToBase(),
		events.TaskDeletedV1.ToBase(),
	}
}

func (m *TaskModule) Start(_ context.Context) error {
	db, err := database.Open(m.dbConfig)
	if err != nil {
		return err
	}
	m.db = db

	repo := NewTaskRepository(db)
	if err := repo.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if m.eventBus == nil {
		log.Println("[task] Warning: eventBus not set, events will not be published")
	}
	m.service = NewTaskService(repo, m, m.cache)

	log.Printf("[task] Module started (driver: %s, stats cache: %t)", m.dbConfig.Driver, m.cache != nil)
	return nil
}

func (m *TaskModule) Stop(_ context.Context) error {
	if err := database.Close(m.db); err != nil {
		log.Printf("[task] Error closing database: %v", err)
	}
	log.Println("[task] Module stopped")
	return nil
}

func (m *TaskModule) Health(ctx context.Context) mono.HealthStatus {
	if err := database.Ping(ctx, m.db); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver": m.dbConfig.Driver,
		},
	}
}

func (m *TaskModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "create-task", json.Unmarshal, json.Marshal, m.createTask,
	); err != nil {
		return fmt.Errorf("failed to register create-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get-task", json.Unmarshal, json.Marshal, m.getTask,
	); err != nil {
		return fmt.Errorf("failed to register get-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "list-tasks", json.Unmarshal, json.Marshal, m.listTasks,
	); err != nil {
		return fmt.Errorf("failed to register list-tasks service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "update-task", json.Unmarshal, json.Marshal, m.updateTask,
	); err != nil {
		return fmt.Errorf("failed to register update-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "delete-task", json.Unmarshal, json.Marshal, m.deleteTask,
	); err != nil {
		return fmt.Errorf("failed to register delete-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "task-stats", json.Unmarshal, json.Marshal, m.taskStats,
	); err != nil {
		return fmt.Errorf("failed to register task-stats service: %w", err)
	}

	log.Printf("[task] Registered services: create-task, get-task, list-tasks, update-task, delete-task, task-stats")
	return nil
}

func (m *TaskModule) createTask(ctx context.Context, req CreateTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	task, err := m.service.Create(ctx, req.OwnerID, req.Input)
	if err != nil {
		if env := apperror.Wrap(err, serviceErrors); env != nil {
			return TaskResponse{Error: env}, nil
		}
		log.Printf("[task] Error creating task: %v", err)
		return TaskResponse{}, err
	}
	return TaskResponse{Task: task}, nil
}

func (m *TaskModule) getTask(ctx context.Context, req GetTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	task, err := m.service.Get(ctx, req.OwnerID, req.TaskID)
	if err != nil {
		if env := apperror.Wrap(err, serviceErrors); env != nil {
			return TaskResponse{Error: env}, nil
		}
		return TaskResponse{}, err
	}
	return TaskResponse{Task: task}, nil
}

func (m *TaskModule) listTasks(ctx context.Context, req ListTasksRequest, _ *mono.Msg) (ListTasksResponse, error) {
	result, err := m.service.List(ctx, req.OwnerID, req.Query)
	if err != nil {
		return ListTasksResponse{}, err
	}
	return ListTasksResponse{Result: result}, nil
}

func (m *TaskModule) updateTask(ctx context.Context, req UpdateTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	task, err := m.service.Update(ctx, req.OwnerID, req.TaskID, req.Input)
	if err != nil {
		if env := apperror.Wrap(err, serviceErrors); env != nil {
			return TaskResponse{Error: env}, nil
		}
		return TaskResponse{}, err
	}
	return TaskResponse{Task: task}, nil
}

func (m *TaskModule) deleteTask(ctx context.Context, req DeleteTaskRequest, _ *mono.Msg) (DeleteTaskResponse, error) {
	if err := m.service.Delete(ctx, req.OwnerID, req.TaskID); err != nil {
		if env := apperror.Wrap(err, serviceErrors); env != nil {
			return DeleteTaskResponse{Error: env}, nil
		}
		return DeleteTaskResponse{}, err
	}
	return DeleteTaskResponse{Deleted: true}, nil
}

func (m *TaskModule) taskStats(ctx context.Context, req TaskStatsRequest, _ *mono.Msg) (TaskStatsResponse, error) {
	stats, err := m.service.Stats(ctx, req.OwnerID)
	if err != nil {
		return TaskStatsResponse{}, err
	}
	return TaskStatsResponse{Stats: stats}, nil
}

// TaskCreated publishes a TaskCreated event.
func (m *TaskModule) TaskCreated(task domain.Task) {
	if m.eventBus == nil {
		return
	}
	event := events.TaskCreatedEvent{Task: task, OwnerID: task.OwnerID, CreatedAt: task.CreatedAt}
	if err := events.TaskCreatedV1.Publish(m.eventBus, event, nil); err != nil {
		// Event publishing is best-effort; log but don't fail the operation
		log.Printf("[task] Warning: failed to publish TaskCreated event for task %s: %v", task.ID, err)
	}
}

// TaskUpdated publishes a TaskUpdated event.
func (m *TaskModule) TaskUpdated(task domain.Task, fields []string) {
	if m.eventBus == nil {
		return
	}
	event := events.TaskUpdatedEvent{Task: task, OwnerID: task.OwnerID, Fields: fields, UpdatedAt: task.UpdatedAt}
	if err := events.TaskUpdatedV1.Publish(m.eventBus, event, nil); err != nil {
		log.Printf("[task] Warning: failed to publish TaskUpdated event for task %s: %v", task.ID, err)
	}
}

// TaskDeleted publishes a TaskDeleted event.
func (m *TaskModule) TaskDeleted(ownerID, taskID string) {
	if m.eventBus == nil {
		return
	}
	event := events.TaskDeletedEvent{TaskID: taskID, OwnerID: ownerID, DeletedAt: time.Now().UTC()}
	if err := events.TaskDeletedV1.Publish(m.eventBus, event, nil); err != nil {
		log.Printf("[task] Warning: failed to publish TaskDeleted event for task %s: %v", taskID, err)
	}
}
