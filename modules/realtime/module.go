package realtime

import (
	"context"
	"fmt"
	"log"

	"github.com/example/task-manager/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// Module consumes task events and forwards them to the owner's sockets.
type Module struct {
	hub       *Hub
	cancelHub context.CancelFunc
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.EventConsumerModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new realtime module.
func NewModule() *Module {
	return &Module{hub: NewHub()}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "realtime"
}

// Start runs the hub.
func (m *Module) Start(_ context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelHub = cancel
	go m.hub.Run(ctx)
	log.Println("[realtime] Module started - WebSocket hub running")
	return nil
}

// Stop closes every connection and waits for the hub to exit.
func (m *Module) Stop(_ context.Context) error {
	clientCount := m.hub.ClientCount()
	if m.cancelHub != nil {
		m.cancelHub()
		m.hub.Wait()
	}
	log.Printf("[realtime] Module stopped - %d clients were connected", clientCount)
	return nil
}

func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connected_clients": m.hub.ClientCount(),
			"connected_users":   m.hub.UserCount(),
		},
	}
}

// RegisterEventConsumers subscribes to task events.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.TaskCreatedV1, m.handleTaskCreated, m,
	); err != nil {
		return fmt.Errorf("failed to register TaskCreated consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.TaskUpdatedV1, m.handleTaskUpdated, m,
	); err != nil {
		return fmt.Errorf("failed to register TaskUpdated consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.TaskDeletedV1, m.handleTaskDeleted, m,
	); err != nil {
		return fmt.Errorf("failed to register TaskDeleted consumer: %w", err)
	}

	log.Println("[realtime] Registered event consumers: TaskCreated, TaskUpdated, TaskDeleted")
	return nil
}

func (m *Module) handleTaskCreated(_ context.Context, event events.TaskCreatedEvent, _ *mono.Msg) error {
	task := event.Task
	m.hub.SendToUser(event.OwnerID, WSEvent{
		Type:      TypeTaskCreated,
		Task:      &task,
		TaskID:    task.ID,
		Timestamp: event.CreatedAt,
	})
	return nil
}

func (m *Module) handleTaskUpdated(_ context.Context, event events.TaskUpdatedEvent, _ *mono.Msg) error {
	task := event.Task
	m.hub.SendToUser(event.OwnerID, WSEvent{
		Type:      TypeTaskUpdated,
		Task:      &task,
		TaskID:    task.ID,
		Fields:    event.Fields,
		Timestamp: event.UpdatedAt,
	})
	return nil
}

func (m *Module) handleTaskDeleted(_ context.Context, event events.TaskDeletedEvent, _ *mono.Msg) error {
	m.hub.SendToUser(event.OwnerID, WSEvent{
		Type:      TypeTaskDeleted,
		TaskID:    event.TaskID,
		Timestamp: event.DeletedAt,
	})
	return nil
}

// GetHub returns the hub for the api module's WebSocket route.
func (m *Module) GetHub() *Hub {
	return m.hub
}
