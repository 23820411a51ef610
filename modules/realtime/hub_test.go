package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	domain "github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, data)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) events() []WSEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]WSEvent, 0, len(c.frames))
	for _, f := range c.frames {
		var ev WSEvent
		if err := json.Unmarshal(f, &ev); err == nil {
			out = append(out, ev)
		}
	}
	return out
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func runHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		hub.Wait()
	})
	return hub, cancel
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub, _ := runHub(t)

	a1 := &Client{ID: "c1", UserID: "alice", Conn: &fakeConn{}}
	a2 := &Client{ID: "c2", UserID: "alice", Conn: &fakeConn{}}
	b1 := &Client{ID: "c3", UserID: "bob", Conn: &fakeConn{}}

	hub.Register(a1)
	hub.Register(a2)
	hub.Register(b1)

	require.Eventually(t, func() bool { return hub.ClientCount() == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, hub.UserCount())
	assert.Equal(t, 2, hub.UserClientCount("alice"))

	hub.Unregister(a1)
	hub.Unregister(a1)
	hub.Unregister(b1)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, hub.UserCount())
	assert.Equal(t, 0, hub.UserClientCount("bob"))
}

func TestHub_SendToUserOnlyReachesOwner(t *testing.T) {
	hub, _ := runHub(t)

	alice1, alice2, bob := &fakeConn{}, &fakeConn{}, &fakeConn{}
	hub.Register(&Client{ID: "c1", UserID: "alice", Conn: alice1})
	hub.Register(&Client{ID: "c2", UserID: "alice", Conn: alice2})
	hub.Register(&Client{ID: "c3", UserID: "bob", Conn: bob})

	hub.SendToUser("alice", WSEvent{Type: TypeTaskDeleted, TaskID: "t1"})
	hub.SendToUser("nobody", WSEvent{Type: TypeTaskDeleted, TaskID: "t2"})

	require.Eventually(t, func() bool {
		return len(alice1.events()) == 1 && len(alice2.events()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "t1", alice1.events()[0].TaskID)
	assert.Empty(t, bob.events())
}

func TestHub_ShutdownClosesConnections(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	conn := &fakeConn{}
	hub.Register(&Client{ID: "c1", UserID: "alice", Conn: conn})

	cancel()
	hub.Wait()

	assert.True(t, conn.isClosed())
	assert.Zero(t, hub.ClientCount())
}

// stuckConn blocks every write until released.
type stuckConn struct {
	fakeConn
	release chan struct{}
}

func (c *stuckConn) WriteMessage(messageType int, data []byte) error {
	<-c.release
	return c.fakeConn.WriteMessage(messageType, data)
}

func TestHub_SlowClientDoesNotStallOthers(t *testing.T) {
	hub, _ := runHub(t)

	slow := &stuckConn{release: make(chan struct{})}
	t.Cleanup(func() { close(slow.release) })
	fast := &fakeConn{}
	hub.Register(&Client{ID: "c1", UserID: "bob", Conn: slow})
	hub.Register(&Client{ID: "c2", UserID: "alice", Conn: fast})

	// Far more frames than one client may queue.
	for i := 0; i < clientSendBuffer*3; i++ {
		hub.SendToUser("bob", WSEvent{Type: TypeTaskDeleted, TaskID: "b"})
	}
	hub.SendToUser("alice", WSEvent{Type: TypeTaskDeleted, TaskID: "a"})

	require.Eventually(t, func() bool { return len(fast.events()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "a", fast.events()[0].TaskID)
}

func TestHub_CallsAfterShutdownDoNotBlock(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	client := &Client{ID: "c1", UserID: "alice", Conn: &fakeConn{}}
	hub.Register(client)
	cancel()
	hub.Wait()

	late := &fakeConn{}
	done := make(chan struct{})
	go func() {
		defer close(done)
		hub.Unregister(client)
		hub.SendToUser("alice", WSEvent{Type: TypeTaskDeleted, TaskID: "t1"})
		hub.Register(&Client{ID: "c2", UserID: "alice", Conn: late})
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub calls blocked after shutdown")
	}
	assert.True(t, late.isClosed())
	assert.Zero(t, hub.ClientCount())
}

func TestModule_ForwardsTaskEvents(t *testing.T) {
	m := NewModule()
	ctx := context.Background()
	require.NoError(t, m.Start(ctx))
	defer func() { _ = m.Stop(ctx) }()

	conn := &fakeConn{}
	m.GetHub().Register(&Client{ID: "c1", UserID: "alice", Conn: conn})

	task := domain.Task{ID: "t1", Title: "Write tests", OwnerID: "alice", Status: domain.StatusPending}
	now := time.Now().UTC()

	require.NoError(t, m.handleTaskCreated(ctx, events.TaskCreatedEvent{Task: task, OwnerID: "alice", CreatedAt: now}, nil))
	require.NoError(t, m.handleTaskUpdated(ctx, events.TaskUpdatedEvent{Task: task, OwnerID: "alice", Fields: []string{"status"}, UpdatedAt: now}, nil))
	require.NoError(t, m.handleTaskDeleted(ctx, events.TaskDeletedEvent{TaskID: "t1", OwnerID: "alice", DeletedAt: now}, nil))
	require.NoError(t, m.handleTaskDeleted(ctx, events.TaskDeletedEvent{TaskID: "t9", OwnerID: "bob", DeletedAt: now}, nil))

	require.Eventually(t, func() bool { return len(conn.events()) == 3 }, time.Second, 5*time.Millisecond)
	got := conn.events()
	assert.Equal(t, TypeTaskCreated, got[0].Type)
	assert.Equal(t, "Write tests", got[0].Task.Title)
	assert.Equal(t, TypeTaskUpdated, got[1].Type)
	assert.Equal(t, []string{"status"}, got[1].Fields)
	assert.Equal(t, TypeTaskDeleted, got[2].Type)
	assert.Equal(t, "t1", got[2].TaskID)

	health := m.Health(ctx)
	assert.True(t, health.Healthy)
	assert.Equal(t, 1, health.Details["connected_clients"])
}
