// Package realtime pushes task changes to the owning user's WebSocket
// connections.
package realtime

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
)

// Conn is the part of a WebSocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// clientSendBuffer is how many frames may queue for one connection before
// further frames to it are dropped.
const clientSendBuffer = 32

// Client is one connected WebSocket of a user. A user may hold several.
// After Register the hub owns writes to Conn.
type Client struct {
	ID     string
	UserID string
	Conn   Conn

	send chan []byte
}

// Message is a frame addressed to every connection of one user.
type Message struct {
	UserID  string
	Payload any
}

// Hub tracks connections per user and fans messages out to them.
type Hub struct {
	clients    map[string]*Client         // clientID -> Client
	users      map[string]map[string]bool // userID -> set of clientIDs
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	done       chan struct{}
	mu         sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		users:      make(map[string]map[string]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 256),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and messages until ctx is cancelled, then
// closes every connection.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			log.Println("[realtime] Hub shutting down...")
			h.closeAllClients()
			close(h.done)
			return
		case client := <-h.register:
			h.handleRegister(client)
		case client := <-h.unregister:
			h.handleUnregister(client)
		case msg := <-h.broadcast:
			h.handleBroadcast(msg)
		}
	}
}

// Wait blocks until Run has returned.
func (h *Hub) Wait() {
	<-h.done
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		close(client.send)
		_ = client.Conn.Close()
	}
	h.clients = make(map[string]*Client)
	h.users = make(map[string]map[string]bool)
}

func (h *Hub) handleRegister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.send = make(chan []byte, clientSendBuffer)
	go h.writeLoop(client)

	h.clients[client.ID] = client
	if h.users[client.UserID] == nil {
		h.users[client.UserID] = make(map[string]bool)
	}
	h.users[client.UserID][client.ID] = true
	log.Printf("[realtime] Client %s registered for user %s", client.ID, client.UserID)
}

func (h *Hub) handleUnregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	close(client.send)
	if ids := h.users[client.UserID]; ids != nil {
		delete(ids, client.ID)
		if len(ids) == 0 {
			delete(h.users, client.UserID)
		}
	}
	log.Printf("[realtime] Client %s unregistered for user %s", client.ID, client.UserID)
}

func (h *Hub) handleBroadcast(msg *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids, ok := h.users[msg.UserID]
	if !ok {
		return
	}

	data, err := json.Marshal(msg.Payload)
	if err != nil {
		log.Printf("[realtime] Failed to marshal message: %v", err)
		return
	}

	for id := range ids {
		client := h.clients[id]
		select {
		case client.send <- data:
		default:
			log.Printf("[realtime] Dropping frame for slow client %s", client.ID)
		}
	}
}

// writeLoop delivers queued frames to one connection until its queue is
// closed. A write error stops delivery; the read side of the handler
// notices the broken connection and unregisters it.
func (h *Hub) writeLoop(client *Client) {
	for data := range client.send {
		if err := client.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("[realtime] Failed to send to client %s: %v", client.ID, err)
			return
		}
	}
}

// Register adds a client to the hub. Once the hub has stopped the
// connection is closed instead.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		_ = client.Conn.Close()
	}
}

// Unregister removes a client from the hub. It does nothing once the hub
// has stopped.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// SendToUser queues payload for every connection of userID. Messages sent
// after the hub has stopped are discarded.
func (h *Hub) SendToUser(userID string, payload any) {
	select {
	case h.broadcast <- &Message{UserID: userID, Payload: payload}:
	case <-h.done:
	}
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// UserCount returns the number of users with at least one connection.
func (h *Hub) UserCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users)
}

// UserClientCount returns the number of connections held by userID.
func (h *Hub) UserClientCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}
