package api

import (
	"log"
	"time"

	domain "github.com/example/task-manager/domain/user"
	"github.com/example/task-manager/modules/realtime"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// wsAuth admits WebSocket upgrades carrying a valid ?token=. Browsers
// cannot set headers on the handshake, so the token travels in the query.
func (m *APIModule) wsAuth(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	token := c.Query("token")
	if token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Message: "Not authorized, no token"})
	}

	claims, err := m.authAdapter.ValidateToken(c.UserContext(), token)
	if err != nil {
		if tokenRejected(err) {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Message: "Not authorized, token failed"})
		}
		return writeError(c, err)
	}

	c.Locals(UserContextKey, claims)
	return c.Next()
}

// handleWebSocket registers the connection with the hub and holds it open
// until the client goes away. Incoming frames are ignored.
func (m *APIModule) handleWebSocket(c *websocket.Conn) {
	claims, ok := c.Locals(UserContextKey).(*domain.Claims)
	if !ok {
		_ = c.Close()
		return
	}

	client := &realtime.Client{
		ID:     uuid.New().String(),
		UserID: claims.UserID,
		Conn:   c,
	}

	welcome := realtime.WSEvent{Type: realtime.TypeConnected, Timestamp: time.Now().UTC()}
	if err := c.WriteJSON(welcome); err != nil {
		log.Printf("[api] Failed to send welcome: %v", err)
		return
	}

	m.hub.Register(client)
	defer func() {
		m.hub.Unregister(client)
		log.Printf("[api] WebSocket client disconnected: %s (user %s)", client.ID, client.UserID)
	}()

	log.Printf("[api] WebSocket client connected: %s (user %s)", client.ID, client.UserID)

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[api] Read error from %s: %v", client.ID, err)
			}
			return
		}
	}
}
