package handlers

import (
	"encoding/json"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/grumnuts/the-nest/internal/middleware"
	"github.com/grumnuts/the-nest/internal/permissions"
)

// Event types sent over WebSocket
const (
	EventTaskCreated       = "task_created"
	EventTaskUpdated       = "task_updated"
	EventTaskDeleted       = "task_deleted"
	EventTaskCompleted     = "task_completed"
	EventTaskUncompleted   = "task_uncompleted"
	EventListUpdated       = "list_updated"
	EventPermissionChanged = "permission_changed"
)

// WSEvent is the JSON message sent to connected clients
type WSEvent struct {
	Type   string      `json:"type"`
	ListID string      `json:"listId"`
	UserID string      `json:"userId"`
	Data   interface{} `json:"data,omitempty"`
}

// connection wraps a websocket connection with its user ID
type connection struct {
	conn   *websocket.Conn
	userID uuid.UUID
}

// Hub manages WebSocket connections per list
type Hub struct {
	mu    sync.RWMutex
	rooms map[uuid.UUID]map[*connection]bool // listID -> set of connections
}

// Global hub instance
var WS = &Hub{
	rooms: make(map[uuid.UUID]map[*connection]bool),
}

// register adds a connection to a list room
func (h *Hub) register(listID uuid.UUID, conn *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[listID] == nil {
		h.rooms[listID] = make(map[*connection]bool)
	}
	h.rooms[listID][conn] = true
	log.Printf("WS register: user %s joined list %s (total: %d)", conn.userID, listID, len(h.rooms[listID]))
}

// unregister removes a connection from a list room
func (h *Hub) unregister(listID uuid.UUID, conn *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[listID]; ok {
		delete(conns, conn)
		log.Printf("WS unregister: user %s left list %s (remaining: %d)", conn.userID, listID, len(conns))
		if len(conns) == 0 {
			delete(h.rooms, listID)
		}
	}
}

// Broadcast sends an event to all connections in a list room, excluding the sender
func (h *Hub) Broadcast(listID uuid.UUID, excludeUserID uuid.UUID, event WSEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conns, ok := h.rooms[listID]
	if !ok {
		return
	}

	msg, err := json.Marshal(event)
	if err != nil {
		log.Printf("WS broadcast marshal error: %v", err)
		return
	}

	for c := range conns {
		// Don't send to the user who triggered the event
		if c.userID == excludeUserID {
			continue
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Printf("WS write error: %v", err)
		}
	}
}

// WebSocketUpgrade is the middleware that checks the upgrade request and validates JWT
func WebSocketUpgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		// Authenticate via query param: ?token=<jwt>
		tokenString := c.Query("token")
		if tokenString == "" {
			// Also check Authorization header for non-browser clients
			authHeader := c.Get("Authorization")
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				tokenString = ""
			}
		}

		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authentication token",
			})
		}

		secret := os.Getenv("JWT_SECRET")
		if secret == "" {
			secret = "your-secret-key-change-in-production"
		}

		token, err := jwt.ParseWithClaims(tokenString, &middleware.Claims{}, func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		claims, ok := token.Claims.(*middleware.Claims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token claims",
			})
		}

		c.Locals("userId", claims.UserID)
		return c.Next()
	}
}

// HandleWebSocket handles a WebSocket connection for a specific list
func HandleWebSocket(c *websocket.Conn) {
	listID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		c.Close()
		return
	}

	userID, ok := c.Locals("userId").(uuid.UUID)
	if !ok {
		c.Close()
		return
	}

	// Same gate as the REST surface: no permission row, no feed
	if permissions.For(userID, listID) == permissions.None {
		c.Close()
		return
	}

	conn := &connection{conn: c, userID: userID}
	WS.register(listID, conn)
	defer WS.unregister(listID, conn)

	// Keep connection alive — read messages (client sends pings/keepalives)
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
}
