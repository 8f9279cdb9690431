package api

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/hirewire/mailengine/internal/notify"
	"github.com/hirewire/mailengine/internal/store"
)

// WebSocketHandler handles the /api/v1/ws endpoint for new-message events.
type WebSocketHandler struct {
	users store.UserDirectory
	hub   *notify.Hub
}

// NewWebSocketHandler creates a new WebSocketHandler instance.
func NewWebSocketHandler(users store.UserDirectory, hub *notify.Hub) *WebSocketHandler {
	return &WebSocketHandler{users: users, hub: hub}
}

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// This server is expected to be used behind a reverse proxy in a
		// trusted environment.
		return true
	},
}

// Handle upgrades the HTTP connection to a WebSocket and registers it with
// the Hub. Identity comes from the userId query parameter, the same explicit
// handle every other endpoint uses (browsers can't set headers on WebSocket
// connections anyway).
func (h *WebSocketHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := RequireUserID(w, r)
	if !ok {
		return
	}

	// Resolve before upgrading so unknown users get a proper 404.
	user, err := h.users.GetUserByID(ctx, userID)
	if err != nil {
		WriteServiceError(w, "WebSocketHandler: Failed to resolve user", err)
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocketHandler: failed to upgrade connection for user %s: %v", user.ID, err)
		return
	}

	client := h.hub.Register(user.ID, conn)
	if client == nil {
		log.Printf("WebSocketHandler: Connection rejected for user %s (max connections exceeded)", user.ID)
		return
	}

	go h.readLoop(user.ID, client)
}

// readLoop reads messages from the WebSocket until the connection is closed,
// then unregisters the client.
func (h *WebSocketHandler) readLoop(userID string, client *notify.Client) {
	conn := client.Conn()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.hub.Unregister(userID, client)
}
