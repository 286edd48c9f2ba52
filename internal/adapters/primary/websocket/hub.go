package websocket

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/musat/helpdesk-backend/internal/core/domain"
	"github.com/musat/helpdesk-backend/internal/core/ports"
)

// Hub maintains the set of active Clients and the rooms they have joined.
type Hub struct {
	// clients maps user IDs to their active connections.
	// A single user can have multiple connections (multiple tabs/devices).
	clients map[uuid.UUID]map[*Client]bool

	// rooms maps each room to its joined clients.
	rooms map[domain.Room]map[*Client]bool

	// sessions maps session IDs to the connections opened under them, so a
	// logout can drop every socket of that session.
	sessions map[string]map[*Client]bool

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	// mu protects the clients, rooms, and sessions maps
	mu sync.RWMutex

	// logger for the hub
	logger *slog.Logger
}

// Ensure Hub implements the Broadcaster interface.
var _ ports.Broadcaster = (*Hub)(nil)

// NewHub creates a new WebSocket hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]bool),
		rooms:      make(map[domain.Room]map[*Client]bool),
		sessions:   make(map[string]map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		logger:     logger.With("component", "websocket_hub"),
	}
}

// Run starts the hub's registration loop. This MUST be run as a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)
		}
	}
}

// registerClient adds a client to the hub
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.Principal.ID] == nil {
		h.clients[client.Principal.ID] = make(map[*Client]bool)
	}
	h.clients[client.Principal.ID][client] = true

	if h.sessions[client.SessionID] == nil {
		h.sessions[client.SessionID] = make(map[*Client]bool)
	}
	h.sessions[client.SessionID][client] = true

	h.logger.Info("client registered",
		"conn_id", client.ID,
		"user_id", client.Principal.ID,
		"total_connections", len(h.clients[client.Principal.ID]),
	)
}

// unregisterClient removes a client from the hub and all its rooms
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	joined := client.JoinedRooms()

	if userClients, ok := h.clients[client.Principal.ID]; ok {
		if _, exists := userClients[client]; exists {
			delete(userClients, client)
			if len(userClients) == 0 {
				delete(h.clients, client.Principal.ID)
			}
		}
	}

	if sessionClients, ok := h.sessions[client.SessionID]; ok {
		delete(sessionClients, client)
		if len(sessionClients) == 0 {
			delete(h.sessions, client.SessionID)
		}
	}

	for _, room := range joined {
		h.removeFromRoom(client, room)
	}

	client.CloseSend()

	h.logger.Info("client unregistered",
		"conn_id", client.ID,
		"user_id", client.Principal.ID,
	)
}

// Join adds a client to a room. A connection holds at most one room of each
// kind, so joining implicitly leaves the previous room of that kind.
func (h *Hub) Join(client *Client, room domain.Room) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, joined := range client.JoinedRooms() {
		if joined.Kind == room.Kind && joined != room {
			h.removeFromRoom(client, joined)
			client.RemoveRoom(joined)
		}
	}

	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][client] = true
	client.AddRoom(room)

	h.logger.Debug("client joined room",
		"conn_id", client.ID,
		"room_kind", room.Kind,
		"subject", room.Subject,
	)
}

// Leave removes a client from a room
func (h *Hub) Leave(client *Client, room domain.Room) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeFromRoom(client, room)
	client.RemoveRoom(room)

	h.logger.Debug("client left room",
		"conn_id", client.ID,
		"room_kind", room.Kind,
		"subject", room.Subject,
	)
}

// removeFromRoom must be called with h.mu held
func (h *Hub) removeFromRoom(client *Client, room domain.Room) {
	if members, ok := h.rooms[room]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// BroadcastToRoom sends an event to every client in the room except the
// connection identified by excludeConnID
func (h *Hub) BroadcastToRoom(room domain.Room, event domain.Event, excludeConnID string) {
	h.mu.RLock()
	members, ok := h.rooms[room]
	if !ok {
		h.mu.RUnlock()
		return
	}

	// Copy the client list to avoid holding the lock while sending
	clients := make([]*Client, 0, len(members))
	for client := range members {
		if client.ID == excludeConnID {
			continue
		}
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		h.deliver(client, event)
	}
}

// SendToUser sends an event to every active connection of a user
func (h *Hub) SendToUser(userID uuid.UUID, event domain.Event) {
	h.mu.RLock()
	members, ok := h.clients[userID]
	if !ok {
		h.mu.RUnlock()
		return
	}

	clients := make([]*Client, 0, len(members))
	for client := range members {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		h.deliver(client, event)
	}
}

// IsUserInRoom reports whether any of the user's connections is in the room
func (h *Hub) IsUserInRoom(userID uuid.UUID, room domain.Room) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members, ok := h.rooms[room]
	if !ok {
		return false
	}
	for client := range members {
		if client.Principal.ID == userID {
			return true
		}
	}
	return false
}

// DisconnectSession closes every connection opened under the session. Called
// when the session is invalidated, locally or on another instance.
func (h *Hub) DisconnectSession(sessionID string) {
	h.mu.RLock()
	members, ok := h.sessions[sessionID]
	if !ok {
		h.mu.RUnlock()
		return
	}

	clients := make([]*Client, 0, len(members))
	for client := range members {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	h.logger.Info("disconnecting session", "session_id", sessionID, "connections", len(clients))

	for _, client := range clients {
		// Closing the connection makes the read pump exit, which unregisters
		// the client through the normal path.
		client.Close()
	}
}

// ClientCount returns the total number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, userClients := range h.clients {
		count += len(userClients)
	}
	return count
}

// RoomCount returns the number of active rooms
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// ClientsInRoom returns the number of clients in a room
func (h *Hub) ClientsInRoom(room domain.Room) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if members, ok := h.rooms[room]; ok {
		return len(members)
	}
	return 0
}

// deliver queues an event on a client, unregistering it if its buffer is
// full. Sending goes through trySend so a broadcast racing the client's
// unregistration is dropped instead of hitting the closed channel.
func (h *Hub) deliver(client *Client, event domain.Event) {
	if !client.trySend(event) {
		h.logger.Warn("client send buffer full, unregistering",
			"conn_id", client.ID,
			"user_id", client.Principal.ID,
		)
		h.Unregister <- client
	}
}
