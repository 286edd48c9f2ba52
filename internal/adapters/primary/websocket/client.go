package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/musat/helpdesk-backend/internal/core/domain"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 8192
)

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	Hub *Hub

	// ID uniquely identifies this connection.
	ID string

	// The websocket connection.
	Conn *websocket.Conn

	// Buffered channel of outbound events.
	Send chan domain.Event

	// Principal is the authenticated identity for this connection.
	Principal domain.Principal

	// SessionID is the session this connection was opened under.
	SessionID string

	// gateway dispatches inbound client commands.
	gateway *Gateway

	// rooms the client has joined.
	rooms map[domain.Room]bool

	// sendMu serializes writes to Send against CloseSend. The hub broadcasts
	// from caller goroutines, so without it a broadcast racing an unregister
	// would send on a closed channel.
	sendMu     sync.Mutex
	sendClosed bool

	// mu protects the rooms map
	mu sync.RWMutex

	// logger for this client
	logger *slog.Logger
}

// NewClient creates a new WebSocket client
func NewClient(hub *Hub, gateway *Gateway, conn *websocket.Conn, connID string, principal domain.Principal, sessionID string, logger *slog.Logger) *Client {
	return &Client{
		Hub:       hub,
		ID:        connID,
		Conn:      conn,
		Send:      make(chan domain.Event, 256),
		Principal: principal,
		SessionID: sessionID,
		gateway:   gateway,
		rooms:     make(map[domain.Room]bool),
		logger:    logger.With("conn_id", connID, "user_id", principal.ID.String()),
	}
}

// CloseSend safely closes the Send channel exactly once
func (c *Client) CloseSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.sendClosed {
		return
	}
	c.sendClosed = true
	close(c.Send)
}

// trySend queues an event without blocking. It reports false when the buffer
// is full. A closed client counts as sent so callers do not unregister it a
// second time.
func (c *Client) trySend(event domain.Event) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.sendClosed {
		return true
	}
	select {
	case c.Send <- event:
		return true
	default:
		return false
	}
}

// Close tears down the underlying connection. The read pump then exits and
// unregisters the client.
func (c *Client) Close() {
	if c.Conn != nil {
		_ = c.Conn.Close()
	}
}

// AddRoom records a joined room
func (c *Client) AddRoom(room domain.Room) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms[room] = true
}

// RemoveRoom forgets a joined room
func (c *Client) RemoveRoom(room domain.Room) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rooms, room)
}

// InRoom reports whether the client has joined the room
func (c *Client) InRoom(room domain.Room) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rooms[room]
}

// RoomOfKind returns the client's current room of the given kind, if any.
// A connection holds at most one room of each kind.
func (c *Client) RoomOfKind(kind domain.RoomKind) (domain.Room, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for room := range c.rooms {
		if room.Kind == kind {
			return room, true
		}
	}
	return domain.Room{}, false
}

// JoinedRooms returns a copy of the client's joined rooms
func (c *Client) JoinedRooms() []domain.Room {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rooms := make([]domain.Room, 0, len(c.rooms))
	for room := range c.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

// QueueEvent queues an event for delivery, dropping it if the buffer is full
func (c *Client) QueueEvent(event domain.Event) {
	if !c.trySend(event) {
		c.logger.Warn("send buffer full, dropping event", "event_type", event.Type)
	}
}

// ReadPump pumps messages from the websocket connection to the gateway.
// This method runs in its own goroutine.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	if err := c.Conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error("failed to set read deadline", "error", err)
		return
	}

	c.Conn.SetPongHandler(func(string) error {
		if err := c.Conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.logger.Error("failed to set read deadline in pong handler", "error", err)
		}
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", "error", err)
			}
			break
		}

		c.gateway.Dispatch(c, message)
	}
}

// WritePump pumps events from the hub to the websocket connection.
// This method runs in its own goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.Send:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error("failed to set write deadline", "error", err)
				return
			}

			if !ok {
				// The hub closed the channel. Send close message.
				if err := c.Conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					c.logger.Debug("failed to send close message", "error", err)
				}
				return
			}

			if err := c.writeJSON(event); err != nil {
				c.logger.Error("failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error("failed to set write deadline for ping", "error", err)
				return
			}

			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("failed to send ping", "error", err)
				return
			}
		}
	}
}

// writeJSON writes a JSON message to the websocket connection
func (c *Client) writeJSON(event domain.Event) error {
	w, err := c.Conn.NextWriter(websocket.TextMessage)
	if err != nil {
		return err
	}

	if err := json.NewEncoder(w).Encode(event); err != nil {
		_ = w.Close()
		return err
	}

	return w.Close()
}
