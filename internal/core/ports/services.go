package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/musat/helpdesk-backend/internal/core/domain"
)

// CreateTicketParams holds the input for filing a new ticket
type CreateTicketParams struct {
	Client       domain.Principal
	ProductID    uuid.UUID
	Description  string
	SerialNumber string
}

// UpdateStatusParams holds the input for a ticket status change
type UpdateStatusParams struct {
	Actor    domain.Principal
	TicketID uuid.UUID
	Status   domain.TicketStatus
	// ConnID identifies the websocket connection that originated the change,
	// so room broadcasts can skip echoing back to it. Empty for HTTP callers.
	ConnID string
	// Internal changes skip actor authorization. Used for automatic
	// transitions triggered by chat activity.
	Internal bool
}

// TicketService covers the ticket lifecycle
type TicketService interface {
	Create(ctx context.Context, params CreateTicketParams) (*domain.Ticket, error)
	Get(ctx context.Context, actor domain.Principal, ticketID uuid.UUID) (*domain.Ticket, error)
	List(ctx context.Context, actor domain.Principal, limit, offset int) ([]*domain.Ticket, error)
	UpdateStatus(ctx context.Context, params UpdateStatusParams) (*domain.Ticket, error)
	Delete(ctx context.Context, actor domain.Principal, ticketID uuid.UUID) error
	// AuthorizeRoomAccess reports whether the actor may join rooms scoped to
	// the ticket: its client, its assigned technician, or an admin.
	AuthorizeRoomAccess(ctx context.Context, actor domain.Principal, ticketID uuid.UUID) error
}

// SendMessageParams holds the input for sending a chat message
type SendMessageParams struct {
	Sender   domain.Principal
	TicketID uuid.UUID
	Content  string
	ConnID   string
}

// ReadMessagesParams holds the input for acknowledging chat messages
type ReadMessagesParams struct {
	Reader     domain.Principal
	TicketID   uuid.UUID
	MessageIDs []uuid.UUID
	ConnID     string
}

// ChatService covers in-ticket messaging
type ChatService interface {
	Send(ctx context.Context, params SendMessageParams) (*domain.Message, error)
	// MarkRead acknowledges messages and returns the ids that were actually
	// marked. Messages sent by the reader or already read are skipped.
	MarkRead(ctx context.Context, params ReadMessagesParams) ([]uuid.UUID, error)
	History(ctx context.Context, actor domain.Principal, ticketID uuid.UUID, limit, offset int) ([]*domain.Message, error)
}

// NotifyParams holds the input for creating a notification
type NotifyParams struct {
	UserID  uuid.UUID
	Title   string
	Content string
	Href    string
}

// NotificationService covers per-user notifications
type NotificationService interface {
	// Notify stores a notification and pushes it to the user's live
	// connections when any exist.
	Notify(ctx context.Context, params NotifyParams) error
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error)
	Remove(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error)
}

// AuthService covers credential verification and session lifecycle
type AuthService interface {
	// Login verifies credentials and opens a session, returning the user and
	// the opaque session token.
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
	Logout(ctx context.Context, token string) error
	// Resolve maps a session token to the authenticated user and the session
	// id, which live connections register under for logout disconnects.
	Resolve(ctx context.Context, token string) (*domain.User, string, error)
}

// Broadcaster delivers events to live websocket connections. Implemented by
// the websocket hub; services use it to push without knowing about sockets.
type Broadcaster interface {
	BroadcastToRoom(room domain.Room, event domain.Event, excludeConnID string)
	SendToUser(userID uuid.UUID, event domain.Event)
	// IsUserInRoom reports whether any of the user's connections has joined
	// the room. Used to decide between in-room delivery and a notification.
	IsUserInRoom(userID uuid.UUID, room domain.Room) bool
}
