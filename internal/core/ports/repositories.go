package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/musat/helpdesk-backend/internal/core/domain"
)

// UserRepository handles user data access
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// ListTechnicians returns the active assignment roster, ordered by
	// creation time then id. Admins are not part of the rotation.
	ListTechnicians(ctx context.Context) ([]*domain.User, error)
}

// ProductRepository resolves products referenced by tickets
type ProductRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
}

// TicketRepository handles ticket persistence
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Ticket, error)
	Update(ctx context.Context, ticket *domain.Ticket) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	// GetLastCreated returns the most recently filed ticket by ticket number,
	// or ErrTicketNotFound when no tickets exist yet.
	GetLastCreated(ctx context.Context) (*domain.Ticket, error)
	// ListForClient returns tickets filed by the given client.
	ListForClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*domain.Ticket, error)
	// ListForTechnician returns tickets assigned to the given technician.
	ListForTechnician(ctx context.Context, technicianID uuid.UUID, limit, offset int) ([]*domain.Ticket, error)
	// ListAll returns all tickets regardless of ownership.
	ListAll(ctx context.Context, limit, offset int) ([]*domain.Ticket, error)
	// AcquireAssignmentLock takes a transaction-scoped advisory lock that
	// serializes round-robin assignment. Must be called inside a transaction.
	AcquireAssignmentLock(ctx context.Context) error
}

// MessageRepository handles chat message persistence
type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) error
	ListByTicket(ctx context.Context, ticketID uuid.UUID, limit, offset int) ([]*domain.Message, error)
	// FilterUnreadFromOthers narrows the given ids to messages on the ticket
	// that are unread and were not sent by readerID.
	FilterUnreadFromOthers(ctx context.Context, ticketID, readerID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error)
	MarkRead(ctx context.Context, ids []uuid.UUID) error
}

// NotificationRepository handles notification persistence
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Notification, error)
	// MarkRead marks the given notifications read if they belong to userID
	// and returns the ids actually updated.
	MarkRead(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error)
	// DeleteOwned removes the given notifications if they belong to userID
	// and returns the ids actually removed.
	DeleteOwned(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error)
}

// Session is an authenticated session resolved from an opaque token.
type Session struct {
	ID     string
	UserID uuid.UUID
}

// SessionStore manages opaque session tokens with server-side state.
type SessionStore interface {
	// Create persists a new session for the user and returns the opaque token.
	Create(ctx context.Context, userID uuid.UUID) (string, error)
	// Lookup resolves a token to its session, or ErrSessionNotFound.
	Lookup(ctx context.Context, token string) (*Session, error)
	// Destroy invalidates the session for the given token and announces the
	// invalidation so live connections on that session can be dropped.
	Destroy(ctx context.Context, token string) error
}

// TransactionManager runs a function within a database transaction
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
