package domain

import (
	"time"

	"github.com/google/uuid"

	apperrors "github.com/musat/helpdesk-backend/internal/core/errors"
)

const MaxMessageLength = 5000

// Message is a chat message tied to a ticket. Read flips false -> true
// exactly once and never reverts.
type Message struct {
	ID        uuid.UUID
	TicketID  uuid.UUID
	FromID    uuid.UUID
	Content   string
	Read      bool
	CreatedAt time.Time
}

// MessageParams holds the validated input for creating a message.
type MessageParams struct {
	TicketID uuid.UUID
	FromID   uuid.UUID
	Content  string
}

// NewMessage builds an unread message.
func NewMessage(params MessageParams) (*Message, error) {
	if params.Content == "" {
		return nil, apperrors.ErrMessageContentRequired
	}
	if len(params.Content) > MaxMessageLength {
		return nil, apperrors.ErrMessageContentTooLong
	}
	if params.TicketID == uuid.Nil || params.FromID == uuid.Nil {
		return nil, apperrors.ErrBadRequest
	}

	return &Message{
		ID:        uuid.New(),
		TicketID:  params.TicketID,
		FromID:    params.FromID,
		Content:   params.Content,
		CreatedAt: time.Now().UTC(),
	}, nil
}
