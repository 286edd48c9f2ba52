package domain

import (
	"time"

	"github.com/google/uuid"
)

// Notification is a durable message for a user, created as a side effect of
// ticket and chat events. It outlives the user's connections: delivery to a
// live socket is best effort, the stored record is the source of truth.
type Notification struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Title     string
	Content   string
	Read      bool
	Href      string
	CreatedAt time.Time
}

// Product is the equipment a ticket is filed against. Product management is
// an external concern; the core only ever resolves products by ID.
type Product struct {
	ID        uuid.UUID
	Name      string
	Brand     string
	Category  string
	CreatedAt time.Time
}
