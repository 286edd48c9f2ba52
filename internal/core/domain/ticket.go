package domain

import (
	"time"

	"github.com/google/uuid"

	apperrors "github.com/musat/helpdesk-backend/internal/core/errors"
)

const (
	MaxDescriptionLength  = 10000
	MaxSerialNumberLength = 255
)

// TicketStatus represents the possible states of a ticket.
type TicketStatus string

const (
	StatusOpen           TicketStatus = "open"
	StatusInProgress     TicketStatus = "in_progress"
	StatusAwaitingClient TicketStatus = "awaiting_client"
	StatusResolved       TicketStatus = "resolved"
	StatusCancelled      TicketStatus = "cancelled"
)

// IsValid reports whether the status is a known enum value.
func (s TicketStatus) IsValid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusAwaitingClient, StatusResolved, StatusCancelled:
		return true
	}
	return false
}

// IsClosed reports whether the status is terminal.
func (s TicketStatus) IsClosed() bool {
	return s == StatusResolved || s == StatusCancelled
}

// StatusChange classifies what a status transition did, which drives the
// notification side effects.
type StatusChange int

const (
	StatusUnchanged StatusChange = iota
	StatusChanged
	StatusClosedChange
	StatusReopened
)

// Ticket is the core domain entity. TicketNumber is allocated by the store
// and is the authoritative ordering key for "last ticket" lookups; CreatedAt
// is wall clock and not reliable under concurrent inserts.
type Ticket struct {
	ID           uuid.UUID
	TicketNumber int64
	ClientID     uuid.UUID
	TechnicianID uuid.UUID
	ProductID    uuid.UUID
	Status       TicketStatus
	Description  string
	SerialNumber string
	ClosedAt     *time.Time
	CreatedAt    time.Time
	UpdatedAt    *time.Time
	DeletedAt    *time.Time
}

// TicketParams holds the validated input for creating a ticket.
type TicketParams struct {
	ClientID     uuid.UUID
	ProductID    uuid.UUID
	Description  string
	SerialNumber string
}

// NewTicket builds an unassigned ticket in the open state. The technician is
// set by the assignment engine before the ticket is persisted.
func NewTicket(params TicketParams) (*Ticket, error) {
	errs := apperrors.NewValidationErrors()

	if params.Description == "" {
		errs.Add("description", "This field is required")
	} else if len(params.Description) > MaxDescriptionLength {
		errs.Add("description", "Description exceeds maximum length")
	}
	if params.SerialNumber == "" {
		errs.Add("serialNumber", "This field is required")
	} else if len(params.SerialNumber) > MaxSerialNumberLength {
		errs.Add("serialNumber", "Serial number exceeds maximum length")
	}
	if params.ClientID == uuid.Nil {
		errs.Add("clientId", "This field is required")
	}
	if params.ProductID == uuid.Nil {
		errs.Add("productId", "This field is required")
	}

	if errs.HasErrors() {
		return nil, errs
	}

	return &Ticket{
		ClientID:     params.ClientID,
		ProductID:    params.ProductID,
		Description:  params.Description,
		SerialNumber: params.SerialNumber,
		Status:       StatusOpen,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// ApplyStatus moves the ticket to newStatus and maintains ClosedAt.
//
// The transition graph is deliberately permissive: any known status may
// follow any other, re-asserting the current status is a no-op, and closed
// tickets may be reopened. Entering a terminal status stamps ClosedAt;
// leaving one clears it; everything else leaves it untouched.
func (t *Ticket) ApplyStatus(newStatus TicketStatus) (StatusChange, error) {
	if !newStatus.IsValid() {
		return StatusUnchanged, apperrors.ErrInvalidStatus
	}

	if newStatus == t.Status {
		return StatusUnchanged, nil
	}

	change := StatusChanged
	now := time.Now().UTC()

	if newStatus.IsClosed() {
		t.ClosedAt = &now
		change = StatusClosedChange
	} else if t.ClosedAt != nil {
		t.ClosedAt = nil
		change = StatusReopened
	}

	t.Status = newStatus
	t.UpdatedAt = &now
	return change, nil
}

// IsOwnedBy reports whether the user opened this ticket.
func (t *Ticket) IsOwnedBy(userID uuid.UUID) bool {
	return t.ClientID == userID
}

// IsAssignedTo reports whether the user is the assigned technician.
func (t *Ticket) IsAssignedTo(userID uuid.UUID) bool {
	return t.TechnicianID == userID
}

// CanBeViewedBy reports whether the principal may read this ticket: its
// client, its technician, or an admin.
func (t *Ticket) CanBeViewedBy(p Principal) bool {
	return t.IsOwnedBy(p.ID) || t.IsAssignedTo(p.ID) || RoleSatisfies(p.Role, RoleAdmin)
}
