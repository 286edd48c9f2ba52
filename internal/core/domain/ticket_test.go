package domain_test

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/musat/helpdesk-backend/internal/core/domain"
	apperrors "github.com/musat/helpdesk-backend/internal/core/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketStatus_IsValid(t *testing.T) {
	tests := []struct {
		name   string
		status domain.TicketStatus
		want   bool
	}{
		{"open is valid", domain.StatusOpen, true},
		{"in_progress is valid", domain.StatusInProgress, true},
		{"awaiting_client is valid", domain.StatusAwaitingClient, true},
		{"resolved is valid", domain.StatusResolved, true},
		{"cancelled is valid", domain.StatusCancelled, true},
		{"empty is invalid", domain.TicketStatus(""), false},
		{"pending is invalid", domain.TicketStatus("pending"), false},
		{"uppercase is invalid", domain.TicketStatus("OPEN"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.IsValid())
		})
	}
}

func TestTicketStatus_IsClosed(t *testing.T) {
	assert.True(t, domain.StatusResolved.IsClosed())
	assert.True(t, domain.StatusCancelled.IsClosed())
	assert.False(t, domain.StatusOpen.IsClosed())
	assert.False(t, domain.StatusInProgress.IsClosed())
	assert.False(t, domain.StatusAwaitingClient.IsClosed())
}

func TestNewTicket(t *testing.T) {
	clientID := uuid.New()
	productID := uuid.New()

	t.Run("valid params", func(t *testing.T) {
		ticket, err := domain.NewTicket(domain.TicketParams{
			ClientID:     clientID,
			ProductID:    productID,
			Description:  "Screen flickers on boot",
			SerialNumber: "SN-12345",
		})

		require.NoError(t, err)
		assert.Equal(t, domain.StatusOpen, ticket.Status)
		assert.Equal(t, clientID, ticket.ClientID)
		assert.Equal(t, productID, ticket.ProductID)
		assert.Equal(t, uuid.Nil, ticket.TechnicianID)
		assert.Nil(t, ticket.ClosedAt)
		assert.False(t, ticket.CreatedAt.IsZero())
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := domain.NewTicket(domain.TicketParams{})

		var verr *apperrors.ValidationErrors
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Errors, "description")
		assert.Contains(t, verr.Errors, "serialNumber")
		assert.Contains(t, verr.Errors, "clientId")
		assert.Contains(t, verr.Errors, "productId")
	})

	t.Run("description too long", func(t *testing.T) {
		_, err := domain.NewTicket(domain.TicketParams{
			ClientID:     clientID,
			ProductID:    productID,
			Description:  strings.Repeat("x", domain.MaxDescriptionLength+1),
			SerialNumber: "SN-12345",
		})

		var verr *apperrors.ValidationErrors
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Errors, "description")
	})
}

func TestTicket_ApplyStatus(t *testing.T) {
	newOpenTicket := func() *domain.Ticket {
		ticket, err := domain.NewTicket(domain.TicketParams{
			ClientID:     uuid.New(),
			ProductID:    uuid.New(),
			Description:  "does not power on",
			SerialNumber: "SN-1",
		})
		require.NoError(t, err)
		return ticket
	}

	t.Run("unknown status is rejected", func(t *testing.T) {
		ticket := newOpenTicket()

		_, err := ticket.ApplyStatus(domain.TicketStatus("archived"))

		assert.ErrorIs(t, err, apperrors.ErrInvalidStatus)
		assert.Equal(t, domain.StatusOpen, ticket.Status)
	})

	t.Run("same status is a no-op", func(t *testing.T) {
		ticket := newOpenTicket()

		change, err := ticket.ApplyStatus(domain.StatusOpen)

		require.NoError(t, err)
		assert.Equal(t, domain.StatusUnchanged, change)
		assert.Nil(t, ticket.UpdatedAt)
	})

	t.Run("any status may follow any other", func(t *testing.T) {
		all := []domain.TicketStatus{
			domain.StatusOpen,
			domain.StatusInProgress,
			domain.StatusAwaitingClient,
			domain.StatusResolved,
			domain.StatusCancelled,
		}

		for _, from := range all {
			for _, to := range all {
				if from == to {
					continue
				}
				ticket := newOpenTicket()
				_, err := ticket.ApplyStatus(from)
				require.NoError(t, err)
				_, err = ticket.ApplyStatus(to)
				require.NoError(t, err, "transition %s -> %s", from, to)
				assert.Equal(t, to, ticket.Status)
			}
		}
	})

	t.Run("closing stamps ClosedAt", func(t *testing.T) {
		ticket := newOpenTicket()

		change, err := ticket.ApplyStatus(domain.StatusResolved)

		require.NoError(t, err)
		assert.Equal(t, domain.StatusClosedChange, change)
		require.NotNil(t, ticket.ClosedAt)
		assert.False(t, ticket.ClosedAt.IsZero())
	})

	t.Run("reopening clears ClosedAt", func(t *testing.T) {
		ticket := newOpenTicket()
		_, err := ticket.ApplyStatus(domain.StatusCancelled)
		require.NoError(t, err)
		require.NotNil(t, ticket.ClosedAt)

		change, err := ticket.ApplyStatus(domain.StatusInProgress)

		require.NoError(t, err)
		assert.Equal(t, domain.StatusReopened, change)
		assert.Nil(t, ticket.ClosedAt)
	})

	t.Run("non-terminal transition keeps ClosedAt untouched", func(t *testing.T) {
		ticket := newOpenTicket()

		change, err := ticket.ApplyStatus(domain.StatusAwaitingClient)

		require.NoError(t, err)
		assert.Equal(t, domain.StatusChanged, change)
		assert.Nil(t, ticket.ClosedAt)
	})
}

func TestTicket_CanBeViewedBy(t *testing.T) {
	clientID := uuid.New()
	technicianID := uuid.New()

	ticket := &domain.Ticket{
		ID:           uuid.New(),
		ClientID:     clientID,
		TechnicianID: technicianID,
		Status:       domain.StatusOpen,
	}

	tests := []struct {
		name string
		p    domain.Principal
		want bool
	}{
		{"owning client", domain.Principal{ID: clientID, Role: domain.RoleClient}, true},
		{"assigned technician", domain.Principal{ID: technicianID, Role: domain.RoleTechnician}, true},
		{"unrelated client", domain.Principal{ID: uuid.New(), Role: domain.RoleClient}, false},
		{"unrelated technician", domain.Principal{ID: uuid.New(), Role: domain.RoleTechnician}, false},
		{"any admin", domain.Principal{ID: uuid.New(), Role: domain.RoleAdmin}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ticket.CanBeViewedBy(tt.p))
		})
	}
}
