package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/musat/helpdesk-backend/internal/core/domain"
	apperrors "github.com/musat/helpdesk-backend/internal/core/errors"
	"github.com/musat/helpdesk-backend/internal/core/ports"
)

// AssignmentService picks the technician for a new ticket. Assignment is
// round-robin over the active technician roster, continuing from whoever
// received the previous ticket.
type AssignmentService struct {
	userRepo   ports.UserRepository
	ticketRepo ports.TicketRepository
}

func NewAssignmentService(userRepo ports.UserRepository, ticketRepo ports.TicketRepository) *AssignmentService {
	return &AssignmentService{
		userRepo:   userRepo,
		ticketRepo: ticketRepo,
	}
}

// NextTechnician returns the technician that should receive the next ticket.
// A technician filing their own ticket is passed as exclude so they never get
// assigned to themselves. Callers must hold the assignment lock so that
// concurrent creations observe distinct positions in the rotation.
func (s *AssignmentService) NextTechnician(ctx context.Context, exclude uuid.UUID) (uuid.UUID, error) {
	roster, err := s.userRepo.ListTechnicians(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	roster = withoutUser(roster, exclude)
	if len(roster) == 0 {
		return uuid.Nil, apperrors.ErrNoTechniciansAvailable
	}

	last, err := s.ticketRepo.GetLastCreated(ctx)
	if err != nil {
		if errors.Is(err, apperrors.ErrTicketNotFound) {
			// First ticket ever: rotation starts at the head of the roster.
			return roster[0].ID, nil
		}
		return uuid.Nil, err
	}

	return nextInRotation(roster, last.TechnicianID), nil
}

// nextInRotation returns the roster member after the previous assignee. When
// the previous assignee has left the roster (deactivated or demoted), the
// rotation restarts at the head.
func nextInRotation(roster []*domain.User, previous uuid.UUID) uuid.UUID {
	for i, tech := range roster {
		if tech.ID == previous {
			return roster[(i+1)%len(roster)].ID
		}
	}
	return roster[0].ID
}

func withoutUser(roster []*domain.User, id uuid.UUID) []*domain.User {
	if id == uuid.Nil {
		return roster
	}
	kept := make([]*domain.User, 0, len(roster))
	for _, tech := range roster {
		if tech.ID != id {
			kept = append(kept, tech)
		}
	}
	return kept
}
