package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/musat/helpdesk-backend/internal/core/domain"
	apperrors "github.com/musat/helpdesk-backend/internal/core/errors"
	"github.com/musat/helpdesk-backend/internal/core/ports"
)

// TicketService implements business logic for the ticket lifecycle
type TicketService struct {
	ticketRepo  ports.TicketRepository
	productRepo ports.ProductRepository
	assignment  *AssignmentService
	txManager   ports.TransactionManager
	notifier    ports.NotificationService
	broadcaster ports.Broadcaster
	wg          sync.WaitGroup
}

var _ ports.TicketService = (*TicketService)(nil)

// NewTicketService creates a new ticket service
func NewTicketService(
	ticketRepo ports.TicketRepository,
	productRepo ports.ProductRepository,
	assignment *AssignmentService,
	txManager ports.TransactionManager,
	notifier ports.NotificationService,
	broadcaster ports.Broadcaster,
) *TicketService {
	return &TicketService{
		ticketRepo:  ticketRepo,
		productRepo: productRepo,
		assignment:  assignment,
		txManager:   txManager,
		notifier:    notifier,
		broadcaster: broadcaster,
	}
}

// Create files a new ticket and assigns it to the next technician in the
// rotation. Assignment and insertion happen in one transaction under an
// advisory lock so concurrent creations never pick the same rotation slot.
func (s *TicketService) Create(ctx context.Context, params ports.CreateTicketParams) (*domain.Ticket, error) {
	if _, err := s.productRepo.GetByID(ctx, params.ProductID); err != nil {
		return nil, err
	}

	ticket, err := domain.NewTicket(domain.TicketParams{
		ClientID:     params.Client.ID,
		ProductID:    params.ProductID,
		Description:  params.Description,
		SerialNumber: params.SerialNumber,
	})
	if err != nil {
		return nil, err
	}

	createFn := func(ctx context.Context) error {
		if err := s.ticketRepo.AcquireAssignmentLock(ctx); err != nil {
			return err
		}
		technicianID, err := s.assignment.NextTechnician(ctx, ticket.ClientID)
		if err != nil {
			return err
		}
		ticket.TechnicianID = technicianID
		return s.ticketRepo.Create(ctx, ticket)
	}

	err = s.txManager.WithTransaction(ctx, createFn)
	if errors.Is(err, apperrors.ErrConflict) {
		// Serialization failure from a concurrent creation. Retry once.
		err = s.txManager.WithTransaction(ctx, createFn)
	}
	if err != nil {
		return nil, err
	}

	s.notifyAsync(ports.NotifyParams{
		UserID:  ticket.TechnicianID,
		Title:   fmt.Sprintf("Ticket #%d assigned to you", ticket.TicketNumber),
		Content: "A new ticket has been assigned to you.",
		Href:    ticketHref(ticket.ID),
	})

	return ticket, nil
}

// Get retrieves a ticket the actor is allowed to see
func (s *TicketService) Get(ctx context.Context, actor domain.Principal, ticketID uuid.UUID) (*domain.Ticket, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !ticket.CanBeViewedBy(actor) {
		return nil, apperrors.ErrForbidden
	}
	return ticket, nil
}

// List returns tickets scoped to the actor's role: clients see tickets they
// filed, technicians see tickets assigned to them, admins see everything.
func (s *TicketService) List(ctx context.Context, actor domain.Principal, limit, offset int) ([]*domain.Ticket, error) {
	switch {
	case domain.RoleSatisfies(actor.Role, domain.RoleAdmin):
		return s.ticketRepo.ListAll(ctx, limit, offset)
	case domain.RoleSatisfies(actor.Role, domain.RoleTechnician):
		return s.ticketRepo.ListForTechnician(ctx, actor.ID, limit, offset)
	default:
		return s.ticketRepo.ListForClient(ctx, actor.ID, limit, offset)
	}
}

// UpdateStatus changes a ticket's status, broadcasts the change to the
// ticket's live room, and notifies the party who did not make the change.
func (s *TicketService) UpdateStatus(ctx context.Context, params ports.UpdateStatusParams) (*domain.Ticket, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, params.TicketID)
	if err != nil {
		return nil, err
	}

	if !params.Internal {
		if err := s.authorizeStatusChange(ticket, params.Actor); err != nil {
			return nil, err
		}
	}

	change, err := ticket.ApplyStatus(params.Status)
	if err != nil {
		return nil, err
	}
	if change == domain.StatusUnchanged {
		return ticket, nil
	}

	if err := s.ticketRepo.Update(ctx, ticket); err != nil {
		return nil, err
	}

	s.broadcaster.BroadcastToRoom(
		domain.UpdatesRoom(ticket.ID),
		domain.Event{
			Type:    domain.EventTicketChanged,
			Payload: domain.NewTicketSnapshot(ticket),
		},
		params.ConnID,
	)

	s.notifyStatusChange(ticket, change, params.Actor.ID)

	return ticket, nil
}

// Delete soft deletes a ticket. Admin only.
func (s *TicketService) Delete(ctx context.Context, actor domain.Principal, ticketID uuid.UUID) error {
	if !domain.RoleSatisfies(actor.Role, domain.RoleAdmin) {
		return apperrors.ErrForbidden
	}
	if _, err := s.ticketRepo.GetByID(ctx, ticketID); err != nil {
		return err
	}
	return s.ticketRepo.SoftDelete(ctx, ticketID)
}

// AuthorizeRoomAccess reports whether the actor may join rooms for the ticket
func (s *TicketService) AuthorizeRoomAccess(ctx context.Context, actor domain.Principal, ticketID uuid.UUID) error {
	ticket, err := s.ticketRepo.GetByID(ctx, ticketID)
	if err != nil {
		return err
	}
	if !ticket.CanBeViewedBy(actor) {
		return apperrors.ErrForbidden
	}
	return nil
}

// authorizeStatusChange enforces who may move a ticket. Only the assigned
// technician or an admin may change status directly; system transitions go
// through the internal path and skip this check.
func (s *TicketService) authorizeStatusChange(ticket *domain.Ticket, actor domain.Principal) error {
	if domain.RoleSatisfies(actor.Role, domain.RoleAdmin) {
		return nil
	}
	if actor.Role == domain.RoleTechnician && ticket.IsAssignedTo(actor.ID) {
		return nil
	}
	return apperrors.ErrForbidden
}

// notifyStatusChange notifies the ticket parties other than the actor. Each
// party gets at most one notification per change.
func (s *TicketService) notifyStatusChange(ticket *domain.Ticket, change domain.StatusChange, actorID uuid.UUID) {
	title := statusChangeTitle(ticket, change)
	recipients := []uuid.UUID{ticket.ClientID, ticket.TechnicianID}
	seen := map[uuid.UUID]bool{actorID: true}

	for _, recipient := range recipients {
		if recipient == uuid.Nil || seen[recipient] {
			continue
		}
		seen[recipient] = true
		s.notifyAsync(ports.NotifyParams{
			UserID:  recipient,
			Title:   title,
			Content: fmt.Sprintf("Ticket #%d is now %s.", ticket.TicketNumber, ticket.Status),
			Href:    ticketHref(ticket.ID),
		})
	}
}

func statusChangeTitle(ticket *domain.Ticket, change domain.StatusChange) string {
	switch {
	case change == domain.StatusReopened:
		return fmt.Sprintf("Ticket #%d reopened", ticket.TicketNumber)
	case ticket.Status == domain.StatusResolved:
		return fmt.Sprintf("Ticket #%d resolved", ticket.TicketNumber)
	case ticket.Status == domain.StatusCancelled:
		return fmt.Sprintf("Ticket #%d cancelled", ticket.TicketNumber)
	case ticket.Status == domain.StatusAwaitingClient:
		return fmt.Sprintf("Ticket #%d is waiting on your reply", ticket.TicketNumber)
	default:
		return fmt.Sprintf("Ticket #%d updated", ticket.TicketNumber)
	}
}

// notifyAsync stores and pushes a notification in the background so request
// handling does not wait on it
func (s *TicketService) notifyAsync(params ports.NotifyParams) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		// Background context since the originating request may be done
		_ = s.notifier.Notify(context.Background(), params)
	}()
}

// Shutdown waits for in-flight background notifications
func (s *TicketService) Shutdown() {
	s.wg.Wait()
}

func ticketHref(id uuid.UUID) string {
	return "/tickets/" + id.String()
}
