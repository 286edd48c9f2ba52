package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/musat/helpdesk-backend/internal/core/domain"
	apperrors "github.com/musat/helpdesk-backend/internal/core/errors"
	"github.com/musat/helpdesk-backend/internal/core/ports"
)

// ChatService implements in-ticket messaging
type ChatService struct {
	messageRepo ports.MessageRepository
	ticketRepo  ports.TicketRepository
	ticketSvc   ports.TicketService
	txManager   ports.TransactionManager
	notifier    ports.NotificationService
	broadcaster ports.Broadcaster
	logger      *slog.Logger
	wg          sync.WaitGroup
}

var _ ports.ChatService = (*ChatService)(nil)

// NewChatService creates a new chat service
func NewChatService(
	messageRepo ports.MessageRepository,
	ticketRepo ports.TicketRepository,
	ticketSvc ports.TicketService,
	txManager ports.TransactionManager,
	notifier ports.NotificationService,
	broadcaster ports.Broadcaster,
	logger *slog.Logger,
) *ChatService {
	return &ChatService{
		messageRepo: messageRepo,
		ticketRepo:  ticketRepo,
		ticketSvc:   ticketSvc,
		txManager:   txManager,
		notifier:    notifier,
		broadcaster: broadcaster,
		logger:      logger.With("component", "chat_service"),
	}
}

// Send stores a chat message, delivers it to the ticket's room, and notifies
// ticket parties who are not currently in the room
func (s *ChatService) Send(ctx context.Context, params ports.SendMessageParams) (*domain.Message, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, params.TicketID)
	if err != nil {
		return nil, err
	}
	if !ticket.CanBeViewedBy(params.Sender) {
		return nil, apperrors.ErrForbidden
	}

	// Closed tickets only accept follow-ups from staff.
	if ticket.Status.IsClosed() && !domain.RoleSatisfies(params.Sender.Role, domain.RoleTechnician) {
		return nil, apperrors.ErrClosedTicketChat
	}

	message, err := domain.NewMessage(domain.MessageParams{
		TicketID: params.TicketID,
		FromID:   params.Sender.ID,
		Content:  params.Content,
	})
	if err != nil {
		return nil, err
	}

	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	room := domain.ChatRoom(ticket.ID)
	s.broadcaster.BroadcastToRoom(room, domain.Event{
		Type:    domain.EventChatMessage,
		Payload: domain.NewMessageSnapshot(message),
	}, params.ConnID)

	s.notifyAbsentParties(ticket, params.Sender.ID, room)
	s.autoTransition(ctx, ticket, params.Sender)

	return message, nil
}

// MarkRead acknowledges messages on behalf of the reader. Only unread
// messages sent by others are marked; when none qualify, nothing is written
// and nothing is broadcast.
func (s *ChatService) MarkRead(ctx context.Context, params ports.ReadMessagesParams) ([]uuid.UUID, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, params.TicketID)
	if err != nil {
		return nil, err
	}
	if !ticket.CanBeViewedBy(params.Reader) {
		return nil, apperrors.ErrForbidden
	}
	if len(params.MessageIDs) == 0 {
		return nil, nil
	}

	var marked []uuid.UUID
	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		filtered, err := s.messageRepo.FilterUnreadFromOthers(ctx, params.TicketID, params.Reader.ID, params.MessageIDs)
		if err != nil {
			return err
		}
		if len(filtered) == 0 {
			return nil
		}
		if err := s.messageRepo.MarkRead(ctx, filtered); err != nil {
			return err
		}
		marked = filtered
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(marked) == 0 {
		return nil, nil
	}

	s.broadcaster.BroadcastToRoom(domain.ChatRoom(ticket.ID), domain.Event{
		Type: domain.EventChatRead,
		Payload: domain.ReadReceiptPayload{
			TicketID:   ticket.ID.String(),
			MessageIDs: uuidStrings(marked),
			ReaderID:   params.Reader.ID.String(),
		},
	}, params.ConnID)

	return marked, nil
}

// History returns the paginated chat log of a ticket
func (s *ChatService) History(ctx context.Context, actor domain.Principal, ticketID uuid.UUID, limit, offset int) ([]*domain.Message, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !ticket.CanBeViewedBy(actor) {
		return nil, apperrors.ErrForbidden
	}
	return s.messageRepo.ListByTicket(ctx, ticketID, limit, offset)
}

// notifyAbsentParties notifies ticket parties who are not the sender and not
// currently in the chat room
func (s *ChatService) notifyAbsentParties(ticket *domain.Ticket, senderID uuid.UUID, room domain.Room) {
	recipients := []uuid.UUID{ticket.ClientID, ticket.TechnicianID}
	seen := map[uuid.UUID]bool{senderID: true}

	for _, recipient := range recipients {
		if recipient == uuid.Nil || seen[recipient] {
			continue
		}
		seen[recipient] = true
		if s.broadcaster.IsUserInRoom(recipient, room) {
			continue
		}
		s.wg.Add(1)
		go func(userID uuid.UUID) {
			defer s.wg.Done()
			_ = s.notifier.Notify(context.Background(), ports.NotifyParams{
				UserID:  userID,
				Title:   fmt.Sprintf("New message on ticket #%d", ticket.TicketNumber),
				Content: "You have an unread message.",
				Href:    ticketHref(ticket.ID),
			})
		}(recipient)
	}
}

// autoTransition moves the ticket forward when chat activity implies work has
// started: a staff reply opens work on a fresh ticket, a client reply clears
// the awaiting state.
func (s *ChatService) autoTransition(ctx context.Context, ticket *domain.Ticket, sender domain.Principal) {
	isStaff := domain.RoleSatisfies(sender.Role, domain.RoleTechnician)

	var transition bool
	switch ticket.Status {
	case domain.StatusOpen:
		transition = isStaff
	case domain.StatusAwaitingClient:
		transition = !isStaff
	}
	if !transition {
		return
	}

	_, err := s.ticketSvc.UpdateStatus(ctx, ports.UpdateStatusParams{
		Actor:    sender,
		TicketID: ticket.ID,
		Status:   domain.StatusInProgress,
		Internal: true,
	})
	if err != nil {
		// The message was already delivered, so the failed transition is not
		// fatal, but it must not fail silently.
		s.logger.Warn("automatic status transition failed",
			"ticket_id", ticket.ID,
			"from_status", ticket.Status,
			"error", err,
		)
	}
}

// Shutdown waits for in-flight background notifications
func (s *ChatService) Shutdown() {
	s.wg.Wait()
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
