package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/musat/helpdesk-backend/internal/core/domain"
	apperrors "github.com/musat/helpdesk-backend/internal/core/errors"
	"github.com/musat/helpdesk-backend/internal/core/ports"
)

// commandTimeout bounds the handling of a single client command.
const commandTimeout = 10 * time.Second

// inboundMessage is the envelope for commands received from clients.
type inboundMessage struct {
	Type    domain.EventType `json:"type"`
	Ref     string           `json:"ref"`
	Payload json.RawMessage  `json:"payload"`
}

// ticketPayload addresses a command at a ticket.
type ticketPayload struct {
	TicketID uuid.UUID `json:"ticketId"`
}

// sendPayload carries an outgoing chat message.
type sendPayload struct {
	TicketID uuid.UUID `json:"ticketId"`
	Content  string    `json:"content"`
}

// readPayload acknowledges chat messages.
type readPayload struct {
	TicketID   uuid.UUID   `json:"ticketId"`
	MessageIDs []uuid.UUID `json:"messageIds"`
}

// idsPayload addresses notifications by id.
type idsPayload struct {
	IDs []uuid.UUID `json:"ids"`
}

// Gateway routes client commands to the core services. Successful commands
// are acked with an event of the same type carrying the echoed ref; failures
// produce an error event with the same ref.
type Gateway struct {
	hub             *Hub
	ticketSvc       ports.TicketService
	chatSvc         ports.ChatService
	notificationSvc ports.NotificationService
	logger          *slog.Logger
}

// NewGateway creates a new command gateway
func NewGateway(
	hub *Hub,
	ticketSvc ports.TicketService,
	chatSvc ports.ChatService,
	notificationSvc ports.NotificationService,
	logger *slog.Logger,
) *Gateway {
	return &Gateway{
		hub:             hub,
		ticketSvc:       ticketSvc,
		chatSvc:         chatSvc,
		notificationSvc: notificationSvc,
		logger:          logger.With("component", "websocket_gateway"),
	}
}

// Dispatch handles one raw message from a client
func (g *Gateway) Dispatch(client *Client, raw []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		g.sendError(client, "", apperrors.NewBadRequestError(err, "Malformed message"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	var err error
	switch msg.Type {
	case domain.EventChatJoin:
		err = g.handleChatJoin(ctx, client, msg)
	case domain.EventChatLeave:
		err = g.handleChatLeave(client, msg)
	case domain.EventChatSend:
		err = g.handleChatSend(ctx, client, msg)
	case domain.EventChatRead:
		err = g.handleChatRead(ctx, client, msg)
	case domain.EventTicketJoin:
		err = g.handleUpdatesJoin(ctx, client, msg)
	case domain.EventTicketLeave:
		err = g.handleUpdatesLeave(client, msg)
	case domain.EventNotificationRead:
		err = g.handleNotificationRead(ctx, client, msg)
	case domain.EventNotificationRemove:
		err = g.handleNotificationRemove(ctx, client, msg)
	default:
		err = apperrors.NewBadRequestError(apperrors.ErrBadRequest, "Unknown command type")
	}

	if err != nil {
		g.sendError(client, msg.Ref, err)
	}
}

func (g *Gateway) handleChatJoin(ctx context.Context, client *Client, msg inboundMessage) error {
	var p ticketPayload
	if err := decodePayload(msg.Payload, &p); err != nil {
		return err
	}
	if err := g.ticketSvc.AuthorizeRoomAccess(ctx, client.Principal, p.TicketID); err != nil {
		return err
	}

	g.hub.Join(client, domain.ChatRoom(p.TicketID))
	client.QueueEvent(domain.Event{Type: domain.EventChatJoin, Ref: msg.Ref, Payload: p})
	return nil
}

// handleChatLeave takes no payload: a connection holds at most one chat room,
// so leave always targets the current one. Leaving with no room joined acks
// without error.
func (g *Gateway) handleChatLeave(client *Client, msg inboundMessage) error {
	if room, ok := client.RoomOfKind(domain.RoomTicketChat); ok {
		g.hub.Leave(client, room)
	}
	client.QueueEvent(domain.Event{Type: domain.EventChatLeave, Ref: msg.Ref})
	return nil
}

func (g *Gateway) handleChatSend(ctx context.Context, client *Client, msg inboundMessage) error {
	var p sendPayload
	if err := decodePayload(msg.Payload, &p); err != nil {
		return err
	}
	// No room-membership precondition: the chat service authorizes the
	// sender against the ticket itself, so sending works without joining.
	message, err := g.chatSvc.Send(ctx, ports.SendMessageParams{
		Sender:   client.Principal,
		TicketID: p.TicketID,
		Content:  p.Content,
		ConnID:   client.ID,
	})
	if err != nil {
		return err
	}

	client.QueueEvent(domain.Event{
		Type:    domain.EventChatSend,
		Ref:     msg.Ref,
		Payload: domain.NewMessageSnapshot(message),
	})
	return nil
}

func (g *Gateway) handleChatRead(ctx context.Context, client *Client, msg inboundMessage) error {
	var p readPayload
	if err := decodePayload(msg.Payload, &p); err != nil {
		return err
	}

	marked, err := g.chatSvc.MarkRead(ctx, ports.ReadMessagesParams{
		Reader:     client.Principal,
		TicketID:   p.TicketID,
		MessageIDs: p.MessageIDs,
		ConnID:     client.ID,
	})
	if err != nil {
		return err
	}

	client.QueueEvent(domain.Event{
		Type:    domain.EventChatRead,
		Ref:     msg.Ref,
		Payload: readPayload{TicketID: p.TicketID, MessageIDs: marked},
	})
	return nil
}

func (g *Gateway) handleUpdatesJoin(ctx context.Context, client *Client, msg inboundMessage) error {
	var p ticketPayload
	if err := decodePayload(msg.Payload, &p); err != nil {
		return err
	}
	if err := g.ticketSvc.AuthorizeRoomAccess(ctx, client.Principal, p.TicketID); err != nil {
		return err
	}

	g.hub.Join(client, domain.UpdatesRoom(p.TicketID))
	client.QueueEvent(domain.Event{Type: domain.EventTicketJoin, Ref: msg.Ref, Payload: p})
	return nil
}

func (g *Gateway) handleUpdatesLeave(client *Client, msg inboundMessage) error {
	if room, ok := client.RoomOfKind(domain.RoomTicketUpdates); ok {
		g.hub.Leave(client, room)
	}
	client.QueueEvent(domain.Event{Type: domain.EventTicketLeave, Ref: msg.Ref})
	return nil
}

func (g *Gateway) handleNotificationRead(ctx context.Context, client *Client, msg inboundMessage) error {
	var p idsPayload
	if err := decodePayload(msg.Payload, &p); err != nil {
		return err
	}

	marked, err := g.notificationSvc.MarkRead(ctx, client.Principal.ID, p.IDs)
	if err != nil {
		return err
	}

	client.QueueEvent(domain.Event{
		Type:    domain.EventNotificationRead,
		Ref:     msg.Ref,
		Payload: idsPayload{IDs: marked},
	})
	return nil
}

func (g *Gateway) handleNotificationRemove(ctx context.Context, client *Client, msg inboundMessage) error {
	var p idsPayload
	if err := decodePayload(msg.Payload, &p); err != nil {
		return err
	}

	removed, err := g.notificationSvc.Remove(ctx, client.Principal.ID, p.IDs)
	if err != nil {
		return err
	}

	client.QueueEvent(domain.Event{
		Type:    domain.EventNotificationRemove,
		Ref:     msg.Ref,
		Payload: idsPayload{IDs: removed},
	})
	return nil
}

// sendError reports a failed command back to the client
func (g *Gateway) sendError(client *Client, ref string, err error) {
	payload := domain.ErrorPayload{Message: "An unexpected error occurred", Code: "INTERNAL_ERROR"}

	var appErr *apperrors.AppError
	var validationErrs *apperrors.ValidationErrors
	switch {
	case errors.As(err, &appErr):
		payload = domain.ErrorPayload{Message: appErr.Message, Code: appErr.Code}
	case errors.As(err, &validationErrs):
		payload = domain.ErrorPayload{Message: validationErrs.Error(), Code: "VALIDATION_ERROR"}
	case errors.Is(err, apperrors.ErrForbidden):
		payload = domain.ErrorPayload{Message: "You do not have access to this resource", Code: "FORBIDDEN"}
	case errors.Is(err, apperrors.ErrTicketNotFound):
		payload = domain.ErrorPayload{Message: "Ticket not found", Code: "NOT_FOUND"}
	case errors.Is(err, apperrors.ErrClosedTicketChat):
		payload = domain.ErrorPayload{Message: "This ticket is closed", Code: "TICKET_CLOSED"}
	case errors.Is(err, apperrors.ErrMessageContentRequired),
		errors.Is(err, apperrors.ErrMessageContentTooLong),
		errors.Is(err, apperrors.ErrBadRequest):
		payload = domain.ErrorPayload{Message: err.Error(), Code: "BAD_REQUEST"}
	default:
		g.logger.Error("command failed", "user_id", client.Principal.ID, "error", err)
	}

	client.QueueEvent(domain.Event{Type: domain.EventError, Ref: ref, Payload: payload})
}

func decodePayload(raw json.RawMessage, dest any) error {
	if len(raw) == 0 {
		return apperrors.NewBadRequestError(apperrors.ErrBadRequest, "Missing payload")
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return apperrors.NewBadRequestError(err, "Malformed payload")
	}
	return nil
}
