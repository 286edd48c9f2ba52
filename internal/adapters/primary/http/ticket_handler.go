package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	mw "github.com/musat/helpdesk-backend/internal/adapters/primary/http/middleware"
	"github.com/musat/helpdesk-backend/internal/adapters/primary/validation"
	"github.com/musat/helpdesk-backend/internal/core/domain"
	apperrors "github.com/musat/helpdesk-backend/internal/core/errors"
	"github.com/musat/helpdesk-backend/internal/core/ports"
)

const (
	maxTicketsPerPage  = 100
	maxMessagesPerPage = 200
)

// TicketHandler handles HTTP requests for tickets
type TicketHandler struct {
	ticketService ports.TicketService
	chatService   ports.ChatService
	errorHandler  *ErrorHandler
	logger        *slog.Logger
}

// NewTicketHandler creates a new ticket handler
func NewTicketHandler(
	ticketService ports.TicketService,
	chatService ports.ChatService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *TicketHandler {
	return &TicketHandler{
		ticketService: ticketService,
		chatService:   chatService,
		errorHandler:  errorHandler,
		logger:        logger.With("handler", "ticket"),
	}
}

// RegisterRoutes sets up the routing for all ticket endpoints.
func (h *TicketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleListTickets)
	r.Post("/", h.HandleCreateTicket)

	// Routes for a specific ticket
	r.Route("/{ticketID}", func(r chi.Router) {
		r.Get("/", h.HandleGetTicket)
		r.Patch("/status", h.HandleUpdateStatus)
		r.Delete("/", h.HandleDeleteTicket)
		r.Get("/messages", h.HandleListMessages)
	})
}

// --- Request/Response DTOs ---

// CreateTicketRequest defines the expected JSON body for filing a ticket
type CreateTicketRequest struct {
	ProductID    string `json:"productId"`
	Description  string `json:"description"`
	SerialNumber string `json:"serialNumber"`
}

// Validate validates the create ticket request
func (r *CreateTicketRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("productId", r.ProductID)
	if r.ProductID != "" {
		_, err := uuid.Parse(r.ProductID)
		v.Custom("productId", err == nil, "Must be a valid UUID")
	}

	v.Required("description", r.Description).
		MaxLength("description", r.Description, domain.MaxDescriptionLength)

	v.Required("serialNumber", r.SerialNumber).
		MaxLength("serialNumber", r.SerialNumber, domain.MaxSerialNumberLength)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// UpdateStatusRequest defines the expected JSON body for status updates
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// Validate validates the update status request
func (r *UpdateStatusRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("status", r.Status).
		OneOf("status", r.Status, []string{
			string(domain.StatusOpen),
			string(domain.StatusInProgress),
			string(domain.StatusAwaitingClient),
			string(domain.StatusResolved),
			string(domain.StatusCancelled),
		})

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// --- Handlers ---

// HandleCreateTicket files a new ticket for the authenticated client
func (h *TicketHandler) HandleCreateTicket(w http.ResponseWriter, r *http.Request) {
	principal, ok := mw.GetPrincipal(r.Context())
	if !ok {
		h.errorHandler.Handle(w, r, apperrors.ErrUnauthorized)
		return
	}

	req, err := validation.DecodeAndValidate[CreateTicketRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		h.errorHandler.Handle(w, r, apperrors.NewBadRequestError(err, "Invalid product id"))
		return
	}

	ticket, err := h.ticketService.Create(r.Context(), ports.CreateTicketParams{
		Client:       principal,
		ProductID:    productID,
		Description:  req.Description,
		SerialNumber: req.SerialNumber,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("ticket created",
		"ticket_id", ticket.ID,
		"ticket_number", ticket.TicketNumber,
		"request_id", GetRequestID(r.Context()),
	)
	WriteCreated(w, domain.NewTicketSnapshot(ticket))
}

// HandleListTickets returns tickets visible to the authenticated user
func (h *TicketHandler) HandleListTickets(w http.ResponseWriter, r *http.Request) {
	principal, ok := mw.GetPrincipal(r.Context())
	if !ok {
		h.errorHandler.Handle(w, r, apperrors.ErrUnauthorized)
		return
	}

	pagination := validation.ParsePagination(r, maxTicketsPerPage)

	// Fetch one extra row to detect whether there is a next page.
	tickets, err := h.ticketService.List(r.Context(), principal, pagination.Limit+1, pagination.Offset)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	snapshots := make([]domain.TicketSnapshot, len(tickets))
	for i, ticket := range tickets {
		snapshots[i] = domain.NewTicketSnapshot(ticket)
	}
	WritePaginated(w, snapshots, pagination.Limit, pagination.Offset)
}

// HandleGetTicket returns a single ticket
func (h *TicketHandler) HandleGetTicket(w http.ResponseWriter, r *http.Request) {
	principal, ok := mw.GetPrincipal(r.Context())
	if !ok {
		h.errorHandler.Handle(w, r, apperrors.ErrUnauthorized)
		return
	}

	ticketID, err := parseTicketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	ticket, err := h.ticketService.Get(r.Context(), principal, ticketID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	WriteSuccess(w, domain.NewTicketSnapshot(ticket))
}

// HandleUpdateStatus changes a ticket's status
func (h *TicketHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	principal, ok := mw.GetPrincipal(r.Context())
	if !ok {
		h.errorHandler.Handle(w, r, apperrors.ErrUnauthorized)
		return
	}

	ticketID, err := parseTicketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[UpdateStatusRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	ticket, err := h.ticketService.UpdateStatus(r.Context(), ports.UpdateStatusParams{
		Actor:    principal,
		TicketID: ticketID,
		Status:   domain.TicketStatus(req.Status),
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	WriteSuccess(w, domain.NewTicketSnapshot(ticket))
}

// HandleDeleteTicket soft deletes a ticket
func (h *TicketHandler) HandleDeleteTicket(w http.ResponseWriter, r *http.Request) {
	principal, ok := mw.GetPrincipal(r.Context())
	if !ok {
		h.errorHandler.Handle(w, r, apperrors.ErrUnauthorized)
		return
	}

	ticketID, err := parseTicketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := h.ticketService.Delete(r.Context(), principal, ticketID); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	WriteNoContent(w)
}

// HandleListMessages returns the ticket's chat history
func (h *TicketHandler) HandleListMessages(w http.ResponseWriter, r *http.Request) {
	principal, ok := mw.GetPrincipal(r.Context())
	if !ok {
		h.errorHandler.Handle(w, r, apperrors.ErrUnauthorized)
		return
	}

	ticketID, err := parseTicketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	pagination := validation.ParsePagination(r, maxMessagesPerPage)

	messages, err := h.chatService.History(r.Context(), principal, ticketID, pagination.Limit+1, pagination.Offset)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	snapshots := make([]domain.MessageSnapshot, len(messages))
	for i, message := range messages {
		snapshots[i] = domain.NewMessageSnapshot(message)
	}
	WritePaginated(w, snapshots, pagination.Limit, pagination.Offset)
}

func parseTicketID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "ticketID")
	ticketID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.NewBadRequestError(err, "Invalid ticket id")
	}
	return ticketID, nil
}
