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

const maxNotificationsPerPage = 100

// NotificationHandler handles HTTP requests for the user's notifications
type NotificationHandler struct {
	notificationService ports.NotificationService
	errorHandler        *ErrorHandler
	logger              *slog.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationService ports.NotificationService, errorHandler *ErrorHandler, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		errorHandler:        errorHandler,
		logger:              logger.With("handler", "notification"),
	}
}

// RegisterRoutes sets up the routing for notification endpoints.
func (h *NotificationHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleList)
	r.Patch("/read", h.HandleMarkRead)
	r.Post("/remove", h.HandleRemove)
}

// NotificationIDsRequest addresses notifications by id
type NotificationIDsRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

// Validate validates the ids request
func (r *NotificationIDsRequest) Validate() error {
	v := validation.NewValidator()
	v.Custom("ids", len(r.IDs) > 0, "At least one id is required")
	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// NotificationIDsResponse reports which ids a mutation touched
type NotificationIDsResponse struct {
	IDs []uuid.UUID `json:"ids"`
}

// HandleList returns the user's notifications, newest first
func (h *NotificationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	principal, ok := mw.GetPrincipal(r.Context())
	if !ok {
		h.errorHandler.Handle(w, r, apperrors.ErrUnauthorized)
		return
	}

	pagination := validation.ParsePagination(r, maxNotificationsPerPage)

	notifications, err := h.notificationService.List(r.Context(), principal.ID, pagination.Limit+1, pagination.Offset)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	snapshots := make([]domain.NotificationSnapshot, len(notifications))
	for i, notification := range notifications {
		snapshots[i] = domain.NewNotificationSnapshot(notification)
	}
	WritePaginated(w, snapshots, pagination.Limit, pagination.Offset)
}

// HandleMarkRead marks the given notifications read
func (h *NotificationHandler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	principal, ok := mw.GetPrincipal(r.Context())
	if !ok {
		h.errorHandler.Handle(w, r, apperrors.ErrUnauthorized)
		return
	}

	req, err := validation.DecodeAndValidate[NotificationIDsRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	marked, err := h.notificationService.MarkRead(r.Context(), principal.ID, req.IDs)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	WriteSuccess(w, NotificationIDsResponse{IDs: marked})
}

// HandleRemove deletes the given notifications
func (h *NotificationHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	principal, ok := mw.GetPrincipal(r.Context())
	if !ok {
		h.errorHandler.Handle(w, r, apperrors.ErrUnauthorized)
		return
	}

	req, err := validation.DecodeAndValidate[NotificationIDsRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	removed, err := h.notificationService.Remove(r.Context(), principal.ID, req.IDs)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	WriteSuccess(w, NotificationIDsResponse{IDs: removed})
}
