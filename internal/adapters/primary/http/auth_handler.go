package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	mw "github.com/musat/helpdesk-backend/internal/adapters/primary/http/middleware"
	"github.com/musat/helpdesk-backend/internal/adapters/primary/validation"
	"github.com/musat/helpdesk-backend/internal/auth"
	"github.com/musat/helpdesk-backend/internal/core/domain"
	apperrors "github.com/musat/helpdesk-backend/internal/core/errors"
	"github.com/musat/helpdesk-backend/internal/core/ports"
)

// AuthHandler handles login, logout, and identity lookup
type AuthHandler struct {
	authService  ports.AuthService
	cookieCfg    auth.CookieConfig
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService ports.AuthService, cookieCfg auth.CookieConfig, errorHandler *ErrorHandler, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		cookieCfg:    cookieCfg,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "auth"),
	}
}

// RegisterPublicRoutes sets up the unauthenticated auth endpoints
func (h *AuthHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
}

// RegisterProtectedRoutes sets up the session-scoped auth endpoints
func (h *AuthHandler) RegisterProtectedRoutes(r chi.Router) {
	r.Post("/auth/logout", h.HandleLogout)
	r.Get("/auth/me", h.HandleMe)
}

// LoginRequest defines the expected JSON body for login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate validates the login request
func (r *LoginRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("email", r.Email).
		Email("email", r.Email)
	v.Required("password", r.Password)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// UserResponse is the JSON shape of an authenticated user
type UserResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Phone     string `json:"phone,omitempty"`
	CreatedAt string `json:"createdAt"`
}

func newUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID.String(),
		Name:      user.Name,
		Email:     user.Email,
		Role:      string(user.Role),
		Phone:     user.Phone,
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// HandleLogin authenticates the user and issues the session cookie
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeAndValidate[LoginRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	user, token, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	auth.SetSessionCookie(w, token, h.cookieCfg)

	h.logger.Info("user logged in", "user_id", user.ID, "request_id", GetRequestID(r.Context()))
	WriteSuccess(w, newUserResponse(user))
}

// HandleLogout destroys the session and clears the cookie
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	token, ok := mw.GetSessionToken(r.Context())
	if !ok {
		h.errorHandler.Handle(w, r, apperrors.ErrUnauthorized)
		return
	}

	if err := h.authService.Logout(r.Context(), token); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	auth.ClearSessionCookie(w, h.cookieCfg)
	WriteNoContent(w)
}

// HandleMe returns the authenticated user
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := mw.GetUser(r.Context())
	if !ok {
		h.errorHandler.Handle(w, r, apperrors.ErrUnauthorized)
		return
	}
	WriteSuccess(w, newUserResponse(user))
}
