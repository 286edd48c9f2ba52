package services

import (
	"context"
	"errors"

	"github.com/musat/helpdesk-backend/internal/core/domain"
	apperrors "github.com/musat/helpdesk-backend/internal/core/errors"
	"github.com/musat/helpdesk-backend/internal/core/ports"
)

// AuthService verifies credentials and manages session lifecycle
type AuthService struct {
	userRepo ports.UserRepository
	sessions ports.SessionStore
}

var _ ports.AuthService = (*AuthService)(nil)

// NewAuthService creates a new auth service
func NewAuthService(userRepo ports.UserRepository, sessions ports.SessionStore) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		sessions: sessions,
	}
}

// Login verifies credentials and opens a session. Unknown emails and wrong
// passwords produce the same error so the response does not leak which
// accounts exist.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, "", apperrors.ErrInvalidCredentials
		}
		return nil, "", err
	}
	if !domain.CheckPassword(user, password) {
		return nil, "", apperrors.ErrInvalidCredentials
	}
	if !user.Active {
		return nil, "", apperrors.ErrUserInactive
	}

	token, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Logout destroys the session. The store announces the invalidation so live
// websocket connections on this session get dropped.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Destroy(ctx, token)
}

// Resolve maps a session token to its user. Sessions of deactivated users
// resolve to an authentication failure.
func (s *AuthService) Resolve(ctx context.Context, token string) (*domain.User, string, error) {
	session, err := s.sessions.Lookup(ctx, token)
	if err != nil {
		return nil, "", err
	}
	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, "", apperrors.ErrSessionNotFound
		}
		return nil, "", err
	}
	if !user.Active {
		return nil, "", apperrors.ErrSessionNotFound
	}
	return user, session.ID, nil
}
