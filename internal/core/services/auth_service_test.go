package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/musat/helpdesk-backend/internal/core/domain"
	apperrors "github.com/musat/helpdesk-backend/internal/core/errors"
	"github.com/musat/helpdesk-backend/internal/core/mocks"
	"github.com/musat/helpdesk-backend/internal/core/ports"
	"github.com/musat/helpdesk-backend/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func activeUser(t *testing.T, email, password string) *domain.User {
	t.Helper()
	hash, err := domain.HashPassword(password)
	require.NoError(t, err)
	return &domain.User{
		ID:           uuid.New(),
		Name:         "Ana Pop",
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleClient,
		Active:       true,
	}
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials open a session", func(t *testing.T) {
		mockUsers := mocks.NewMockUserRepository()
		mockSessions := mocks.NewMockSessionStore()
		svc := services.NewAuthService(mockUsers, mockSessions)

		user := activeUser(t, "ana@example.com", "correct-horse")
		mockUsers.On("GetByEmail", ctx, "ana@example.com").Return(user, nil)
		mockSessions.On("Create", ctx, user.ID).Return("tok-1", nil)

		got, token, err := svc.Login(ctx, "ana@example.com", "correct-horse")

		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, "tok-1", token)
	})

	t.Run("wrong password", func(t *testing.T) {
		mockUsers := mocks.NewMockUserRepository()
		mockSessions := mocks.NewMockSessionStore()
		svc := services.NewAuthService(mockUsers, mockSessions)

		user := activeUser(t, "ana@example.com", "correct-horse")
		mockUsers.On("GetByEmail", ctx, "ana@example.com").Return(user, nil)

		_, _, err := svc.Login(ctx, "ana@example.com", "wrong")

		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
		mockSessions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("unknown email maps to the same error as a wrong password", func(t *testing.T) {
		mockUsers := mocks.NewMockUserRepository()
		mockSessions := mocks.NewMockSessionStore()
		svc := services.NewAuthService(mockUsers, mockSessions)

		mockUsers.On("GetByEmail", ctx, "ghost@example.com").Return(nil, apperrors.ErrUserNotFound)

		_, _, err := svc.Login(ctx, "ghost@example.com", "whatever")

		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})

	t.Run("deactivated account", func(t *testing.T) {
		mockUsers := mocks.NewMockUserRepository()
		mockSessions := mocks.NewMockSessionStore()
		svc := services.NewAuthService(mockUsers, mockSessions)

		user := activeUser(t, "ana@example.com", "correct-horse")
		user.Active = false
		mockUsers.On("GetByEmail", ctx, "ana@example.com").Return(user, nil)

		_, _, err := svc.Login(ctx, "ana@example.com", "correct-horse")

		assert.ErrorIs(t, err, apperrors.ErrUserInactive)
		mockSessions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestAuthService_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("valid session", func(t *testing.T) {
		mockUsers := mocks.NewMockUserRepository()
		mockSessions := mocks.NewMockSessionStore()
		svc := services.NewAuthService(mockUsers, mockSessions)

		user := activeUser(t, "ana@example.com", "correct-horse")
		mockSessions.On("Lookup", ctx, "tok-1").Return(&ports.Session{ID: "sess-1", UserID: user.ID}, nil)
		mockUsers.On("GetByID", ctx, user.ID).Return(user, nil)

		got, sessionID, err := svc.Resolve(ctx, "tok-1")

		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, "sess-1", sessionID)
	})

	t.Run("unknown token", func(t *testing.T) {
		mockUsers := mocks.NewMockUserRepository()
		mockSessions := mocks.NewMockSessionStore()
		svc := services.NewAuthService(mockUsers, mockSessions)

		mockSessions.On("Lookup", ctx, "tok-x").Return(nil, apperrors.ErrSessionNotFound)

		_, _, err := svc.Resolve(ctx, "tok-x")

		assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)
	})

	t.Run("session of a deactivated user no longer resolves", func(t *testing.T) {
		mockUsers := mocks.NewMockUserRepository()
		mockSessions := mocks.NewMockSessionStore()
		svc := services.NewAuthService(mockUsers, mockSessions)

		user := activeUser(t, "ana@example.com", "correct-horse")
		user.Active = false
		mockSessions.On("Lookup", ctx, "tok-1").Return(&ports.Session{ID: "sess-1", UserID: user.ID}, nil)
		mockUsers.On("GetByID", ctx, user.ID).Return(user, nil)

		_, _, err := svc.Resolve(ctx, "tok-1")

		assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)
	})
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()

	mockUsers := mocks.NewMockUserRepository()
	mockSessions := mocks.NewMockSessionStore()
	svc := services.NewAuthService(mockUsers, mockSessions)

	mockSessions.On("Destroy", ctx, "tok-1").Return(nil)

	require.NoError(t, svc.Logout(ctx, "tok-1"))
	mockSessions.AssertExpectations(t)
}
