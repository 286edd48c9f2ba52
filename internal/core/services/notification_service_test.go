package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/musat/helpdesk-backend/internal/core/domain"
	"github.com/musat/helpdesk-backend/internal/core/mocks"
	"github.com/musat/helpdesk-backend/internal/core/ports"
	"github.com/musat/helpdesk-backend/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNotificationService_Notify(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	mockRepo := mocks.NewMockNotificationRepository()
	mockBroadcaster := mocks.NewMockBroadcaster()
	svc := services.NewNotificationService(mockRepo, mockBroadcaster)

	mockRepo.On("Create", ctx, mock.AnythingOfType("*domain.Notification")).Return(nil)
	mockBroadcaster.On("SendToUser", userID, mock.MatchedBy(func(e domain.Event) bool {
		return e.Type == domain.EventNotificationReceive
	})).Return()

	err := svc.Notify(ctx, ports.NotifyParams{
		UserID:  userID,
		Title:   "Ticket #3 assigned to you",
		Content: "A new ticket has been assigned to you.",
		Href:    "/tickets/abc",
	})

	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockBroadcaster.AssertExpectations(t)
}

func TestNotificationService_MarkRead(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("pushes the acknowledged ids", func(t *testing.T) {
		mockRepo := mocks.NewMockNotificationRepository()
		mockBroadcaster := mocks.NewMockBroadcaster()
		svc := services.NewNotificationService(mockRepo, mockBroadcaster)

		ids := []uuid.UUID{uuid.New(), uuid.New()}
		mockRepo.On("MarkRead", ctx, userID, ids).Return(ids, nil)
		mockBroadcaster.On("SendToUser", userID, mock.MatchedBy(func(e domain.Event) bool {
			return e.Type == domain.EventNotificationRead
		})).Return()

		marked, err := svc.MarkRead(ctx, userID, ids)

		require.NoError(t, err)
		assert.Len(t, marked, 2)
		mockBroadcaster.AssertExpectations(t)
	})

	t.Run("foreign ids update nothing and push nothing", func(t *testing.T) {
		mockRepo := mocks.NewMockNotificationRepository()
		mockBroadcaster := mocks.NewMockBroadcaster()
		svc := services.NewNotificationService(mockRepo, mockBroadcaster)

		ids := []uuid.UUID{uuid.New()}
		mockRepo.On("MarkRead", ctx, userID, ids).Return([]uuid.UUID{}, nil)

		marked, err := svc.MarkRead(ctx, userID, ids)

		require.NoError(t, err)
		assert.Empty(t, marked)
		mockBroadcaster.AssertNotCalled(t, "SendToUser", mock.Anything, mock.Anything)
	})

	t.Run("empty request is a no-op", func(t *testing.T) {
		mockRepo := mocks.NewMockNotificationRepository()
		mockBroadcaster := mocks.NewMockBroadcaster()
		svc := services.NewNotificationService(mockRepo, mockBroadcaster)

		marked, err := svc.MarkRead(ctx, userID, nil)

		require.NoError(t, err)
		assert.Empty(t, marked)
		mockRepo.AssertNotCalled(t, "MarkRead", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestNotificationService_Remove(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	mockRepo := mocks.NewMockNotificationRepository()
	mockBroadcaster := mocks.NewMockBroadcaster()
	svc := services.NewNotificationService(mockRepo, mockBroadcaster)

	ids := []uuid.UUID{uuid.New()}
	mockRepo.On("DeleteOwned", ctx, userID, ids).Return(ids, nil)
	mockBroadcaster.On("SendToUser", userID, mock.MatchedBy(func(e domain.Event) bool {
		return e.Type == domain.EventNotificationRemove
	})).Return()

	removed, err := svc.Remove(ctx, userID, ids)

	require.NoError(t, err)
	assert.Equal(t, ids, removed)
	mockBroadcaster.AssertExpectations(t)
}
