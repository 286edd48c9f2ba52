package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/musat/helpdesk-backend/internal/core/domain"
	"github.com/musat/helpdesk-backend/internal/core/ports"
)

// NotificationService stores notifications and pushes them to live connections
type NotificationService struct {
	notificationRepo ports.NotificationRepository
	broadcaster      ports.Broadcaster
}

var _ ports.NotificationService = (*NotificationService)(nil)

// NewNotificationService creates a new notification service
func NewNotificationService(notificationRepo ports.NotificationRepository, broadcaster ports.Broadcaster) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		broadcaster:      broadcaster,
	}
}

// Notify stores a notification and pushes it to every live connection of the
// recipient. Delivery is best effort: offline users see it on their next
// listing.
func (s *NotificationService) Notify(ctx context.Context, params ports.NotifyParams) error {
	notification := &domain.Notification{
		ID:        uuid.New(),
		UserID:    params.UserID,
		Title:     params.Title,
		Content:   params.Content,
		Href:      params.Href,
		CreatedAt: time.Now(),
	}

	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		return err
	}

	s.broadcaster.SendToUser(params.UserID, domain.Event{
		Type:    domain.EventNotificationReceive,
		Payload: domain.NewNotificationSnapshot(notification),
	})

	return nil
}

// List returns the user's notifications, newest first
func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Notification, error) {
	return s.notificationRepo.ListByUser(ctx, userID, limit, offset)
}

// MarkRead marks the user's notifications read and returns the ids actually
// updated. Ids belonging to other users are silently skipped.
func (s *NotificationService) MarkRead(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	marked, err := s.notificationRepo.MarkRead(ctx, userID, ids)
	if err != nil {
		return nil, err
	}
	if len(marked) > 0 {
		s.broadcaster.SendToUser(userID, domain.Event{
			Type:    domain.EventNotificationRead,
			Payload: uuidStrings(marked),
		})
	}
	return marked, nil
}

// Remove deletes the user's notifications and returns the ids actually
// removed
func (s *NotificationService) Remove(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	removed, err := s.notificationRepo.DeleteOwned(ctx, userID, ids)
	if err != nil {
		return nil, err
	}
	if len(removed) > 0 {
		s.broadcaster.SendToUser(userID, domain.Event{
			Type:    domain.EventNotificationRemove,
			Payload: uuidStrings(removed),
		})
	}
	return removed, nil
}
