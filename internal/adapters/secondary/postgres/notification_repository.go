package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/musat/helpdesk-backend/internal/core/domain"
	"github.com/musat/helpdesk-backend/internal/core/ports"
)

// NotificationRepository is the secondary adapter for notification persistence.
type NotificationRepository struct {
	pool *pgxpool.Pool
}

var _ ports.NotificationRepository = (*NotificationRepository)(nil)

// NewNotificationRepository creates a new notification repository.
func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

// Create persists a notification
func (r *NotificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	q := GetDBTX(ctx, r.pool)

	query := `
		INSERT INTO notifications (id, user_id, title, content, read, href, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := q.Exec(ctx, query,
		notification.ID,
		notification.UserID,
		notification.Title,
		notification.Content,
		notification.Read,
		toText(notification.Href),
		notification.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating notification: %w", err)
	}
	return nil
}

// ListByUser returns the user's notifications, newest first
func (r *NotificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Notification, error) {
	q := GetDBTX(ctx, r.pool)

	query := `
		SELECT id, user_id, title, content, read, href, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	rows, err := q.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]*domain.Notification, 0)
	for rows.Next() {
		var (
			n    domain.Notification
			href pgtype.Text
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.Read, &href, &n.CreatedAt); err != nil {
			return nil, err
		}
		if href.Valid {
			n.Href = href.String
		}
		notifications = append(notifications, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading notification rows: %w", err)
	}
	return notifications, nil
}

// MarkRead marks the user's notifications read, returning the ids updated.
// Ids owned by other users are ignored.
func (r *NotificationRepository) MarkRead(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error) {
	q := GetDBTX(ctx, r.pool)

	query := `
		UPDATE notifications SET read = true
		WHERE user_id = $1 AND id = ANY($2) AND read = false
		RETURNING id`

	return collectIDs(q.Query(ctx, query, userID, ids))
}

// DeleteOwned removes the user's notifications, returning the ids removed.
// Ids owned by other users are ignored.
func (r *NotificationRepository) DeleteOwned(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error) {
	q := GetDBTX(ctx, r.pool)

	query := `
		DELETE FROM notifications
		WHERE user_id = $1 AND id = ANY($2)
		RETURNING id`

	return collectIDs(q.Query(ctx, query, userID, ids))
}

func collectIDs(rows pgx.Rows, err error) ([]uuid.UUID, error) {
	if err != nil {
		return nil, fmt.Errorf("updating notifications: %w", err)
	}
	defer rows.Close()

	out := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading notification ids: %w", err)
	}
	return out, nil
}

func toText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}
