package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/musat/helpdesk-backend/internal/core/domain"
	"github.com/musat/helpdesk-backend/internal/core/ports"
)

// MessageRepository is the secondary adapter for chat message persistence.
type MessageRepository struct {
	pool *pgxpool.Pool
}

var _ ports.MessageRepository = (*MessageRepository)(nil)

// NewMessageRepository creates a new message repository.
func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{pool: pool}
}

// Create persists a chat message
func (r *MessageRepository) Create(ctx context.Context, message *domain.Message) error {
	q := GetDBTX(ctx, r.pool)

	query := `
		INSERT INTO messages (id, ticket_id, from_id, content, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := q.Exec(ctx, query,
		message.ID,
		message.TicketID,
		message.FromID,
		message.Content,
		message.Read,
		message.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating message: %w", err)
	}
	return nil
}

// ListByTicket returns the ticket's messages in chronological order
func (r *MessageRepository) ListByTicket(ctx context.Context, ticketID uuid.UUID, limit, offset int) ([]*domain.Message, error) {
	q := GetDBTX(ctx, r.pool)

	query := `
		SELECT id, ticket_id, from_id, content, read, created_at
		FROM messages
		WHERE ticket_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2 OFFSET $3`

	rows, err := q.Query(ctx, query, ticketID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*domain.Message, 0)
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.TicketID, &m.FromID, &m.Content, &m.Read, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading message rows: %w", err)
	}
	return messages, nil
}

// FilterUnreadFromOthers narrows ids to messages on the ticket that are
// unread and not authored by the reader
func (r *MessageRepository) FilterUnreadFromOthers(ctx context.Context, ticketID, readerID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error) {
	q := GetDBTX(ctx, r.pool)

	query := `
		SELECT id FROM messages
		WHERE ticket_id = $1 AND from_id <> $2 AND read = false AND id = ANY($3)`

	rows, err := q.Query(ctx, query, ticketID, readerID, ids)
	if err != nil {
		return nil, fmt.Errorf("filtering unread messages: %w", err)
	}
	defer rows.Close()

	filtered := make([]uuid.UUID, 0, len(ids))
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		filtered = append(filtered, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading message ids: %w", err)
	}
	return filtered, nil
}

// MarkRead flags the given messages as read
func (r *MessageRepository) MarkRead(ctx context.Context, ids []uuid.UUID) error {
	q := GetDBTX(ctx, r.pool)

	if _, err := q.Exec(ctx, `UPDATE messages SET read = true WHERE id = ANY($1)`, ids); err != nil {
		return fmt.Errorf("marking messages read: %w", err)
	}
	return nil
}
