package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/musat/helpdesk-backend/internal/core/domain"
	apperrors "github.com/musat/helpdesk-backend/internal/core/errors"
	"github.com/musat/helpdesk-backend/internal/core/ports"
)

// assignmentLockKey is the advisory lock key that serializes round-robin
// assignment across instances. Arbitrary but stable.
const assignmentLockKey = 815001

// TicketRepository is the secondary adapter for ticket persistence.
type TicketRepository struct {
	pool *pgxpool.Pool
}

var _ ports.TicketRepository = (*TicketRepository)(nil)

// NewTicketRepository creates a new ticket repository.
func NewTicketRepository(pool *pgxpool.Pool) *TicketRepository {
	return &TicketRepository{pool: pool}
}

const ticketColumns = `id, ticket_number, client_id, technician_id, product_id, status,
	description, serial_number, closed_at, created_at, updated_at, deleted_at`

// Create persists a new ticket. The store allocates the id and the ticket
// number and they are written back to the entity.
func (r *TicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	q := GetDBTX(ctx, r.pool)

	query := `
		INSERT INTO tickets (client_id, technician_id, product_id, status, description, serial_number, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, ticket_number`

	err := q.QueryRow(ctx, query,
		ticket.ClientID,
		ticket.TechnicianID,
		ticket.ProductID,
		string(ticket.Status),
		ticket.Description,
		ticket.SerialNumber,
		ticket.CreatedAt,
	).Scan(&ticket.ID, &ticket.TicketNumber)
	if err != nil {
		return fmt.Errorf("creating ticket: %w", err)
	}
	return nil
}

// GetByID retrieves a single ticket by its id. Soft-deleted tickets are
// treated as absent.
func (r *TicketRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Ticket, error) {
	q := GetDBTX(ctx, r.pool)

	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1 AND deleted_at IS NULL`

	ticket, err := scanTicket(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, fmt.Errorf("fetching ticket: %w", err)
	}
	return ticket, nil
}

// Update persists mutable ticket fields
func (r *TicketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	q := GetDBTX(ctx, r.pool)

	query := `
		UPDATE tickets
		SET status = $2, technician_id = $3, closed_at = $4, updated_at = $5
		WHERE id = $1 AND deleted_at IS NULL`

	tag, err := q.Exec(ctx, query,
		ticket.ID,
		string(ticket.Status),
		ticket.TechnicianID,
		toTimestamptz(ticket.ClosedAt),
		toTimestamptz(ticket.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("updating ticket: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrTicketNotFound
	}
	return nil
}

// SoftDelete marks a ticket deleted without removing the row
func (r *TicketRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	q := GetDBTX(ctx, r.pool)

	tag, err := q.Exec(ctx,
		`UPDATE tickets SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("deleting ticket: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrTicketNotFound
	}
	return nil
}

// GetLastCreated returns the most recently filed ticket. Ticket numbers are
// allocated by a sequence, so ordering by them is stable under concurrent
// inserts where created_at is not. Soft-deleted tickets still count: they
// held a rotation slot when they were filed.
func (r *TicketRepository) GetLastCreated(ctx context.Context) (*domain.Ticket, error) {
	q := GetDBTX(ctx, r.pool)

	query := `SELECT ` + ticketColumns + ` FROM tickets ORDER BY ticket_number DESC LIMIT 1`

	ticket, err := scanTicket(q.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, fmt.Errorf("fetching last ticket: %w", err)
	}
	return ticket, nil
}

// ListForClient returns tickets filed by the given client, newest first
func (r *TicketRepository) ListForClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets
		WHERE client_id = $1 AND deleted_at IS NULL
		ORDER BY ticket_number DESC LIMIT $2 OFFSET $3`
	return r.list(ctx, query, clientID, limit, offset)
}

// ListForTechnician returns tickets assigned to the given technician, newest first
func (r *TicketRepository) ListForTechnician(ctx context.Context, technicianID uuid.UUID, limit, offset int) ([]*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets
		WHERE technician_id = $1 AND deleted_at IS NULL
		ORDER BY ticket_number DESC LIMIT $2 OFFSET $3`
	return r.list(ctx, query, technicianID, limit, offset)
}

// ListAll returns all live tickets, newest first
func (r *TicketRepository) ListAll(ctx context.Context, limit, offset int) ([]*domain.Ticket, error) {
	q := GetDBTX(ctx, r.pool)

	query := `SELECT ` + ticketColumns + ` FROM tickets
		WHERE deleted_at IS NULL
		ORDER BY ticket_number DESC LIMIT $1 OFFSET $2`

	rows, err := q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing tickets: %w", err)
	}
	defer rows.Close()
	return scanTickets(rows)
}

// AcquireAssignmentLock takes the transaction-scoped advisory lock used to
// serialize assignment. Released automatically at transaction end.
func (r *TicketRepository) AcquireAssignmentLock(ctx context.Context) error {
	tx, ok := TxFromContext(ctx)
	if !ok {
		return errors.New("assignment lock requires a transaction")
	}
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, assignmentLockKey); err != nil {
		return fmt.Errorf("acquiring assignment lock: %w", err)
	}
	return nil
}

func (r *TicketRepository) list(ctx context.Context, query string, id uuid.UUID, limit, offset int) ([]*domain.Ticket, error) {
	q := GetDBTX(ctx, r.pool)

	rows, err := q.Query(ctx, query, id, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing tickets: %w", err)
	}
	defer rows.Close()
	return scanTickets(rows)
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		t         domain.Ticket
		status    string
		closedAt  pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
		deletedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&t.ID,
		&t.TicketNumber,
		&t.ClientID,
		&t.TechnicianID,
		&t.ProductID,
		&status,
		&t.Description,
		&t.SerialNumber,
		&closedAt,
		&t.CreatedAt,
		&updatedAt,
		&deletedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Status = domain.TicketStatus(status)
	t.ClosedAt = fromTimestamptz(closedAt)
	t.UpdatedAt = fromTimestamptz(updatedAt)
	t.DeletedAt = fromTimestamptz(deletedAt)
	return &t, nil
}

func scanTickets(rows pgx.Rows) ([]*domain.Ticket, error) {
	tickets := make([]*domain.Ticket, 0)
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading ticket rows: %w", err)
	}
	return tickets, nil
}

func toTimestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}

func fromTimestamptz(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time
	return &t
}
