package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/musat/helpdesk-backend/internal/core/domain"
	apperrors "github.com/musat/helpdesk-backend/internal/core/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestUser(t *testing.T, role domain.UserRole) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := testPool.Exec(context.Background(), `
		INSERT INTO users (id, name, email, password_hash, role)
		VALUES ($1, $2, $3, 'x', $4)`,
		id, "Test "+string(role), id.String()+"@example.com", string(role))
	require.NoError(t, err)
	return id
}

func createTestProduct(t *testing.T) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := testPool.Exec(context.Background(), `
		INSERT INTO products (id, name, brand, category)
		VALUES ($1, 'Laptop X1', 'Acme', 'laptop')`, id)
	require.NoError(t, err)
	return id
}

func createTestTicket(t *testing.T, repo *TicketRepository, clientID, techID, productID uuid.UUID) *domain.Ticket {
	t.Helper()
	ticket, err := domain.NewTicket(domain.TicketParams{
		ClientID:     clientID,
		ProductID:    productID,
		Description:  "screen cracked",
		SerialNumber: "SN-" + uuid.NewString()[:8],
	})
	require.NoError(t, err)
	ticket.TechnicianID = techID
	require.NoError(t, repo.Create(context.Background(), ticket))
	return ticket
}

func TestTicketRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewTicketRepository(testPool)

	clientID := createTestUser(t, domain.RoleClient)
	techID := createTestUser(t, domain.RoleTechnician)
	productID := createTestProduct(t)

	ticket := createTestTicket(t, repo, clientID, techID, productID)

	assert.NotEqual(t, uuid.Nil, ticket.ID)
	assert.Positive(t, ticket.TicketNumber)

	got, err := repo.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, got.ID)
	assert.Equal(t, ticket.TicketNumber, got.TicketNumber)
	assert.Equal(t, clientID, got.ClientID)
	assert.Equal(t, techID, got.TechnicianID)
	assert.Equal(t, domain.StatusOpen, got.Status)
	assert.Nil(t, got.ClosedAt)
}

func TestTicketRepository_GetByID_NotFound(t *testing.T) {
	repo := NewTicketRepository(testPool)

	_, err := repo.GetByID(context.Background(), uuid.New())

	assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)
}

func TestTicketRepository_TicketNumbersIncrease(t *testing.T) {
	repo := NewTicketRepository(testPool)

	clientID := createTestUser(t, domain.RoleClient)
	techID := createTestUser(t, domain.RoleTechnician)
	productID := createTestProduct(t)

	first := createTestTicket(t, repo, clientID, techID, productID)
	second := createTestTicket(t, repo, clientID, techID, productID)

	assert.Greater(t, second.TicketNumber, first.TicketNumber)
}

func TestTicketRepository_Update(t *testing.T) {
	ctx := context.Background()
	repo := NewTicketRepository(testPool)

	clientID := createTestUser(t, domain.RoleClient)
	techID := createTestUser(t, domain.RoleTechnician)
	productID := createTestProduct(t)
	ticket := createTestTicket(t, repo, clientID, techID, productID)

	_, err := ticket.ApplyStatus(domain.StatusResolved)
	require.NoError(t, err)
	require.NoError(t, repo.Update(ctx, ticket))

	got, err := repo.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusResolved, got.Status)
	require.NotNil(t, got.ClosedAt)
	assert.WithinDuration(t, time.Now(), *got.ClosedAt, time.Minute)

	t.Run("reopening clears closed_at in the store", func(t *testing.T) {
		_, err := got.ApplyStatus(domain.StatusInProgress)
		require.NoError(t, err)
		require.NoError(t, repo.Update(ctx, got))

		reloaded, err := repo.GetByID(ctx, got.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusInProgress, reloaded.Status)
		assert.Nil(t, reloaded.ClosedAt)
	})

	t.Run("unknown ticket", func(t *testing.T) {
		missing := *ticket
		missing.ID = uuid.New()
		assert.ErrorIs(t, repo.Update(ctx, &missing), apperrors.ErrTicketNotFound)
	})
}

func TestTicketRepository_SoftDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewTicketRepository(testPool)

	clientID := createTestUser(t, domain.RoleClient)
	techID := createTestUser(t, domain.RoleTechnician)
	productID := createTestProduct(t)
	ticket := createTestTicket(t, repo, clientID, techID, productID)

	require.NoError(t, repo.SoftDelete(ctx, ticket.ID))

	_, err := repo.GetByID(ctx, ticket.ID)
	assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)

	// Deleting again finds nothing.
	assert.ErrorIs(t, repo.SoftDelete(ctx, ticket.ID), apperrors.ErrTicketNotFound)
}

func TestTicketRepository_GetLastCreated(t *testing.T) {
	ctx := context.Background()
	repo := NewTicketRepository(testPool)

	_, err := testPool.Exec(ctx, `TRUNCATE tickets CASCADE`)
	require.NoError(t, err)

	t.Run("empty store", func(t *testing.T) {
		_, err := repo.GetLastCreated(ctx)
		assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)
	})

	clientID := createTestUser(t, domain.RoleClient)
	techID := createTestUser(t, domain.RoleTechnician)
	productID := createTestProduct(t)

	createTestTicket(t, repo, clientID, techID, productID)
	second := createTestTicket(t, repo, clientID, techID, productID)

	t.Run("returns the highest ticket number", func(t *testing.T) {
		last, err := repo.GetLastCreated(ctx)
		require.NoError(t, err)
		assert.Equal(t, second.ID, last.ID)
	})

	t.Run("soft-deleted tickets still count", func(t *testing.T) {
		third := createTestTicket(t, repo, clientID, techID, productID)
		require.NoError(t, repo.SoftDelete(ctx, third.ID))

		last, err := repo.GetLastCreated(ctx)
		require.NoError(t, err)
		assert.Equal(t, third.ID, last.ID)
	})
}

func TestTicketRepository_Listing(t *testing.T) {
	ctx := context.Background()
	repo := NewTicketRepository(testPool)

	clientID := createTestUser(t, domain.RoleClient)
	otherClient := createTestUser(t, domain.RoleClient)
	techID := createTestUser(t, domain.RoleTechnician)
	productID := createTestProduct(t)

	t1 := createTestTicket(t, repo, clientID, techID, productID)
	t2 := createTestTicket(t, repo, clientID, techID, productID)
	createTestTicket(t, repo, otherClient, techID, productID)

	t.Run("for client, newest first", func(t *testing.T) {
		tickets, err := repo.ListForClient(ctx, clientID, 10, 0)
		require.NoError(t, err)
		require.Len(t, tickets, 2)
		assert.Equal(t, t2.ID, tickets[0].ID)
		assert.Equal(t, t1.ID, tickets[1].ID)
	})

	t.Run("for technician", func(t *testing.T) {
		tickets, err := repo.ListForTechnician(ctx, techID, 10, 0)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(tickets), 3)
	})

	t.Run("pagination", func(t *testing.T) {
		page, err := repo.ListForClient(ctx, clientID, 1, 1)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, t1.ID, page[0].ID)
	})

	t.Run("soft-deleted tickets are filtered out", func(t *testing.T) {
		require.NoError(t, repo.SoftDelete(ctx, t2.ID))

		tickets, err := repo.ListForClient(ctx, clientID, 10, 0)
		require.NoError(t, err)
		require.Len(t, tickets, 1)
		assert.Equal(t, t1.ID, tickets[0].ID)
	})
}

func TestTicketRepository_AcquireAssignmentLock(t *testing.T) {
	ctx := context.Background()
	repo := NewTicketRepository(testPool)
	txManager := NewTransactionManager(testPool)

	t.Run("requires a transaction", func(t *testing.T) {
		assert.Error(t, repo.AcquireAssignmentLock(ctx))
	})

	t.Run("acquires inside a transaction", func(t *testing.T) {
		err := txManager.WithTransaction(ctx, func(ctx context.Context) error {
			return repo.AcquireAssignmentLock(ctx)
		})
		require.NoError(t, err)
	})
}
