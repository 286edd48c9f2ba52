package postgres

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/musat/helpdesk-backend/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestMessage(t *testing.T, repo *MessageRepository, ticketID, fromID uuid.UUID, content string) *domain.Message {
	t.Helper()
	message, err := domain.NewMessage(domain.MessageParams{
		TicketID: ticketID,
		FromID:   fromID,
		Content:  content,
	})
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), message))
	return message
}

func TestMessageRepository_CreateAndList(t *testing.T) {
	ctx := context.Background()
	ticketRepo := NewTicketRepository(testPool)
	repo := NewMessageRepository(testPool)

	clientID := createTestUser(t, domain.RoleClient)
	techID := createTestUser(t, domain.RoleTechnician)
	productID := createTestProduct(t)
	ticket := createTestTicket(t, ticketRepo, clientID, techID, productID)

	m1 := createTestMessage(t, repo, ticket.ID, clientID, "it broke again")
	m2 := createTestMessage(t, repo, ticket.ID, techID, "on it")

	messages, err := repo.ListByTicket(ctx, ticket.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)

	// Chronological order, oldest first.
	assert.Equal(t, m1.ID, messages[0].ID)
	assert.Equal(t, m2.ID, messages[1].ID)
	assert.False(t, messages[0].Read)
	assert.Equal(t, "it broke again", messages[0].Content)
}

func TestMessageRepository_FilterUnreadFromOthers(t *testing.T) {
	ctx := context.Background()
	ticketRepo := NewTicketRepository(testPool)
	repo := NewMessageRepository(testPool)

	clientID := createTestUser(t, domain.RoleClient)
	techID := createTestUser(t, domain.RoleTechnician)
	productID := createTestProduct(t)
	ticket := createTestTicket(t, ticketRepo, clientID, techID, productID)
	otherTicket := createTestTicket(t, ticketRepo, clientID, techID, productID)

	fromTech := createTestMessage(t, repo, ticket.ID, techID, "try rebooting")
	fromSelf := createTestMessage(t, repo, ticket.ID, clientID, "ok")
	alreadyRead := createTestMessage(t, repo, ticket.ID, techID, "done?")
	require.NoError(t, repo.MarkRead(ctx, []uuid.UUID{alreadyRead.ID}))
	elsewhere := createTestMessage(t, repo, otherTicket.ID, techID, "unrelated")

	requested := []uuid.UUID{fromTech.ID, fromSelf.ID, alreadyRead.ID, elsewhere.ID}
	eligible, err := repo.FilterUnreadFromOthers(ctx, ticket.ID, clientID, requested)

	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{fromTech.ID}, eligible)
}

func TestMessageRepository_MarkRead(t *testing.T) {
	ctx := context.Background()
	ticketRepo := NewTicketRepository(testPool)
	repo := NewMessageRepository(testPool)

	clientID := createTestUser(t, domain.RoleClient)
	techID := createTestUser(t, domain.RoleTechnician)
	productID := createTestProduct(t)
	ticket := createTestTicket(t, ticketRepo, clientID, techID, productID)

	message := createTestMessage(t, repo, ticket.ID, techID, "fixed, please confirm")
	require.NoError(t, repo.MarkRead(ctx, []uuid.UUID{message.ID}))

	messages, err := repo.ListByTicket(ctx, ticket.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.True(t, messages[0].Read)
}

func TestMessageRepository_ListPagination(t *testing.T) {
	ctx := context.Background()
	ticketRepo := NewTicketRepository(testPool)
	repo := NewMessageRepository(testPool)

	clientID := createTestUser(t, domain.RoleClient)
	techID := createTestUser(t, domain.RoleTechnician)
	productID := createTestProduct(t)
	ticket := createTestTicket(t, ticketRepo, clientID, techID, productID)

	for i := 0; i < 5; i++ {
		createTestMessage(t, repo, ticket.ID, clientID, "message")
	}

	page, err := repo.ListByTicket(ctx, ticket.ID, 2, 2)
	require.NoError(t, err)
	assert.Len(t, page, 2)
}
