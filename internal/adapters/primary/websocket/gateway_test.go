package websocket

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/musat/helpdesk-backend/internal/core/domain"
	"github.com/musat/helpdesk-backend/internal/core/mocks"
	"github.com/musat/helpdesk-backend/internal/core/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type gatewayFixture struct {
	hub             *Hub
	ticketSvc       *mocks.MockTicketService
	chatSvc         *mocks.MockChatService
	notificationSvc *mocks.MockNotificationService
	gateway         *Gateway
}

func newGatewayFixture() *gatewayFixture {
	f := &gatewayFixture{
		hub:             NewHub(testLogger()),
		ticketSvc:       mocks.NewMockTicketService(),
		chatSvc:         mocks.NewMockChatService(),
		notificationSvc: mocks.NewMockNotificationService(),
	}
	f.gateway = NewGateway(f.hub, f.ticketSvc, f.chatSvc, f.notificationSvc, testLogger())
	return f
}

func TestGateway_ChatLeave(t *testing.T) {
	t.Run("empty payload leaves the current chat room", func(t *testing.T) {
		f := newGatewayFixture()
		client := newTestClient(f.hub, uuid.New(), "sess-1")
		room := domain.ChatRoom(uuid.New())
		f.hub.Join(client, room)
		drain(client)

		f.gateway.Dispatch(client, []byte(`{"type":"ticket-chat:leave","ref":"r1","payload":{}}`))

		assert.False(t, client.InRoom(room))
		assert.Equal(t, 0, f.hub.ClientsInRoom(room))

		events := drain(client)
		require.Len(t, events, 1)
		assert.Equal(t, domain.EventChatLeave, events[0].Type)
		assert.Equal(t, "r1", events[0].Ref)
	})

	t.Run("missing payload is accepted", func(t *testing.T) {
		f := newGatewayFixture()
		client := newTestClient(f.hub, uuid.New(), "sess-1")
		room := domain.ChatRoom(uuid.New())
		f.hub.Join(client, room)
		drain(client)

		f.gateway.Dispatch(client, []byte(`{"type":"ticket-chat:leave"}`))

		assert.False(t, client.InRoom(room))
	})

	t.Run("keeps the updates room", func(t *testing.T) {
		f := newGatewayFixture()
		client := newTestClient(f.hub, uuid.New(), "sess-1")
		ticketID := uuid.New()
		f.hub.Join(client, domain.ChatRoom(ticketID))
		f.hub.Join(client, domain.UpdatesRoom(ticketID))
		drain(client)

		f.gateway.Dispatch(client, []byte(`{"type":"ticket-chat:leave","payload":{}}`))

		assert.False(t, client.InRoom(domain.ChatRoom(ticketID)))
		assert.True(t, client.InRoom(domain.UpdatesRoom(ticketID)))
	})

	t.Run("leave with no room joined still acks", func(t *testing.T) {
		f := newGatewayFixture()
		client := newTestClient(f.hub, uuid.New(), "sess-1")

		f.gateway.Dispatch(client, []byte(`{"type":"ticket-chat:leave","ref":"r2","payload":{}}`))

		events := drain(client)
		require.Len(t, events, 1)
		assert.Equal(t, domain.EventChatLeave, events[0].Type)
		assert.Equal(t, "r2", events[0].Ref)
	})
}

func TestGateway_UpdatesLeave(t *testing.T) {
	f := newGatewayFixture()
	client := newTestClient(f.hub, uuid.New(), "sess-1")
	room := domain.UpdatesRoom(uuid.New())
	f.hub.Join(client, room)
	drain(client)

	f.gateway.Dispatch(client, []byte(`{"type":"ticket-updates:leave","payload":{}}`))

	assert.False(t, client.InRoom(room))

	events := drain(client)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventTicketLeave, events[0].Type)
}

func TestGateway_ChatSendWithoutJoining(t *testing.T) {
	f := newGatewayFixture()
	client := newTestClient(f.hub, uuid.New(), "sess-1")
	ticketID := uuid.New()

	message := &domain.Message{
		ID:        uuid.New(),
		TicketID:  ticketID,
		FromID:    client.Principal.ID,
		Content:   "hello",
		CreatedAt: time.Now(),
	}
	f.chatSvc.On("Send", mock.Anything, mock.MatchedBy(func(p ports.SendMessageParams) bool {
		return p.TicketID == ticketID && p.Content == "hello" && p.ConnID == client.ID
	})).Return(message, nil)

	raw := []byte(`{"type":"ticket-chat:send","ref":"r3","payload":{"ticketId":"` + ticketID.String() + `","content":"hello"}}`)
	f.gateway.Dispatch(client, raw)

	events := drain(client)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventChatSend, events[0].Type)
	assert.Equal(t, "r3", events[0].Ref)
	f.chatSvc.AssertExpectations(t)
}
