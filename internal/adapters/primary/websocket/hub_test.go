package websocket

import (
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/musat/helpdesk-backend/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestClient builds a client without a network connection. Registration
// goes through the hub's internal method directly so tests do not need the
// Run loop.
func newTestClient(hub *Hub, userID uuid.UUID, sessionID string) *Client {
	principal := domain.Principal{ID: userID, Role: domain.RoleClient}
	client := NewClient(hub, nil, nil, uuid.NewString(), principal, sessionID, testLogger())
	hub.registerClient(client)
	return client
}

func drain(c *Client) []domain.Event {
	var events []domain.Event
	for {
		select {
		case e := <-c.Send:
			events = append(events, e)
		default:
			return events
		}
	}
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub(testLogger())
	userID := uuid.New()

	c1 := newTestClient(hub, userID, "sess-1")
	c2 := newTestClient(hub, userID, "sess-2")

	assert.Equal(t, 2, hub.ClientCount())

	hub.unregisterClient(c1)
	assert.Equal(t, 1, hub.ClientCount())

	hub.unregisterClient(c2)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_JoinLeavesPreviousRoomOfSameKind(t *testing.T) {
	hub := NewHub(testLogger())
	client := newTestClient(hub, uuid.New(), "sess-1")

	roomA := domain.ChatRoom(uuid.New())
	roomB := domain.ChatRoom(uuid.New())

	hub.Join(client, roomA)
	require.True(t, client.InRoom(roomA))
	assert.Equal(t, 1, hub.ClientsInRoom(roomA))

	hub.Join(client, roomB)

	assert.False(t, client.InRoom(roomA))
	assert.True(t, client.InRoom(roomB))
	assert.Equal(t, 0, hub.ClientsInRoom(roomA))
	assert.Equal(t, 1, hub.ClientsInRoom(roomB))
}

func TestHub_JoinKeepsRoomsOfOtherKinds(t *testing.T) {
	hub := NewHub(testLogger())
	client := newTestClient(hub, uuid.New(), "sess-1")

	ticketID := uuid.New()
	chat := domain.ChatRoom(ticketID)
	updates := domain.UpdatesRoom(ticketID)

	hub.Join(client, chat)
	hub.Join(client, updates)

	assert.True(t, client.InRoom(chat))
	assert.True(t, client.InRoom(updates))
	assert.Equal(t, 2, hub.RoomCount())
}

func TestHub_BroadcastToRoomExcludesConnection(t *testing.T) {
	hub := NewHub(testLogger())
	room := domain.ChatRoom(uuid.New())

	sender := newTestClient(hub, uuid.New(), "sess-1")
	receiver := newTestClient(hub, uuid.New(), "sess-2")
	outsider := newTestClient(hub, uuid.New(), "sess-3")

	hub.Join(sender, room)
	hub.Join(receiver, room)

	event := domain.Event{Type: domain.EventChatMessage}
	hub.BroadcastToRoom(room, event, sender.ID)

	assert.Empty(t, drain(sender))
	received := drain(receiver)
	require.Len(t, received, 1)
	assert.Equal(t, domain.EventChatMessage, received[0].Type)
	assert.Empty(t, drain(outsider))
}

func TestHub_BroadcastWithoutExclusionReachesEveryone(t *testing.T) {
	hub := NewHub(testLogger())
	room := domain.UpdatesRoom(uuid.New())

	c1 := newTestClient(hub, uuid.New(), "sess-1")
	c2 := newTestClient(hub, uuid.New(), "sess-2")
	hub.Join(c1, room)
	hub.Join(c2, room)

	hub.BroadcastToRoom(room, domain.Event{Type: domain.EventTicketChanged}, "")

	assert.Len(t, drain(c1), 1)
	assert.Len(t, drain(c2), 1)
}

func TestHub_SendToUserReachesAllConnections(t *testing.T) {
	hub := NewHub(testLogger())
	userID := uuid.New()

	c1 := newTestClient(hub, userID, "sess-1")
	c2 := newTestClient(hub, userID, "sess-1")
	other := newTestClient(hub, uuid.New(), "sess-2")

	hub.SendToUser(userID, domain.Event{Type: domain.EventNotificationReceive})

	assert.Len(t, drain(c1), 1)
	assert.Len(t, drain(c2), 1)
	assert.Empty(t, drain(other))
}

func TestHub_IsUserInRoom(t *testing.T) {
	hub := NewHub(testLogger())
	room := domain.ChatRoom(uuid.New())
	userID := uuid.New()

	client := newTestClient(hub, userID, "sess-1")

	assert.False(t, hub.IsUserInRoom(userID, room))

	hub.Join(client, room)
	assert.True(t, hub.IsUserInRoom(userID, room))
	assert.False(t, hub.IsUserInRoom(uuid.New(), room))

	hub.Leave(client, room)
	assert.False(t, hub.IsUserInRoom(userID, room))
}

func TestHub_UnregisterLeavesRooms(t *testing.T) {
	hub := NewHub(testLogger())
	room := domain.ChatRoom(uuid.New())
	userID := uuid.New()

	client := newTestClient(hub, userID, "sess-1")
	hub.Join(client, room)

	hub.unregisterClient(client)

	assert.Equal(t, 0, hub.ClientsInRoom(room))
	assert.False(t, hub.IsUserInRoom(userID, room))

	// The send channel is closed so the write pump shuts down.
	_, open := <-client.Send
	assert.False(t, open)
}

func TestHub_DisconnectSessionTargetsOnlyThatSession(t *testing.T) {
	hub := NewHub(testLogger())
	userID := uuid.New()

	c1 := newTestClient(hub, userID, "sess-1")
	c2 := newTestClient(hub, userID, "sess-2")

	// Close is a no-op without a network connection; the point here is that
	// the lookup picks the right connections and does not panic.
	hub.DisconnectSession("sess-1")
	hub.DisconnectSession("absent")

	assert.Equal(t, 2, hub.ClientCount())
	_ = c1
	_ = c2
}

func TestHub_DeliverAfterUnregisterDropsEvent(t *testing.T) {
	hub := NewHub(testLogger())
	room := domain.ChatRoom(uuid.New())

	stable := newTestClient(hub, uuid.New(), "sess-1")
	leaving := newTestClient(hub, uuid.New(), "sess-2")
	hub.Join(stable, room)
	hub.Join(leaving, room)

	// A broadcast snapshots the member list before sending. Unregistering
	// between the snapshot and the send closes the member's channel; the
	// delivery must drop the event, not panic.
	members := []*Client{stable, leaving}
	hub.unregisterClient(leaving)

	event := domain.Event{Type: domain.EventChatMessage}
	require.NotPanics(t, func() {
		for _, member := range members {
			hub.deliver(member, event)
		}
	})

	assert.Len(t, drain(stable), 1)
}

func TestHub_QueueEventAfterCloseSendIsSafe(t *testing.T) {
	hub := NewHub(testLogger())
	client := newTestClient(hub, uuid.New(), "sess-1")

	hub.unregisterClient(client)

	require.NotPanics(t, func() {
		client.QueueEvent(domain.Event{Type: domain.EventChatMessage})
	})
}

func TestHub_ConcurrentBroadcastAndUnregister(t *testing.T) {
	hub := NewHub(testLogger())
	room := domain.ChatRoom(uuid.New())
	event := domain.Event{Type: domain.EventChatMessage}

	for i := 0; i < 50; i++ {
		client := newTestClient(hub, uuid.New(), "sess-1")
		hub.Join(client, room)

		done := make(chan struct{})
		go func() {
			defer close(done)
			hub.BroadcastToRoom(room, event, "")
		}()
		hub.unregisterClient(client)
		<-done
	}
}
