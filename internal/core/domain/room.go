package domain

import "github.com/google/uuid"

// RoomKind scopes what a room broadcasts. A connection may be a member of at
// most one room of each kind at a time; joining another implicitly leaves
// the previous one.
type RoomKind string

const (
	RoomTicketChat    RoomKind = "ticket-chat"
	RoomTicketUpdates RoomKind = "ticket-updates"
)

// Room is a logical broadcast group. It has no independent lifetime: it
// exists while at least one connection is a member.
type Room struct {
	Kind    RoomKind
	Subject uuid.UUID
}

// ChatRoom is the chat room for a ticket.
func ChatRoom(ticketID uuid.UUID) Room {
	return Room{Kind: RoomTicketChat, Subject: ticketID}
}

// UpdatesRoom is the live ticket-updates room for a ticket.
func UpdatesRoom(ticketID uuid.UUID) Room {
	return Room{Kind: RoomTicketUpdates, Subject: ticketID}
}
