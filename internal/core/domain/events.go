package domain

// EventType is the wire name of a real-time event. Names ending in a
// client-bound suffix are emitted by the server only; the rest are accepted
// from clients and acked with an event of the same type.
type EventType string

const (
	// Chat events.
	EventChatJoin    EventType = "ticket-chat:join"
	EventChatLeave   EventType = "ticket-chat:leave"
	EventChatSend    EventType = "ticket-chat:send"
	EventChatMessage EventType = "ticket-chat:message"
	EventChatRead    EventType = "ticket-chat:read"

	// Ticket update events.
	EventTicketJoin    EventType = "ticket-updates:join"
	EventTicketLeave   EventType = "ticket-updates:leave"
	EventTicketChanged EventType = "ticket-updates:changed"

	// Notification events.
	EventNotificationReceive EventType = "notification:receive"
	EventNotificationRead    EventType = "notification:read"
	EventNotificationRemove  EventType = "notification:remove"

	// EventError reports a failed client command. Ref carries the
	// correlation ID of the command when one was supplied.
	EventError EventType = "error"
)

// Event is the payload envelope sent over the WebSocket.
type Event struct {
	Type    EventType `json:"type"`
	Ref     string    `json:"ref,omitempty"`
	Payload any       `json:"payload,omitempty"`
}

// ErrorPayload is the payload of an EventError.
type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ReadReceiptPayload is broadcast when a participant marks messages read.
type ReadReceiptPayload struct {
	TicketID   string   `json:"ticketId"`
	MessageIDs []string `json:"messageIds"`
	ReaderID   string   `json:"readerId"`
}
