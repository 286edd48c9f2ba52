package domain

import "time"

// MessageSnapshot matches the API response shape for chat messages.
type MessageSnapshot struct {
	ID        string `json:"id"`
	TicketID  string `json:"ticketId"`
	FromID    string `json:"fromId"`
	Content   string `json:"content"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"createdAt"`
}

// TicketSnapshot matches the API response shape for tickets.
type TicketSnapshot struct {
	ID           string  `json:"id"`
	TicketNumber int64   `json:"ticketNumber"`
	ClientID     string  `json:"clientId"`
	TechnicianID string  `json:"technicianId"`
	ProductID    string  `json:"productId"`
	Status       string  `json:"status"`
	Description  string  `json:"description"`
	SerialNumber string  `json:"serialNumber"`
	ClosedAt     *string `json:"closedAt"`
	CreatedAt    string  `json:"createdAt"`
	UpdatedAt    *string `json:"updatedAt"`
}

// NotificationSnapshot matches the API response shape for notifications.
type NotificationSnapshot struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Read      bool   `json:"read"`
	Href      string `json:"href,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// NewMessageSnapshot builds a message snapshot from a domain message.
func NewMessageSnapshot(message *Message) MessageSnapshot {
	return MessageSnapshot{
		ID:        message.ID.String(),
		TicketID:  message.TicketID.String(),
		FromID:    message.FromID.String(),
		Content:   message.Content,
		Read:      message.Read,
		CreatedAt: message.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// NewTicketSnapshot builds a ticket snapshot from a domain ticket.
func NewTicketSnapshot(ticket *Ticket) TicketSnapshot {
	var closedAt *string
	if ticket.ClosedAt != nil {
		value := ticket.ClosedAt.UTC().Format(time.RFC3339)
		closedAt = &value
	}

	var updatedAt *string
	if ticket.UpdatedAt != nil {
		value := ticket.UpdatedAt.UTC().Format(time.RFC3339)
		updatedAt = &value
	}

	return TicketSnapshot{
		ID:           ticket.ID.String(),
		TicketNumber: ticket.TicketNumber,
		ClientID:     ticket.ClientID.String(),
		TechnicianID: ticket.TechnicianID.String(),
		ProductID:    ticket.ProductID.String(),
		Status:       string(ticket.Status),
		Description:  ticket.Description,
		SerialNumber: ticket.SerialNumber,
		ClosedAt:     closedAt,
		CreatedAt:    ticket.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    updatedAt,
	}
}

// NewNotificationSnapshot builds a notification snapshot.
func NewNotificationSnapshot(notification *Notification) NotificationSnapshot {
	return NotificationSnapshot{
		ID:        notification.ID.String(),
		Title:     notification.Title,
		Content:   notification.Content,
		Read:      notification.Read,
		Href:      notification.Href,
		CreatedAt: notification.CreatedAt.UTC().Format(time.RFC3339),
	}
}
