package events

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/servicehub-platform/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketCommentAdded  EventType = "ticket_comment_added"
	EventInvoiceCreated      EventType = "invoice_created"
	EventInvoiceSent         EventType = "invoice_sent"
	EventInvoiceCancelled    EventType = "invoice_cancelled"
	EventInvoiceOverdue      EventType = "invoice_overdue"
	EventPaymentRecorded     EventType = "payment_recorded"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	EntityID  string      `json:"entity_id"`
	ActorID   string      `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Reference string                `json:"reference"`
	Priority  domain.TicketPriority `json:"priority"`
	Title     string                `json:"title"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AssignedToID string `json:"assigned_to_id"`
}

// TicketCommentAddedPayload payload.
type TicketCommentAddedPayload struct {
	CommentID  string `json:"comment_id"`
	IsInternal bool   `json:"is_internal"`
}

// InvoiceStatusPayload covers sent/cancelled/overdue notifications.
type InvoiceStatusPayload struct {
	Reference string               `json:"reference"`
	OldStatus domain.InvoiceStatus `json:"old_status"`
	NewStatus domain.InvoiceStatus `json:"new_status"`
}

// InvoiceCreatedPayload payload.
type InvoiceCreatedPayload struct {
	Reference string          `json:"reference"`
	Total     decimal.Decimal `json:"total"`
}

// PaymentRecordedPayload payload.
type PaymentRecordedPayload struct {
	PaymentID     string               `json:"payment_id"`
	Amount        decimal.Decimal      `json:"amount"`
	Method        domain.PaymentMethod `json:"method"`
	InvoiceStatus domain.InvoiceStatus `json:"invoice_status"`
}
