package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus enumerates invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "DRAFT"
	InvoiceStatusSent          InvoiceStatus = "SENT"
	InvoiceStatusPaid          InvoiceStatus = "PAID"
	InvoiceStatusPartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	InvoiceStatusOverdue       InvoiceStatus = "OVERDUE"
	InvoiceStatusCancelled     InvoiceStatus = "CANCELLED"
)

// Invoice is the billing aggregate. All monetary fields carry two decimal places.
type Invoice struct {
	ID          string
	Reference   string
	Status      InvoiceStatus
	IssueDate   time.Time
	DueDate     time.Time
	Subtotal    decimal.Decimal
	TaxRate     decimal.Decimal
	TaxAmount   decimal.Decimal
	Total       decimal.Decimal
	Notes       *string
	CreatedByID string
	Lines       []InvoiceLine
	Payments    []Payment
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// InvoiceLine is owned by exactly one invoice and is immutable once created.
type InvoiceLine struct {
	ID          string
	InvoiceID   string
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal
	TicketID    *string
}

// ValidInvoiceStatus reports whether s is a known status value.
func ValidInvoiceStatus(s InvoiceStatus) bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid,
		InvoiceStatusPartiallyPaid, InvoiceStatusOverdue, InvoiceStatusCancelled:
		return true
	}
	return false
}
