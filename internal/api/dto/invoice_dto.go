package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/servicehub-platform/internal/domain"
)

// InvoiceLineRequest describes one line of a new invoice.
type InvoiceLineRequest struct {
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	TicketID    *string         `json:"ticketId"`
}

// CreateInvoiceRequest payload.
type CreateInvoiceRequest struct {
	Lines   []InvoiceLineRequest `json:"lines"`
	TaxRate *decimal.Decimal     `json:"taxRate"`
	DueDate *time.Time           `json:"dueDate"`
	Notes   *string              `json:"notes"`
}

// RecordPaymentRequest payload.
type RecordPaymentRequest struct {
	Amount    decimal.Decimal      `json:"amount"`
	Method    domain.PaymentMethod `json:"method"`
	Reference *string              `json:"reference"`
}

// InvoiceLineResponse is the line wire representation.
type InvoiceLineResponse struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Total       decimal.Decimal `json:"total"`
	TicketID    *string         `json:"ticketId"`
}

// InvoiceResponse is the invoice wire representation.
type InvoiceResponse struct {
	ID          string                `json:"id"`
	Reference   string                `json:"reference"`
	Status      domain.InvoiceStatus  `json:"status"`
	IssueDate   time.Time             `json:"issueDate"`
	DueDate     time.Time             `json:"dueDate"`
	Subtotal    decimal.Decimal       `json:"subtotal"`
	TaxRate     decimal.Decimal       `json:"taxRate"`
	TaxAmount   decimal.Decimal       `json:"taxAmount"`
	Total       decimal.Decimal       `json:"total"`
	Notes       *string               `json:"notes"`
	CreatedByID string                `json:"createdById"`
	Lines       []InvoiceLineResponse `json:"lines,omitempty"`
	Payments    []PaymentResponse     `json:"payments,omitempty"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
}

// PaymentResponse is the payment wire representation.
type PaymentResponse struct {
	ID        string               `json:"id"`
	InvoiceID string               `json:"invoiceId"`
	Amount    decimal.Decimal      `json:"amount"`
	Method    domain.PaymentMethod `json:"method"`
	Reference *string              `json:"reference"`
	PaidAt    time.Time            `json:"paidAt"`
	CreatedAt time.Time            `json:"createdAt"`
}

// BillingStatsResponse aggregates invoice counts and revenue.
type BillingStatsResponse struct {
	Total          int                          `json:"total"`
	ByStatus       map[domain.InvoiceStatus]int `json:"byStatus"`
	RevenueTotal   decimal.Decimal              `json:"revenueTotal"`
	RevenuePending decimal.Decimal              `json:"revenuePending"`
}
