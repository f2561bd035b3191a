package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod enumerates supported settlement channels.
type PaymentMethod string

const (
	PaymentMethodCreditCard   PaymentMethod = "CREDIT_CARD"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCheck        PaymentMethod = "CHECK"
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodOther        PaymentMethod = "OTHER"
)

// Payment records money received against an invoice. Payments are append-only.
type Payment struct {
	ID        string
	InvoiceID string
	Amount    decimal.Decimal
	Method    PaymentMethod
	Reference *string
	PaidAt    time.Time
	CreatedAt time.Time
}

// ValidPaymentMethod reports whether m is a known method value.
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentMethodCreditCard, PaymentMethodBankTransfer, PaymentMethodCheck,
		PaymentMethodCash, PaymentMethodOther:
		return true
	}
	return false
}
