package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/servicehub-platform/internal/billing"
	"github.com/spec-kit/servicehub-platform/internal/domain"
	"github.com/spec-kit/servicehub-platform/internal/events"
	"github.com/spec-kit/servicehub-platform/internal/repository"
	"github.com/spec-kit/servicehub-platform/pkg/util"
)

// PaymentService records payments and derives invoice status from the
// cumulative paid amount.
type PaymentService struct {
	invoices   repository.InvoiceRepository
	dispatcher events.Dispatcher
	locks      *EntityLocks
	now        func() time.Time
}

// NewPaymentService constructs the service. Pass the same EntityLocks the
// invoice service uses so payment recording and invoice transitions on one
// invoice never interleave.
func NewPaymentService(invoices repository.InvoiceRepository, dispatcher events.Dispatcher, locks *EntityLocks, clock func() time.Time) *PaymentService {
	if locks == nil {
		locks = NewEntityLocks()
	}
	if clock == nil {
		clock = time.Now
	}
	return &PaymentService{invoices: invoices, dispatcher: dispatcher, locks: locks, now: clock}
}

// PaymentListInput describes listing filters.
type PaymentListInput struct {
	InvoiceID *string
	Page      int
	Limit     int
}

// Record stores a payment against an invoice and updates the invoice status.
// The amount must be validated as positive at the transport boundary.
func (s *PaymentService) Record(ctx context.Context, invoiceID string, amount decimal.Decimal, method domain.PaymentMethod, paymentRef *string) (*domain.Payment, error) {
	unlock := s.locks.Lock(invoiceID)
	defer unlock()

	invoice, err := s.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, notFound("invoice", invoiceID, err)
	}

	if invoice.Status == domain.InvoiceStatusCancelled {
		return nil, util.NewInvalidOperation("cannot record a payment on a cancelled invoice")
	}
	if invoice.Status == domain.InvoiceStatusPaid {
		return nil, util.NewInvalidOperation("invoice is already fully paid")
	}
	if !domain.ValidPaymentMethod(method) {
		return nil, util.NewValidationError("unknown payment method", map[string]any{"method": method})
	}

	payment := &domain.Payment{
		InvoiceID: invoice.ID,
		Amount:    billing.Round2(amount),
		Method:    method,
		Reference: paymentRef,
		PaidAt:    s.now(),
	}
	if err := s.invoices.AddPayment(ctx, payment); err != nil {
		return nil, err
	}

	payments, err := s.invoices.ListPayments(ctx, invoice.ID)
	if err != nil {
		return nil, err
	}
	totalPaid := decimal.Zero
	for _, p := range payments {
		totalPaid = totalPaid.Add(p.Amount)
	}

	newStatus := invoice.Status
	if billing.IsFullyPaid(invoice.Total, totalPaid) {
		newStatus = domain.InvoiceStatusPaid
	} else if billing.IsPartiallyPaid(totalPaid) {
		newStatus = domain.InvoiceStatusPartiallyPaid
	}
	if newStatus != invoice.Status {
		if err := s.invoices.UpdateStatus(ctx, invoice.ID, newStatus); err != nil {
			return nil, err
		}
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventPaymentRecorded,
		EntityID: invoice.ID,
		Payload: events.PaymentRecordedPayload{
			PaymentID:     payment.ID,
			Amount:        payment.Amount,
			Method:        payment.Method,
			InvoiceStatus: newStatus,
		},
	})
	return payment, nil
}

// FindAll returns a page of payments, optionally scoped to one invoice.
func (s *PaymentService) FindAll(ctx context.Context, input PaymentListInput) ([]domain.Payment, util.PageMeta, error) {
	page, limit := util.NormalizePage(input.Page, input.Limit)

	filter := repository.PaymentFilter{
		InvoiceID: input.InvoiceID,
		Limit:     limit,
		Offset:    (page - 1) * limit,
	}
	payments, err := s.invoices.ListPaymentsFiltered(ctx, filter)
	if err != nil {
		return nil, util.PageMeta{}, err
	}
	total, err := s.invoices.CountPayments(ctx, filter)
	if err != nil {
		return nil, util.PageMeta{}, err
	}
	return payments, util.NewPageMeta(total, page, limit), nil
}

// FindByID fetches a single payment.
func (s *PaymentService) FindByID(ctx context.Context, id string) (*domain.Payment, error) {
	payment, err := s.invoices.GetPaymentByID(ctx, id)
	if err != nil {
		return nil, notFound("payment", id, err)
	}
	return payment, nil
}

// ListByInvoice returns all payments of one invoice.
func (s *PaymentService) ListByInvoice(ctx context.Context, invoiceID string) ([]domain.Payment, error) {
	if _, err := s.invoices.GetByID(ctx, invoiceID); err != nil {
		return nil, notFound("invoice", invoiceID, err)
	}
	return s.invoices.ListPayments(ctx, invoiceID)
}
