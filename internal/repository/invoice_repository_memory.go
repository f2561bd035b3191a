package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/servicehub-platform/internal/domain"
)

type memoryInvoiceRepository struct {
	mu       sync.RWMutex
	invoices map[string]domain.Invoice
	payments map[string][]domain.Payment
	now      func() time.Time
}

// NewMemoryInvoiceRepository returns an in-memory implementation.
func NewMemoryInvoiceRepository() InvoiceRepository {
	return NewMemoryInvoiceRepositoryWithClock(time.Now)
}

// NewMemoryInvoiceRepositoryWithClock lets tests pin the clock.
func NewMemoryInvoiceRepositoryWithClock(now func() time.Time) InvoiceRepository {
	return &memoryInvoiceRepository{
		invoices: make(map[string]domain.Invoice),
		payments: make(map[string][]domain.Payment),
		now:      now,
	}
}

func (r *memoryInvoiceRepository) Create(ctx context.Context, invoice *domain.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	invoice.ID = uuid.NewString()
	invoice.CreatedAt = r.now()
	invoice.UpdatedAt = invoice.CreatedAt
	for i := range invoice.Lines {
		invoice.Lines[i].ID = uuid.NewString()
		invoice.Lines[i].InvoiceID = invoice.ID
	}
	r.invoices[invoice.ID] = *invoice
	return nil
}

func (r *memoryInvoiceRepository) UpdateStatus(ctx context.Context, id string, status domain.InvoiceStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	invoice, ok := r.invoices[id]
	if !ok {
		return pgx.ErrNoRows
	}
	invoice.Status = status
	invoice.UpdatedAt = r.now()
	r.invoices[id] = invoice
	return nil
}

func (r *memoryInvoiceRepository) GetByID(ctx context.Context, id string) (*domain.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	invoice, ok := r.invoices[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	// Copy the slices so callers cannot mutate the stored invoice.
	invoice.Lines = append([]domain.InvoiceLine(nil), invoice.Lines...)
	invoice.Payments = append([]domain.Payment(nil), r.payments[id]...)
	return &invoice, nil
}

func (r *memoryInvoiceRepository) matches(invoice domain.Invoice, filter InvoiceFilter) bool {
	return filter.Status == nil || invoice.Status == *filter.Status
}

func (r *memoryInvoiceRepository) List(ctx context.Context, filter InvoiceFilter) ([]domain.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []domain.Invoice
	for _, invoice := range r.invoices {
		if r.matches(invoice, filter) {
			matched = append(matched, invoice)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return paginate(matched, filter.Limit, filter.Offset), nil
}

func (r *memoryInvoiceRepository) Count(ctx context.Context, filter InvoiceFilter) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, invoice := range r.invoices {
		if r.matches(invoice, filter) {
			count++
		}
	}
	return count, nil
}

func (r *memoryInvoiceRepository) CountCreatedToday(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	start := startOfDay(r.now())
	count := 0
	for _, invoice := range r.invoices {
		if !invoice.CreatedAt.Before(start) {
			count++
		}
	}
	return count, nil
}

func (r *memoryInvoiceRepository) CountByStatus(ctx context.Context) (map[domain.InvoiceStatus]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make(map[domain.InvoiceStatus]int)
	for _, invoice := range r.invoices {
		result[invoice.Status]++
	}
	return result, nil
}

func (r *memoryInvoiceRepository) SumTotalByStatus(ctx context.Context, status domain.InvoiceStatus) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sum := decimal.Zero
	for _, invoice := range r.invoices {
		if invoice.Status == status {
			sum = sum.Add(invoice.Total)
		}
	}
	return sum, nil
}

func (r *memoryInvoiceRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.invoices[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.invoices, id)
	delete(r.payments, id)
	return nil
}

func (r *memoryInvoiceRepository) ListDueBefore(ctx context.Context, asOf time.Time, statuses []domain.InvoiceStatus) ([]domain.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	allowed := make(map[domain.InvoiceStatus]struct{}, len(statuses))
	for _, status := range statuses {
		allowed[status] = struct{}{}
	}

	var matched []domain.Invoice
	for _, invoice := range r.invoices {
		if _, ok := allowed[invoice.Status]; !ok {
			continue
		}
		if invoice.DueDate.Before(asOf) {
			matched = append(matched, invoice)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].DueDate.Before(matched[j].DueDate)
	})
	return matched, nil
}

func (r *memoryInvoiceRepository) AddPayment(ctx context.Context, payment *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.invoices[payment.InvoiceID]; !ok {
		return pgx.ErrNoRows
	}
	payment.ID = uuid.NewString()
	payment.CreatedAt = r.now()
	if payment.PaidAt.IsZero() {
		payment.PaidAt = payment.CreatedAt
	}
	r.payments[payment.InvoiceID] = append(r.payments[payment.InvoiceID], *payment)
	return nil
}

func (r *memoryInvoiceRepository) GetPaymentByID(ctx context.Context, id string) (*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, payments := range r.payments {
		for _, payment := range payments {
			if payment.ID == id {
				p := payment
				return &p, nil
			}
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memoryInvoiceRepository) ListPayments(ctx context.Context, invoiceID string) ([]domain.Payment, error) {
	id := invoiceID
	return r.ListPaymentsFiltered(ctx, PaymentFilter{InvoiceID: &id, Limit: -1})
}

func (r *memoryInvoiceRepository) ListPaymentsFiltered(ctx context.Context, filter PaymentFilter) ([]domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []domain.Payment
	for invoiceID, payments := range r.payments {
		if filter.InvoiceID != nil && invoiceID != *filter.InvoiceID {
			continue
		}
		matched = append(matched, payments...)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return paginate(matched, filter.Limit, filter.Offset), nil
}

func (r *memoryInvoiceRepository) CountPayments(ctx context.Context, filter PaymentFilter) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for invoiceID, payments := range r.payments {
		if filter.InvoiceID != nil && invoiceID != *filter.InvoiceID {
			continue
		}
		count += len(payments)
	}
	return count, nil
}
