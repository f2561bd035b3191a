package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/servicehub-platform/internal/billing"
	"github.com/spec-kit/servicehub-platform/internal/domain"
	"github.com/spec-kit/servicehub-platform/internal/events"
	"github.com/spec-kit/servicehub-platform/internal/reference"
	"github.com/spec-kit/servicehub-platform/internal/repository"
	"github.com/spec-kit/servicehub-platform/pkg/util"
)

// Defaults applied at invoice creation.
var defaultTaxRate = decimal.NewFromInt(20)

const defaultDueDays = 30

// InvoiceService coordinates the invoice lifecycle.
type InvoiceService struct {
	invoices   repository.InvoiceRepository
	refs       *reference.Generator
	dispatcher events.Dispatcher
	locks      *EntityLocks
	now        func() time.Time
}

// InvoiceDependencies bundles collaborators for the invoice service.
type InvoiceDependencies struct {
	InvoiceRepo repository.InvoiceRepository
	References  *reference.Generator
	Dispatcher  events.Dispatcher
	Locks       *EntityLocks
	Clock       func() time.Time
}

// NewInvoiceService constructs the service.
func NewInvoiceService(deps InvoiceDependencies) *InvoiceService {
	locks := deps.Locks
	if locks == nil {
		locks = NewEntityLocks()
	}
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	return &InvoiceService{
		invoices:   deps.InvoiceRepo,
		refs:       deps.References,
		dispatcher: deps.Dispatcher,
		locks:      locks,
		now:        now,
	}
}

// InvoiceLineInput describes one line of a new invoice. Quantity 0 means 1.
// Any client-supplied total is ignored; totals are recomputed server-side.
type InvoiceLineInput struct {
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
	TicketID    *string
}

// InvoiceCreateInput describes invoice creation payload.
type InvoiceCreateInput struct {
	Lines   []InvoiceLineInput
	TaxRate *decimal.Decimal
	DueDate *time.Time
	Notes   *string
}

// InvoiceListInput describes listing filters.
type InvoiceListInput struct {
	Status *domain.InvoiceStatus
	Page   int
	Limit  int
}

// InvoiceStats aggregates billing figures for reporting.
type InvoiceStats struct {
	Total          int                          `json:"total"`
	ByStatus       map[domain.InvoiceStatus]int `json:"byStatus"`
	RevenueTotal   decimal.Decimal              `json:"revenueTotal"`
	RevenuePending decimal.Decimal              `json:"revenuePending"`
}

// Create computes totals over the provided lines and stores a DRAFT invoice.
func (s *InvoiceService) Create(ctx context.Context, createdByID string, input InvoiceCreateInput) (*domain.Invoice, error) {
	if len(input.Lines) == 0 {
		return nil, util.NewValidationError("at least one line required", nil)
	}

	lines := make([]domain.InvoiceLine, 0, len(input.Lines))
	calcLines := make([]billing.LineInput, 0, len(input.Lines))
	for _, line := range input.Lines {
		quantity := line.Quantity
		if quantity == 0 {
			quantity = 1
		}
		if quantity < 1 {
			return nil, util.NewValidationError("line quantity must be at least 1", nil)
		}
		if line.UnitPrice.IsNegative() {
			return nil, util.NewValidationError("line unit price cannot be negative", nil)
		}
		lines = append(lines, domain.InvoiceLine{
			Description: line.Description,
			Quantity:    quantity,
			UnitPrice:   line.UnitPrice,
			Total:       billing.LineTotal(quantity, line.UnitPrice),
			TicketID:    line.TicketID,
		})
		calcLines = append(calcLines, billing.LineInput{Quantity: quantity, UnitPrice: line.UnitPrice})
	}

	taxRate := defaultTaxRate
	if input.TaxRate != nil {
		taxRate = *input.TaxRate
	}

	issueDate := s.now()
	dueDate := issueDate.AddDate(0, 0, defaultDueDays)
	if input.DueDate != nil {
		dueDate = *input.DueDate
	}

	subtotal := billing.Subtotal(calcLines)
	invoice := &domain.Invoice{
		Reference:   s.refs.Generate(reference.PrefixInvoice),
		Status:      domain.InvoiceStatusDraft,
		IssueDate:   issueDate,
		DueDate:     dueDate,
		Subtotal:    subtotal,
		TaxRate:     taxRate,
		TaxAmount:   billing.TaxAmount(subtotal, taxRate),
		Total:       billing.Total(subtotal, taxRate),
		Notes:       input.Notes,
		CreatedByID: createdByID,
		Lines:       lines,
	}

	if err := s.invoices.Create(ctx, invoice); err != nil {
		return nil, err
	}
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventInvoiceCreated,
		EntityID: invoice.ID,
		ActorID:  createdByID,
		Payload: events.InvoiceCreatedPayload{
			Reference: invoice.Reference,
			Total:     invoice.Total,
		},
	})
	return invoice, nil
}

// FindAll returns a page of invoices.
func (s *InvoiceService) FindAll(ctx context.Context, input InvoiceListInput) ([]domain.Invoice, util.PageMeta, error) {
	page, limit := util.NormalizePage(input.Page, input.Limit)

	filter := repository.InvoiceFilter{
		Status: input.Status,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
	invoices, err := s.invoices.List(ctx, filter)
	if err != nil {
		return nil, util.PageMeta{}, err
	}
	total, err := s.invoices.Count(ctx, filter)
	if err != nil {
		return nil, util.PageMeta{}, err
	}
	return invoices, util.NewPageMeta(total, page, limit), nil
}

// FindByID fetches an invoice with its lines and payments.
func (s *InvoiceService) FindByID(ctx context.Context, id string) (*domain.Invoice, error) {
	invoice, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		return nil, notFound("invoice", id, err)
	}
	return invoice, nil
}

// Send transitions DRAFT to SENT.
func (s *InvoiceService) Send(ctx context.Context, id string) (*domain.Invoice, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	invoice, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice.Status != domain.InvoiceStatusDraft {
		return nil, util.NewInvalidOperation("only draft invoices can be sent")
	}
	return s.setStatus(ctx, invoice, domain.InvoiceStatusSent, events.EventInvoiceSent)
}

// Cancel transitions any non-PAID invoice to CANCELLED.
func (s *InvoiceService) Cancel(ctx context.Context, id string) (*domain.Invoice, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	invoice, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice.Status == domain.InvoiceStatusPaid {
		return nil, util.NewInvalidOperation("cannot cancel a paid invoice")
	}
	return s.setStatus(ctx, invoice, domain.InvoiceStatusCancelled, events.EventInvoiceCancelled)
}

// Delete removes an invoice. Only drafts can be deleted.
func (s *InvoiceService) Delete(ctx context.Context, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	invoice, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if invoice.Status != domain.InvoiceStatusDraft {
		return util.NewInvalidOperation("only draft invoices can be deleted")
	}
	return s.invoices.Delete(ctx, id)
}

// Stats aggregates billing counts and revenue.
func (s *InvoiceService) Stats(ctx context.Context) (*InvoiceStats, error) {
	total, err := s.invoices.Count(ctx, repository.InvoiceFilter{})
	if err != nil {
		return nil, err
	}
	byStatus, err := s.invoices.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	revenueTotal, err := s.invoices.SumTotalByStatus(ctx, domain.InvoiceStatusPaid)
	if err != nil {
		return nil, err
	}
	revenuePending, err := s.invoices.SumTotalByStatus(ctx, domain.InvoiceStatusSent)
	if err != nil {
		return nil, err
	}
	return &InvoiceStats{
		Total:          total,
		ByStatus:       byStatus,
		RevenueTotal:   revenueTotal,
		RevenuePending: revenuePending,
	}, nil
}

// SeedReferenceCounter aligns the invoice reference counter with the number
// of invoices created today. Called once at startup.
func (s *InvoiceService) SeedReferenceCounter(ctx context.Context) error {
	count, err := s.invoices.CountCreatedToday(ctx)
	if err != nil {
		return err
	}
	day := s.now().Format("20060102")
	s.refs.InitializeCounter(reference.PrefixInvoice, day, count)
	return nil
}

func (s *InvoiceService) setStatus(ctx context.Context, invoice *domain.Invoice, status domain.InvoiceStatus, eventType events.EventType) (*domain.Invoice, error) {
	oldStatus := invoice.Status
	if err := s.invoices.UpdateStatus(ctx, invoice.ID, status); err != nil {
		return nil, err
	}
	invoice.Status = status
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     eventType,
		EntityID: invoice.ID,
		Payload: events.InvoiceStatusPayload{
			Reference: invoice.Reference,
			OldStatus: oldStatus,
			NewStatus: status,
		},
	})
	return invoice, nil
}
