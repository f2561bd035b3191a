package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/servicehub-platform/internal/domain"
	"github.com/spec-kit/servicehub-platform/internal/events"
	"github.com/spec-kit/servicehub-platform/internal/reference"
	"github.com/spec-kit/servicehub-platform/internal/repository"
	"github.com/spec-kit/servicehub-platform/pkg/util"
)

func newInvoiceServiceForTest(t *testing.T) *InvoiceService {
	t.Helper()
	return NewInvoiceService(InvoiceDependencies{
		InvoiceRepo: repository.NewMemoryInvoiceRepositoryWithClock(testClock),
		References:  reference.NewGeneratorWithClock(testClock),
		Dispatcher:  events.NewInMemoryDispatcher(),
		Clock:       testClock,
	})
}

func twoLineInput() InvoiceCreateInput {
	return InvoiceCreateInput{
		Lines: []InvoiceLineInput{
			{Description: "support hours", Quantity: 2, UnitPrice: decimal.NewFromInt(50)},
			{Description: "onboarding", Quantity: 1, UnitPrice: decimal.NewFromInt(100)},
		},
	}
}

func TestInvoiceCreateComputesTotals(t *testing.T) {
	svc := newInvoiceServiceForTest(t)

	invoice, err := svc.Create(context.Background(), "user-1", twoLineInput())
	require.NoError(t, err)

	assert.Equal(t, domain.InvoiceStatusDraft, invoice.Status)
	assert.Equal(t, "INV-20260315-0001", invoice.Reference)
	assert.True(t, invoice.Subtotal.Equal(decimal.NewFromInt(200)), "subtotal = %s", invoice.Subtotal)
	assert.True(t, invoice.TaxRate.Equal(decimal.NewFromInt(20)))
	assert.True(t, invoice.TaxAmount.Equal(decimal.NewFromInt(40)), "tax = %s", invoice.TaxAmount)
	assert.True(t, invoice.Total.Equal(decimal.NewFromInt(240)), "total = %s", invoice.Total)
	assert.Equal(t, testClock().AddDate(0, 0, 30), invoice.DueDate)
	require.Len(t, invoice.Lines, 2)
	assert.True(t, invoice.Lines[0].Total.Equal(decimal.NewFromInt(100)))
}

func TestInvoiceCreateDefaultsQuantityToOne(t *testing.T) {
	svc := newInvoiceServiceForTest(t)

	invoice, err := svc.Create(context.Background(), "user-1", InvoiceCreateInput{
		Lines: []InvoiceLineInput{{Description: "flat fee", UnitPrice: decimal.NewFromInt(10)}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, invoice.Lines[0].Quantity)
	assert.True(t, invoice.Subtotal.Equal(decimal.NewFromInt(10)))
}

func TestInvoiceCreateValidation(t *testing.T) {
	svc := newInvoiceServiceForTest(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "u", InvoiceCreateInput{})
	require.Error(t, err)
	assert.True(t, util.IsCode(err, "VALIDATION_FAILED"))

	_, err = svc.Create(ctx, "u", InvoiceCreateInput{
		Lines: []InvoiceLineInput{{Description: "bad", Quantity: 1, UnitPrice: decimal.NewFromInt(-5)}},
	})
	require.Error(t, err)
	assert.True(t, util.IsCode(err, "VALIDATION_FAILED"))

	_, err = svc.Create(ctx, "u", InvoiceCreateInput{
		Lines: []InvoiceLineInput{{Description: "bad", Quantity: -2, UnitPrice: decimal.NewFromInt(5)}},
	})
	require.Error(t, err)
	assert.True(t, util.IsCode(err, "VALIDATION_FAILED"))
}

func TestInvoiceSendOnlyFromDraft(t *testing.T) {
	svc := newInvoiceServiceForTest(t)
	ctx := context.Background()

	invoice, err := svc.Create(ctx, "u", twoLineInput())
	require.NoError(t, err)

	sent, err := svc.Send(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusSent, sent.Status)

	_, err = svc.Send(ctx, invoice.ID)
	require.Error(t, err)
	assert.True(t, util.IsCode(err, "INVALID_OPERATION"))
}

func TestInvoiceCancelRejectsPaid(t *testing.T) {
	invoiceRepo := repository.NewMemoryInvoiceRepositoryWithClock(testClock)
	svc := NewInvoiceService(InvoiceDependencies{
		InvoiceRepo: invoiceRepo,
		References:  reference.NewGeneratorWithClock(testClock),
		Dispatcher:  events.NewInMemoryDispatcher(),
		Clock:       testClock,
	})
	payments := NewPaymentService(invoiceRepo, events.NewInMemoryDispatcher(), nil, testClock)
	ctx := context.Background()

	invoice, err := svc.Create(ctx, "u", twoLineInput())
	require.NoError(t, err)
	_, err = svc.Send(ctx, invoice.ID)
	require.NoError(t, err)
	_, err = payments.Record(ctx, invoice.ID, decimal.NewFromInt(240), domain.PaymentMethodCreditCard, nil)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, invoice.ID)
	require.Error(t, err)
	assert.True(t, util.IsCode(err, "INVALID_OPERATION"))
}

func TestInvoiceCancelFromSent(t *testing.T) {
	svc := newInvoiceServiceForTest(t)
	ctx := context.Background()

	invoice, err := svc.Create(ctx, "u", twoLineInput())
	require.NoError(t, err)
	_, err = svc.Send(ctx, invoice.ID)
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusCancelled, cancelled.Status)
}

func TestInvoiceDeleteOnlyDraft(t *testing.T) {
	svc := newInvoiceServiceForTest(t)
	ctx := context.Background()

	draft, err := svc.Create(ctx, "u", twoLineInput())
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, draft.ID))
	_, err = svc.FindByID(ctx, draft.ID)
	assert.True(t, util.IsCode(err, "ENTITY_NOT_FOUND"))

	sent, err := svc.Create(ctx, "u", twoLineInput())
	require.NoError(t, err)
	_, err = svc.Send(ctx, sent.ID)
	require.NoError(t, err)
	err = svc.Delete(ctx, sent.ID)
	require.Error(t, err)
	assert.True(t, util.IsCode(err, "INVALID_OPERATION"))
}

func TestInvoiceCustomTaxRateAndDueDate(t *testing.T) {
	svc := newInvoiceServiceForTest(t)

	taxRate := decimal.NewFromFloat(8.5)
	dueDate := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	invoice, err := svc.Create(context.Background(), "u", InvoiceCreateInput{
		Lines:   []InvoiceLineInput{{Description: "x", Quantity: 1, UnitPrice: decimal.NewFromInt(100)}},
		TaxRate: &taxRate,
		DueDate: &dueDate,
	})
	require.NoError(t, err)
	assert.True(t, invoice.TaxAmount.Equal(decimal.NewFromFloat(8.5)), "tax = %s", invoice.TaxAmount)
	assert.True(t, invoice.Total.Equal(decimal.NewFromFloat(108.5)), "total = %s", invoice.Total)
	assert.Equal(t, dueDate, invoice.DueDate)
}

func TestInvoiceStats(t *testing.T) {
	invoiceRepo := repository.NewMemoryInvoiceRepositoryWithClock(testClock)
	svc := NewInvoiceService(InvoiceDependencies{
		InvoiceRepo: invoiceRepo,
		References:  reference.NewGeneratorWithClock(testClock),
		Dispatcher:  events.NewInMemoryDispatcher(),
		Clock:       testClock,
	})
	payments := NewPaymentService(invoiceRepo, events.NewInMemoryDispatcher(), nil, testClock)
	ctx := context.Background()

	paid, err := svc.Create(ctx, "u", twoLineInput())
	require.NoError(t, err)
	_, err = svc.Send(ctx, paid.ID)
	require.NoError(t, err)
	_, err = payments.Record(ctx, paid.ID, decimal.NewFromInt(240), domain.PaymentMethodBankTransfer, nil)
	require.NoError(t, err)

	pending, err := svc.Create(ctx, "u", twoLineInput())
	require.NoError(t, err)
	_, err = svc.Send(ctx, pending.ID)
	require.NoError(t, err)

	_, err = svc.Create(ctx, "u", twoLineInput())
	require.NoError(t, err)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.ByStatus[domain.InvoiceStatusPaid])
	assert.Equal(t, 1, stats.ByStatus[domain.InvoiceStatusSent])
	assert.Equal(t, 1, stats.ByStatus[domain.InvoiceStatusDraft])
	assert.True(t, stats.RevenueTotal.Equal(decimal.NewFromInt(240)), "revenue = %s", stats.RevenueTotal)
	assert.True(t, stats.RevenuePending.Equal(decimal.NewFromInt(240)), "pending = %s", stats.RevenuePending)
}

func TestInvoiceConcurrentSendSingleTransition(t *testing.T) {
	svc := newInvoiceServiceForTest(t)
	ctx := context.Background()

	invoice, err := svc.Create(ctx, "u", twoLineInput())
	require.NoError(t, err)

	const attempts = 8
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, sendErr := svc.Send(ctx, invoice.ID)
			errs <- sendErr
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, util.IsCode(err, "INVALID_OPERATION"))
	}
	assert.Equal(t, 1, succeeded)

	sent, err := svc.FindByID(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusSent, sent.Status)
}
