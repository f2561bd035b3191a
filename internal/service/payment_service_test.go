package service

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/servicehub-platform/internal/domain"
	"github.com/spec-kit/servicehub-platform/internal/events"
	"github.com/spec-kit/servicehub-platform/internal/reference"
	"github.com/spec-kit/servicehub-platform/internal/repository"
	"github.com/spec-kit/servicehub-platform/pkg/util"
)

type paymentFixture struct {
	invoices *InvoiceService
	payments *PaymentService
}

func newPaymentFixture(t *testing.T) paymentFixture {
	t.Helper()
	repo := repository.NewMemoryInvoiceRepositoryWithClock(testClock)
	dispatcher := events.NewInMemoryDispatcher()
	return paymentFixture{
		invoices: NewInvoiceService(InvoiceDependencies{
			InvoiceRepo: repo,
			References:  reference.NewGeneratorWithClock(testClock),
			Dispatcher:  dispatcher,
			Clock:       testClock,
		}),
		payments: NewPaymentService(repo, dispatcher, nil, testClock),
	}
}

// sentInvoice creates and sends an invoice totalling 600.00
// (1 x 500.00 with 20% tax).
func (f paymentFixture) sentInvoice(t *testing.T) *domain.Invoice {
	t.Helper()
	ctx := context.Background()
	invoice, err := f.invoices.Create(ctx, "u", InvoiceCreateInput{
		Lines: []InvoiceLineInput{{Description: "retainer", Quantity: 1, UnitPrice: decimal.NewFromInt(500)}},
	})
	require.NoError(t, err)
	invoice, err = f.invoices.Send(ctx, invoice.ID)
	require.NoError(t, err)
	return invoice
}

func TestPaymentFullAmountMarksPaid(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	invoice := f.sentInvoice(t)

	payment, err := f.payments.Record(ctx, invoice.ID, decimal.NewFromInt(600), domain.PaymentMethodBankTransfer, nil)
	require.NoError(t, err)
	assert.True(t, payment.Amount.Equal(decimal.NewFromInt(600)))
	assert.Equal(t, testClock(), payment.PaidAt)

	updated, err := f.invoices.FindByID(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPaid, updated.Status)
}

func TestPaymentPartialThenFull(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	invoice := f.sentInvoice(t)

	_, err := f.payments.Record(ctx, invoice.ID, decimal.NewFromInt(200), domain.PaymentMethodCreditCard, nil)
	require.NoError(t, err)
	updated, err := f.invoices.FindByID(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPartiallyPaid, updated.Status)

	_, err = f.payments.Record(ctx, invoice.ID, decimal.NewFromInt(400), domain.PaymentMethodCreditCard, nil)
	require.NoError(t, err)
	updated, err = f.invoices.FindByID(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPaid, updated.Status)
	assert.Len(t, updated.Payments, 2)
}

func TestPaymentOverpaymentStillMarksPaid(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	invoice := f.sentInvoice(t)

	_, err := f.payments.Record(ctx, invoice.ID, decimal.NewFromInt(650), domain.PaymentMethodCash, nil)
	require.NoError(t, err)

	updated, err := f.invoices.FindByID(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPaid, updated.Status)
}

func TestPaymentRejectedOnCancelledInvoice(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	invoice := f.sentInvoice(t)
	_, err := f.invoices.Cancel(ctx, invoice.ID)
	require.NoError(t, err)

	_, err = f.payments.Record(ctx, invoice.ID, decimal.NewFromInt(100), domain.PaymentMethodCash, nil)
	require.Error(t, err)
	assert.True(t, util.IsCode(err, "INVALID_OPERATION"))
}

func TestPaymentRejectedOnPaidInvoice(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	invoice := f.sentInvoice(t)
	_, err := f.payments.Record(ctx, invoice.ID, decimal.NewFromInt(600), domain.PaymentMethodCheck, nil)
	require.NoError(t, err)

	_, err = f.payments.Record(ctx, invoice.ID, decimal.NewFromInt(1), domain.PaymentMethodCheck, nil)
	require.Error(t, err)
	assert.True(t, util.IsCode(err, "INVALID_OPERATION"))
}

func TestPaymentUnknownMethodRejected(t *testing.T) {
	f := newPaymentFixture(t)
	invoice := f.sentInvoice(t)

	_, err := f.payments.Record(context.Background(), invoice.ID, decimal.NewFromInt(10), domain.PaymentMethod("BARTER"), nil)
	require.Error(t, err)
	assert.True(t, util.IsCode(err, "VALIDATION_FAILED"))
}

func TestPaymentAmountRoundedToCents(t *testing.T) {
	f := newPaymentFixture(t)
	invoice := f.sentInvoice(t)

	payment, err := f.payments.Record(context.Background(), invoice.ID, decimal.NewFromFloat(10.005), domain.PaymentMethodOther, nil)
	require.NoError(t, err)
	assert.True(t, payment.Amount.Equal(decimal.NewFromFloat(10.01)), "amount = %s", payment.Amount)
}

func TestPaymentListByInvoice(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	invoice := f.sentInvoice(t)

	_, err := f.payments.Record(ctx, invoice.ID, decimal.NewFromInt(100), domain.PaymentMethodCash, nil)
	require.NoError(t, err)
	_, err = f.payments.Record(ctx, invoice.ID, decimal.NewFromInt(150), domain.PaymentMethodCash, nil)
	require.NoError(t, err)

	list, err := f.payments.ListByInvoice(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = f.payments.ListByInvoice(ctx, "missing")
	require.Error(t, err)
	assert.True(t, util.IsCode(err, "ENTITY_NOT_FOUND"))
}

func TestPaymentFindAllPaginates(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	invoice := f.sentInvoice(t)

	for i := 0; i < 3; i++ {
		_, err := f.payments.Record(ctx, invoice.ID, decimal.NewFromInt(50), domain.PaymentMethodCash, nil)
		require.NoError(t, err)
	}

	page, meta, err := f.payments.FindAll(ctx, PaymentListInput{InvoiceID: &invoice.ID, Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page, 2)
	assert.Equal(t, 3, meta.Total)
	assert.Equal(t, 2, meta.TotalPages)
	assert.True(t, meta.HasNextPage)
	assert.False(t, meta.HasPreviousPage)
}

func TestPaymentConcurrentRecordsOnlyOneSettles(t *testing.T) {
	f := newPaymentFixture(t)
	invoice := f.sentInvoice(t)
	ctx := context.Background()

	const attempts = 8
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.payments.Record(ctx, invoice.ID, decimal.NewFromInt(600), domain.PaymentMethodCash, nil)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded, rejected := 0, 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, util.IsCode(err, "INVALID_OPERATION"))
		rejected++
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, rejected)

	updated, err := f.invoices.FindByID(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPaid, updated.Status)
	assert.Len(t, updated.Payments, 1)
}
