package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/servicehub-platform/internal/domain"
	"github.com/spec-kit/servicehub-platform/pkg/util"
)

var repoClock = func() time.Time {
	return time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
}

func storedInvoice(t *testing.T, repo InvoiceRepository) *domain.Invoice {
	t.Helper()
	invoice := &domain.Invoice{
		Reference: "INV-20260315-0001",
		Status:    domain.InvoiceStatusDraft,
		IssueDate: repoClock(),
		DueDate:   repoClock().AddDate(0, 0, 30),
		Subtotal:  decimal.NewFromInt(100),
		TaxRate:   decimal.NewFromInt(20),
		TaxAmount: decimal.NewFromInt(20),
		Total:     decimal.NewFromInt(120),
		Lines: []domain.InvoiceLine{
			{Description: "support hours", Quantity: 2, UnitPrice: decimal.NewFromInt(50), Total: decimal.NewFromInt(100)},
		},
		CreatedByID: "u",
	}
	require.NoError(t, repo.Create(context.Background(), invoice))
	return invoice
}

func TestInvoiceGetByIDDetachesLines(t *testing.T) {
	repo := NewMemoryInvoiceRepositoryWithClock(repoClock)
	ctx := context.Background()
	created := storedInvoice(t, repo)

	fetched, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, fetched.Lines, 1)
	fetched.Lines[0].Description = "tampered"

	again, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "support hours", again.Lines[0].Description)
}

func TestInvoiceGetByIDDetachesPayments(t *testing.T) {
	repo := NewMemoryInvoiceRepositoryWithClock(repoClock)
	ctx := context.Background()
	created := storedInvoice(t, repo)

	require.NoError(t, repo.AddPayment(ctx, &domain.Payment{
		InvoiceID: created.ID,
		Amount:    decimal.NewFromInt(120),
		Method:    domain.PaymentMethodCash,
	}))

	fetched, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, fetched.Payments, 1)
	fetched.Payments[0].Amount = decimal.NewFromInt(1)

	again, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, again.Payments[0].Amount.Equal(decimal.NewFromInt(120)))
}

func TestInvoiceListZeroLimitUsesDefaultPageSize(t *testing.T) {
	repo := NewMemoryInvoiceRepositoryWithClock(repoClock)
	for i := 0; i < util.DefaultPageLimit+5; i++ {
		storedInvoice(t, repo)
	}

	invoices, err := repo.List(context.Background(), InvoiceFilter{})
	require.NoError(t, err)
	assert.Len(t, invoices, util.DefaultPageLimit)
}
