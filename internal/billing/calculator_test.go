package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestLineTotal(t *testing.T) {
	assert.True(t, dec("100.00").Equal(LineTotal(2, dec("50"))))
	assert.True(t, dec("0.10").Equal(LineTotal(3, dec("0.033"))))
	assert.True(t, dec("0").Equal(LineTotal(5, dec("0"))))
}

func TestSubtotal(t *testing.T) {
	lines := []LineInput{
		{Quantity: 2, UnitPrice: dec("50")},
		{Quantity: 1, UnitPrice: dec("100")},
	}
	assert.True(t, dec("200.00").Equal(Subtotal(lines)))
}

func TestSubtotalDefaultsQuantityToOne(t *testing.T) {
	lines := []LineInput{{UnitPrice: dec("19.99")}}
	assert.True(t, dec("19.99").Equal(Subtotal(lines)))
}

func TestSubtotalRoundsPerLine(t *testing.T) {
	// each line rounds before summing: 3*0.335 = 1.005 -> 1.01 (twice)
	lines := []LineInput{
		{Quantity: 3, UnitPrice: dec("0.335")},
		{Quantity: 3, UnitPrice: dec("0.335")},
	}
	assert.True(t, dec("2.02").Equal(Subtotal(lines)))
}

func TestTaxAndTotal(t *testing.T) {
	subtotal := dec("200.00")
	assert.True(t, dec("40.00").Equal(TaxAmount(subtotal, dec("20"))))
	assert.True(t, dec("240.00").Equal(Total(subtotal, dec("20"))))

	// total always equals subtotal + taxAmount after rounding
	subtotal = dec("33.33")
	tax := TaxAmount(subtotal, dec("19.6"))
	assert.True(t, Total(subtotal, dec("19.6")).Equal(Round2(subtotal.Add(tax))))
}

func TestRemaining(t *testing.T) {
	assert.True(t, dec("150.00").Equal(Remaining(dec("240.00"), dec("90.00"))))
	assert.True(t, dec("-10.00").Equal(Remaining(dec("240.00"), dec("250.00"))))
}

func TestPaidPredicates(t *testing.T) {
	assert.True(t, IsFullyPaid(dec("240.00"), dec("240.00")))
	assert.True(t, IsFullyPaid(dec("240.00"), dec("300.00")))
	assert.False(t, IsFullyPaid(dec("240.00"), dec("239.99")))

	assert.True(t, IsPartiallyPaid(dec("0.01")))
	assert.False(t, IsPartiallyPaid(dec("0")))
}
