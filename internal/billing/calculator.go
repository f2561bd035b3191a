package billing

import "github.com/shopspring/decimal"

// LineInput is the minimal shape the calculator needs from an invoice line.
// A zero Quantity is treated as 1.
type LineInput struct {
	Quantity  int
	UnitPrice decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// Round2 rounds half-up to two decimal places. Every monetary value crossing
// a computation boundary goes through this.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// LineTotal computes quantity * unitPrice rounded to two places.
func LineTotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return Round2(decimal.NewFromInt(int64(quantity)).Mul(unitPrice))
}

// Subtotal sums the rounded line totals. Absent quantities default to 1.
func Subtotal(lines []LineInput) decimal.Decimal {
	sum := decimal.Zero
	for _, line := range lines {
		quantity := line.Quantity
		if quantity == 0 {
			quantity = 1
		}
		sum = sum.Add(LineTotal(quantity, line.UnitPrice))
	}
	return Round2(sum)
}

// TaxAmount computes subtotal * taxRate/100 rounded to two places.
func TaxAmount(subtotal, taxRate decimal.Decimal) decimal.Decimal {
	return Round2(subtotal.Mul(taxRate.Div(hundred)))
}

// Total computes subtotal plus tax, rounded to two places.
func Total(subtotal, taxRate decimal.Decimal) decimal.Decimal {
	return Round2(subtotal.Add(TaxAmount(subtotal, taxRate)))
}

// Remaining computes total minus paid, rounded to two places.
func Remaining(total, paid decimal.Decimal) decimal.Decimal {
	return Round2(total.Sub(paid))
}

// IsFullyPaid reports whether paid covers total.
func IsFullyPaid(total, paid decimal.Decimal) bool {
	return paid.GreaterThanOrEqual(total)
}

// IsPartiallyPaid reports whether any positive amount has been paid.
func IsPartiallyPaid(paid decimal.Decimal) bool {
	return paid.GreaterThan(decimal.Zero)
}
