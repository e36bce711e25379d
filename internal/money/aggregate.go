// Package money computes per-line and per-document monetary totals with
// fixed-point decimals. Rounding (half-up, 2 places) is applied once at each
// aggregation boundary; intermediate sums are always re-derived from source
// values so rounding drift cannot compound.
package money

import (
	"github.com/shopspring/decimal"

	"erp-backend/pkg/apperror"
)

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// Line is the pricing input of a single document line.
type Line struct {
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
	DiscountAmount  decimal.Decimal
	TaxRate         decimal.Decimal
}

// Totals are the computed header amounts of a document.
type Totals struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	TotalAmount    decimal.Decimal
}

// Round applies the document rounding rule: half-up to 2 decimal places.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ValidateLine rejects inputs that must never reach aggregation.
func ValidateLine(l Line) error {
	if !l.Quantity.IsPositive() {
		return apperror.Validation("quantity", "must be greater than zero")
	}
	if l.UnitPrice.IsNegative() {
		return apperror.Validation("unit_price", "must not be negative")
	}
	if l.DiscountPercent.IsNegative() || l.DiscountPercent.GreaterThan(hundred) {
		return apperror.Validation("discount_percent", "must be between 0 and 100")
	}
	if l.DiscountAmount.IsNegative() {
		return apperror.Validation("discount_amount", "must not be negative")
	}
	if l.TaxRate.IsNegative() {
		return apperror.Validation("tax_rate", "must not be negative")
	}
	return nil
}

// lineNet is the unrounded net amount of a line:
// qty * price * (1 - discountPercent/100) - discountAmount.
func lineNet(l Line) decimal.Decimal {
	gross := l.Quantity.Mul(l.UnitPrice)
	discounted := gross.Mul(one.Sub(l.DiscountPercent.Div(hundred)))
	return discounted.Sub(l.DiscountAmount)
}

// lineTax is the unrounded tax amount of a line (tax-exclusive convention:
// tax is accumulated into the header, never folded into the line total).
func lineTax(l Line) decimal.Decimal {
	return lineNet(l).Mul(l.TaxRate.Div(hundred))
}

// LineTotal returns the rounded net amount persisted on the line.
func LineTotal(l Line) decimal.Decimal {
	return Round(lineNet(l))
}

// Aggregate computes document totals from source line values.
// subtotal = round(sum of raw line nets); taxAmount = round(sum of raw line
// taxes); headerDiscount = round(subtotal * percent/100);
// total = subtotal - headerDiscount + tax + shipping.
func Aggregate(lines []Line, headerDiscountPercent, shippingCost decimal.Decimal) (Totals, error) {
	if headerDiscountPercent.IsNegative() || headerDiscountPercent.GreaterThan(hundred) {
		return Totals{}, apperror.Validation("discount_percent", "must be between 0 and 100")
	}
	if shippingCost.IsNegative() {
		return Totals{}, apperror.Validation("shipping_cost", "must not be negative")
	}

	rawSubtotal := decimal.Zero
	rawTax := decimal.Zero
	for _, l := range lines {
		if err := ValidateLine(l); err != nil {
			return Totals{}, err
		}
		rawSubtotal = rawSubtotal.Add(lineNet(l))
		rawTax = rawTax.Add(lineTax(l))
	}

	subtotal := Round(rawSubtotal)
	taxAmount := Round(rawTax)
	discountAmount := Round(subtotal.Mul(headerDiscountPercent.Div(hundred)))
	total := subtotal.Sub(discountAmount).Add(taxAmount).Add(Round(shippingCost))

	return Totals{
		Subtotal:       subtotal,
		DiscountAmount: discountAmount,
		TaxAmount:      taxAmount,
		TotalAmount:    total,
	}, nil
}
