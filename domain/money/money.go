// Package money provides line item value types and pure totals arithmetic.
// All amounts are decimal to keep currency math exact; rounding happens
// only at the formatting boundary, never mid-calculation.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// LineItem is a single billable line on an invoice or estimate.
// It is owned by its parent document and has no independent lifecycle.
type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxPct      decimal.Decimal `json:"tax_pct"`
	Amount      decimal.Decimal `json:"amount"`
}

var hundred = decimal.NewFromInt(100)

// LineTotal computes quantity × unitPrice × (1 + tax/100) for one item.
// This is a PURE function.
func LineTotal(it LineItem) decimal.Decimal {
	base := it.Quantity.Mul(it.UnitPrice)
	if it.TaxPct.IsZero() {
		return base
	}
	return base.Mul(decimal.NewFromInt(1).Add(it.TaxPct.Div(hundred)))
}

// Totals is the result of a totals computation.
type Totals struct {
	Subtotal decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals sums line totals, applies a document-level discount
// percentage and adds shipping. Performs no clamping or validation;
// callers reject bad inputs via Validate before calling.
// This is a PURE function.
func ComputeTotals(items []LineItem, discountPct, shipping decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(LineTotal(it))
	}

	discount := subtotal.Mul(discountPct).Div(hundred)
	return Totals{
		Subtotal: subtotal,
		Total:    subtotal.Sub(discount).Add(shipping),
	}
}

// WithAmounts returns a copy of items with each Amount set to its line
// total. This is a PURE function.
func WithAmounts(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	for i, it := range items {
		it.Amount = LineTotal(it)
		out[i] = it
	}
	return out
}

// Validate rejects inputs the calculator must never see: negative
// quantities, prices or shipping, and percentages outside 0-100.
func Validate(items []LineItem, discountPct, shipping decimal.Decimal) error {
	for i, it := range items {
		if it.Quantity.IsNegative() {
			return fmt.Errorf("item %d: quantity must not be negative", i)
		}
		if it.UnitPrice.IsNegative() {
			return fmt.Errorf("item %d: unit price must not be negative", i)
		}
		if err := validatePct(it.TaxPct); err != nil {
			return fmt.Errorf("item %d: tax %v", i, err)
		}
	}
	if err := validatePct(discountPct); err != nil {
		return fmt.Errorf("discount %v", err)
	}
	if shipping.IsNegative() {
		return fmt.Errorf("shipping must not be negative")
	}
	return nil
}

func validatePct(p decimal.Decimal) error {
	if p.IsNegative() || p.GreaterThan(hundred) {
		return fmt.Errorf("percentage must be between 0 and 100, got %s", p)
	}
	return nil
}

// Format renders an amount rounded to two decimal places for display.
// This is the only place rounding occurs.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}
