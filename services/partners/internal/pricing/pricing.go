// Package pricing computes cart totals with exact decimal arithmetic.
package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultTaxRate is the flat sales tax applied to the discounted subtotal.
var DefaultTaxRate = decimal.RequireFromString("0.14")

var ErrInvalidLine = errors.New("invalid pricing line")

type Line struct {
	Price    decimal.Decimal
	Quantity int
	// Discount is per unit.
	Discount decimal.Decimal
}

type Totals struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	DiscountTotal decimal.Decimal `json:"discount_total"`
	Tax           decimal.Decimal `json:"tax"`
	Total         decimal.Decimal `json:"total"`
}

type Calculator struct {
	Rate decimal.Decimal
}

func NewCalculator(rate decimal.Decimal) (*Calculator, error) {
	if rate.IsNegative() {
		return nil, fmt.Errorf("tax rate %s must not be negative", rate)
	}
	return &Calculator{Rate: rate}, nil
}

func (c *Calculator) Validate(l Line) error {
	switch {
	case l.Quantity <= 0:
		return fmt.Errorf("quantity %d must be positive: %w", l.Quantity, ErrInvalidLine)
	case l.Price.IsNegative():
		return fmt.Errorf("price %s must not be negative: %w", l.Price, ErrInvalidLine)
	case l.Discount.IsNegative():
		return fmt.Errorf("discount %s must not be negative: %w", l.Discount, ErrInvalidLine)
	case l.Discount.GreaterThan(l.Price):
		return fmt.Errorf("discount %s exceeds price %s: %w", l.Discount, l.Price, ErrInvalidLine)
	}
	return nil
}

// Compute returns exact totals:
// subtotal = sum(price*qty), discount = sum(discount*qty),
// tax = (subtotal-discount)*rate, total = subtotal-discount+tax.
func (c *Calculator) Compute(lines []Line) (Totals, error) {
	subtotal := decimal.Zero
	discount := decimal.Zero
	for i, l := range lines {
		if err := c.Validate(l); err != nil {
			return Totals{}, fmt.Errorf("line %d: %w", i, err)
		}
		qty := decimal.NewFromInt(int64(l.Quantity))
		subtotal = subtotal.Add(l.Price.Mul(qty))
		discount = discount.Add(l.Discount.Mul(qty))
	}

	tax := subtotal.Sub(discount).Mul(c.Rate)
	return Totals{
		Subtotal:      subtotal,
		DiscountTotal: discount,
		Tax:           tax,
		Total:         subtotal.Sub(discount).Add(tax),
	}, nil
}

// Round rounds each component half away from zero and rebuilds the total
// from the rounded parts.
func (t Totals) Round(places int32) Totals {
	sub := t.Subtotal.Round(places)
	disc := t.DiscountTotal.Round(places)
	tax := t.Tax.Round(places)
	return Totals{
		Subtotal:      sub,
		DiscountTotal: disc,
		Tax:           tax,
		Total:         sub.Sub(disc).Add(tax),
	}
}

func LineTotal(l Line) decimal.Decimal {
	return l.Price.Sub(l.Discount).Mul(decimal.NewFromInt(int64(l.Quantity)))
}
