// Package pricing computes cart subtotals and the storefront's tier discount.
//
// Tiers are a step function on the subtotal: only the highest threshold met
// applies, they never stack.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/Madhav-Gupta-28/o2herbal-backend-go/models"
)

// Tier grants Discount once the subtotal reaches Threshold.
type Tier struct {
	Threshold decimal.Decimal `json:"threshold"`
	Discount  decimal.Decimal `json:"discount"`
}

// Tiers is ordered from the highest threshold down.
var Tiers = []Tier{
	{Threshold: decimal.NewFromInt(2000), Discount: decimal.NewFromInt(200)},
	{Threshold: decimal.NewFromInt(1500), Discount: decimal.NewFromInt(150)},
	{Threshold: decimal.NewFromInt(1000), Discount: decimal.NewFromInt(100)},
	{Threshold: decimal.NewFromInt(500), Discount: decimal.NewFromInt(50)},
}

// Line is one cart entry.
type Line struct {
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

// NextTier tells the shopper how much more unlocks the next discount.
type NextTier struct {
	Threshold decimal.Decimal `json:"threshold"`
	Discount  decimal.Decimal `json:"discount"`
	Remaining decimal.Decimal `json:"remaining"`
}

type Quote struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
	Next     *NextTier       `json:"nextTier,omitempty"`
}

// Discount returns the discount of the highest tier subtotal reaches.
func Discount(subtotal decimal.Decimal) decimal.Decimal {
	for _, t := range Tiers {
		if subtotal.GreaterThanOrEqual(t.Threshold) {
			return t.Discount
		}
	}
	return decimal.Zero
}

func nextTier(subtotal decimal.Decimal) *NextTier {
	var next *NextTier
	for _, t := range Tiers {
		if subtotal.LessThan(t.Threshold) {
			next = &NextTier{
				Threshold: t.Threshold,
				Discount:  t.Discount,
				Remaining: t.Threshold.Sub(subtotal),
			}
		}
	}
	return next
}

// Subtotal sums unitPrice × quantity. Negative prices or quantities are rejected.
func Subtotal(lines []Line) (decimal.Decimal, error) {
	sum := decimal.Zero
	for i, l := range lines {
		if l.UnitPrice.IsNegative() {
			return decimal.Zero, models.Invalid("unitPrice", "line %d: unit price must not be negative", i)
		}
		if l.Quantity < 0 {
			return decimal.Zero, models.Invalid("quantity", "line %d: quantity must not be negative", i)
		}
		sum = sum.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum, nil
}

// Price quotes a cart: subtotal, tier discount and the final total.
func Price(lines []Line) (Quote, error) {
	subtotal, err := Subtotal(lines)
	if err != nil {
		return Quote{}, err
	}
	discount := Discount(subtotal)
	return Quote{
		Subtotal: subtotal,
		Discount: discount,
		Total:    subtotal.Sub(discount),
		Next:     nextTier(subtotal),
	}, nil
}

// Accepts reports whether a client-declared total matches the quote, either
// as the plain subtotal or as the discounted total, compared to the cent.
func (q Quote) Accepts(declared decimal.Decimal) bool {
	d := declared.Round(2)
	return d.Equal(q.Total.Round(2)) || d.Equal(q.Subtotal.Round(2))
}
