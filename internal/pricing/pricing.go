// Package pricing turns cart lines into a price breakdown.
//
// All arithmetic is decimal and unrounded; rounding to cents happens only
// when a value is prepared for display (Breakdown.Rounded, FormatCurrency).
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/apperr"
	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/model"
)

// ErrNonComputablePrice matches every *NonComputablePriceError via errors.Is.
var ErrNonComputablePrice = apperr.New("non_computable_price", "price is a display-only range")

// NonComputablePriceError reports a menu item whose price is a range.
type NonComputablePriceError struct {
	ItemID int
	Name   string
	Price  model.Price
}

func (e *NonComputablePriceError) Error() string {
	return fmt.Sprintf("item %d (%s) has a range price %s and cannot be priced", e.ItemID, e.Name, e.Price)
}

func (e *NonComputablePriceError) Kind() string { return ErrNonComputablePrice.Kind() }

func (e *NonComputablePriceError) Is(target error) bool { return target == ErrNonComputablePrice }

// UnitPrice returns the purchasable price of a menu item.
// Range prices are rejected rather than reduced to a bound.
func UnitPrice(item model.MenuItem) (decimal.Decimal, error) {
	amount, ok := item.Price.Amount()
	if !ok {
		return decimal.Zero, &NonComputablePriceError{ItemID: item.ID, Name: item.Name, Price: item.Price}
	}
	return amount, nil
}

// Policy holds the pricing constants.
type Policy struct {
	TaxRate               decimal.Decimal
	FreeDeliveryThreshold decimal.Decimal
	StandardDeliveryFee   decimal.Decimal
}

// DefaultPolicy returns the restaurant's current pricing constants:
// 8.25% tax, free delivery from $50.00, otherwise a $5.99 fee.
func DefaultPolicy() Policy {
	return Policy{
		TaxRate:               decimal.RequireFromString("0.0825"),
		FreeDeliveryThreshold: decimal.RequireFromString("50.00"),
		StandardDeliveryFee:   decimal.RequireFromString("5.99"),
	}
}

// Breakdown is the derived price of a cart.
type Breakdown struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	Tax         decimal.Decimal `json:"tax"`
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
	Total       decimal.Decimal `json:"total"`
}

// Rounded rounds every field to cents. Total is rounded from the exact sum,
// so it may differ by a cent from the sum of the rounded parts.
func (b Breakdown) Rounded() Breakdown {
	return Breakdown{
		Subtotal:    b.Subtotal.Round(2),
		Tax:         b.Tax.Round(2),
		DeliveryFee: b.DeliveryFee.Round(2),
		Total:       b.Total.Round(2),
	}
}

// Calculator computes price breakdowns under a Policy. It holds no cart state.
type Calculator struct {
	policy Policy
}

// New returns a Calculator for p.
func New(p Policy) *Calculator {
	return &Calculator{policy: p}
}

// Policy returns the constants the calculator uses.
func (c *Calculator) Policy() Policy { return c.policy }

// Subtotal is the sum of price times quantity over items.
func (c *Calculator) Subtotal(items []model.LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.LineTotal())
	}
	return sum
}

// Tax is the subtotal times the tax rate.
func (c *Calculator) Tax(items []model.LineItem) decimal.Decimal {
	return c.taxOn(c.Subtotal(items))
}

// DeliveryFee is zero for pickup or when the subtotal reaches the free
// delivery threshold, the standard fee otherwise.
func (c *Calculator) DeliveryFee(items []model.LineItem, orderType model.OrderType) decimal.Decimal {
	return c.feeOn(c.Subtotal(items), orderType)
}

// Total is subtotal plus tax plus delivery fee.
func (c *Calculator) Total(items []model.LineItem, orderType model.OrderType) decimal.Decimal {
	return c.Breakdown(items, orderType).Total
}

// Breakdown computes every derived value in one pass.
func (c *Calculator) Breakdown(items []model.LineItem, orderType model.OrderType) Breakdown {
	subtotal := c.Subtotal(items)
	tax := c.taxOn(subtotal)
	fee := c.feeOn(subtotal, orderType)
	return Breakdown{
		Subtotal:    subtotal,
		Tax:         tax,
		DeliveryFee: fee,
		Total:       subtotal.Add(tax).Add(fee),
	}
}

func (c *Calculator) taxOn(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(c.policy.TaxRate)
}

func (c *Calculator) feeOn(subtotal decimal.Decimal, orderType model.OrderType) decimal.Decimal {
	if orderType == model.OrderTypePickup || subtotal.GreaterThanOrEqual(c.policy.FreeDeliveryThreshold) {
		return decimal.Zero
	}
	return c.policy.StandardDeliveryFee
}

var usd = message.NewPrinter(language.AmericanEnglish)

// FormatCurrency renders amount as US dollars rounded to cents, e.g. $1,234.50.
func FormatCurrency(amount decimal.Decimal) string {
	rounded := amount.Round(2)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Neg()
	}
	whole := rounded.Truncate(0)
	cents := rounded.Sub(whole).Shift(2).IntPart()
	return fmt.Sprintf("%s$%s.%02d", sign, usd.Sprintf("%d", whole.IntPart()), cents)
}
