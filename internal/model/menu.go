// Package model defines the domain records shared by the ordering core:
// menu items, cart lines, checkout input, payment results and confirmations.
// JSON tags follow the camelCase shape the storefront already persists.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Category groups menu items. It also selects the base preparation time.
type Category string

const (
	CategoryStarters    Category = "starters"
	CategoryMainCourses Category = "mainCourses"
	CategoryPasta       Category = "pasta"
	CategorySides       Category = "sides"
	CategoryDesserts    Category = "desserts"
	CategoryBeverages   Category = "beverages"
)

// MenuItem is a catalog entry. The core only reads it.
type MenuItem struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       Price    `json:"price"`
	Category    Category `json:"category"`
	Image       string   `json:"image"`
	Dietary     []string `json:"dietary"`
	Allergens   []string `json:"allergens,omitempty"`
	PortionSize string   `json:"portionSize,omitempty"`
	Featured    bool     `json:"featured"`
	Available   bool     `json:"available"`
}

// PriceKind tells a fixed price from a display-only range.
type PriceKind int

const (
	PriceFixed PriceKind = iota
	PriceRange
)

// Price is either a fixed amount or a low-high range shown for display only.
type Price struct {
	kind   PriceKind
	amount decimal.Decimal
	low    decimal.Decimal
	high   decimal.Decimal
}

// FixedPrice returns a purchasable price.
func FixedPrice(amount decimal.Decimal) Price {
	return Price{kind: PriceFixed, amount: amount}
}

// RangePrice returns a display-only price range.
func RangePrice(low, high decimal.Decimal) Price {
	return Price{kind: PriceRange, low: low, high: high}
}

func (p Price) Kind() PriceKind { return p.kind }

// Amount reports the fixed amount; ok is false for a range.
func (p Price) Amount() (amount decimal.Decimal, ok bool) {
	if p.kind != PriceFixed {
		return decimal.Zero, false
	}
	return p.amount, true
}

// Bounds reports the range bounds; ok is false for a fixed price.
func (p Price) Bounds() (low, high decimal.Decimal, ok bool) {
	if p.kind != PriceRange {
		return decimal.Zero, decimal.Zero, false
	}
	return p.low, p.high, true
}

func (p Price) String() string {
	if p.kind == PriceRange {
		return p.low.StringFixed(2) + " - " + p.high.StringFixed(2)
	}
	return p.amount.StringFixed(2)
}

// MarshalJSON writes a fixed price as a number and a range as "low - high".
func (p Price) MarshalJSON() ([]byte, error) {
	if p.kind == PriceRange {
		return json.Marshal(p.String())
	}
	return []byte(p.amount.String()), nil
}

// UnmarshalJSON accepts a number, a quoted number or a quoted "low - high" range.
func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		return p.parse(s)
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("price: %w", err)
	}
	*p = FixedPrice(d)
	return nil
}

func (p *Price) parse(s string) error {
	lowStr, highStr, isRange := strings.Cut(s, " - ")
	if !isRange {
		d, err := decimal.NewFromString(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("price %q: %w", s, err)
		}
		*p = FixedPrice(d)
		return nil
	}
	low, err := decimal.NewFromString(strings.TrimSpace(lowStr))
	if err != nil {
		return fmt.Errorf("price %q: %w", s, err)
	}
	high, err := decimal.NewFromString(strings.TrimSpace(highStr))
	if err != nil {
		return fmt.Errorf("price %q: %w", s, err)
	}
	if high.LessThan(low) {
		return fmt.Errorf("price %q: high bound below low bound", s)
	}
	*p = RangePrice(low, high)
	return nil
}
