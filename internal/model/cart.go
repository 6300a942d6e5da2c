package model

import "github.com/shopspring/decimal"

// LineItem is one cart entry. CartLineID is its identity; ItemID references
// the menu item and is what additions merge on.
type LineItem struct {
	CartLineID          string          `json:"cartLineId"`
	ItemID              int             `json:"itemId"`
	Name                string          `json:"name"`
	Description         string          `json:"description"`
	Price               decimal.Decimal `json:"price"`
	Image               string          `json:"image"`
	Quantity            int             `json:"quantity"`
	SpecialInstructions string          `json:"specialInstructions"`
	Category            Category        `json:"category"`
}

// LineTotal is price times quantity, unrounded.
func (l LineItem) LineTotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
