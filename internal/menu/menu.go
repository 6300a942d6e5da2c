// Package menu serves the restaurant's static catalog.
package menu

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"

	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/apperr"
	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/model"
)

//go:embed catalog.json
var catalogJSON []byte

// ErrUnknownItem is returned by Lookup for an id not in the catalog.
var ErrUnknownItem = apperr.New("unknown_item", "menu item not found")

// Categories in menu order.
var Categories = []model.Category{
	model.CategoryStarters,
	model.CategoryMainCourses,
	model.CategoryPasta,
	model.CategorySides,
	model.CategoryDesserts,
	model.CategoryBeverages,
}

// Catalog is a read-only set of menu items.
type Catalog struct {
	items []model.MenuItem
	byID  map[int]int
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := decode(catalogJSON)
	if err != nil {
		panic(fmt.Sprintf("menu: built-in catalog: %v", err))
	}
	return c
}

// Load reads a catalog from a JSON array of menu items.
func Load(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("menu: read: %w", err)
	}
	return decode(data)
}

// New builds a catalog from items. Duplicate ids are an error.
func New(items []model.MenuItem) (*Catalog, error) {
	c := &Catalog{items: make([]model.MenuItem, 0, len(items)), byID: make(map[int]int, len(items))}
	for _, it := range items {
		if _, dup := c.byID[it.ID]; dup {
			return nil, fmt.Errorf("menu: duplicate item id %d", it.ID)
		}
		c.byID[it.ID] = len(c.items)
		c.items = append(c.items, it)
	}
	return c, nil
}

func decode(data []byte) (*Catalog, error) {
	var items []model.MenuItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("menu: decode: %w", err)
	}
	return New(items)
}

// Lookup returns the item with id.
func (c *Catalog) Lookup(id int) (model.MenuItem, error) {
	i, ok := c.byID[id]
	if !ok {
		return model.MenuItem{}, fmt.Errorf("item %d: %w", id, ErrUnknownItem)
	}
	return c.items[i], nil
}

// All returns every item in catalog order.
func (c *Catalog) All() []model.MenuItem {
	out := make([]model.MenuItem, len(c.items))
	copy(out, c.items)
	return out
}

// Available returns available items grouped by category.
func (c *Catalog) Available() map[model.Category][]model.MenuItem {
	out := make(map[model.Category][]model.MenuItem, len(Categories))
	for _, it := range c.items {
		if it.Available {
			out[it.Category] = append(out[it.Category], it)
		}
	}
	return out
}

// Featured returns featured items in catalog order.
func (c *Catalog) Featured() []model.MenuItem {
	var out []model.MenuItem
	for _, it := range c.items {
		if it.Featured {
			out = append(out, it)
		}
	}
	return out
}
