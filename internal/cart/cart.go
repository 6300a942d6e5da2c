// Package cart holds the customer's cart: the ordered list of line items,
// the operations that change it, and the price reads derived from it.
//
// A Store is created once by the application root and injected wherever it
// is needed. Every effective mutation is persisted in the background; the
// in-memory state stays authoritative when a write fails.
package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/apperr"
	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/model"
	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/pricing"
	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/storage"
)

var (
	ErrInvalidQuantity = apperr.New("invalid_quantity", "quantity must be at least 1")
	ErrItemUnavailable = apperr.New("item_unavailable", "item is not available")
)

// Store is a goroutine-safe cart backed by a storage.Store.
type Store struct {
	kv     storage.Store
	calc   *pricing.Calculator
	logger *zap.Logger
	newID  func() string

	mu      sync.Mutex
	items   []model.LineItem
	version uint64

	persistMu  sync.Mutex
	written    uint64
	persistErr error
	pending    sync.WaitGroup
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLineIDs sets the cart line id generator.
func WithLineIDs(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// New returns a Store restored from kv. Missing or undecodable data gives
// an empty cart.
func New(kv storage.Store, calc *pricing.Calculator, opts ...Option) *Store {
	s := &Store{
		kv:     kv,
		calc:   calc,
		logger: zap.NewNop(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.restore()
	return s
}

func (s *Store) restore() {
	raw, err := s.kv.Get(storage.KeyCart)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("cart restore failed", zap.Error(err))
		}
		return
	}
	var items []model.LineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.logger.Warn("discarding undecodable cart", zap.Error(err))
		return
	}
	s.items = normalize(items, s.logger)
}

// normalize drops invalid lines and lines repeating a cart line id, and
// folds lines for the same menu item into the first one.
func normalize(items []model.LineItem, logger *zap.Logger) []model.LineItem {
	var (
		kept    []model.LineItem
		lineIDs = map[string]bool{}
		byItem  = map[int]int{}
	)
	for _, it := range items {
		switch {
		case it.Quantity < 1 || it.CartLineID == "":
			logger.Warn("dropping invalid cart line", zap.String("cart_line_id", it.CartLineID), zap.Int("quantity", it.Quantity))
			continue
		case lineIDs[it.CartLineID]:
			logger.Warn("dropping duplicate cart line", zap.String("cart_line_id", it.CartLineID))
			continue
		}
		lineIDs[it.CartLineID] = true

		if i, ok := byItem[it.ItemID]; ok {
			logger.Warn("merging duplicate menu item", zap.Int("item_id", it.ItemID), zap.String("cart_line_id", it.CartLineID))
			kept[i].Quantity += it.Quantity
			continue
		}
		byItem[it.ItemID] = len(kept)
		kept = append(kept, it)
	}
	return kept
}

// AddItem adds quantity of item. If a line for the same menu item exists,
// its quantity grows and instructions of this addition are discarded.
// It returns the resulting line.
func (s *Store) AddItem(item model.MenuItem, quantity int, instructions string) (model.LineItem, error) {
	if quantity < 1 {
		return model.LineItem{}, ErrInvalidQuantity
	}
	if !item.Available {
		return model.LineItem{}, fmt.Errorf("item %d: %w", item.ID, ErrItemUnavailable)
	}
	price, err := pricing.UnitPrice(item)
	if err != nil {
		return model.LineItem{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ItemID == item.ID {
			s.items[i].Quantity += quantity
			s.changed()
			return s.items[i], nil
		}
	}

	line := model.LineItem{
		CartLineID:          s.newID(),
		ItemID:              item.ID,
		Name:                item.Name,
		Description:         item.Description,
		Price:               price,
		Image:               item.Image,
		Quantity:            quantity,
		SpecialInstructions: instructions,
		Category:            item.Category,
	}
	s.items = append(s.items, line)
	s.changed()
	return line, nil
}

// RemoveItem deletes the line. Unknown ids are ignored.
func (s *Store) RemoveItem(lineID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(lineID)
	if i < 0 {
		return
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	s.changed()
}

// SetQuantity replaces a line's quantity. Quantities below 1 are rejected
// without changing the cart; unknown ids are ignored.
func (s *Store) SetQuantity(lineID string, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(lineID)
	if i < 0 || s.items[i].Quantity == quantity {
		return nil
	}
	s.items[i].Quantity = quantity
	s.changed()
	return nil
}

// SetInstructions replaces a line's special instructions. Unknown ids are ignored.
func (s *Store) SetInstructions(lineID, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(lineID)
	if i < 0 || s.items[i].SpecialInstructions == text {
		return
	}
	s.items[i].SpecialInstructions = text
	s.changed()
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.items) == 0 {
		return
	}
	s.items = nil
	s.changed()
}

// RemoveOrdered takes the ordered lines out of the cart. A line whose
// quantity grew since it was ordered keeps the extra units; lines added
// in the meantime stay untouched.
func (s *Store) RemoveOrdered(ordered []model.LineItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for _, o := range ordered {
		i := s.index(o.CartLineID)
		if i < 0 {
			continue
		}
		changed = true
		if s.items[i].Quantity > o.Quantity {
			s.items[i].Quantity -= o.Quantity
			continue
		}
		s.items = append(s.items[:i], s.items[i+1:]...)
	}
	if changed {
		s.changed()
	}
}

// IsEmpty reports whether the cart has no lines.
func (s *Store) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items) == 0
}

// Items returns a copy of the lines in insertion order.
func (s *Store) Items() []model.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// TotalItemCount is the sum of quantities.
func (s *Store) TotalItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

func (s *Store) Subtotal() decimal.Decimal { return s.calc.Subtotal(s.Items()) }
func (s *Store) Tax() decimal.Decimal      { return s.calc.Tax(s.Items()) }

func (s *Store) DeliveryFee(orderType model.OrderType) decimal.Decimal {
	return s.calc.DeliveryFee(s.Items(), orderType)
}

func (s *Store) Total(orderType model.OrderType) decimal.Decimal {
	return s.calc.Total(s.Items(), orderType)
}

// Breakdown prices the current cart for orderType.
func (s *Store) Breakdown(orderType model.OrderType) pricing.Breakdown {
	return s.calc.Breakdown(s.Items(), orderType)
}

func (s *Store) index(lineID string) int {
	for i := range s.items {
		if s.items[i].CartLineID == lineID {
			return i
		}
	}
	return -1
}

func (s *Store) snapshot() []model.LineItem {
	out := make([]model.LineItem, len(s.items))
	copy(out, s.items)
	return out
}
