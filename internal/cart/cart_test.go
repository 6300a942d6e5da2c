package cart

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/apperr"
	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/model"
	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/pricing"
	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/storage"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func menuItem(id int, price string) model.MenuItem {
	return model.MenuItem{
		ID:        id,
		Name:      fmt.Sprintf("Item %d", id),
		Price:     model.FixedPrice(d(price)),
		Category:  model.CategoryMainCourses,
		Available: true,
	}
}

func seqIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("line-%d", n)
	}
}

func newStore(t *testing.T, kv storage.Store) *Store {
	t.Helper()
	if kv == nil {
		kv = storage.NewMemory(0)
	}
	s := New(kv, pricing.New(pricing.DefaultPolicy()), WithLineIDs(seqIDs()))
	t.Cleanup(s.Flush)
	return s
}

// failingStore rejects every write.
type failingStore struct {
	*storage.Memory
	mu    sync.Mutex
	fail  bool
	calls int
}

func (f *failingStore) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return errors.New("quota exceeded")
	}
	return f.Memory.Set(key, value)
}

func (f *failingStore) setFail(v bool) {
	f.mu.Lock()
	f.fail = v
	f.mu.Unlock()
}

func TestAddItemMergesByItemID(t *testing.T) {
	t.Parallel()

	s := newStore(t, nil)
	a := menuItem(1, "10.00")

	first, err := s.AddItem(a, 1, "no onions")
	require.NoError(t, err)
	second, err := s.AddItem(a, 2, "extra sauce")
	require.NoError(t, err)

	assert.Equal(t, first.CartLineID, second.CartLineID)
	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, "no onions", items[0].SpecialInstructions)

	b := s.Breakdown(model.OrderTypeDelivery).Rounded()
	assert.Equal(t, "30.00", b.Subtotal.StringFixed(2))
	assert.Equal(t, "2.48", b.Tax.StringFixed(2))
	assert.Equal(t, "5.99", b.DeliveryFee.StringFixed(2))
	assert.Equal(t, "38.47", b.Total.StringFixed(2))
}

func TestAddItemKeepsInsertionOrder(t *testing.T) {
	t.Parallel()

	s := newStore(t, nil)
	for _, id := range []int{3, 1, 2} {
		_, err := s.AddItem(menuItem(id, "5.00"), 1, "")
		require.NoError(t, err)
	}
	_, err := s.AddItem(menuItem(1, "5.00"), 4, "")
	require.NoError(t, err)

	var got []int
	for _, it := range s.Items() {
		got = append(got, it.ItemID)
	}
	assert.Equal(t, []int{3, 1, 2}, got)
	assert.Equal(t, 7, s.TotalItemCount())
}

func TestAddItemRejects(t *testing.T) {
	t.Parallel()

	s := newStore(t, nil)

	_, err := s.AddItem(menuItem(1, "10.00"), 0, "")
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	off := menuItem(2, "10.00")
	off.Available = false
	_, err = s.AddItem(off, 1, "")
	assert.ErrorIs(t, err, ErrItemUnavailable)
	assert.Equal(t, "item_unavailable", apperr.Kind(err))

	cocktails := model.MenuItem{ID: 8, Name: "Craft Cocktails", Price: model.RangePrice(d("14"), d("18")), Available: true}
	_, err = s.AddItem(cocktails, 1, "")
	var npe *pricing.NonComputablePriceError
	require.ErrorAs(t, err, &npe)
	assert.Equal(t, 8, npe.ItemID)

	assert.True(t, s.IsEmpty())
}

func TestSetQuantity(t *testing.T) {
	t.Parallel()

	s := newStore(t, nil)
	line, err := s.AddItem(menuItem(1, "10.00"), 2, "")
	require.NoError(t, err)

	require.NoError(t, s.SetQuantity(line.CartLineID, 5))
	assert.Equal(t, 5, s.Items()[0].Quantity)

	assert.ErrorIs(t, s.SetQuantity(line.CartLineID, 0), ErrInvalidQuantity)
	assert.ErrorIs(t, s.SetQuantity(line.CartLineID, -3), ErrInvalidQuantity)
	assert.Equal(t, 5, s.Items()[0].Quantity)

	require.NoError(t, s.SetQuantity("missing", 9))
	assert.Equal(t, 5, s.TotalItemCount())
}

func TestRemoveAndInstructions(t *testing.T) {
	t.Parallel()

	s := newStore(t, nil)
	a, err := s.AddItem(menuItem(1, "10.00"), 1, "")
	require.NoError(t, err)
	b, err := s.AddItem(menuItem(2, "4.00"), 1, "")
	require.NoError(t, err)

	s.SetInstructions(b.CartLineID, "well done")
	s.SetInstructions("missing", "ignored")
	s.RemoveItem("missing")
	s.RemoveItem(a.CartLineID)

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, b.CartLineID, items[0].CartLineID)
	assert.Equal(t, "well done", items[0].SpecialInstructions)

	s.Clear()
	assert.True(t, s.IsEmpty())
	assert.True(t, s.Subtotal().IsZero())
	assert.True(t, s.Tax().IsZero())
	assert.True(t, s.DeliveryFee(model.OrderTypePickup).IsZero())
}

func TestItemsReturnsCopy(t *testing.T) {
	t.Parallel()

	s := newStore(t, nil)
	_, err := s.AddItem(menuItem(1, "10.00"), 1, "")
	require.NoError(t, err)

	items := s.Items()
	items[0].Quantity = 99
	assert.Equal(t, 1, s.Items()[0].Quantity)
}

func TestRandomMutationsKeepInvariants(t *testing.T) {
	t.Parallel()

	s := newStore(t, nil)
	calc := pricing.New(pricing.DefaultPolicy())
	r := rand.New(rand.NewPCG(21, 42))

	for i := 0; i < 400; i++ {
		items := s.Items()
		switch op := r.IntN(5); {
		case op <= 1:
			_, err := s.AddItem(menuItem(1+r.IntN(6), fmt.Sprintf("%d.%02d", 1+r.IntN(40), r.IntN(100))), 1+r.IntN(4), "")
			require.NoError(t, err)
		case op == 2 && len(items) > 0:
			s.RemoveItem(items[r.IntN(len(items))].CartLineID)
		case op == 3 && len(items) > 0:
			q := r.IntN(6) - 1
			err := s.SetQuantity(items[r.IntN(len(items))].CartLineID, q)
			if q < 1 {
				require.ErrorIs(t, err, ErrInvalidQuantity)
			} else {
				require.NoError(t, err)
			}
		case op == 4 && r.IntN(10) == 0:
			s.Clear()
		}

		seen := map[int]bool{}
		for _, it := range s.Items() {
			require.GreaterOrEqual(t, it.Quantity, 1)
			require.False(t, seen[it.ItemID], "duplicate line for item %d", it.ItemID)
			seen[it.ItemID] = true
		}
		require.True(t, s.Total(model.OrderTypeDelivery).Equal(calc.Total(s.Items(), model.OrderTypeDelivery)))
	}
}

func TestPersistAndRestore(t *testing.T) {
	t.Parallel()

	kv := storage.NewMemory(0)
	s := newStore(t, kv)
	_, err := s.AddItem(menuItem(1, "12.50"), 2, "extra crispy")
	require.NoError(t, err)
	_, err = s.AddItem(menuItem(2, "3.25"), 1, "")
	require.NoError(t, err)
	s.Flush()
	require.NoError(t, s.PersistError())

	restored := newStore(t, kv)
	want, got := s.Items(), restored.Items()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].CartLineID, got[i].CartLineID)
		assert.Equal(t, want[i].Quantity, got[i].Quantity)
		assert.Equal(t, want[i].SpecialInstructions, got[i].SpecialInstructions)
		assert.True(t, want[i].Price.Equal(got[i].Price), "price %s != %s", want[i].Price, got[i].Price)
	}
	assert.True(t, restored.Subtotal().Equal(d("28.25")))
}

func TestRestoreDiscardsBadData(t *testing.T) {
	t.Parallel()

	kv := storage.NewMemory(0)
	require.NoError(t, kv.Set(storage.KeyCart, "{not json"))
	assert.True(t, newStore(t, kv).IsEmpty())

	require.NoError(t, kv.Set(storage.KeyCart, `[{"cartLineId":"a","itemId":1,"price":"2","quantity":0},{"cartLineId":"b","itemId":2,"price":"3","quantity":2}]`))
	s := newStore(t, kv)
	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "b", items[0].CartLineID)
}

func TestRestoreDeduplicates(t *testing.T) {
	t.Parallel()

	kv := storage.NewMemory(0)
	require.NoError(t, kv.Set(storage.KeyCart, `[
		{"cartLineId":"a","itemId":1,"price":"2","quantity":1},
		{"cartLineId":"a","itemId":2,"price":"3","quantity":4},
		{"cartLineId":"b","itemId":3,"price":"5","quantity":1},
		{"cartLineId":"c","itemId":1,"price":"2","quantity":2}
	]`))

	items := newStore(t, kv).Items()
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].CartLineID)
	assert.Equal(t, 1, items[0].ItemID)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, "b", items[1].CartLineID)
}

func TestRemoveOrdered(t *testing.T) {
	t.Parallel()

	s := newStore(t, nil)
	_, err := s.AddItem(menuItem(1, "10.00"), 2, "")
	require.NoError(t, err)
	_, err = s.AddItem(menuItem(2, "4.00"), 1, "")
	require.NoError(t, err)
	ordered := s.Items()

	// Changes made after the snapshot survive.
	_, err = s.AddItem(menuItem(1, "10.00"), 3, "")
	require.NoError(t, err)
	_, err = s.AddItem(menuItem(3, "6.00"), 1, "")
	require.NoError(t, err)

	s.RemoveOrdered(ordered)

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, 1, items[0].ItemID)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, 3, items[1].ItemID)

	s.RemoveOrdered(ordered[1:])
	assert.Len(t, s.Items(), 2, "already removed lines are ignored")
}

func TestPersistFailureKeepsMemoryState(t *testing.T) {
	t.Parallel()

	kv := &failingStore{Memory: storage.NewMemory(0), fail: true}
	s := newStore(t, kv)

	_, err := s.AddItem(menuItem(1, "10.00"), 1, "")
	require.NoError(t, err)
	s.Flush()

	require.Error(t, s.PersistError())
	assert.Equal(t, 1, s.TotalItemCount())

	kv.setFail(false)
	_, err = s.AddItem(menuItem(1, "10.00"), 1, "")
	require.NoError(t, err)
	s.Flush()
	require.NoError(t, s.PersistError())

	raw, err := kv.Get(storage.KeyCart)
	require.NoError(t, err)
	assert.Contains(t, raw, `"quantity":2`)
}

func TestNoOpMutationsDoNotPersist(t *testing.T) {
	t.Parallel()

	kv := &failingStore{Memory: storage.NewMemory(0)}
	s := newStore(t, kv)

	line, err := s.AddItem(menuItem(1, "10.00"), 2, "")
	require.NoError(t, err)
	s.Flush()

	s.RemoveItem("missing")
	require.NoError(t, s.SetQuantity(line.CartLineID, 2))
	s.SetInstructions(line.CartLineID, "")
	s.Flush()

	kv.mu.Lock()
	defer kv.mu.Unlock()
	assert.Equal(t, 1, kv.calls)
}

func TestConcurrentMutationsPersistLatest(t *testing.T) {
	t.Parallel()

	kv := storage.NewMemory(0)
	s := newStore(t, kv)

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_, err := s.AddItem(menuItem(id, "1.00"), 1, "")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	s.Flush()

	assert.Equal(t, 20, s.TotalItemCount())
	restored := newStore(t, kv)
	assert.Equal(t, 20, restored.TotalItemCount())
}
