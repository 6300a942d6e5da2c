package cart

import (
	"context"
	"fmt"
	"testing"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"

	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/apperr"
	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/model"
	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/pricing"
	"github.com/mrnaveenwoodworks/bistro-deluxe/internal/storage"
)

type cartTestContext struct {
	kv    *storage.Memory
	calc  *pricing.Calculator
	store *Store
	err   error
}

func (c *cartTestContext) reset() {
	c.kv = storage.NewMemory(0)
	c.calc = pricing.New(pricing.DefaultPolicy())
	c.store = New(c.kv, c.calc, WithLineIDs(seqIDs()))
	c.err = nil
}

func (c *cartTestContext) anEmptyCart() error {
	if !c.store.IsEmpty() {
		return fmt.Errorf("expected empty cart, got %d lines", len(c.store.Items()))
	}
	return nil
}

func (c *cartTestContext) iAddOfItemPricedAt(qty, id int, price string) error {
	amount, err := decimal.NewFromString(price)
	if err != nil {
		return err
	}
	item := model.MenuItem{ID: id, Name: fmt.Sprintf("Item %d", id), Price: model.FixedPrice(amount), Available: true}
	_, c.err = c.store.AddItem(item, qty, "")
	return c.err
}

func (c *cartTestContext) iAddOfRangePricedItem(qty, id int) error {
	item := model.MenuItem{
		ID:        id,
		Name:      "Craft Cocktails",
		Price:     model.RangePrice(decimal.NewFromInt(14), decimal.NewFromInt(18)),
		Available: true,
	}
	_, c.err = c.store.AddItem(item, qty, "")
	return nil
}

func (c *cartTestContext) iSetTheQuantityOfItemTo(id, qty int) error {
	line, err := c.line(id)
	if err != nil {
		return err
	}
	c.err = c.store.SetQuantity(line.CartLineID, qty)
	return nil
}

func (c *cartTestContext) theCartIsReloadedFromStorage() error {
	c.store.Flush()
	if err := c.store.PersistError(); err != nil {
		return err
	}
	c.store = New(c.kv, c.calc)
	return nil
}

func (c *cartTestContext) theCartHasLines(n int) error {
	if got := len(c.store.Items()); got != n {
		return fmt.Errorf("expected %d lines, got %d", n, got)
	}
	return nil
}

func (c *cartTestContext) theCartIsEmpty() error {
	return c.theCartHasLines(0)
}

func (c *cartTestContext) theLineForItemHasQuantity(id, qty int) error {
	line, err := c.line(id)
	if err != nil {
		return err
	}
	if line.Quantity != qty {
		return fmt.Errorf("expected quantity %d, got %d", qty, line.Quantity)
	}
	return nil
}

func (c *cartTestContext) theChangeIsRejectedAs(kind string) error {
	if c.err == nil {
		return fmt.Errorf("expected a %s error, got none", kind)
	}
	if got := apperr.Kind(c.err); got != kind {
		return fmt.Errorf("expected kind %q, got %q (%v)", kind, got, c.err)
	}
	return nil
}

func (c *cartTestContext) breakdownIs(orderType model.OrderType) func(sub, tax, fee, total string) error {
	return func(sub, tax, fee, total string) error {
		b := c.store.Breakdown(orderType).Rounded()
		got := []string{b.Subtotal.StringFixed(2), b.Tax.StringFixed(2), b.DeliveryFee.StringFixed(2), b.Total.StringFixed(2)}
		want := []string{sub, tax, fee, total}
		for i := range want {
			if got[i] != want[i] {
				return fmt.Errorf("expected breakdown %v, got %v", want, got)
			}
		}
		return nil
	}
}

func (c *cartTestContext) line(id int) (model.LineItem, error) {
	for _, it := range c.store.Items() {
		if it.ItemID == id {
			return it, nil
		}
	}
	return model.LineItem{}, fmt.Errorf("no line for item %d", id)
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &cartTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})
	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		tc.store.Flush()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^an empty cart$`, tc.anEmptyCart)

	// When steps
	ctx.Step(`^I add (\d+) of item (\d+) priced at "([^"]*)"$`, tc.iAddOfItemPricedAt)
	ctx.Step(`^I add (\d+) of range-priced item (\d+)$`, tc.iAddOfRangePricedItem)
	ctx.Step(`^I set the quantity of item (\d+) to (-?\d+)$`, tc.iSetTheQuantityOfItemTo)
	ctx.Step(`^the cart is reloaded from storage$`, tc.theCartIsReloadedFromStorage)

	// Then steps
	ctx.Step(`^the cart has (\d+) lines?$`, tc.theCartHasLines)
	ctx.Step(`^the cart is empty$`, tc.theCartIsEmpty)
	ctx.Step(`^the line for item (\d+) has quantity (\d+)$`, tc.theLineForItemHasQuantity)
	ctx.Step(`^the change is rejected as "([^"]*)"$`, tc.theChangeIsRejectedAs)
	ctx.Step(`^the delivery breakdown is subtotal "([^"]*)", tax "([^"]*)", fee "([^"]*)", total "([^"]*)"$`, tc.breakdownIs(model.OrderTypeDelivery))
	ctx.Step(`^the pickup breakdown is subtotal "([^"]*)", tax "([^"]*)", fee "([^"]*)", total "([^"]*)"$`, tc.breakdownIs(model.OrderTypePickup))
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"../../features/cart.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
