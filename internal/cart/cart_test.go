package cart

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/erazemk/storefront/internal/model"
)

type fakePlacer struct {
	calls int
	lines []model.OrderLine
	err   error
}

func (f *fakePlacer) CreateOrder(_ context.Context, lines []model.OrderLine) (*model.Order, error) {
	f.calls++
	f.lines = lines
	if f.err != nil {
		return nil, f.err
	}
	return &model.Order{ID: "order-1", Items: lines}, nil
}

func item(id string, stock int) model.Item {
	return model.Item{ID: id, Name: "Item " + id, Price: decimal.RequireFromString("2.50"), Stock: stock}
}

func TestAddClampsToStock(t *testing.T) {
	var c Cart
	it := item("1", 3)

	for i := 0; i < 3; i++ {
		if !c.Add(it) {
			t.Fatalf("add %d rejected", i+1)
		}
	}
	if c.Quantity("1") != 3 {
		t.Fatalf("expected quantity 3, got %d", c.Quantity("1"))
	}

	if c.Add(it) {
		t.Error("fourth add should be rejected")
	}
	if c.Quantity("1") != 3 {
		t.Errorf("expected quantity to stay 3, got %d", c.Quantity("1"))
	}
	if c.CanAdd(it) {
		t.Error("expected further adds to be disabled")
	}
	if got := c.AddLabel(it); got != "Max Stock Reached" {
		t.Errorf("AddLabel = %q", got)
	}
}

func TestAddOutOfStock(t *testing.T) {
	var c Cart
	it := item("1", 0)

	if c.Add(it) {
		t.Error("expected add of out-of-stock item to be rejected")
	}
	if !c.Empty() {
		t.Error("expected empty cart")
	}
	if got := c.AddLabel(it); got != "Out of Stock" {
		t.Errorf("AddLabel = %q", got)
	}
}

func TestAddNeverExceedsStock(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	items := []model.Item{item("a", 1), item("b", 4), item("c", 0), item("d", 7)}

	var c Cart
	for i := 0; i < 500; i++ {
		it := items[rng.Intn(len(items))]
		switch rng.Intn(3) {
		case 0, 1:
			c.Add(it)
		case 2:
			c.Increment(it.ID)
		}
		for _, line := range c.Lines {
			for _, it := range items {
				if it.ID == line.ItemID && line.Quantity > it.Stock {
					t.Fatalf("quantity %d exceeds stock %d for %s", line.Quantity, it.Stock, it.ID)
				}
			}
		}
	}
}

func TestSetQuantity(t *testing.T) {
	var c Cart
	c.Add(item("1", 5))

	c.SetQuantity("1", 10)
	if c.Quantity("1") != 5 {
		t.Errorf("expected clamp to 5, got %d", c.Quantity("1"))
	}

	c.SetQuantity("1", 2)
	if c.Quantity("1") != 2 {
		t.Errorf("expected 2, got %d", c.Quantity("1"))
	}

	c.SetQuantity("1", 0)
	if !c.Empty() {
		t.Error("expected line removed for quantity below 1")
	}
}

func TestDecrementFromOneRemovesLine(t *testing.T) {
	var c Cart
	c.Add(item("1", 5))
	c.Add(item("2", 5))

	c.Decrement("1")
	if c.Quantity("1") != 0 || c.Len() != 1 {
		t.Errorf("expected item 1 removed, lines=%v", c.Lines)
	}
	if c.Lines[0].ItemID != "2" {
		t.Errorf("expected item 2 to remain, got %s", c.Lines[0].ItemID)
	}
}

func TestTotal(t *testing.T) {
	var c Cart
	c.Add(item("1", 5))
	c.Add(item("1", 5))
	c.Add(item("2", 5))

	if got := c.Total().StringFixed(2); got != "7.50" {
		t.Errorf("Total = %s, want 7.50", got)
	}
}

func TestRefresh(t *testing.T) {
	var c Cart
	c.Add(item("1", 5))
	c.SetQuantity("1", 4)
	c.Add(item("2", 5))
	c.Add(item("3", 5))

	c.Refresh([]model.Item{item("1", 2), item("2", 0)})

	if c.Len() != 1 {
		t.Fatalf("expected 1 line after refresh, got %d", c.Len())
	}
	if c.Quantity("1") != 2 {
		t.Errorf("expected quantity re-clamped to 2, got %d", c.Quantity("1"))
	}
}

func TestOrderRequest(t *testing.T) {
	var c Cart
	c.Add(item("1", 5))
	c.Increment("1")

	lines := c.OrderRequest()
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if lines[0].ItemID != "1" || lines[0].Quantity != 2 {
		t.Errorf("unexpected line %+v", lines[0])
	}
	if !lines[0].UnitPrice.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("unexpected unit price %s", lines[0].UnitPrice)
	}
	if !lines[0].DiscountAmount.IsZero() {
		t.Errorf("expected zero discount, got %s", lines[0].DiscountAmount)
	}
}

func TestCheckoutEmptyIsNoop(t *testing.T) {
	var c Cart
	placer := &fakePlacer{}

	_, err := c.Checkout(context.Background(), placer)
	if !errors.Is(err, ErrEmpty) {
		t.Errorf("expected ErrEmpty, got %v", err)
	}
	if placer.calls != 0 {
		t.Errorf("expected no order request, got %d", placer.calls)
	}
}

func TestCheckoutSuccessClearsCart(t *testing.T) {
	var c Cart
	c.Add(item("1", 5))
	placer := &fakePlacer{}

	order, err := c.Checkout(context.Background(), placer)
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if order.ID != "order-1" {
		t.Errorf("unexpected order id %q", order.ID)
	}
	if !c.Empty() {
		t.Error("expected cart cleared after successful checkout")
	}
	if len(placer.lines) != 1 {
		t.Errorf("expected 1 submitted line, got %d", len(placer.lines))
	}
}

func TestCheckoutFailureKeepsCart(t *testing.T) {
	var c Cart
	c.Add(item("1", 5))
	c.Add(item("1", 5))
	placer := &fakePlacer{err: errors.New("backend down")}

	if _, err := c.Checkout(context.Background(), placer); err == nil {
		t.Fatal("expected error")
	}
	if c.Quantity("1") != 2 {
		t.Errorf("expected cart preserved, quantity=%d", c.Quantity("1"))
	}
}
