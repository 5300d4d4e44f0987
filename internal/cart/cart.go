// Package cart implements the shopper's transient cart. Quantities are
// clamped to the stock known when the item was last fetched; the backend
// performs the authoritative stock check when the order is placed.
package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/erazemk/storefront/internal/model"
)

// ErrEmpty is returned by Checkout when there is nothing to order.
var ErrEmpty = errors.New("cart is empty")

// Line is one item in the cart with snapshots of its price and stock.
type Line struct {
	ItemID    string          `json:"item_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Stock     int             `json:"stock"`
	Quantity  int             `json:"quantity"`
}

// Subtotal is the line's display total.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// AtMax reports whether the line cannot be incremented further.
func (l Line) AtMax() bool {
	return l.Quantity >= l.Stock
}

// Cart is an ordered list of lines, at most one per item.
type Cart struct {
	Lines []Line `json:"lines"`
}

// Len returns the number of lines.
func (c *Cart) Len() int { return len(c.Lines) }

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool { return len(c.Lines) == 0 }

// Quantity returns the quantity of an item in the cart, or 0.
func (c *Cart) Quantity(itemID string) int {
	if i := c.index(itemID); i >= 0 {
		return c.Lines[i].Quantity
	}
	return 0
}

// CanAdd reports whether one more unit of item may be added.
func (c *Cart) CanAdd(item model.Item) bool {
	return item.Stock > 0 && c.Quantity(item.ID) < item.Stock
}

// AddLabel is the text of the item's add button.
func (c *Cart) AddLabel(item model.Item) string {
	switch {
	case item.Stock <= 0:
		return "Out of Stock"
	case c.Quantity(item.ID) >= item.Stock:
		return "Max Stock Reached"
	default:
		return "Add to Cart"
	}
}

// Add puts one unit of item in the cart. An existing line is incremented and
// clamped to the item's stock. It reports whether the cart changed.
func (c *Cart) Add(item model.Item) bool {
	if !c.CanAdd(item) {
		return false
	}

	if i := c.index(item.ID); i >= 0 {
		line := &c.Lines[i]
		line.Stock = item.Stock
		line.UnitPrice = item.Price
		line.Name = item.Name
		line.Quantity = min(line.Quantity+1, item.Stock)
		return true
	}

	c.Lines = append(c.Lines, Line{
		ItemID:    item.ID,
		Name:      item.Name,
		UnitPrice: item.Price,
		Stock:     item.Stock,
		Quantity:  1,
	})
	return true
}

// SetQuantity sets a line's quantity, clamped to its stock. A quantity below
// 1 removes the line.
func (c *Cart) SetQuantity(itemID string, quantity int) {
	i := c.index(itemID)
	if i < 0 {
		return
	}

	if quantity > c.Lines[i].Stock {
		quantity = c.Lines[i].Stock
	}
	if quantity < 1 {
		c.Remove(itemID)
		return
	}
	c.Lines[i].Quantity = quantity
}

// Increment raises a line's quantity by one, up to its stock.
func (c *Cart) Increment(itemID string) {
	c.SetQuantity(itemID, c.Quantity(itemID)+1)
}

// Decrement lowers a line's quantity by one; a line at 1 is removed.
func (c *Cart) Decrement(itemID string) {
	if c.index(itemID) < 0 {
		return
	}
	c.SetQuantity(itemID, c.Quantity(itemID)-1)
}

// Remove deletes an item's line.
func (c *Cart) Remove(itemID string) {
	if i := c.index(itemID); i >= 0 {
		c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Lines = nil
}

// Total is the display total of all lines. Discounts are computed by the
// backend and are not reflected here.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.Lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// Refresh updates price and stock snapshots from a fresh catalog. Lines whose
// item disappeared or ran out of stock are dropped; the rest are re-clamped.
func (c *Cart) Refresh(items []model.Item) {
	byID := make(map[string]model.Item, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	kept := c.Lines[:0]
	for _, line := range c.Lines {
		item, ok := byID[line.ItemID]
		if !ok || item.Stock <= 0 {
			continue
		}
		line.Name = item.Name
		line.UnitPrice = item.Price
		line.Stock = item.Stock
		line.Quantity = min(line.Quantity, item.Stock)
		kept = append(kept, line)
	}
	if len(kept) == 0 {
		kept = nil
	}
	c.Lines = kept
}

// OrderRequest builds the order body. The per-line discount is always zero;
// the backend computes and reports the real discounts.
func (c *Cart) OrderRequest() []model.OrderLine {
	lines := make([]model.OrderLine, 0, len(c.Lines))
	for _, line := range c.Lines {
		lines = append(lines, model.OrderLine{
			ItemID:         line.ItemID,
			Quantity:       line.Quantity,
			UnitPrice:      line.UnitPrice,
			DiscountAmount: decimal.Zero,
		})
	}
	return lines
}

// OrderPlacer creates orders.
type OrderPlacer interface {
	CreateOrder(ctx context.Context, lines []model.OrderLine) (*model.Order, error)
}

// Checkout places an order for the cart's contents. An empty cart returns
// ErrEmpty without calling the placer. On success the cart is cleared; on
// failure it is left untouched.
func (c *Cart) Checkout(ctx context.Context, placer OrderPlacer) (*model.Order, error) {
	if c.Empty() {
		return nil, ErrEmpty
	}

	order, err := placer.CreateOrder(ctx, c.OrderRequest())
	if err != nil {
		return nil, fmt.Errorf("placing order: %w", err)
	}

	c.Clear()
	return order, nil
}

func (c *Cart) index(itemID string) int {
	for i, line := range c.Lines {
		if line.ItemID == itemID {
			return i
		}
	}
	return -1
}
