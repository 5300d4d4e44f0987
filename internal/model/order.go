package model

import "github.com/shopspring/decimal"

// OrderLine is one line of an order request or of a stored order.
type OrderLine struct {
	ItemID         string          `json:"item_id"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	AppliedOfferID *string         `json:"applied_offer_id,omitempty"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
}

// Subtotal is unit price times quantity, before the line discount.
func (l OrderLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order is a backend-authored record of a completed purchase. Totals are
// taken verbatim from the backend response.
type Order struct {
	ID             string          `json:"id"`
	CreatedAt      Timestamp       `json:"created_at"`
	Items          []OrderLine     `json:"items"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	FinalAmount    decimal.Decimal `json:"final_amount"`
}

// ShortID is the abbreviated id shown in the order list.
func (o Order) ShortID() string {
	if len(o.ID) > 8 {
		return o.ID[:8]
	}
	return o.ID
}
