// Package events publishes storefront activity to an optional feed.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erazemk/storefront/internal/model"
)

// Event types.
const (
	OrderPlaced  = "order.placed"
	ItemCreated  = "item.created"
	ItemUpdated  = "item.updated"
	ItemDeleted  = "item.deleted"
	OfferCreated = "offer.created"
	OfferUpdated = "offer.updated"
	OfferDeleted = "offer.deleted"
)

// Event is one activity record. Only the fields relevant to Type are set.
type Event struct {
	EventID     string          `json:"event_id"`
	Type        string          `json:"type"`
	Timestamp   time.Time       `json:"timestamp"`
	OrderID     string          `json:"order_id,omitempty"`
	Lines       int             `json:"lines,omitempty"`
	FinalAmount decimal.Decimal `json:"final_amount,omitzero"`
	ItemID      string          `json:"item_id,omitempty"`
	OfferID     string          `json:"offer_id,omitempty"`
	Name        string          `json:"name,omitempty"`
}

func newEvent(typ string) Event {
	return Event{EventID: uuid.NewString(), Type: typ, Timestamp: time.Now().UTC()}
}

// NewOrderPlaced describes a successful checkout.
func NewOrderPlaced(o *model.Order) Event {
	e := newEvent(OrderPlaced)
	e.OrderID = o.ID
	e.Lines = len(o.Items)
	e.FinalAmount = o.FinalAmount
	return e
}

// NewItemChanged describes an item mutation; typ is one of the item event types.
func NewItemChanged(typ, itemID, name string) Event {
	e := newEvent(typ)
	e.ItemID = itemID
	e.Name = name
	return e
}

// NewOfferChanged describes an offer mutation; typ is one of the offer event types.
func NewOfferChanged(typ, offerID, name string) Event {
	e := newEvent(typ)
	e.OfferID = offerID
	e.Name = name
	return e
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// NopPublisher discards every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                          { return nil }
