// Package resource holds the fetch state shared by every screen: a value that
// is pending, ready with data, or failed with an error.
package resource

import (
	"context"
	"fmt"
)

// State tags a Resource.
type State int

// Resource states.
const (
	Pending State = iota
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Resource is the result of fetching a T. A failed Resource may still carry
// the data from an earlier successful load.
type Resource[T any] struct {
	State State
	Data  T
	Err   error

	loaded bool
}

// Load runs fetch and returns a Ready or Failed resource.
func Load[T any](ctx context.Context, fetch func(context.Context) (T, error)) Resource[T] {
	var r Resource[T]
	return r.Reload(ctx, fetch)
}

// Of returns a Ready resource holding data loaded earlier.
func Of[T any](data T) Resource[T] {
	return Resource[T]{State: Ready, Data: data, loaded: true}
}

// Reload runs fetch again. On failure the previously loaded data is kept.
func (r Resource[T]) Reload(ctx context.Context, fetch func(context.Context) (T, error)) Resource[T] {
	data, err := fetch(ctx)
	if err != nil {
		r.State = Failed
		r.Err = err
		return r
	}
	return Resource[T]{State: Ready, Data: data, loaded: true}
}

// IsReady reports whether the last fetch succeeded.
func (r Resource[T]) IsReady() bool { return r.State == Ready }

// IsFailed reports whether the last fetch failed.
func (r Resource[T]) IsFailed() bool { return r.State == Failed }

// HasData reports whether some fetch has succeeded, even if the latest failed.
func (r Resource[T]) HasData() bool { return r.loaded }

// Message returns the fixed user-facing failure string for an action.
func Message(action string) string {
	return fmt.Sprintf("Failed to %s. Please try again.", action)
}

// Actions named in failure banners.
const (
	FetchItems  = "fetch items"
	FetchOrders = "fetch orders"
	FetchOrder  = "fetch order"
	FetchOffers = "fetch offers"
	FetchData   = "fetch data"
	AddItem     = "add item"
	UpdateItem  = "update item"
	DeleteItem  = "delete item"
	AddOffer    = "add offer"
	UpdateOffer = "update offer"
	DeleteOffer = "delete offer"
	PlaceOrder  = "place order"
)
