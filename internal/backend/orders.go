package backend

import (
	"context"

	"github.com/erazemk/storefront/internal/model"
)

// ListOrders calls GET /orders.
func (c *Client) ListOrders(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	if err := c.do(ctx, "GET", "/orders", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetOrder calls GET /orders/{id}.
func (c *Client) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	var order model.Order
	if err := c.do(ctx, "GET", "/orders/"+escape(id), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// CreateOrder calls POST /orders/ with the lines as a bare JSON array.
func (c *Client) CreateOrder(ctx context.Context, lines []model.OrderLine) (*model.Order, error) {
	if lines == nil {
		lines = []model.OrderLine{}
	}
	var order model.Order
	if err := c.do(ctx, "POST", "/orders/", lines, &order); err != nil {
		return nil, err
	}
	return &order, nil
}
