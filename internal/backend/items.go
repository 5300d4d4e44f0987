package backend

import (
	"context"

	"github.com/erazemk/storefront/internal/model"
)

// ListItems calls GET /items.
func (c *Client) ListItems(ctx context.Context) ([]model.Item, error) {
	var items []model.Item
	if err := c.do(ctx, "GET", "/items", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// GetItem calls GET /items/{id}.
func (c *Client) GetItem(ctx context.Context, id string) (*model.Item, error) {
	var item model.Item
	if err := c.do(ctx, "GET", "/items/"+escape(id), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateItem calls POST /items-management.
func (c *Client) CreateItem(ctx context.Context, in model.ItemInput) (*model.Item, error) {
	var item model.Item
	if err := c.do(ctx, "POST", "/items-management", in, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItem calls POST /items-management/{id}.
func (c *Client) UpdateItem(ctx context.Context, id string, in model.ItemInput) (*model.Item, error) {
	var item model.Item
	if err := c.do(ctx, "POST", "/items-management/"+escape(id), in, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteItem calls DELETE /items-management/{id}.
func (c *Client) DeleteItem(ctx context.Context, id string) error {
	return c.do(ctx, "DELETE", "/items-management/"+escape(id), nil, nil)
}
