package backend

import (
	"context"

	"github.com/erazemk/storefront/internal/model"
)

// ListOffers calls GET /offers. The backend decides which offers are
// current; the result is not filtered here.
func (c *Client) ListOffers(ctx context.Context) ([]model.Offer, error) {
	var offers []model.Offer
	if err := c.do(ctx, "GET", "/offers", nil, &offers); err != nil {
		return nil, err
	}
	return offers, nil
}

// GetOffer calls GET /offers/{id}.
func (c *Client) GetOffer(ctx context.Context, id string) (*model.Offer, error) {
	var offer model.Offer
	if err := c.do(ctx, "GET", "/offers/"+escape(id), nil, &offer); err != nil {
		return nil, err
	}
	return &offer, nil
}

// CreateOffer calls POST /offers-management.
func (c *Client) CreateOffer(ctx context.Context, in model.OfferInput) (*model.Offer, error) {
	var offer model.Offer
	if err := c.do(ctx, "POST", "/offers-management", in, &offer); err != nil {
		return nil, err
	}
	return &offer, nil
}

// UpdateOffer calls POST /offers-management/{id}.
func (c *Client) UpdateOffer(ctx context.Context, id string, in model.OfferInput) (*model.Offer, error) {
	var offer model.Offer
	if err := c.do(ctx, "POST", "/offers-management/"+escape(id), in, &offer); err != nil {
		return nil, err
	}
	return &offer, nil
}

// DeleteOffer calls DELETE /offers-management/{id}.
func (c *Client) DeleteOffer(ctx context.Context, id string) error {
	return c.do(ctx, "DELETE", "/offers-management/"+escape(id), nil, nil)
}
