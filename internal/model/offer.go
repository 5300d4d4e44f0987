package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// OfferType selects how the backend applies an offer's discount value.
type OfferType string

// Offer types.
const (
	OfferPercentage OfferType = "percentage"
	OfferFixed      OfferType = "fixed"
	OfferBuyXGetY   OfferType = "buy_x_get_y"
)

// Valid reports whether t is a known offer type.
func (t OfferType) Valid() bool {
	switch t {
	case OfferPercentage, OfferFixed, OfferBuyXGetY:
		return true
	}
	return false
}

// Label is the name shown in the offer type select.
func (t OfferType) Label() string {
	switch t {
	case OfferPercentage:
		return "Percentage Discount"
	case OfferFixed:
		return "Fixed Amount Discount"
	case OfferBuyXGetY:
		return "Buy X Get Y"
	default:
		return string(t)
	}
}

// Offer is a backend-evaluated discount rule scoped to a set of items.
type Offer struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	OfferType       OfferType       `json:"offer_type"`
	DiscountValue   decimal.Decimal `json:"discount_value"`
	MinQuantity     *int            `json:"min_quantity"`
	ApplicableItems []string        `json:"applicable_items"`
	StartDate       *Timestamp      `json:"start_date"`
	EndDate         *Timestamp      `json:"end_date"`
	IsActive        bool            `json:"is_active"`
}

// Details renders the short discount badge for an offer.
func (o Offer) Details() string {
	switch o.OfferType {
	case OfferPercentage:
		return o.DiscountValue.String() + "% off"
	case OfferFixed:
		return FormatMoney(o.DiscountValue) + " off"
	case OfferBuyXGetY:
		minQty := 0
		if o.MinQuantity != nil {
			minQty = *o.MinQuantity
		}
		return fmt.Sprintf("Buy %d, Get discount", minQty)
	default:
		return "Special offer"
	}
}

// OpenEnded reports whether the offer has no end date.
func (o Offer) OpenEnded() bool {
	return o.EndDate == nil
}

// OfferInput is the body of the offer management create and update calls.
type OfferInput struct {
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	OfferType       OfferType       `json:"offer_type"`
	DiscountValue   decimal.Decimal `json:"discount_value"`
	MinQuantity     *int            `json:"min_quantity"`
	ApplicableItems []string        `json:"applicable_items"`
	StartDate       *string         `json:"start_date"`
	EndDate         *string         `json:"end_date"`
	IsActive        bool            `json:"is_active"`
}

// ErrNoApplicableItems is returned when an offer targets no items.
var ErrNoApplicableItems = errors.New("at least one applicable item required")

// Validate checks the offer form rules.
func (in OfferInput) Validate() error {
	var errs []error
	if len(in.ApplicableItems) == 0 {
		errs = append(errs, ErrNoApplicableItems)
	}
	if strings.TrimSpace(in.Name) == "" {
		errs = append(errs, errors.New("name required"))
	}
	if !in.OfferType.Valid() {
		errs = append(errs, fmt.Errorf("unknown offer type %q", in.OfferType))
	}
	if in.DiscountValue.IsNegative() {
		errs = append(errs, errors.New("discount value must not be negative"))
	}
	if in.MinQuantity != nil && *in.MinQuantity < 1 {
		errs = append(errs, errors.New("minimum quantity must be positive"))
	}
	return errors.Join(errs...)
}
