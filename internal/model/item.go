package model

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Item is a sellable catalog entry as returned by the backend.
type Item struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category"`
}

// Stock levels used to color the stock label.
const (
	StockPlenty = "plenty"
	StockLow    = "low"
	StockOut    = "out"
)

// StockLevel classifies the item's stock for display.
func (i Item) StockLevel() string {
	switch {
	case i.Stock > 5:
		return StockPlenty
	case i.Stock > 0:
		return StockLow
	default:
		return StockOut
	}
}

// ItemInput is the body of the item management create and update calls.
type ItemInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category"`
}

// Validate checks the fields the item form marks as required.
func (in ItemInput) Validate() error {
	var errs []error
	if strings.TrimSpace(in.Name) == "" {
		errs = append(errs, errors.New("name required"))
	}
	if strings.TrimSpace(in.Description) == "" {
		errs = append(errs, errors.New("description required"))
	}
	if strings.TrimSpace(in.Category) == "" {
		errs = append(errs, errors.New("category required"))
	}
	if in.Price.IsNegative() {
		errs = append(errs, errors.New("price must not be negative"))
	}
	if in.Stock < 0 {
		errs = append(errs, errors.New("stock must not be negative"))
	}
	return errors.Join(errs...)
}

// ToInput returns the form representation of an existing item.
func (i Item) ToInput() ItemInput {
	return ItemInput{
		Name:        i.Name,
		Description: i.Description,
		Price:       i.Price,
		Stock:       i.Stock,
		Category:    i.Category,
	}
}
