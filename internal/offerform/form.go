// Package offerform holds the admin offer editor's form state: typed field
// values, the applicable item selection and the checks done before anything
// is sent to the backend.
package offerform

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/erazemk/storefront/internal/model"
)

// ErrNoItemsSelected rejects an offer submission with an empty selection.
var ErrNoItemsSelected = errors.New("no applicable items selected")

// NoItemsMessage is the inline error shown for ErrNoItemsSelected.
const NoItemsMessage = "Please select at least one applicable item."

// Field describes how the discount value input is presented.
type Field struct {
	Label string
	Step  string
}

// DiscountField returns the discount input's label and step for an offer type.
func DiscountField(t model.OfferType) Field {
	if t == model.OfferPercentage {
		return Field{Label: "Discount Percentage", Step: "1"}
	}
	return Field{Label: "Discount Amount", Step: "0.01"}
}

// Form holds the offer fields as typed in the editor.
type Form struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	OfferType     model.OfferType `json:"offer_type"`
	DiscountValue string          `json:"discount_value"`
	MinQuantity   string          `json:"min_quantity"`
	StartDate     string          `json:"start_date"`
	EndDate       string          `json:"end_date"`
	IsActive      bool            `json:"is_active"`
}

// NewForm returns the empty form used for a new offer.
func NewForm() Form {
	return Form{OfferType: model.OfferPercentage, IsActive: true}
}

// FromOffer preloads the form from an existing offer.
func FromOffer(o model.Offer) Form {
	f := Form{
		Name:          o.Name,
		Description:   o.Description,
		OfferType:     o.OfferType,
		DiscountValue: o.DiscountValue.String(),
		IsActive:      o.IsActive,
	}
	if o.MinQuantity != nil {
		f.MinQuantity = strconv.Itoa(*o.MinQuantity)
	}
	if o.StartDate != nil {
		f.StartDate = o.StartDate.DateOnly()
	}
	if o.EndDate != nil {
		f.EndDate = o.EndDate.DateOnly()
	}
	return f
}

// FromValues reads the form fields from a submitted HTML form.
func FromValues(v url.Values) Form {
	f := Form{
		Name:          strings.TrimSpace(v.Get("name")),
		Description:   strings.TrimSpace(v.Get("description")),
		OfferType:     model.OfferType(v.Get("offer_type")),
		DiscountValue: strings.TrimSpace(v.Get("discount_value")),
		MinQuantity:   strings.TrimSpace(v.Get("min_quantity")),
		StartDate:     strings.TrimSpace(v.Get("start_date")),
		EndDate:       strings.TrimSpace(v.Get("end_date")),
		IsActive:      v.Get("is_active") != "",
	}
	if f.OfferType == "" {
		f.OfferType = model.OfferPercentage
	}
	return f
}

// Discount returns the discount input presentation for the form's type.
func (f Form) Discount() Field {
	return DiscountField(f.OfferType)
}

// Input converts the form and selection into a backend request. A zero
// selection is rejected first, regardless of the other fields.
func (f Form) Input(sel Selection) (model.OfferInput, error) {
	if sel.Len() == 0 {
		return model.OfferInput{}, ErrNoItemsSelected
	}

	discount, err := decimal.NewFromString(f.DiscountValue)
	if err != nil {
		return model.OfferInput{}, fmt.Errorf("invalid discount value %q", f.DiscountValue)
	}

	in := model.OfferInput{
		Name:            f.Name,
		Description:     f.Description,
		OfferType:       f.OfferType,
		DiscountValue:   discount,
		ApplicableItems: append([]string(nil), sel.IDs...),
		IsActive:        f.IsActive,
	}

	if f.MinQuantity != "" {
		n, err := strconv.Atoi(f.MinQuantity)
		if err != nil {
			return model.OfferInput{}, fmt.Errorf("invalid minimum quantity %q", f.MinQuantity)
		}
		in.MinQuantity = &n
	}
	if in.StartDate, err = optionalDate(f.StartDate); err != nil {
		return model.OfferInput{}, err
	}
	if in.EndDate, err = optionalDate(f.EndDate); err != nil {
		return model.OfferInput{}, err
	}

	if err := in.Validate(); err != nil {
		return model.OfferInput{}, err
	}
	return in, nil
}

func optionalDate(s string) (*string, error) {
	if s == "" {
		return nil, nil
	}
	if _, err := model.ParseTimestamp(s); err != nil {
		return nil, fmt.Errorf("invalid date %q", s)
	}
	return &s, nil
}

// Draft is an offer being created or edited. OfferID is empty for a new offer.
type Draft struct {
	OfferID   string    `json:"offer_id,omitempty"`
	Form      Form      `json:"form"`
	Selection Selection `json:"selection"`
}

// NewDraft starts a draft for a new offer.
func NewDraft() *Draft {
	return &Draft{Form: NewForm()}
}

// EditDraft starts a draft preloaded from an existing offer.
func EditDraft(o model.Offer) *Draft {
	return &Draft{
		OfferID:   o.ID,
		Form:      FromOffer(o),
		Selection: NewSelection(o.ApplicableItems...),
	}
}

// Editing reports whether the draft edits an existing offer.
func (d *Draft) Editing() bool {
	return d.OfferID != ""
}
