// Package session keeps per-browser view state on the server.
//
// A browser is identified by a signed cookie carrying only the session id.
// The session itself (cart, admin mode flag, last catalog snapshot, pending
// banners and the offer editor draft) lives in a Store.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/storefront/internal/cart"
	"github.com/erazemk/storefront/internal/model"
	"github.com/erazemk/storefront/internal/offerform"
)

// ErrNotFound is returned by a Store when a session does not exist or has expired.
var ErrNotFound = errors.New("session not found")

// Flash holds the banners shown once on the next rendered page.
type Flash struct {
	Error   string `json:"error,omitempty"`
	Success string `json:"success,omitempty"`
}

// OrderStatus is the outcome of the last checkout. It stays on the catalog
// screen until dismissed or replaced by the next checkout.
type OrderStatus struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	OrderID string `json:"order_id,omitempty"`
}

// Session is the view state of one browser.
type Session struct {
	ID          string           `json:"id"`
	Cart        cart.Cart        `json:"cart"`
	AdminMode   bool             `json:"admin_mode"`
	Catalog     []model.Item     `json:"catalog,omitempty"`
	Flash       Flash            `json:"flash"`
	OrderStatus *OrderStatus     `json:"order_status,omitempty"`
	OfferDraft  *offerform.Draft `json:"offer_draft,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// New returns an empty session with a fresh id.
func New() *Session {
	return newWithID(uuid.NewString())
}

func newWithID(id string) *Session {
	now := time.Now()
	return &Session{ID: id, CreatedAt: now, UpdatedAt: now}
}

// SetError queues an error banner, replacing any pending success banner.
func (s *Session) SetError(msg string) {
	s.Flash = Flash{Error: msg}
}

// SetSuccess queues a success banner, replacing any pending error banner.
func (s *Session) SetSuccess(msg string) {
	s.Flash = Flash{Success: msg}
}

// PopFlash returns the pending banners and clears them.
func (s *Session) PopFlash() Flash {
	f := s.Flash
	s.Flash = Flash{}
	return f
}

// HasFlash reports whether a banner is pending.
func (s *Session) HasFlash() bool {
	return s.Flash != Flash{}
}

// CatalogItem looks an item up in the last catalog snapshot.
func (s *Session) CatalogItem(id string) (model.Item, bool) {
	for _, it := range s.Catalog {
		if it.ID == id {
			return it, true
		}
	}
	return model.Item{}, false
}

// Store persists sessions.
type Store interface {
	// Get returns the session with id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Session, error)
	// Save stores the session and extends its lifetime.
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
	Close() error
}

func encode(s *Session) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding session: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*Session, error) {
	s := &Session{}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	return s, nil
}
