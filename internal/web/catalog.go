package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/erazemk/storefront/internal/cart"
	"github.com/erazemk/storefront/internal/events"
	"github.com/erazemk/storefront/internal/model"
	"github.com/erazemk/storefront/internal/resource"
	"github.com/erazemk/storefront/internal/session"
)

// CatalogPage handles GET /.
func (s *Server) CatalogPage(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	// The previous snapshot stays visible if this fetch fails.
	var items resource.Resource[[]model.Item]
	if sess.Catalog != nil {
		items = resource.Of(sess.Catalog).Reload(r.Context(), s.Backend.ListItems)
	} else {
		items = resource.Load(r.Context(), s.Backend.ListItems)
	}

	if items.IsReady() {
		sess.Catalog = items.Data
		sess.Cart.Refresh(items.Data)
		s.save(r, sess)
	} else {
		slog.Error("failed to list items", "error", items.Err)
	}

	pd := s.page(r, sess, "Available Items", "items")
	if items.IsFailed() {
		pd.Error = resource.Message(resource.FetchItems)
	}

	s.Templates.Render(w, "catalog.html", &struct {
		PageData
		Items       resource.Resource[[]model.Item]
		Cart        *cart.Cart
		OrderStatus *session.OrderStatus
	}{
		PageData:    pd,
		Items:       items,
		Cart:        &sess.Cart,
		OrderStatus: sess.OrderStatus,
	})
}

// lookupItem finds an item in the session's catalog snapshot, falling back
// to the backend when the item is not in it.
func (s *Server) lookupItem(ctx context.Context, sess *session.Session, id string) (model.Item, error) {
	if it, ok := sess.CatalogItem(id); ok {
		return it, nil
	}
	it, err := s.Backend.GetItem(ctx, id)
	if err != nil {
		return model.Item{}, err
	}
	return *it, nil
}

// CartAddSubmit handles POST /cart/{id}/add.
func (s *Server) CartAddSubmit(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	id := r.PathValue("id")

	item, err := s.lookupItem(r.Context(), sess, id)
	if err != nil {
		slog.Error("failed to get item", "item", id, "error", err)
		sess.SetError(resource.Message(resource.FetchItems))
		s.redirect(w, r, sess, "/")
		return
	}

	if !sess.Cart.Add(item) {
		slog.Debug("add to cart ignored", "item", id, "stock", item.Stock)
	}
	s.redirect(w, r, sess, "/")
}

// CartQuantitySubmit handles POST /cart/{id}/quantity. The form carries
// either a delta of 1 or -1, or an absolute quantity.
func (s *Server) CartQuantitySubmit(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	id := r.PathValue("id")

	switch delta := r.FormValue("delta"); delta {
	case "1", "+1":
		sess.Cart.Increment(id)
	case "-1":
		sess.Cart.Decrement(id)
	case "":
		q, err := strconv.Atoi(r.FormValue("quantity"))
		if err != nil {
			http.Error(w, "invalid quantity", http.StatusBadRequest)
			return
		}
		sess.Cart.SetQuantity(id, q)
	default:
		http.Error(w, "invalid delta", http.StatusBadRequest)
		return
	}

	s.redirect(w, r, sess, "/")
}

// CartRemoveSubmit handles POST /cart/{id}/remove.
func (s *Server) CartRemoveSubmit(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	sess.Cart.Remove(r.PathValue("id"))
	s.redirect(w, r, sess, "/")
}

// CheckoutSubmit handles POST /checkout.
func (s *Server) CheckoutSubmit(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	if sess.Cart.Empty() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	// A second submit while the first is still waiting on the backend is dropped.
	if !s.checkouts.acquire(sess.ID) {
		slog.Warn("checkout already in progress", "session", sess.ID)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	defer s.checkouts.release(sess.ID)

	order, err := sess.Cart.Checkout(r.Context(), s.Backend)
	if err != nil {
		slog.Error("failed to place order", "lines", sess.Cart.Len(), "error", err)
		sess.OrderStatus = &session.OrderStatus{Message: resource.Message(resource.PlaceOrder)}
		s.redirect(w, r, sess, "/")
		return
	}

	slog.Info("order placed", "order", order.ID, "lines", len(order.Items), "total", order.FinalAmount)
	sess.OrderStatus = &session.OrderStatus{
		Success: true,
		Message: fmt.Sprintf("Order placed successfully! Order ID: %s", order.ID),
		OrderID: order.ID,
	}
	s.publish(r, events.NewOrderPlaced(order))
	s.redirect(w, r, sess, "/")
}

// CheckoutDismissSubmit handles POST /checkout/dismiss.
func (s *Server) CheckoutDismissSubmit(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	sess.OrderStatus = nil
	s.redirect(w, r, sess, "/")
}

// AdminModeSubmit handles POST /admin-mode. Leaving admin mode from an admin
// screen lands on the catalog, since that screen is no longer mounted.
func (s *Server) AdminModeSubmit(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	sess.AdminMode = !sess.AdminMode
	if !sess.AdminMode {
		sess.OfferDraft = nil
	}
	slog.Info("admin mode toggled", "session", sess.ID, "admin", sess.AdminMode)

	next := safeNext(r.FormValue("next"))
	if !sess.AdminMode && isAdminPath(next) {
		next = "/"
	}
	s.redirect(w, r, sess, next)
}

// safeNext accepts only local absolute paths as redirect targets.
func safeNext(next string) string {
	if len(next) == 0 || next[0] != '/' || (len(next) > 1 && (next[1] == '/' || next[1] == '\\')) {
		return "/"
	}
	return next
}

func isAdminPath(p string) bool {
	return p == "/admin" || strings.HasPrefix(p, "/admin/")
}
