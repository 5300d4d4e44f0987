package web

import (
	"net/http"

	"github.com/erazemk/storefront/internal/backend"
	"github.com/erazemk/storefront/internal/events"
	"github.com/erazemk/storefront/internal/session"
	webembed "github.com/erazemk/storefront/web"
)

// NewRouter creates the storefront router with all page routes registered.
// A nil publisher discards activity events.
func NewRouter(gw backend.Gateway, sessions *session.Manager, pub events.Publisher) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}
	if pub == nil {
		pub = events.NopPublisher{}
	}

	s := &Server{
		Backend:   gw,
		Sessions:  sessions,
		Events:    pub,
		Templates: templates,
		checkouts: newInflight(),
	}

	pages := http.NewServeMux()

	// Catalog and cart.
	pages.HandleFunc("GET /{$}", s.CatalogPage)
	pages.HandleFunc("POST /cart/{id}/add", s.CartAddSubmit)
	pages.HandleFunc("POST /cart/{id}/quantity", s.CartQuantitySubmit)
	pages.HandleFunc("POST /cart/{id}/remove", s.CartRemoveSubmit)
	pages.HandleFunc("POST /checkout", s.CheckoutSubmit)
	pages.HandleFunc("POST /checkout/dismiss", s.CheckoutDismissSubmit)

	pages.HandleFunc("GET /orders", s.OrdersPage)
	pages.HandleFunc("GET /orders/{id}", s.OrderDetailPage)
	pages.HandleFunc("GET /offers", s.OffersPage)

	pages.HandleFunc("POST /admin-mode", s.AdminModeSubmit)

	// Admin screens, only while admin mode is on.
	pages.Handle("GET /admin/items", adminOnly(s.AdminItemsPage))
	pages.Handle("POST /admin/items", adminOnly(s.ItemCreateSubmit))
	pages.Handle("POST /admin/items/{id}", adminOnly(s.ItemUpdateSubmit))
	pages.Handle("POST /admin/items/{id}/delete", adminOnly(s.ItemDeleteSubmit))

	pages.Handle("GET /admin/offers", adminOnly(s.AdminOffersPage))
	pages.Handle("POST /admin/offers", adminOnly(s.OfferCreateSubmit))
	pages.Handle("POST /admin/offers/draft", adminOnly(s.OfferDraftSubmit))
	pages.Handle("POST /admin/offers/draft/items/{id}", adminOnly(s.OfferDraftItemSubmit))
	pages.Handle("POST /admin/offers/draft/category", adminOnly(s.OfferDraftCategorySubmit))
	pages.Handle("POST /admin/offers/{id}", adminOnly(s.OfferUpdateSubmit))
	pages.Handle("POST /admin/offers/{id}/delete", adminOnly(s.OfferDeleteSubmit))

	mux := http.NewServeMux()

	// Static assets and health checks need no session.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))
	mux.HandleFunc("GET /healthz", Healthz)
	mux.Handle("/", sessions.Middleware(pages))

	return mux, nil
}

// Healthz handles GET /healthz.
func Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}
