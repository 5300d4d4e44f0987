package web

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/storefront/internal/model"
	"github.com/erazemk/storefront/internal/resource"
	"github.com/erazemk/storefront/internal/session"
)

// OffersPage handles GET /offers. Offers are listed as returned, without
// filtering by active flag or date window.
func (s *Server) OffersPage(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	offers := resource.Load(r.Context(), s.Backend.ListOffers)
	pd := s.page(r, sess, "Current Offers", "offers")
	if offers.IsFailed() {
		slog.Error("failed to list offers", "error", offers.Err)
		pd.Error = resource.Message(resource.FetchOffers)
	}

	s.Templates.Render(w, "offers.html", &struct {
		PageData
		Offers resource.Resource[[]model.Offer]
	}{
		PageData: pd,
		Offers:   offers,
	})
}
