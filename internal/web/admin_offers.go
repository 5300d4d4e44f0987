package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/erazemk/storefront/internal/events"
	"github.com/erazemk/storefront/internal/model"
	"github.com/erazemk/storefront/internal/offerform"
	"github.com/erazemk/storefront/internal/resource"
	"github.com/erazemk/storefront/internal/session"
)

type adminOffersView struct {
	PageData
	Offers    resource.Resource[[]model.Offer]
	Items     resource.Resource[[]model.Item]
	Draft     *offerform.Draft
	Groups    []offerform.CategoryGroup
	Selection *offerform.Selection
	Confirm   *model.Offer
}

// draftURL is the editor screen for a draft.
func draftURL(d *offerform.Draft) string {
	if d == nil {
		return "/admin/offers"
	}
	if d.Editing() {
		return "/admin/offers?edit=" + url.QueryEscape(d.OfferID)
	}
	return "/admin/offers?new=1"
}

func findOffer(offers []model.Offer, id string) (model.Offer, bool) {
	for _, o := range offers {
		if o.ID == id {
			return o, true
		}
	}
	return model.Offer{}, false
}

// AdminOffersPage handles GET /admin/offers. The query selects the open
// editor: new=1 for a new offer, edit={id} to edit one, delete={id} for the
// delete confirmation. Without any of them an open draft is discarded.
func (s *Server) AdminOffersPage(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	q := r.URL.Query()

	offers := resource.Load(r.Context(), s.Backend.ListOffers)
	items := resource.Load(r.Context(), s.Backend.ListItems)
	if items.IsReady() {
		sess.Catalog = items.Data
	}

	pd := s.page(r, sess, "Manage Offers", "admin-offers")
	if offers.IsFailed() || items.IsFailed() {
		slog.Error("failed to load offers screen", "offers_error", offers.Err, "items_error", items.Err)
		pd.Error = resource.Message(resource.FetchData)
	}

	switch {
	case q.Get("new") != "":
		if sess.OfferDraft == nil || sess.OfferDraft.Editing() {
			sess.OfferDraft = offerform.NewDraft()
		}
	case q.Get("edit") != "":
		id := q.Get("edit")
		if sess.OfferDraft == nil || sess.OfferDraft.OfferID != id {
			sess.OfferDraft = nil
			if o, ok := findOffer(offers.Data, id); ok {
				sess.OfferDraft = offerform.EditDraft(o)
			}
		}
	default:
		sess.OfferDraft = nil
	}
	s.save(r, sess)

	view := adminOffersView{
		PageData: pd,
		Offers:   offers,
		Items:    items,
		Draft:    sess.OfferDraft,
		Groups:   offerform.GroupByCategory(items.Data),
	}
	if sess.OfferDraft != nil {
		view.Selection = &sess.OfferDraft.Selection
	}
	if id := q.Get("delete"); id != "" {
		if o, ok := findOffer(offers.Data, id); ok {
			view.Confirm = &o
		}
	}

	s.Templates.Render(w, "admin_offers.html", &view)
}

// syncDraft returns the session's draft, starting a new one if there is
// none, and copies the submitted field values into it.
func syncDraft(r *http.Request, sess *session.Session) *offerform.Draft {
	if sess.OfferDraft == nil {
		sess.OfferDraft = offerform.NewDraft()
	}
	if r.ParseForm() == nil && r.PostForm.Has("offer_type") {
		sess.OfferDraft.Form = offerform.FromValues(r.PostForm)
	}
	return sess.OfferDraft
}

// catalog returns the session's item snapshot, fetching it when absent.
func (s *Server) catalog(ctx context.Context, sess *session.Session) ([]model.Item, error) {
	if sess.Catalog != nil {
		return sess.Catalog, nil
	}
	items, err := s.Backend.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	sess.Catalog = items
	return items, nil
}

// OfferDraftSubmit handles POST /admin/offers/draft. It keeps the typed
// fields, e.g. after the offer type changed the discount field.
func (s *Server) OfferDraftSubmit(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	d := syncDraft(r, sess)
	s.redirect(w, r, sess, draftURL(d))
}

// OfferDraftItemSubmit handles POST /admin/offers/draft/items/{id}.
func (s *Server) OfferDraftItemSubmit(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	d := syncDraft(r, sess)
	d.Selection.Toggle(r.PathValue("id"))
	s.redirect(w, r, sess, draftURL(d))
}

// OfferDraftCategorySubmit handles POST /admin/offers/draft/category.
func (s *Server) OfferDraftCategorySubmit(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	d := syncDraft(r, sess)

	items, err := s.catalog(r.Context(), sess)
	if err != nil {
		slog.Error("failed to list items", "error", err)
		sess.SetError(resource.Message(resource.FetchItems))
		s.redirect(w, r, sess, draftURL(d))
		return
	}

	d.Selection.ToggleCategory(items, r.PostForm.Get("category"))
	s.redirect(w, r, sess, draftURL(d))
}

// submitOffer validates the draft and reports whether the caller may call
// the backend. A zero selection is rejected before any other check.
func (s *Server) submitOffer(w http.ResponseWriter, r *http.Request, sess *session.Session, d *offerform.Draft, action string) (model.OfferInput, bool) {
	in, err := d.Form.Input(d.Selection)
	if errors.Is(err, offerform.ErrNoItemsSelected) {
		sess.SetError(offerform.NoItemsMessage)
		s.redirect(w, r, sess, draftURL(d))
		return in, false
	}
	if err != nil {
		slog.Warn("invalid offer form", "error", err)
		sess.SetError(resource.Message(action))
		s.redirect(w, r, sess, draftURL(d))
		return in, false
	}
	return in, true
}

// OfferCreateSubmit handles POST /admin/offers.
func (s *Server) OfferCreateSubmit(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess.OfferDraft != nil && sess.OfferDraft.Editing() {
		sess.OfferDraft = nil
	}
	d := syncDraft(r, sess)

	in, ok := s.submitOffer(w, r, sess, d, resource.AddOffer)
	if !ok {
		return
	}

	offer, err := s.Backend.CreateOffer(r.Context(), in)
	if err != nil {
		slog.Error("failed to create offer", "name", in.Name, "error", err)
		sess.SetError(resource.Message(resource.AddOffer))
		s.redirect(w, r, sess, draftURL(d))
		return
	}

	slog.Info("offer created", "offer", offer.ID, "name", offer.Name, "items", len(in.ApplicableItems))
	s.publish(r, events.NewOfferChanged(events.OfferCreated, offer.ID, offer.Name))
	sess.OfferDraft = nil
	s.redirect(w, r, sess, "/admin/offers")
}

// OfferUpdateSubmit handles POST /admin/offers/{id}.
func (s *Server) OfferUpdateSubmit(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	id := r.PathValue("id")
	if sess.OfferDraft == nil || sess.OfferDraft.OfferID != id {
		// No editor open for this offer: nothing is selected.
		sess.OfferDraft = &offerform.Draft{OfferID: id, Form: offerform.NewForm()}
	}
	d := syncDraft(r, sess)

	in, ok := s.submitOffer(w, r, sess, d, resource.UpdateOffer)
	if !ok {
		return
	}

	if _, err := s.Backend.UpdateOffer(r.Context(), id, in); err != nil {
		slog.Error("failed to update offer", "offer", id, "error", err)
		sess.SetError(resource.Message(resource.UpdateOffer))
		s.redirect(w, r, sess, draftURL(d))
		return
	}

	slog.Info("offer updated", "offer", id, "name", in.Name, "items", len(in.ApplicableItems))
	s.publish(r, events.NewOfferChanged(events.OfferUpdated, id, in.Name))
	sess.OfferDraft = nil
	s.redirect(w, r, sess, "/admin/offers")
}

// OfferDeleteSubmit handles POST /admin/offers/{id}/delete. Without
// confirm=yes it only opens the confirmation step.
func (s *Server) OfferDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	id := r.PathValue("id")

	if r.FormValue("confirm") != "yes" {
		http.Redirect(w, r, "/admin/offers?delete="+url.QueryEscape(id), http.StatusSeeOther)
		return
	}

	if err := s.Backend.DeleteOffer(r.Context(), id); err != nil {
		slog.Error("failed to delete offer", "offer", id, "error", err)
		sess.SetError(resource.Message(resource.DeleteOffer))
		s.redirect(w, r, sess, "/admin/offers")
		return
	}

	slog.Info("offer deleted", "offer", id)
	s.publish(r, events.NewOfferChanged(events.OfferDeleted, id, r.FormValue("name")))
	s.redirect(w, r, sess, "/admin/offers")
}
