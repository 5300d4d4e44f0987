package web

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/erazemk/storefront/internal/backend"
	"github.com/erazemk/storefront/internal/events"
	"github.com/erazemk/storefront/internal/model"
	"github.com/erazemk/storefront/internal/offerform"
	"github.com/erazemk/storefront/internal/resource"
	"github.com/erazemk/storefront/internal/session"
	webembed "github.com/erazemk/storefront/web"
)

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"money":         model.FormatMoney,
		"date":          model.FormatDate,
		"datetime":      model.FormatDateTime,
		"discountField": offerform.DiscountField,
		"offerTypes":    offerTypes,
		"failed":        resource.Message,
	}
}

func offerTypes() []model.OfferType {
	return []model.OfferType{model.OfferPercentage, model.OfferFixed, model.OfferBuyXGetY}
}

// LoadTemplates parses all page templates with the layout.
func LoadTemplates() (*Templates, error) {
	tfs := webembed.TemplatesFS()

	layoutBytes, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	pages := []string{
		"catalog.html",
		"orders.html",
		"order_detail.html",
		"offers.html",
		"admin_items.html",
		"admin_offers.html",
	}

	ts := &Templates{templates: make(map[string]*template.Template)}

	for _, page := range pages {
		pageBytes, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl := template.New(page).Funcs(FuncMap())
		tmpl, err = tmpl.Parse(string(layoutBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		tmpl, err = tmpl.Parse(string(pageBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}

		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Render renders a template with the given data and a 200 status.
func (ts *Templates) Render(w http.ResponseWriter, name string, data any) {
	ts.RenderStatus(w, http.StatusOK, name, data)
}

// RenderStatus renders a template with the given status. The page is
// buffered so a template error never leaves a half-written response.
func (ts *Templates) RenderStatus(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("failed to write page", "template", name, "error", err)
	}
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title     string
	Nav       string
	Path      string
	AdminMode bool
	CartCount int
	Error     string
	Success   string
}

// Server holds all dependencies for page handlers.
type Server struct {
	Backend   backend.Gateway
	Sessions  *session.Manager
	Events    events.Publisher
	Templates *Templates

	checkouts *inflight
}

// page builds the shared page data and consumes the session's pending
// banners. The session is saved when a banner was consumed.
func (s *Server) page(r *http.Request, sess *session.Session, title, nav string) PageData {
	pd := PageData{
		Title:     title,
		Nav:       nav,
		Path:      r.URL.RequestURI(),
		AdminMode: sess.AdminMode,
		CartCount: sess.Cart.Len(),
	}
	if sess.HasFlash() {
		f := sess.PopFlash()
		pd.Error, pd.Success = f.Error, f.Success
		s.save(r, sess)
	}
	return pd
}

// save persists the session, logging failures. A lost save only loses view
// state, so it never fails the request.
func (s *Server) save(r *http.Request, sess *session.Session) {
	if err := s.Sessions.Save(r.Context(), sess); err != nil {
		slog.Error("failed to save session", "session", sess.ID, "error", err)
	}
}

// redirect saves the session and answers 303 See Other.
func (s *Server) redirect(w http.ResponseWriter, r *http.Request, sess *session.Session, url string) {
	s.save(r, sess)
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// publish sends an activity event. Failures are logged and otherwise ignored.
func (s *Server) publish(r *http.Request, e events.Event) {
	if err := s.Events.Publish(r.Context(), e); err != nil {
		slog.Warn("failed to publish event", "type", e.Type, "error", err)
	}
}
