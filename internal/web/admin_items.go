package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/erazemk/storefront/internal/events"
	"github.com/erazemk/storefront/internal/model"
	"github.com/erazemk/storefront/internal/resource"
	"github.com/erazemk/storefront/internal/session"
)

// ItemForm holds the item fields as typed by the admin. Create and edit
// share it.
type ItemForm struct {
	Name        string
	Description string
	Price       string
	Stock       string
	Category    string
}

func itemFormFromItem(it model.Item) ItemForm {
	return ItemForm{
		Name:        it.Name,
		Description: it.Description,
		Price:       it.Price.String(),
		Stock:       strconv.Itoa(it.Stock),
		Category:    it.Category,
	}
}

func itemFormFromValues(v url.Values) ItemForm {
	return ItemForm{
		Name:        strings.TrimSpace(v.Get("name")),
		Description: strings.TrimSpace(v.Get("description")),
		Price:       strings.TrimSpace(v.Get("price")),
		Stock:       strings.TrimSpace(v.Get("stock")),
		Category:    strings.TrimSpace(v.Get("category")),
	}
}

// Input converts the form into a backend request.
func (f ItemForm) Input() (model.ItemInput, error) {
	price, err := decimal.NewFromString(f.Price)
	if err != nil {
		return model.ItemInput{}, fmt.Errorf("invalid price %q", f.Price)
	}
	stock, err := strconv.Atoi(f.Stock)
	if err != nil {
		return model.ItemInput{}, fmt.Errorf("invalid stock %q", f.Stock)
	}

	in := model.ItemInput{
		Name:        f.Name,
		Description: f.Description,
		Price:       price,
		Stock:       stock,
		Category:    f.Category,
	}
	if err := in.Validate(); err != nil {
		return model.ItemInput{}, err
	}
	return in, nil
}

// itemEditor is the open create or edit form. ID is empty when creating.
type itemEditor struct {
	ID   string
	Form ItemForm
}

type adminItemsView struct {
	PageData
	Items   resource.Resource[[]model.Item]
	Editor  *itemEditor
	Confirm *model.Item
}

func (s *Server) renderAdminItems(w http.ResponseWriter, r *http.Request, sess *session.Session, editor *itemEditor, errMsg string) {
	items := resource.Load(r.Context(), s.Backend.ListItems)
	pd := s.page(r, sess, "Manage Inventory", "admin-items")
	if items.IsFailed() {
		slog.Error("failed to list items", "error", items.Err)
		pd.Error = resource.Message(resource.FetchItems)
	}
	if errMsg != "" {
		pd.Error = errMsg
	}

	view := adminItemsView{PageData: pd, Items: items, Editor: editor}

	q := r.URL.Query()
	if editor == nil && items.IsReady() {
		switch {
		case q.Get("new") != "":
			view.Editor = &itemEditor{}
		case q.Get("edit") != "":
			if it, ok := findItem(items.Data, q.Get("edit")); ok {
				view.Editor = &itemEditor{ID: it.ID, Form: itemFormFromItem(it)}
			}
		case q.Get("delete") != "":
			if it, ok := findItem(items.Data, q.Get("delete")); ok {
				view.Confirm = &it
			}
		}
	}

	s.Templates.Render(w, "admin_items.html", &view)
}

func findItem(items []model.Item, id string) (model.Item, bool) {
	for _, it := range items {
		if it.ID == id {
			return it, true
		}
	}
	return model.Item{}, false
}

// AdminItemsPage handles GET /admin/items.
func (s *Server) AdminItemsPage(w http.ResponseWriter, r *http.Request) {
	s.renderAdminItems(w, r, session.FromContext(r.Context()), nil, "")
}

// ItemCreateSubmit handles POST /admin/items.
func (s *Server) ItemCreateSubmit(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	form := itemFormFromValues(r.PostForm)

	in, err := form.Input()
	if err == nil {
		var item *model.Item
		if item, err = s.Backend.CreateItem(r.Context(), in); err == nil {
			slog.Info("item created", "item", item.ID, "name", item.Name)
			s.publish(r, events.NewItemChanged(events.ItemCreated, item.ID, item.Name))
			s.redirect(w, r, sess, "/admin/items")
			return
		}
	}

	slog.Error("failed to create item", "name", form.Name, "error", err)
	s.renderAdminItems(w, r, sess, &itemEditor{Form: form}, resource.Message(resource.AddItem))
}

// ItemUpdateSubmit handles POST /admin/items/{id}.
func (s *Server) ItemUpdateSubmit(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	id := r.PathValue("id")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	form := itemFormFromValues(r.PostForm)

	in, err := form.Input()
	if err == nil {
		if _, err = s.Backend.UpdateItem(r.Context(), id, in); err == nil {
			slog.Info("item updated", "item", id, "name", in.Name)
			s.publish(r, events.NewItemChanged(events.ItemUpdated, id, in.Name))
			s.redirect(w, r, sess, "/admin/items")
			return
		}
	}

	slog.Error("failed to update item", "item", id, "error", err)
	s.renderAdminItems(w, r, sess, &itemEditor{ID: id, Form: form}, resource.Message(resource.UpdateItem))
}

// ItemDeleteSubmit handles POST /admin/items/{id}/delete. Without
// confirm=yes it only opens the confirmation step.
func (s *Server) ItemDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	id := r.PathValue("id")

	if r.FormValue("confirm") != "yes" {
		http.Redirect(w, r, "/admin/items?delete="+url.QueryEscape(id), http.StatusSeeOther)
		return
	}

	if err := s.Backend.DeleteItem(r.Context(), id); err != nil {
		slog.Error("failed to delete item", "item", id, "error", err)
		sess.SetError(resource.Message(resource.DeleteItem))
		s.redirect(w, r, sess, "/admin/items")
		return
	}

	slog.Info("item deleted", "item", id)
	s.publish(r, events.NewItemChanged(events.ItemDeleted, id, r.FormValue("name")))
	s.redirect(w, r, sess, "/admin/items")
}
