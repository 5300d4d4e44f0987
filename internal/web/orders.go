package web

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/storefront/internal/backend"
	"github.com/erazemk/storefront/internal/model"
	"github.com/erazemk/storefront/internal/resource"
	"github.com/erazemk/storefront/internal/session"
)

// OrdersPage handles GET /orders. Amounts are shown exactly as the backend
// reports them.
func (s *Server) OrdersPage(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	orders := resource.Load(r.Context(), s.Backend.ListOrders)
	pd := s.page(r, sess, "Order History", "orders")
	if orders.IsFailed() {
		slog.Error("failed to list orders", "error", orders.Err)
		pd.Error = resource.Message(resource.FetchOrders)
	}

	s.Templates.Render(w, "orders.html", &struct {
		PageData
		Orders resource.Resource[[]model.Order]
	}{
		PageData: pd,
		Orders:   orders,
	})
}

// OrderDetailPage handles GET /orders/{id}.
func (s *Server) OrderDetailPage(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	id := r.PathValue("id")

	order, err := s.Backend.GetOrder(r.Context(), id)
	pd := s.page(r, sess, "Order", "orders")
	status := http.StatusOK
	if err != nil {
		slog.Error("failed to get order", "order", id, "error", err)
		pd.Error = resource.Message(resource.FetchOrder)
		if backend.IsNotFound(err) {
			status = http.StatusNotFound
		}
	} else {
		pd.Title = "Order #" + order.ShortID()
	}

	s.Templates.RenderStatus(w, status, "order_detail.html", &struct {
		PageData
		Order *model.Order
	}{
		PageData: pd,
		Order:    order,
	})
}
