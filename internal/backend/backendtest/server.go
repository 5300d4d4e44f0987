// Package backendtest provides an in-memory fake of the inventory backend for
// tests.
package backendtest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erazemk/storefront/internal/model"
)

// Request records one call received by the fake.
type Request struct {
	Method string
	Path   string
	Body   []byte
}

// Server is a fake backend. Orders echo the submitted lines; discount
// computation is not simulated.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	items    map[string]model.Item
	offers   map[string]model.Offer
	orders   map[string]model.Order
	failing  map[string]int
	requests []Request
}

// NewServer starts a fake backend that is closed when the test ends.
func NewServer(t *testing.T) *Server {
	t.Helper()

	s := &Server{
		items:   make(map[string]model.Item),
		offers:  make(map[string]model.Offer),
		orders:  make(map[string]model.Order),
		failing: make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /items", s.listItems)
	mux.HandleFunc("GET /items/{id}", s.getItem)
	mux.HandleFunc("POST /items-management", s.createItem)
	mux.HandleFunc("POST /items-management/{id}", s.updateItem)
	mux.HandleFunc("DELETE /items-management/{id}", s.deleteItem)
	mux.HandleFunc("GET /orders", s.listOrders)
	mux.HandleFunc("GET /orders/{id}", s.getOrder)
	mux.HandleFunc("POST /orders/", s.createOrder)
	mux.HandleFunc("GET /offers", s.listOffers)
	mux.HandleFunc("GET /offers/{id}", s.getOffer)
	mux.HandleFunc("POST /offers-management", s.createOffer)
	mux.HandleFunc("POST /offers-management/{id}", s.updateOffer)
	mux.HandleFunc("DELETE /offers-management/{id}", s.deleteOffer)

	s.Server = httptest.NewServer(s.record(mux))
	t.Cleanup(s.Close)
	return s
}

// AddItem seeds an item and returns it with its id set.
func (s *Server) AddItem(item model.Item) model.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	s.items[item.ID] = item
	return item
}

// AddOffer seeds an offer and returns it with its id set.
func (s *Server) AddOffer(offer model.Offer) model.Offer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if offer.ID == "" {
		offer.ID = uuid.NewString()
	}
	s.offers[offer.ID] = offer
	return offer
}

// Item returns the stored item with the given id.
func (s *Server) Item(id string) (model.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	return item, ok
}

// Offer returns the stored offer with the given id.
func (s *Server) Offer(id string) (model.Offer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	offer, ok := s.offers[id]
	return offer, ok
}

// Orders returns all stored orders.
func (s *Server) Orders() []model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedOrders(s.orders)
}

// Fail makes requests matching "METHOD /path" answer with the status code.
// Pass status 0 to clear.
func (s *Server) Fail(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failing, route)
		return
	}
	s.failing[route] = status
}

// Requests returns the calls received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// CountRequests counts calls with the given method and path prefix.
func (s *Server) CountRequests(method, pathPrefix string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && strings.HasPrefix(r.Path, pathPrefix) {
			n++
		}
	}
	return n
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}

		s.mu.Lock()
		s.requests = append(s.requests, Request{Method: r.Method, Path: r.URL.Path, Body: body})
		status, failing := s.failing[r.Method+" "+r.URL.Path]
		s.mu.Unlock()

		if failing {
			writeJSON(w, status, map[string]string{"detail": "injected failure"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) listItems(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]model.Item, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) getItem(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[r.PathValue("id")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Item not found"})
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) createItem(w http.ResponseWriter, r *http.Request) {
	var in model.ItemInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}
	item := s.AddItem(model.Item{
		Name: in.Name, Description: in.Description, Price: in.Price, Stock: in.Stock, Category: in.Category,
	})
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) updateItem(w http.ResponseWriter, r *http.Request) {
	var in model.ItemInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := r.PathValue("id")
	if _, ok := s.items[id]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Item not found"})
		return
	}
	item := model.Item{ID: id, Name: in.Name, Description: in.Description, Price: in.Price, Stock: in.Stock, Category: in.Category}
	s.items[id] = item
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) deleteItem(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := r.PathValue("id")
	item, ok := s.items[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Item not found"})
		return
	}
	delete(s.items, id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Item '" + item.Name + "' deleted successfully"})
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, sortedOrders(s.orders))
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[r.PathValue("id")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Order not found"})
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	var lines []model.OrderLine
	if err := json.NewDecoder(r.Body).Decode(&lines); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, line := range lines {
		item, ok := s.items[line.ItemID]
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string][]string{"detail": {"Item with ID " + line.ItemID + " not found"}})
			return
		}
		if item.Stock < line.Quantity {
			writeJSON(w, http.StatusBadRequest, map[string][]string{"detail": {"Not enough stock for item " + item.Name}})
			return
		}
		total = total.Add(line.Subtotal())
	}
	for _, line := range lines {
		item := s.items[line.ItemID]
		item.Stock -= line.Quantity
		s.items[line.ItemID] = item
	}

	order := model.Order{
		ID:          uuid.NewString(),
		CreatedAt:   model.Timestamp{Time: time.Now().UTC().Truncate(time.Second)},
		Items:       lines,
		TotalAmount: total,
		FinalAmount: total,
	}
	s.orders[order.ID] = order
	writeJSON(w, http.StatusOK, order)
}

func (s *Server) listOffers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	offers := make([]model.Offer, 0, len(s.offers))
	for _, offer := range s.offers {
		offers = append(offers, offer)
	}
	sort.Slice(offers, func(i, j int) bool { return offers[i].Name < offers[j].Name })
	writeJSON(w, http.StatusOK, offers)
}

func (s *Server) getOffer(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	offer, ok := s.offers[r.PathValue("id")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Offer not found"})
		return
	}
	writeJSON(w, http.StatusOK, offer)
}

func (s *Server) createOffer(w http.ResponseWriter, r *http.Request) {
	var in model.OfferInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}
	offer := s.AddOffer(offerFromInput("", in))
	writeJSON(w, http.StatusOK, offer)
}

func (s *Server) updateOffer(w http.ResponseWriter, r *http.Request) {
	var in model.OfferInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := r.PathValue("id")
	if _, ok := s.offers[id]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Offer not found"})
		return
	}
	offer := offerFromInput(id, in)
	s.offers[id] = offer
	writeJSON(w, http.StatusOK, offer)
}

func (s *Server) deleteOffer(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := r.PathValue("id")
	offer, ok := s.offers[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Offer not found"})
		return
	}
	delete(s.offers, id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Offer '" + offer.Name + "' deleted successfully"})
}

func offerFromInput(id string, in model.OfferInput) model.Offer {
	offer := model.Offer{
		ID:              id,
		Name:            in.Name,
		Description:     in.Description,
		OfferType:       in.OfferType,
		DiscountValue:   in.DiscountValue,
		MinQuantity:     in.MinQuantity,
		ApplicableItems: in.ApplicableItems,
		IsActive:        in.IsActive,
	}
	if in.StartDate != nil {
		if ts, err := model.ParseTimestamp(*in.StartDate); err == nil {
			offer.StartDate = &ts
		}
	}
	if in.EndDate != nil {
		if ts, err := model.ParseTimestamp(*in.EndDate); err == nil {
			offer.EndDate = &ts
		}
	}
	return offer
}

func sortedOrders(m map[string]model.Order) []model.Order {
	orders := make([]model.Order, 0, len(m))
	for _, order := range m {
		orders = append(orders, order)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.Before(orders[j].CreatedAt.Time) })
	return orders
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
