package web

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/storefront/internal/backend"
	"github.com/erazemk/storefront/internal/backend/backendtest"
	"github.com/erazemk/storefront/internal/events"
	"github.com/erazemk/storefront/internal/model"
	"github.com/erazemk/storefront/internal/session"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type testEnv struct {
	backend *backendtest.Server
	server  *httptest.Server
	client  *http.Client
	events  *recordingPublisher
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	fake := backendtest.NewServer(t)
	gw, err := backend.NewClient(fake.URL)
	require.NoError(t, err)

	store := session.NewMemoryStore(time.Hour, 0)
	t.Cleanup(func() { store.Close() })
	mgr := session.NewManager(store, "test-secret", time.Hour, false)

	pub := &recordingPublisher{}
	router, err := NewRouter(gw, mgr, pub)
	require.NoError(t, err)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testEnv{
		backend: fake,
		server:  server,
		client:  &http.Client{Jar: jar},
		events:  pub,
	}
}

// get fetches a page and returns its status and body.
func (e *testEnv) get(t *testing.T, path string) (int, string) {
	t.Helper()
	resp, err := e.client.Get(e.server.URL + path)
	require.NoError(t, err)
	return readResponse(t, resp)
}

// post submits a form, follows the redirect, and returns the final page.
func (e *testEnv) post(t *testing.T, path string, form url.Values) (int, string) {
	t.Helper()
	resp, err := e.client.PostForm(e.server.URL+path, form)
	require.NoError(t, err)
	return readResponse(t, resp)
}

func readResponse(t *testing.T, resp *http.Response) (int, string) {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func (e *testEnv) enableAdmin(t *testing.T) {
	t.Helper()
	status, _ := e.post(t, "/admin-mode", url.Values{"next": {"/"}})
	require.Equal(t, http.StatusOK, status)
}

func seedItem(e *testEnv, name string, price string, stock int, category string) model.Item {
	return e.backend.AddItem(model.Item{
		Name:        name,
		Description: name + " description",
		Price:       decimal.RequireFromString(price),
		Stock:       stock,
		Category:    category,
	})
}

func TestHealthz(t *testing.T) {
	env := setupTestServer(t)

	status, body := env.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body)
}

func TestStaticAssets(t *testing.T) {
	env := setupTestServer(t)

	status, body := env.get(t, "/static/style.css")
	assert.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body)
}

func TestCatalogRendersItems(t *testing.T) {
	env := setupTestServer(t)
	seedItem(env, "Laptop", "999.99", 10, "Electronics")
	seedItem(env, "Mug", "4.5", 0, "Kitchen")

	status, body := env.get(t, "/")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Available Items")
	assert.Contains(t, body, "Laptop")
	assert.Contains(t, body, "$999.99")
	assert.Contains(t, body, "$4.50")
	assert.Contains(t, body, "Out of Stock")
	assert.NotContains(t, body, "Your Cart")
}

func TestCatalogFetchFailureShowsBanner(t *testing.T) {
	env := setupTestServer(t)
	env.backend.Fail("GET /items", http.StatusInternalServerError)

	status, body := env.get(t, "/")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Failed to fetch items. Please try again.")
}

func TestCatalogKeepsSnapshotWhenRefreshFails(t *testing.T) {
	env := setupTestServer(t)
	seedItem(env, "Laptop", "999.99", 10, "Electronics")

	_, body := env.get(t, "/")
	require.Contains(t, body, "Laptop")

	env.backend.Fail("GET /items", http.StatusBadGateway)
	_, body = env.get(t, "/")
	assert.Contains(t, body, "Failed to fetch items. Please try again.")
	assert.Contains(t, body, "Laptop")
}

func TestAddToCartClampsToStock(t *testing.T) {
	env := setupTestServer(t)
	item := seedItem(env, "Headphones", "50", 2, "Electronics")
	env.get(t, "/")

	for range 3 {
		status, _ := env.post(t, "/cart/"+item.ID+"/add", nil)
		require.Equal(t, http.StatusOK, status)
	}

	_, body := env.get(t, "/")
	assert.Contains(t, body, "Your Cart")
	assert.Contains(t, body, "Max Stock Reached")
	assert.Contains(t, body, `<span class="qty-value">2</span>`)
	assert.Contains(t, body, "$100.00")
}

func TestDecrementFromOneRemovesLine(t *testing.T) {
	env := setupTestServer(t)
	item := seedItem(env, "Keyboard", "30", 5, "Electronics")
	env.get(t, "/")

	env.post(t, "/cart/"+item.ID+"/add", nil)
	_, body := env.get(t, "/")
	require.Contains(t, body, "Your Cart")

	_, body = env.post(t, "/cart/"+item.ID+"/quantity", url.Values{"delta": {"-1"}})
	assert.NotContains(t, body, "Your Cart")
}

func TestSetQuantityAndRemove(t *testing.T) {
	env := setupTestServer(t)
	item := seedItem(env, "Cable", "2.25", 4, "Electronics")
	env.get(t, "/")
	env.post(t, "/cart/"+item.ID+"/add", nil)

	_, body := env.post(t, "/cart/"+item.ID+"/quantity", url.Values{"quantity": {"9"}})
	assert.Contains(t, body, `<span class="qty-value">4</span>`)
	assert.Contains(t, body, "$9.00")

	status, _ := env.post(t, "/cart/"+item.ID+"/quantity", url.Values{"delta": {"7"}})
	assert.Equal(t, http.StatusBadRequest, status)

	_, body = env.post(t, "/cart/"+item.ID+"/remove", nil)
	assert.NotContains(t, body, "Your Cart")
}

func TestCartIsPerBrowser(t *testing.T) {
	env := setupTestServer(t)
	item := seedItem(env, "Lamp", "20", 3, "Home")
	env.get(t, "/")
	env.post(t, "/cart/"+item.ID+"/add", nil)

	other := *env
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	other.client = &http.Client{Jar: jar}

	_, body := other.get(t, "/")
	assert.NotContains(t, body, "Your Cart")
}

func TestEmptyCheckoutSendsNoOrder(t *testing.T) {
	env := setupTestServer(t)

	status, _ := env.post(t, "/checkout", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Zero(t, env.backend.CountRequests(http.MethodPost, "/orders"))
}

func TestCheckoutSuccess(t *testing.T) {
	env := setupTestServer(t)
	item := seedItem(env, "Laptop", "999.99", 10, "Electronics")
	env.get(t, "/")
	env.post(t, "/cart/"+item.ID+"/add", nil)
	env.post(t, "/cart/"+item.ID+"/add", nil)

	_, body := env.post(t, "/checkout", nil)

	orders := env.backend.Orders()
	require.Len(t, orders, 1)
	assert.Equal(t, 2, orders[0].Items[0].Quantity)
	assert.True(t, orders[0].Items[0].UnitPrice.Equal(decimal.RequireFromString("999.99")))

	assert.Contains(t, body, "Order placed successfully! Order ID: "+orders[0].ID)
	assert.NotContains(t, body, "Your Cart")
	assert.Equal(t, []string{events.OrderPlaced}, env.events.types())

	// The stock shown reflects the refreshed catalog.
	assert.Contains(t, body, "8 in stock")

	// The banner stays until dismissed.
	_, body = env.get(t, "/")
	assert.Contains(t, body, "Order placed successfully!")
	_, body = env.post(t, "/checkout/dismiss", nil)
	assert.NotContains(t, body, "Order placed successfully!")
}

func TestCheckoutFailureKeepsCart(t *testing.T) {
	env := setupTestServer(t)
	item := seedItem(env, "Laptop", "999.99", 10, "Electronics")
	env.get(t, "/")
	env.post(t, "/cart/"+item.ID+"/add", nil)
	env.backend.Fail("POST /orders/", http.StatusInternalServerError)

	_, body := env.post(t, "/checkout", nil)
	assert.Contains(t, body, "Failed to place order. Please try again.")
	assert.Contains(t, body, "Your Cart")
	assert.Empty(t, env.backend.Orders())
	assert.Empty(t, env.events.types())

	env.backend.Fail("POST /orders/", 0)
	_, body = env.post(t, "/checkout", nil)
	assert.Contains(t, body, "Order placed successfully!")
	assert.Len(t, env.backend.Orders(), 1)
}

func TestOrdersPages(t *testing.T) {
	env := setupTestServer(t)

	_, body := env.get(t, "/orders")
	assert.Contains(t, body, "No orders found. Start shopping to place your first order!")

	item := seedItem(env, "Laptop", "999.99", 10, "Electronics")
	env.get(t, "/")
	env.post(t, "/cart/"+item.ID+"/add", nil)
	env.post(t, "/checkout", nil)
	orders := env.backend.Orders()
	require.Len(t, orders, 1)

	_, body = env.get(t, "/orders")
	assert.Contains(t, body, "Order #"+orders[0].ShortID())
	assert.Contains(t, body, "$999.99")

	status, body := env.get(t, "/orders/"+orders[0].ID)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Order #"+orders[0].ShortID())

	status, body = env.get(t, "/orders/does-not-exist")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, body, "Failed to fetch order. Please try again.")
}

func TestOrdersFetchFailure(t *testing.T) {
	env := setupTestServer(t)
	env.backend.Fail("GET /orders", http.StatusServiceUnavailable)

	_, body := env.get(t, "/orders")
	assert.Contains(t, body, "Failed to fetch orders. Please try again.")
}

func TestOffersPage(t *testing.T) {
	env := setupTestServer(t)

	_, body := env.get(t, "/offers")
	assert.Contains(t, body, "No active offers at the moment. Check back later!")

	env.backend.AddOffer(model.Offer{
		Name:          "Summer Sale",
		Description:   "Everything cheaper",
		OfferType:     model.OfferPercentage,
		DiscountValue: decimal.NewFromInt(15),
		IsActive:      true,
	})
	_, body = env.get(t, "/offers")
	assert.Contains(t, body, "Summer Sale")
	assert.Contains(t, body, "No expiration")

	env.backend.Fail("GET /offers", http.StatusInternalServerError)
	_, body = env.get(t, "/offers")
	assert.Contains(t, body, "Failed to fetch offers. Please try again.")
}

func TestAdminRoutesHiddenWithoutAdminMode(t *testing.T) {
	env := setupTestServer(t)
	item := seedItem(env, "Laptop", "999.99", 10, "Electronics")

	for _, path := range []string{"/admin/items", "/admin/offers"} {
		status, _ := env.get(t, path)
		assert.Equal(t, http.StatusNotFound, status, path)
	}

	status, _ := env.post(t, "/admin/items/"+item.ID+"/delete", url.Values{"confirm": {"yes"}})
	assert.Equal(t, http.StatusNotFound, status)
	_, ok := env.backend.Item(item.ID)
	assert.True(t, ok)
	assert.Zero(t, env.backend.CountRequests(http.MethodDelete, "/items-management"))
}

func TestAdminModeToggle(t *testing.T) {
	env := setupTestServer(t)

	_, body := env.post(t, "/admin-mode", url.Values{"next": {"/orders"}})
	assert.Contains(t, body, "Order History")

	status, _ := env.get(t, "/admin/items")
	assert.Equal(t, http.StatusOK, status)

	// Leaving admin mode from an admin screen lands on the catalog.
	resp, err := env.client.PostForm(env.server.URL+"/admin-mode", url.Values{"next": {"/admin/items"}})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "/", resp.Request.URL.Path)

	status, _ = env.get(t, "/admin/items")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestSafeNext(t *testing.T) {
	assert.Equal(t, "/offers", safeNext("/offers"))
	assert.Equal(t, "/", safeNext(""))
	assert.Equal(t, "/", safeNext("https://example.com"))
	assert.Equal(t, "/", safeNext("//example.com"))
	assert.Equal(t, "/", safeNext(`/\example.com`))
}

func TestItemCRUD(t *testing.T) {
	env := setupTestServer(t)
	env.enableAdmin(t)

	_, body := env.get(t, "/admin/items?new=1")
	assert.Contains(t, body, "Add New Item")

	_, body = env.post(t, "/admin/items", url.Values{
		"name":        {"Desk"},
		"description": {"Standing desk"},
		"price":       {"249.50"},
		"stock":       {"3"},
		"category":    {"Furniture"},
	})
	assert.Contains(t, body, "Desk")
	assert.Contains(t, body, "$249.50")

	items, err := listFake(env)
	require.NoError(t, err)
	require.Len(t, items, 1)
	desk := items[0]
	assert.Equal(t, 3, desk.Stock)

	_, body = env.get(t, "/admin/items?edit=" + desk.ID)
	assert.Contains(t, body, "Edit Item")
	assert.Contains(t, body, `value="249.5"`)

	env.post(t, "/admin/items/"+desk.ID, url.Values{
		"name":        {"Desk"},
		"description": {"Standing desk"},
		"price":       {"199"},
		"stock":       {"7"},
		"category":    {"Furniture"},
	})
	updated, _ := env.backend.Item(desk.ID)
	assert.Equal(t, 7, updated.Stock)
	assert.True(t, updated.Price.Equal(decimal.NewFromInt(199)))

	// Without confirmation only the prompt opens.
	_, body = env.post(t, "/admin/items/"+desk.ID+"/delete", nil)
	assert.Contains(t, body, "Are you sure you want to delete")
	_, ok := env.backend.Item(desk.ID)
	require.True(t, ok)

	env.post(t, "/admin/items/"+desk.ID+"/delete", url.Values{"confirm": {"yes"}, "name": {"Desk"}})
	_, ok = env.backend.Item(desk.ID)
	assert.False(t, ok)

	assert.Equal(t, []string{events.ItemCreated, events.ItemUpdated, events.ItemDeleted}, env.events.types())
}

func listFake(env *testEnv) ([]model.Item, error) {
	gw, err := backend.NewClient(env.backend.URL)
	if err != nil {
		return nil, err
	}
	return gw.ListItems(context.Background())
}

func TestItemCreateFailureKeepsTypedValues(t *testing.T) {
	env := setupTestServer(t)
	env.enableAdmin(t)
	env.backend.Fail("POST /items-management", http.StatusInternalServerError)

	status, body := env.post(t, "/admin/items", url.Values{
		"name":        {"Chair"},
		"description": {"Office chair"},
		"price":       {"89.90"},
		"stock":       {"4"},
		"category":    {"Furniture"},
	})
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Failed to add item. Please try again.")
	assert.Contains(t, body, `value="Chair"`)
	assert.Contains(t, body, `value="89.90"`)
}

func TestItemCreateRejectsInvalidInput(t *testing.T) {
	env := setupTestServer(t)
	env.enableAdmin(t)

	_, body := env.post(t, "/admin/items", url.Values{
		"name":        {"Chair"},
		"description": {"Office chair"},
		"price":       {"cheap"},
		"stock":       {"4"},
		"category":    {"Furniture"},
	})
	assert.Contains(t, body, "Failed to add item. Please try again.")
	assert.Zero(t, env.backend.CountRequests(http.MethodPost, "/items-management"))
}

func TestOfferSubmitWithoutItemsSkipsBackend(t *testing.T) {
	env := setupTestServer(t)
	seedItem(env, "Laptop", "999.99", 10, "Electronics")
	env.enableAdmin(t)

	env.get(t, "/admin/offers?new=1")
	_, body := env.post(t, "/admin/offers", url.Values{
		"name":           {"Bulk"},
		"description":    {"Buy more"},
		"offer_type":     {"percentage"},
		"discount_value": {"10"},
		"is_active":      {"on"},
	})

	assert.Contains(t, body, "Please select at least one applicable item.")
	assert.Contains(t, body, `value="Bulk"`)
	assert.Zero(t, env.backend.CountRequests(http.MethodPost, "/offers-management"))
}

func TestOfferCreateWithSelection(t *testing.T) {
	env := setupTestServer(t)
	laptop := seedItem(env, "Laptop", "999.99", 10, "Electronics")
	phone := seedItem(env, "Phone", "599", 5, "Electronics")
	mug := seedItem(env, "Mug", "5", 20, "Kitchen")
	env.enableAdmin(t)

	env.get(t, "/admin/offers?new=1")

	fields := url.Values{
		"name":           {"Gadget week"},
		"description":    {"Electronics on sale"},
		"offer_type":     {"fixed"},
		"discount_value": {"25"},
		"end_date":       {"2030-01-31"},
		"is_active":      {"on"},
	}

	withCategory := cloneValues(fields)
	withCategory.Set("category", "Electronics")
	_, body := env.post(t, "/admin/offers/draft/category", withCategory)
	assert.Contains(t, body, "2 items selected")
	assert.Contains(t, body, "Deselect All")

	env.post(t, "/admin/offers/draft/items/"+mug.ID, fields)
	_, body = env.post(t, "/admin/offers/draft/items/"+phone.ID, fields)
	assert.Contains(t, body, "2 items selected")
	assert.Contains(t, body, `value="Gadget week"`)

	env.post(t, "/admin/offers", fields)

	require.Equal(t, 1, env.backend.CountRequests(http.MethodPost, "/offers-management"))
	offers, err := listOffers(env)
	require.NoError(t, err)
	require.Len(t, offers, 1)
	got := offers[0]
	assert.Equal(t, "Gadget week", got.Name)
	assert.Equal(t, model.OfferFixed, got.OfferType)
	assert.ElementsMatch(t, []string{laptop.ID, mug.ID}, got.ApplicableItems)
	require.NotNil(t, got.EndDate)
	assert.Equal(t, "2030-01-31", got.EndDate.DateOnly())
	assert.Equal(t, []string{events.OfferCreated}, env.events.types())
}

func TestOfferUpdateAndDelete(t *testing.T) {
	env := setupTestServer(t)
	laptop := seedItem(env, "Laptop", "999.99", 10, "Electronics")
	offer := env.backend.AddOffer(model.Offer{
		Name:            "Old",
		Description:     "Old offer",
		OfferType:       model.OfferPercentage,
		DiscountValue:   decimal.NewFromInt(5),
		ApplicableItems: []string{laptop.ID},
		IsActive:        true,
	})
	env.enableAdmin(t)

	_, body := env.get(t, "/admin/offers?edit=" + offer.ID)
	assert.Contains(t, body, `value="Old"`)
	assert.Contains(t, body, "1 items selected")

	env.post(t, "/admin/offers/"+offer.ID, url.Values{
		"name":           {"New"},
		"description":    {"New offer"},
		"offer_type":     {"percentage"},
		"discount_value": {"20"},
	})
	updated, ok := env.backend.Offer(offer.ID)
	require.True(t, ok)
	assert.Equal(t, "New", updated.Name)
	assert.False(t, updated.IsActive)
	assert.Equal(t, []string{laptop.ID}, updated.ApplicableItems)

	_, body = env.post(t, "/admin/offers/"+offer.ID+"/delete", nil)
	assert.Contains(t, body, "Are you sure you want to delete")

	env.post(t, "/admin/offers/"+offer.ID+"/delete", url.Values{"confirm": {"yes"}, "name": {"New"}})
	_, ok = env.backend.Offer(offer.ID)
	assert.False(t, ok)
	assert.Equal(t, []string{events.OfferUpdated, events.OfferDeleted}, env.events.types())
}

func TestOfferUpdateWithoutOpenEditorRejected(t *testing.T) {
	env := setupTestServer(t)
	offer := env.backend.AddOffer(model.Offer{Name: "Keep", OfferType: model.OfferFixed, DiscountValue: decimal.NewFromInt(1)})
	env.enableAdmin(t)

	_, body := env.post(t, "/admin/offers/"+offer.ID, url.Values{
		"name":           {"Changed"},
		"description":    {"x"},
		"offer_type":     {"fixed"},
		"discount_value": {"2"},
	})
	assert.Contains(t, body, "Please select at least one applicable item.")
	assert.Zero(t, env.backend.CountRequests(http.MethodPost, "/offers-management"))
}

func TestAdminOffersFetchFailure(t *testing.T) {
	env := setupTestServer(t)
	env.enableAdmin(t)
	env.backend.Fail("GET /offers", http.StatusInternalServerError)

	_, body := env.get(t, "/admin/offers")
	assert.Contains(t, body, "Failed to fetch data. Please try again.")
}

func listOffers(env *testEnv) ([]model.Offer, error) {
	gw, err := backend.NewClient(env.backend.URL)
	if err != nil {
		return nil, err
	}
	return gw.ListOffers(context.Background())
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}

func TestInflightGuard(t *testing.T) {
	f := newInflight()
	assert.True(t, f.acquire("a"))
	assert.False(t, f.acquire("a"))
	assert.True(t, f.acquire("b"))
	f.release("a")
	assert.True(t, f.acquire("a"))
}

func TestLoggingMiddlewareRecordsStatus(t *testing.T) {
	h := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", strings.NewReader("")))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
