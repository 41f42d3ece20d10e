package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maks2008271/supercell-shop/internal/domain"
	"github.com/maks2008271/supercell-shop/internal/host"
	"github.com/maks2008271/supercell-shop/internal/store"
)

const testBotToken = "1234567890:TEST-TOKEN"

func newTestServer(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()
	st, err := store.Open(store.Deps{DSN: filepath.Join(t.TempDir(), "shop.db")})
	require.NoError(t, err)

	h, err := New(Deps{Store: st, BotToken: testBotToken})
	require.NoError(t, err)

	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return srv, st
}

func seedCatalog(t *testing.T, st *store.Store) {
	t.Helper()
	products := []store.Product{
		{ID: 1, Name: "Набор новичка", Price: 199.9, Game: domain.GameBrawlStars, Subcategory: "all", InStock: true},
		{ID: 2, Name: "Гемы 170", Description: "170 кристаллов", Price: 499, Game: domain.GameBrawlStars, Subcategory: "gems", InStock: true},
		{ID: 3, Name: "Эмодзи", Price: 150, Game: domain.GameClashRoyale, Subcategory: "emoji", InStock: true},
	}
	for _, p := range products {
		require.NoError(t, st.UpsertProduct(p))
	}
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	var body map[string]string
	resp := getJSON(t, srv.URL+"/healthz", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestListProducts(t *testing.T) {
	srv, st := newTestServer(t)
	seedCatalog(t, st)

	var products []domain.Product
	resp := getJSON(t, srv.URL+"/api/products?game=brawlstars", &products)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, products, 2)

	resp = getJSON(t, srv.URL+"/api/products?game=tetris", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetProduct(t *testing.T) {
	srv, st := newTestServer(t)
	seedCatalog(t, st)

	var p domain.Product
	resp := getJSON(t, srv.URL+"/api/product/2", &p)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Гемы 170", p.Name)

	resp = getJSON(t, srv.URL+"/api/product/999", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSearchEndpoint(t *testing.T) {
	srv, st := newTestServer(t)
	seedCatalog(t, st)

	var results []domain.Product
	resp := getJSON(t, srv.URL+"/api/search?q="+url.QueryEscape("гемы"), &results)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, results, 1)
	assert.Equal(t, int64(2), results[0].ID)

	// Short queries return an empty list, not an error.
	resp = getJSON(t, srv.URL+"/api/search?q=g", &results)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, results)
}

func TestUserEndpoints(t *testing.T) {
	srv, st := newTestServer(t)
	seedCatalog(t, st)

	resp := getJSON(t, srv.URL+"/api/user/100001", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	user, err := st.GetOrCreateUser(100001, "maria", "Мария")
	require.NoError(t, err)
	order, err := st.CreateOrder(100001, 2, "player@example.com")
	require.NoError(t, err)
	require.NoError(t, st.UpdateOrderStatus(order.ID, domain.OrderStatusPaid))

	var profile domain.UserProfile
	resp = getJSON(t, srv.URL+"/api/user/100001", &profile)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, user.UID, profile.UID)
	assert.Equal(t, 1, profile.OrdersCount)
}

func TestOrdersHidePickupCodeUntilPaid(t *testing.T) {
	srv, st := newTestServer(t)
	seedCatalog(t, st)

	_, err := st.GetOrCreateUser(100001, "maria", "Мария")
	require.NoError(t, err)
	pending, err := st.CreateOrder(100001, 1, "player@example.com")
	require.NoError(t, err)
	paid, err := st.CreateOrder(100001, 2, "player@example.com")
	require.NoError(t, err)
	require.NoError(t, st.UpdateOrderStatus(paid.ID, domain.OrderStatusPaid))

	var orders []domain.Order
	resp := getJSON(t, srv.URL+"/api/user/100001/orders", &orders)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, orders, 2)

	byID := map[int64]domain.Order{}
	for _, o := range orders {
		byID[o.ID] = o
	}
	assert.Empty(t, byID[pending.ID].PickupCode, "unpaid order must hide its pickup code")
	assert.NotEmpty(t, byID[paid.ID].PickupCode, "paid order reveals its pickup code")
}

func TestPurchaseRequiresAuth(t *testing.T) {
	srv, st := newTestServer(t)
	seedCatalog(t, st)

	body := `{"user_id":42,"product_id":2,"supercell_id":"player@example.com"}`
	resp, err := http.Post(srv.URL+"/api/purchase", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func purchaseWith(t *testing.T, srv *httptest.Server, initData, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/purchase", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Telegram-Init-Data", initData)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestPurchaseFlow(t *testing.T) {
	srv, st := newTestServer(t)
	seedCatalog(t, st)

	initData := host.SignInitData(host.InitDataUser{ID: 42, FirstName: "Мария"}, testBotToken, time.Now())

	resp := purchaseWith(t, srv, initData, `{"user_id":42,"product_id":2,"supercell_id":"player@example.com"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Success         bool   `json:"success"`
		Message         string `json:"message"`
		OrderID         int64  `json:"order_id"`
		PaymentRequired bool   `json:"payment_required"`
		PickupCode      string `json:"pickup_code"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.True(t, result.Success)
	assert.True(t, result.PaymentRequired)
	assert.NotZero(t, result.OrderID)
	assert.Empty(t, result.PickupCode, "pickup code is withheld until payment")

	orders, err := st.UserOrders(42, 10)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, domain.OrderStatusPendingPayment, orders[0].Status)
}

func TestPurchaseRejectsUserMismatch(t *testing.T) {
	srv, st := newTestServer(t)
	seedCatalog(t, st)

	initData := host.SignInitData(host.InitDataUser{ID: 43}, testBotToken, time.Now())
	resp := purchaseWith(t, srv, initData, `{"user_id":42,"product_id":2,"supercell_id":"player@example.com"}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestPurchaseRejectsBadEmail(t *testing.T) {
	srv, st := newTestServer(t)
	seedCatalog(t, st)

	initData := host.SignInitData(host.InitDataUser{ID: 42}, testBotToken, time.Now())
	resp := purchaseWith(t, srv, initData, `{"user_id":42,"product_id":2,"supercell_id":"не почта"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestPurchaseRejectsForgedInitData(t *testing.T) {
	srv, st := newTestServer(t)
	seedCatalog(t, st)

	forged := host.SignInitData(host.InitDataUser{ID: 42}, "another-bot-token", time.Now())
	resp := purchaseWith(t, srv, forged, `{"user_id":42,"product_id":2,"supercell_id":"player@example.com"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestDevBearerAuth(t *testing.T) {
	st, err := store.Open(store.Deps{DSN: filepath.Join(t.TempDir(), "shop.db")})
	require.NoError(t, err)
	seedCatalog(t, st)

	h, err := New(Deps{Store: st, Dev: true, DevJWTSecret: "dev-secret"})
	require.NoError(t, err)
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)

	token, err := host.NewDevToken("dev-secret", 42, "Мария", time.Now())
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/purchase",
		strings.NewReader(`{"user_id":42,"product_id":2,"supercell_id":"player@example.com"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
