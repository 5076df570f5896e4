package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/lvs-storefront/internal/pkg/interceptors/constants"
	"github.com/jcmexdev/lvs-storefront/internal/storefront/adapters/memory"
	"github.com/jcmexdev/lvs-storefront/internal/storefront/app"
	"github.com/jcmexdev/lvs-storefront/internal/storefront/cart"
	"github.com/jcmexdev/lvs-storefront/internal/storefront/domain"
	"github.com/jcmexdev/lvs-storefront/internal/storefront/pricing"
)

type server struct {
	t        *testing.T
	router   http.Handler
	settings *memory.SettingsStore
	orders   *memory.OrderRepository
	sessions *cart.Sessions
}

func newServer(t *testing.T) *server {
	t.Helper()
	catalog := memory.NewCatalog(
		domain.Product{ID: "7", Name: "Mug", ListPrice: decimal.NewFromInt(10)},
		domain.Product{ID: "9", Name: "Tee", ListPrice: decimal.NewFromInt(30), FixedDiscountPercent: decimal.NewFromInt(10)},
	)
	settings := memory.NewSettingsStore()
	orders := memory.NewOrderRepository()
	guests := memory.NewGuestMemory()
	quoter := pricing.NewQuoter(pricing.NewCalculator(decimal.RequireFromString("0.1")), settings, orders, nil)
	sessions := cart.NewSessions(cart.Deps{Catalog: catalog, Pricer: quoter, Store: memory.NewCartStore()})
	orderService := app.NewOrderService(orders, quoter, nil)

	h := NewHandler(Deps{
		Catalog:  catalog,
		Settings: settings,
		Guests:   guests,
		Quoter:   quoter,
		Sessions: sessions,
		Orders:   orderService,
		Checkout: app.NewCheckout(orderService, guests, nil, nil, nil),
	})
	return &server{t: t, router: NewRouter(h), settings: settings, orders: orders, sessions: sessions}
}

func (s *server) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (s *server) setSetting(key, value string) {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/settings", SettingRequest{Key: key, Value: json.RawMessage(value)})
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
}

func session(id string) []string { return []string{constants.HeaderSessionID, id} }

func TestCart_AddRemoveFlow(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodPost, "/cart/items/9", nil, session("s1")...)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "s1", rec.Header().Get(constants.HeaderSessionID))
	c := decode[CartResponse](t, rec)
	require.Len(t, c.Lines, 1)
	assert.Equal(t, "27.00", c.Lines[0].UnitPrice)
	assert.True(t, c.Lines[0].Discounted)

	rec = s.do(http.MethodPost, "/cart/items/9", nil, session("s1")...)
	c = decode[CartResponse](t, rec)
	assert.Equal(t, 2, c.Count)
	assert.Equal(t, "54.00", c.Total)

	rec = s.do(http.MethodDelete, "/cart/items/9", nil, session("s1")...)
	c = decode[CartResponse](t, rec)
	assert.Equal(t, 1, c.Count)

	rec = s.do(http.MethodDelete, "/cart", nil, session("s1")...)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	c = decode[CartResponse](t, s.do(http.MethodGet, "/cart", nil, session("s1")...))
	assert.Empty(t, c.Lines)
}

func TestCart_Errors(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodPost, "/cart/items/404", nil, session("s1")...)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "product_not_found", decode[ErrorResponse](t, rec).Error)

	rec = s.do(http.MethodDelete, "/cart/items/9", nil, session("s1")...)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCart_MintsSessionID(t *testing.T) {
	s := newServer(t)
	rec := s.do(http.MethodGet, "/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(constants.HeaderSessionID))
}

func TestCart_ReleasedAfterClearAndCheckout(t *testing.T) {
	s := newServer(t)
	for range 3 {
		require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/cart", nil).Code)
	}
	s.do(http.MethodPost, "/cart/items/9", nil, session("buyer")...)
	s.do(http.MethodPost, "/cart/items/9", nil, session("browser")...)
	assert.Equal(t, 5, s.sessions.Len())

	rec := s.do(http.MethodDelete, "/cart", nil, session("browser")...)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 4, s.sessions.Len())

	rec = s.do(http.MethodPost, "/checkout", app.CheckoutRequest{Name: "Ana", Email: "ana@example.com"}, session("buyer")...)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 3, s.sessions.Len())
}

func TestCart_ExponentProductIDIsNotExpanded(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodPost, "/cart/items/1e50000000", nil, session("s1")...)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/orders/1e50000000", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "order_not_found", decode[ErrorResponse](t, rec).Error)
}

func TestSettings_ChangeRepricesLiveCarts(t *testing.T) {
	s := newServer(t)
	s.do(http.MethodPost, "/cart/items/7", nil, session("s1")...)
	c := decode[CartResponse](t, s.do(http.MethodPost, "/cart/items/7", nil, session("s1")...))
	assert.Equal(t, "20.00", c.Total)

	s.setSetting(domain.SettingFeaturedPromoProductID, `7`)

	c = decode[CartResponse](t, s.do(http.MethodGet, "/cart", nil, session("s1")...))
	assert.Equal(t, "18.00", c.Total)
	assert.Equal(t, "9.00", c.Lines[0].UnitPrice)

	got := decode[domain.Settings](t, s.do(http.MethodGet, "/settings", nil))
	assert.Equal(t, domain.ID("7"), got.FeaturedPromoProductID)
}

func TestSettings_RejectsUndecodableValue(t *testing.T) {
	s := newServer(t)
	rec := s.do(http.MethodPost, "/settings", SettingRequest{Key: domain.SettingMemberDiscountEnabled, Value: json.RawMessage(`"yes"`)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, s.settings.Values())
}

func TestProducts_PricedForCaller(t *testing.T) {
	s := newServer(t)
	s.setSetting(domain.SettingMemberDiscountEnabled, `true`)

	guest := decode[[]ProductResponse](t, s.do(http.MethodGet, "/products", nil))
	require.Len(t, guest, 2)
	assert.Equal(t, "10.00", guest[0].UnitPrice)

	member := decode[[]ProductResponse](t, s.do(http.MethodGet, "/products", nil, constants.HeaderCustomerEmail, "m@example.com"))
	assert.Equal(t, "9.00", member[0].UnitPrice)
	assert.Equal(t, "24.30", member[1].UnitPrice)
}

func TestProducts_Replace(t *testing.T) {
	s := newServer(t)
	body := `[{"id":12,"name":"Pen","price":"2.5","discount":"0"}]`
	req := httptest.NewRequest(http.MethodPut, "/products", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	list := decode[[]ProductResponse](t, s.do(http.MethodGet, "/products", nil))
	require.Len(t, list, 1)
	assert.Equal(t, domain.ID("12"), list[0].ID)
	assert.Equal(t, "2.50", list[0].UnitPrice)
}

func TestCheckout_GuestContinuesProgressiveDiscount(t *testing.T) {
	s := newServer(t)
	s.setSetting(domain.SettingFeaturedPromoProductID, `7`)
	s.do(http.MethodPost, "/cart/items/7", nil, session("s1")...)

	rec := s.do(http.MethodPost, "/checkout", app.CheckoutRequest{Name: "Ana", Email: "ana@example.com"}, session("s1")...)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decode[OrderResponse](t, rec)
	assert.Equal(t, domain.StatusPlaced, order.Status)
	assert.Equal(t, "10.00", order.Total)
	assert.Equal(t, []domain.Status{domain.StatusAccepted, domain.StatusShipped, domain.StatusDelivered, domain.StatusCancelled}, order.NextStatuses)

	c := decode[CartResponse](t, s.do(http.MethodPost, "/cart/items/7", nil, session("s1")...))
	assert.Equal(t, "8.00", c.Lines[0].UnitPrice, "second lifetime unit of the featured product")
}

func TestCheckout_Errors(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodPost, "/checkout", app.CheckoutRequest{Name: "Ana", Email: "ana@example.com"}, session("s1")...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "empty_cart", decode[ErrorResponse](t, rec).Error)

	s.do(http.MethodPost, "/cart/items/9", nil, session("s1")...)
	rec = s.do(http.MethodPost, "/checkout", app.CheckoutRequest{Email: "ana@example.com"}, session("s1")...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := app.CheckoutRequest{OrderID: "ORD-111111", Name: "Ana", Email: "ana@example.com"}
	rec = s.do(http.MethodPost, "/checkout", req, session("s1")...)
	require.Equal(t, http.StatusCreated, rec.Code)

	s.do(http.MethodPost, "/cart/items/9", nil, session("s1")...)
	rec = s.do(http.MethodPost, "/checkout", req, session("s1")...)
	assert.Equal(t, http.StatusConflict, rec.Code)
	c := decode[CartResponse](t, s.do(http.MethodGet, "/cart", nil, session("s1")...))
	assert.Equal(t, 1, c.Count, "failed checkout keeps the cart")
}

func TestOrders_Lifecycle(t *testing.T) {
	s := newServer(t)
	o := domain.NewOrder("ORD-100001", domain.OrderCustomer{Name: "Ana", Email: "ana@example.com"},
		[]domain.CartLine{{ProductID: "9", Name: "Tee", Quantity: 1, UnitPrice: decimal.NewFromInt(27)}}, timeNow())
	require.NoError(t, s.orders.Create(context.Background(), o))

	list := decode[[]OrderResponse](t, s.do(http.MethodGet, "/orders?email=ANA@example.com", nil))
	require.Len(t, list, 1)
	assert.Equal(t, "27.00", list[0].Total)

	rec := s.do(http.MethodPatch, "/orders/ORD-100001", StatusRequest{Status: "enviado"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, domain.StatusShipped, decode[OrderResponse](t, rec).Status)

	rec = s.do(http.MethodPatch, "/orders/ORD-100001", StatusRequest{Status: "Placed"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_transition", decode[ErrorResponse](t, rec).Error)

	rec = s.do(http.MethodPatch, "/orders/ORD-100001", StatusRequest{Status: "teleported"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	tr := decode[domain.Tracker](t, s.do(http.MethodGet, "/orders/ORD-100001/tracker", nil))
	assert.Equal(t, domain.StageActive, tr.Stages[2].State)

	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/orders/ORD-100001", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/orders/ORD-100001", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPatch, "/orders/ORD-100001", StatusRequest{Status: "Accepted"}).Code)
}

func TestSettings_StoreUnavailable(t *testing.T) {
	s := newServer(t)
	s.settings.Err = assert.AnError
	assert.Equal(t, http.StatusBadGateway, s.do(http.MethodGet, "/settings", nil).Code)
}

func timeNow() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }
