package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jcmexdev/lvs-storefront/internal/pkg/interceptors"
	"github.com/jcmexdev/lvs-storefront/internal/pkg/interceptors/constants"
	"github.com/jcmexdev/lvs-storefront/internal/storefront/app"
	"github.com/jcmexdev/lvs-storefront/internal/storefront/cart"
	"github.com/jcmexdev/lvs-storefront/internal/storefront/domain"
	"github.com/jcmexdev/lvs-storefront/internal/storefront/infra/httpx/middlewares"
	"github.com/jcmexdev/lvs-storefront/internal/storefront/ports"
	"github.com/jcmexdev/lvs-storefront/internal/storefront/pricing"
)

// Deps are the services the HTTP handlers call.
type Deps struct {
	Catalog  ports.Catalog
	Settings ports.SettingsStore
	Guests   ports.GuestMemory
	Quoter   *pricing.Quoter
	Sessions *cart.Sessions
	Orders   *app.OrderService
	Checkout *app.Checkout
	Logger   *slog.Logger
}

// Handler serves the storefront and admin endpoints.
type Handler struct {
	Deps
}

func NewHandler(deps Deps) *Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Handler{Deps: deps}
}

// ListProducts returns the catalog priced for the caller.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	products, err := h.Catalog.ListProducts(ctx)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	customer := h.currentCustomer(ctx, r)
	settings, _ := h.Quoter.Settings(ctx)

	out := make([]ProductResponse, len(products))
	for i, p := range products {
		out[i] = mapProduct(p, h.Quoter.QuoteWith(ctx, settings, p, 1, customer))
	}
	writeJSON(w, http.StatusOK, out)
}

// ReplaceProducts saves the whole catalog and re-prices live carts.
func (h *Handler) ReplaceProducts(w http.ResponseWriter, r *http.Request) {
	var products []domain.Product
	if err := json.NewDecoder(r.Body).Decode(&products); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if err := h.Catalog.ReplaceProducts(r.Context(), products); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.recalculateCarts(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.Settings.GetSettings(r.Context())
	if err != nil {
		h.writeDomainError(w, r, errors.Join(domain.ErrSettingsUnavailable, err))
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// SetSetting stores one admin setting and re-prices every live cart.
func (h *Handler) SetSetting(w http.ResponseWriter, r *http.Request) {
	var req SettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if strings.TrimSpace(req.Key) == "" || len(req.Value) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "key and value are required")
		return
	}
	if _, err := domain.SettingsFromValues(map[string]json.RawMessage{req.Key: req.Value}); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_setting", err.Error())
		return
	}

	ctx := r.Context()
	if err := h.Settings.SetSetting(ctx, req.Key, req.Value); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.Logger.InfoContext(ctx, "setting changed", "key", req.Key)
	h.recalculateCarts(ctx)

	s, err := h.Settings.GetSettings(ctx)
	if err != nil {
		h.writeDomainError(w, r, errors.Join(domain.ErrSettingsUnavailable, err))
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	c, ok := h.openCart(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, mapCart(c.View()))
}

func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	c, ok := h.openCart(w, r)
	if !ok {
		return
	}
	if _, err := c.AddUnit(r.Context(), domain.NewID(chi.URLParam(r, "productID"))); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapCart(c.View()))
}

func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	c, ok := h.openCart(w, r)
	if !ok {
		return
	}
	if err := c.RemoveUnit(r.Context(), domain.NewID(chi.URLParam(r, "productID"))); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapCart(c.View()))
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	c, ok := h.openCart(w, r)
	if !ok {
		return
	}
	if _, err := c.Clear(r.Context()); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.Sessions.Release(c.SessionID())
	w.WriteHeader(http.StatusNoContent)
}

// SubmitCheckout turns the session's cart into an order.
func (h *Handler) SubmitCheckout(w http.ResponseWriter, r *http.Request) {
	var req app.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	c, ok := h.openCart(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	req.SagaID = interceptors.IdempotencyKeyFromContext(ctx)
	h.Logger.InfoContext(ctx, "checkout requested",
		"request_id", interceptors.RequestIDFromContext(ctx),
		"session_id", c.SessionID(),
	)

	order, err := h.Checkout.Submit(ctx, c, req)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.Sessions.Release(c.SessionID())
	writeJSON(w, http.StatusCreated, mapOrder(order))
}

// ListOrders returns every order, or one customer's with ?email=.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Orders.List(r.Context(), ports.OrderFilter{Email: r.URL.Query().Get("email")})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrders(orders))
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.Orders.Get(r.Context(), orderID(r))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrder(o))
}

func (h *Handler) GetOrderTracker(w http.ResponseWriter, r *http.Request) {
	t, err := h.Orders.Tracker(r.Context(), orderID(r))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	o, err := h.Orders.Transition(r.Context(), orderID(r), req.Status)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrder(o))
}

func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.Orders.Delete(r.Context(), orderID(r)); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// currentCustomer resolves who is shopping. X-Customer-Email is set by the
// upstream auth layer; guests are recognised from what their session
// remembered and an optional X-Guest-Email.
func (h *Handler) currentCustomer(ctx context.Context, r *http.Request) domain.Customer {
	if email := strings.TrimSpace(r.Header.Get(constants.HeaderCustomerEmail)); email != "" {
		return domain.Authenticated(email)
	}

	var remembered ports.GuestIdentity
	if h.Guests != nil {
		id, err := h.Guests.Recall(ctx, middlewares.SessionID(ctx))
		if err != nil {
			h.Logger.WarnContext(ctx, "guest identity unavailable", "error", err)
		}
		remembered = id
	}
	email := strings.TrimSpace(r.Header.Get(constants.HeaderGuestEmail))
	if email == "" {
		email = remembered.Email
	}
	return domain.Guest(email, remembered.OrderIDs...)
}

func (h *Handler) openCart(w http.ResponseWriter, r *http.Request) (*cart.Cart, bool) {
	ctx := r.Context()
	c, err := h.Sessions.Open(ctx, middlewares.SessionID(ctx), h.currentCustomer(ctx, r))
	if err != nil {
		h.writeDomainError(w, r, err)
		return nil, false
	}
	return c, true
}

func (h *Handler) recalculateCarts(ctx context.Context) {
	if err := h.Sessions.RecalculateAll(ctx); err != nil {
		h.Logger.WarnContext(ctx, "failed to recalculate carts", "error", err)
	}
}

func orderID(r *http.Request) domain.ID {
	return domain.NewID(chi.URLParam(r, "id"))
}

func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, "invalid_request", verr.Error())
	case errors.Is(err, domain.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "order_not_found", err.Error())
	case errors.Is(err, domain.ErrUnknownProduct):
		writeError(w, http.StatusNotFound, "product_not_found", err.Error())
	case errors.Is(err, domain.ErrLineNotFound):
		writeError(w, http.StatusNotFound, "line_not_found", err.Error())
	case errors.Is(err, domain.ErrDuplicateOrderID):
		writeError(w, http.StatusConflict, "duplicate_order_id", err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, domain.ErrUnknownStatus):
		writeError(w, http.StatusBadRequest, "unknown_status", err.Error())
	case errors.Is(err, domain.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, "empty_cart", err.Error())
	default:
		h.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadGateway, "storage_error", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}
