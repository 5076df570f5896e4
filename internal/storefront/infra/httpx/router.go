package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jcmexdev/lvs-storefront/internal/storefront/infra/httpx/middlewares"
)

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middlewares.AttachTracingMetadata)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Put("/products", handler.ReplaceProducts)

	r.Get("/settings", handler.GetSettings)
	r.Post("/settings", handler.SetSetting)

	r.Group(func(r chi.Router) {
		r.Use(middlewares.Session)
		r.Get("/products", handler.ListProducts)
		r.Get("/cart", handler.GetCart)
		r.Delete("/cart", handler.ClearCart)
		r.Post("/cart/items/{productID}", handler.AddCartItem)
		r.Delete("/cart/items/{productID}", handler.RemoveCartItem)
		r.Post("/checkout", handler.SubmitCheckout)
	})

	r.Get("/orders", handler.ListOrders)
	r.Get("/orders/{id}", handler.GetOrder)
	r.Get("/orders/{id}/tracker", handler.GetOrderTracker)
	r.Patch("/orders/{id}", handler.UpdateOrderStatus)
	r.Delete("/orders/{id}", handler.DeleteOrder)
	return r
}
