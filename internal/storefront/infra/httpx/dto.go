package httpx

import (
	"encoding/json"
	"time"

	"github.com/jcmexdev/lvs-storefront/internal/storefront/cart"
	"github.com/jcmexdev/lvs-storefront/internal/storefront/domain"
	"github.com/jcmexdev/lvs-storefront/internal/storefront/pricing"
)

type ProductResponse struct {
	ID        domain.ID `json:"id"`
	Name      string    `json:"name"`
	Image     string    `json:"image,omitempty"`
	ListPrice string    `json:"listPrice"`
	Discount  string    `json:"discount"`
	UnitPrice string    `json:"unitPrice"`
	Featured  bool      `json:"featured"`
}

type SettingRequest struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

type CartLineResponse struct {
	ProductID  domain.ID `json:"productId"`
	Name       string    `json:"name"`
	Quantity   int       `json:"quantity"`
	UnitPrice  string    `json:"unitPrice"`
	ListPrice  string    `json:"listPrice"`
	Subtotal   string    `json:"subtotal"`
	Discounted bool      `json:"discounted"`
}

type CartResponse struct {
	SessionID string             `json:"sessionId"`
	Lines     []CartLineResponse `json:"lines"`
	Count     int                `json:"count"`
	Total     string             `json:"total"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

type OrderItemResponse struct {
	ProductID domain.ID `json:"productId"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	Price     string    `json:"price"`
}

type OrderResponse struct {
	ID           domain.ID            `json:"id"`
	Status       domain.Status        `json:"status"`
	NextStatuses []domain.Status      `json:"nextStatuses"`
	Customer     domain.OrderCustomer `json:"customer"`
	Items        []OrderItemResponse  `json:"items"`
	Total        string               `json:"total"`
	CreatedAt    string               `json:"createdAt"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func mapProduct(p domain.Product, q pricing.Quote) ProductResponse {
	return ProductResponse{
		ID:        p.ID,
		Name:      p.Name,
		Image:     p.Image,
		ListPrice: p.ListPrice.StringFixed(2),
		Discount:  p.FixedDiscountPercent.String(),
		UnitPrice: q.UnitPrice.StringFixed(2),
		Featured:  q.Featured,
	}
}

func mapCart(v cart.View) CartResponse {
	lines := make([]CartLineResponse, len(v.Lines))
	for i, l := range v.Lines {
		lines[i] = CartLineResponse{
			ProductID:  l.ProductID,
			Name:       l.Name,
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice.StringFixed(2),
			ListPrice:  l.ListPriceSnapshot.StringFixed(2),
			Subtotal:   domain.RoundMoney(l.Subtotal()).StringFixed(2),
			Discounted: l.Discounted(),
		}
	}
	return CartResponse{
		SessionID: v.SessionID,
		Lines:     lines,
		Count:     v.Count,
		Total:     v.Total.StringFixed(2),
	}
}

func mapOrder(o *domain.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderItemResponse{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			Price:     it.UnitPriceAtPurchase.StringFixed(2),
		}
	}
	next := domain.NextAllowedStates(o.Status)
	if next == nil {
		next = []domain.Status{}
	}
	return OrderResponse{
		ID:           o.ID,
		Status:       o.Status,
		NextStatuses: next,
		Customer:     o.Customer,
		Items:        items,
		Total:        o.Total.StringFixed(2),
		CreatedAt:    o.CreatedAt.Format(time.RFC3339),
	}
}

func mapOrders(orders []*domain.Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i, o := range orders {
		out[i] = mapOrder(o)
	}
	return out
}
