package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentOnDelivery is the only payment method the storefront offers.
const PaymentOnDelivery = "Pay on delivery"

type Order struct {
	ID        ID            `json:"id"`
	Status    Status        `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
	Customer  OrderCustomer `json:"customer"`
	Items     []OrderItem   `json:"items"`
	// Total is fixed at submission and never recomputed.
	Total decimal.Decimal `json:"total"`
}

type OrderCustomer struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	PaymentMethod string `json:"payment"`
}

type OrderItem struct {
	ProductID           ID              `json:"productId"`
	Name                string          `json:"name"`
	Quantity            int             `json:"quantity"`
	UnitPriceAtPurchase decimal.Decimal `json:"price"`
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPriceAtPurchase.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// NewOrder snapshots cart lines into a Placed order. The lines are copied so
// later cart mutations cannot reach the order.
func NewOrder(id ID, customer OrderCustomer, lines []CartLine, now time.Time) *Order {
	if customer.PaymentMethod == "" {
		customer.PaymentMethod = PaymentOnDelivery
	}
	customer.Email = NormalizeEmail(customer.Email)

	items := make([]OrderItem, len(lines))
	for i, l := range lines {
		items[i] = OrderItem{
			ProductID:           l.ProductID,
			Name:                l.Name,
			Quantity:            l.Quantity,
			UnitPriceAtPurchase: l.UnitPrice,
		}
	}

	return &Order{
		ID:        id,
		Status:    StatusPlaced,
		CreatedAt: now.UTC(),
		Customer:  customer,
		Items:     items,
		Total:     ItemsTotal(items),
	}
}

// ItemsTotal sums line totals and rounds the result to cents.
func ItemsTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return RoundMoney(total)
}

// Clone returns a deep copy so callers cannot alias the stored snapshot.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.Items = append([]OrderItem(nil), o.Items...)
	return &c
}

// RoundMoney rounds to cents, half away from zero.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

var orderNumberSpan = big.NewInt(900000)

// NewOrderID returns an id in the storefront's ORD-NNNNNN format. Collisions
// are possible and surface as ErrDuplicateOrderID on persistence.
func NewOrderID() ID {
	n, err := rand.Int(rand.Reader, orderNumberSpan)
	if err != nil {
		n = big.NewInt(time.Now().UnixNano() % orderNumberSpan.Int64())
	}
	return ID(fmt.Sprintf("ORD-%06d", 100000+n.Int64()))
}
