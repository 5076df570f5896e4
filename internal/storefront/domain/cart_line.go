package domain

import "github.com/shopspring/decimal"

// CartLine is one product in a cart session. UnitPrice is derived by the
// pricing engine and recomputed whenever quantity or context changes.
type CartLine struct {
	ProductID         ID              `json:"productId"`
	Name              string          `json:"name"`
	Quantity          int             `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unitPrice"`
	ListPriceSnapshot decimal.Decimal `json:"listPrice"`
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Discounted reports whether the line should be shown with a strikethrough
// list price.
func (l CartLine) Discounted() bool {
	return l.UnitPrice.LessThan(l.ListPriceSnapshot)
}
