package domain

import "github.com/shopspring/decimal"

// Product is the catalog view the pricing engine reads. It is owned by the
// catalog and never mutated here.
type Product struct {
	ID                   ID              `json:"id"`
	Name                 string          `json:"name"`
	ListPrice            decimal.Decimal `json:"price"`
	FixedDiscountPercent decimal.Decimal `json:"discount"`
	Image                string          `json:"image,omitempty"`
}
