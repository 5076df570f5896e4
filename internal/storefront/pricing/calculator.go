// Package pricing turns a product's list price and a customer's purchase
// context into a per-unit price.
//
// Two primary paths are mutually exclusive: the featured promo product gets a
// progressive discount driven by how many units the customer has ever bought,
// every other product gets its fixed catalog discount. The member discount
// stacks on top of either path for authenticated customers.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/jcmexdev/lvs-storefront/internal/storefront/domain"
)

// DefaultMemberDiscountRate is the fraction taken off for members when the
// member discount setting is on. Earlier storefront revisions used 5%; the
// current product decision is 3%. Override through configuration.
var DefaultMemberDiscountRate = decimal.RequireFromString("0.03")

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

type Calculator struct {
	MemberDiscountRate decimal.Decimal
}

func NewCalculator(memberRate decimal.Decimal) Calculator {
	return Calculator{MemberDiscountRate: clamp(memberRate, decimal.Zero, one)}
}

// UnitPrice returns the per-unit price for buying quantity units of product
// after priorUnits were already bought. It never fails: out-of-range inputs
// are clamped.
func (c Calculator) UnitPrice(
	product domain.Product,
	quantity int,
	priorUnits int,
	customer domain.Customer,
	settings domain.Settings,
) decimal.Decimal {
	if quantity < 1 {
		quantity = 1
	}
	if priorUnits < 0 {
		priorUnits = 0
	}
	base := nonNegative(product.ListPrice)

	var price decimal.Decimal
	if settings.IsFeatured(product.ID) {
		price = mean(ProgressiveUnitPrices(base, priorUnits, quantity))
	} else {
		price = applyFixedDiscount(base, product.FixedDiscountPercent)
	}

	if settings.MemberDiscountEnabled && customer.Authenticated {
		price = price.Mul(one.Sub(clamp(c.MemberDiscountRate, decimal.Zero, one)))
	}
	return nonNegative(price)
}

// ProgressiveUnitPrices returns the individual price of each unit
// priorUnits+1 .. priorUnits+quantity of a featured product.
//
// The cycle length is ceil(listPrice). Within a cycle the first unit is at
// list price and unit k (k >= 2) is k cheaper, with the discount capped at
// cycle-1 so the last unit of a cycle never goes below the one before it; the
// cycle then starts over.
func ProgressiveUnitPrices(listPrice decimal.Decimal, priorUnits, quantity int) []decimal.Decimal {
	base := nonNegative(listPrice)
	if quantity < 1 {
		quantity = 1
	}
	if priorUnits < 0 {
		priorUnits = 0
	}

	prices := make([]decimal.Decimal, quantity)
	cycle := base.Ceil().IntPart()
	if cycle <= 0 {
		for i := range prices {
			prices[i] = base
		}
		return prices
	}

	for i := range prices {
		n := int64(priorUnits + i + 1)
		step := (n-1)%cycle + 1
		if step < 2 {
			prices[i] = base
			continue
		}
		discount := min(step, cycle-1)
		prices[i] = nonNegative(base.Sub(decimal.NewFromInt(discount)))
	}
	return prices
}

func applyFixedDiscount(base, percent decimal.Decimal) decimal.Decimal {
	percent = clamp(percent, decimal.Zero, hundred)
	if !percent.IsPositive() {
		return base
	}
	return base.Mul(one.Sub(percent.Div(hundred)))
}

// meanPlaces keeps a mean exact enough that mean×n rounds back to the
// cent-exact sum for any realistic quantity.
const meanPlaces = 24

func mean(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	return decimal.Sum(decimal.Zero, values...).DivRound(decimal.NewFromInt(int64(len(values))), meanPlaces)
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func clamp(d, lo, hi decimal.Decimal) decimal.Decimal {
	return decimal.Min(decimal.Max(d, lo), hi)
}
