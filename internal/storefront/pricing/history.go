package pricing

import (
	"slices"

	"github.com/jcmexdev/lvs-storefront/internal/storefront/domain"
	"github.com/jcmexdev/lvs-storefront/internal/storefront/ports"
)

// CountPriorUnits sums how many units of productID the customer bought across
// orders. Authenticated customers and guests who left an email are matched by
// email; other guests by their remembered order ids.
func CountPriorUnits(customer domain.Customer, productID domain.ID, orders []*domain.Order) int {
	if productID.IsZero() {
		return 0
	}

	total := 0
	for _, o := range orders {
		if o == nil || !belongsTo(customer, o) {
			continue
		}
		for _, it := range o.Items {
			if it.ProductID == productID && it.Quantity > 0 {
				total += it.Quantity
			}
		}
	}
	return total
}

func belongsTo(c domain.Customer, o *domain.Order) bool {
	if c.Authenticated || c.Email != "" {
		return c.Email != "" && domain.NormalizeEmail(o.Customer.Email) == c.Email
	}
	return slices.Contains(c.OrderIDs, o.ID)
}

// HistoryFilter narrows the order query to what CountPriorUnits can match.
// ok is false when the customer has no usable identity at all.
func HistoryFilter(c domain.Customer) (filter ports.OrderFilter, ok bool) {
	if c.Authenticated || c.Email != "" {
		return ports.OrderFilter{Email: c.Email}, c.Email != ""
	}
	if len(c.OrderIDs) == 0 {
		return ports.OrderFilter{}, false
	}
	return ports.OrderFilter{IDs: c.OrderIDs}, true
}
