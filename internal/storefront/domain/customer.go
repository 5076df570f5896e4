package domain

import "strings"

// Customer is the purchase context of whoever is shopping. Authenticated
// customers qualify for the member discount; guests never do.
type Customer struct {
	Email         string
	Authenticated bool
	// OrderIDs is the guest's locally remembered order ids, used to find
	// purchase history when no email was remembered.
	OrderIDs []ID
}

func Authenticated(email string) Customer {
	return Customer{Email: NormalizeEmail(email), Authenticated: true}
}

func Guest(email string, orderIDs ...ID) Customer {
	return Customer{Email: NormalizeEmail(email), OrderIDs: orderIDs}
}

// IdentityKey is a stable key for caching data derived from the identity.
func (c Customer) IdentityKey() string {
	switch {
	case c.Authenticated:
		return "member:" + c.Email
	case c.Email != "":
		return "guest:" + c.Email
	}
	ids := make([]string, len(c.OrderIDs))
	for i, id := range c.OrderIDs {
		ids[i] = id.String()
	}
	return "guest-orders:" + strings.Join(ids, ",")
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
