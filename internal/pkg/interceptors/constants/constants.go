// Package constants names the headers the storefront reads or echoes and the
// context keys their values are stored under.
package constants

type contextKey string

// Header names are lower case so they double as gRPC metadata keys.
const (
	HeaderRequestID      = "x-request-id"
	HeaderIdempotencyKey = "x-idempotency-key"
	// HeaderSessionID selects the cart; the server mints one when absent.
	HeaderSessionID = "x-session-id"
	// HeaderCustomerEmail marks a signed-in member.
	HeaderCustomerEmail = "x-customer-email"
	// HeaderGuestEmail is an email a guest offered before checkout.
	HeaderGuestEmail = "x-guest-email"
)

const (
	ContextKeyRequestID      contextKey = "request_id"
	ContextKeyIdempotencyKey contextKey = "idempotency_key"
	ContextKeySessionID      contextKey = "session_id"
)
