package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateOrderID    = errors.New("duplicate order id")
	ErrOrderNotFound       = errors.New("order not found")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrUnknownStatus       = errors.New("unknown order status")
	ErrUnknownProduct      = errors.New("unknown product")
	ErrLineNotFound        = errors.New("product not in cart")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrSettingsUnavailable = errors.New("settings unavailable")
	ErrHistoryUnavailable  = errors.New("order history unavailable")
)

// TransitionError describes a rejected status change. It unwraps to
// ErrInvalidTransition.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// ValidationError reports a rejected field in a request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}
