package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jcmexdev/lvs-storefront/internal/coordinator"
	"github.com/jcmexdev/lvs-storefront/internal/coordinator/sagalog"
	"github.com/jcmexdev/lvs-storefront/internal/storefront/cart"
	"github.com/jcmexdev/lvs-storefront/internal/storefront/domain"
	"github.com/jcmexdev/lvs-storefront/internal/storefront/ports"
)

// CheckoutRequest is the delivery form submitted with a cart.
type CheckoutRequest struct {
	// OrderID is optional; a fresh ORD-NNNNNN id is generated when empty.
	OrderID domain.ID `json:"orderId,omitempty"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	Phone   string    `json:"phone"`
	Address string    `json:"address"`
	// RememberEmail lets a guest's later visits find this order by email.
	RememberEmail bool `json:"rememberEmail"`
	// SagaID correlates retries of one submission, e.g. an idempotency key.
	SagaID string `json:"-"`
}

// CheckoutCart is the part of a cart session checkout consumes.
type CheckoutCart interface {
	coordinator.CartResetter
	SessionID() string
	Lines() []domain.CartLine
	Customer() domain.Customer
}

var _ CheckoutCart = (*cart.Cart)(nil)

type Checkout struct {
	orders  coordinator.OrderWriter
	guests  ports.GuestMemory
	sagaLog sagalog.Repository
	now     ports.Clock
	logger  *slog.Logger
}

// NewCheckout wires the checkout saga. sagaLog and now may be nil.
func NewCheckout(orders coordinator.OrderWriter, guests ports.GuestMemory, sagaLog sagalog.Repository, now ports.Clock, logger *slog.Logger) *Checkout {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Checkout{orders: orders, guests: guests, sagaLog: sagaLog, now: now, logger: logger}
}

// checkoutPayload is what the saga log records when a checkout starts. The
// items are only known once the cart has been cleared.
type checkoutPayload struct {
	OrderID   domain.ID            `json:"orderId"`
	SessionID string               `json:"sessionId"`
	Customer  domain.OrderCustomer `json:"customer"`
}

// Submit turns the cart into an order. The order holds exactly the lines the
// cart gave up when it was cleared. On any failure the order is removed and
// those lines go back into the cart.
func (c *Checkout) Submit(ctx context.Context, session CheckoutCart, req CheckoutRequest) (*domain.Order, error) {
	if len(session.Lines()) == 0 {
		return nil, domain.ErrEmptyCart
	}

	customer := session.Customer()
	if strings.TrimSpace(req.Email) == "" {
		req.Email = customer.Email
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	id := req.OrderID
	if id.IsZero() {
		id = domain.NewOrderID()
	}
	buyer := domain.OrderCustomer{
		Name:    strings.TrimSpace(req.Name),
		Email:   domain.NormalizeEmail(req.Email),
		Phone:   strings.TrimSpace(req.Phone),
		Address: strings.TrimSpace(req.Address),
	}

	clearCart := coordinator.NewClearCartStep(session)
	persist := coordinator.NewPersistOrderStep(c.orders, func() (*domain.Order, error) {
		lines := clearCart.Removed()
		if len(lines) == 0 {
			return nil, domain.ErrEmptyCart
		}
		return domain.NewOrder(id, buyer, lines, c.now()), nil
	})
	steps := []coordinator.Step{clearCart, persist}
	if !customer.Authenticated && c.guests != nil {
		email := ""
		if req.RememberEmail {
			email = buyer.Email
		}
		steps = append(steps, coordinator.NewRememberGuestStep(c.guests, session.SessionID(), id, email))
	}

	sagaID := req.SagaID
	if sagaID == "" {
		sagaID = uuid.NewString()
	}
	payload, err := json.Marshal(checkoutPayload{OrderID: id, SessionID: session.SessionID(), Customer: buyer})
	if err != nil {
		return nil, fmt.Errorf("app: encode checkout %s: %w", id, err)
	}

	saga := coordinator.NewOrchestrator(sagaID, string(payload), steps, c.sagaLog, c.logger)
	if err := saga.Start(ctx); err != nil {
		return nil, fmt.Errorf("app: checkout %s: %w", id, err)
	}
	return persist.Order(), nil
}

func (r CheckoutRequest) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return &domain.ValidationError{Field: "name", Reason: "is required"}
	}
	email := strings.TrimSpace(r.Email)
	if email == "" {
		return &domain.ValidationError{Field: "email", Reason: "is required"}
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return &domain.ValidationError{Field: "email", Reason: "is not a valid address"}
	}
	return nil
}
