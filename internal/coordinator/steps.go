package coordinator

import (
	"context"
	"fmt"

	"github.com/jcmexdev/lvs-storefront/internal/storefront/domain"
	"github.com/jcmexdev/lvs-storefront/internal/storefront/ports"
)

// OrderWriter persists and removes orders. The order service implements it.
type OrderWriter interface {
	Create(ctx context.Context, order *domain.Order) error
	Delete(ctx context.Context, id domain.ID) error
}

// CartResetter empties a cart and can merge its lines back.
type CartResetter interface {
	Clear(ctx context.Context) ([]domain.CartLine, error)
	Restore(ctx context.Context, lines []domain.CartLine) error
}

// --- ClearCartStep ---

// ClearCartStep empties the cart and keeps the lines it held. The order is
// built from Removed, so a unit added while checkout runs ends up either in
// the order or in the emptied cart.
type ClearCartStep struct {
	cart    CartResetter
	removed []domain.CartLine
}

func NewClearCartStep(cart CartResetter) *ClearCartStep {
	return &ClearCartStep{cart: cart}
}

func (s *ClearCartStep) Name() string { return "Clear_Cart_Step" }

func (s *ClearCartStep) Execute(ctx context.Context) error {
	lines, err := s.cart.Clear(ctx)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	s.removed = lines
	return nil
}

// Compensate puts the removed lines back so the shopper can retry.
func (s *ClearCartStep) Compensate(ctx context.Context) error {
	if len(s.removed) == 0 {
		return nil
	}
	return s.cart.Restore(ctx, s.removed)
}

// Removed returns the lines taken out of the cart by Execute.
func (s *ClearCartStep) Removed() []domain.CartLine { return s.removed }

// --- PersistOrderStep ---

// OrderBuilder assembles the order once the steps before it have run.
type OrderBuilder func() (*domain.Order, error)

type PersistOrderStep struct {
	orders  OrderWriter
	build   OrderBuilder
	order   *domain.Order
	created bool
}

func NewPersistOrderStep(orders OrderWriter, build OrderBuilder) *PersistOrderStep {
	return &PersistOrderStep{orders: orders, build: build}
}

func (s *PersistOrderStep) Name() string { return "Persist_Order_Step" }

func (s *PersistOrderStep) Execute(ctx context.Context) error {
	order, err := s.build()
	if err != nil {
		return fmt.Errorf("failed to build order: %w", err)
	}
	s.order = order
	if err := s.orders.Create(ctx, order); err != nil {
		return fmt.Errorf("failed to persist order %s: %w", order.ID, err)
	}
	s.created = true
	return nil
}

func (s *PersistOrderStep) Compensate(ctx context.Context) error {
	if !s.created {
		return nil
	}
	return s.orders.Delete(ctx, s.order.ID)
}

// Order is the order Execute persisted, nil before it ran.
func (s *PersistOrderStep) Order() *domain.Order { return s.order }

// --- RememberGuestStep ---

// RememberGuestStep records a guest's order id, and the email when the guest
// consented, so later visits can continue their progressive discount.
type RememberGuestStep struct {
	memory    ports.GuestMemory
	sessionID string
	orderID   domain.ID
	email     string
}

func NewRememberGuestStep(memory ports.GuestMemory, sessionID string, orderID domain.ID, email string) *RememberGuestStep {
	return &RememberGuestStep{memory: memory, sessionID: sessionID, orderID: orderID, email: email}
}

func (s *RememberGuestStep) Name() string { return "Remember_Guest_Step" }

func (s *RememberGuestStep) Execute(ctx context.Context) error {
	if err := s.memory.Remember(ctx, s.sessionID, s.orderID, s.email); err != nil {
		return fmt.Errorf("failed to remember guest order %s: %w", s.orderID, err)
	}
	return nil
}

func (s *RememberGuestStep) Compensate(ctx context.Context) error {
	return s.memory.Forget(ctx, s.sessionID, s.orderID)
}
