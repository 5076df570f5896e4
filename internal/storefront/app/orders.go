// Package app holds the storefront use cases that span several ports: order
// administration and checkout.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jcmexdev/lvs-storefront/internal/coordinator"
	"github.com/jcmexdev/lvs-storefront/internal/storefront/domain"
	"github.com/jcmexdev/lvs-storefront/internal/storefront/ports"
)

// HistoryInvalidator is told when purchase history changed, so memoised
// prior-unit counts are recomputed.
type HistoryInvalidator interface {
	InvalidateHistory()
}

var _ coordinator.OrderWriter = (*OrderService)(nil)

type OrderService struct {
	repo    ports.OrderRepository
	history HistoryInvalidator
	logger  *slog.Logger
}

func NewOrderService(repo ports.OrderRepository, history HistoryInvalidator, logger *slog.Logger) *OrderService {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderService{repo: repo, history: history, logger: logger}
}

// Create stores a new order in the Placed state.
func (s *OrderService) Create(ctx context.Context, order *domain.Order) error {
	order.Status = domain.StatusPlaced
	if err := s.repo.Create(ctx, order); err != nil {
		return fmt.Errorf("app: create order: %w", err)
	}
	s.invalidate()
	s.logger.InfoContext(ctx, "order placed", "order_id", order.ID, "total", order.Total.StringFixed(2))
	return nil
}

func (s *OrderService) Get(ctx context.Context, id domain.ID) (*domain.Order, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("app: get order: %w", err)
	}
	return o, nil
}

func (s *OrderService) List(ctx context.Context, filter ports.OrderFilter) ([]*domain.Order, error) {
	orders, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("app: list orders: %w", err)
	}
	return orders, nil
}

// Transition moves an order to the status named by raw. The stored order is
// left untouched when the label is unknown or the move is not allowed.
func (s *OrderService) Transition(ctx context.Context, id domain.ID, raw string) (*domain.Order, error) {
	to, err := domain.Normalize(raw)
	if err != nil {
		return nil, fmt.Errorf("app: transition %q: %w", id, err)
	}
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("app: transition %q: %w", id, err)
	}
	if err := domain.Transition(o.Status, to); err != nil {
		return nil, fmt.Errorf("app: transition %q: %w", id, err)
	}
	if err := s.repo.UpdateStatus(ctx, id, to); err != nil {
		return nil, fmt.Errorf("app: transition %q: %w", id, err)
	}

	s.logger.InfoContext(ctx, "order status changed", "order_id", id, "from", o.Status, "to", to)
	o.Status = to
	return o, nil
}

func (s *OrderService) Delete(ctx context.Context, id domain.ID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("app: delete order: %w", err)
	}
	s.invalidate()
	return nil
}

// Tracker returns the delivery progress view of an order.
func (s *OrderService) Tracker(ctx context.Context, id domain.ID) (domain.Tracker, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return domain.Tracker{}, err
	}
	return domain.TrackerFor(o.Status), nil
}

func (s *OrderService) invalidate() {
	if s.history != nil {
		s.history.InvalidateHistory()
	}
}
