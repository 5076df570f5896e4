// Package memory holds in-memory implementations of the storefront ports for
// local development and tests. Nothing here survives a restart.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/jcmexdev/lvs-storefront/internal/storefront/domain"
	"github.com/jcmexdev/lvs-storefront/internal/storefront/ports"
)

var _ ports.OrderRepository = (*OrderRepository)(nil)

type OrderRepository struct {
	mu     sync.RWMutex
	orders map[domain.ID]*domain.Order
	// Err, when set, is returned by every call. Tests use it to simulate an
	// unavailable backend.
	Err error
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[domain.ID]*domain.Order)}
}

func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, exists := r.orders[order.ID]; exists {
		return fmt.Errorf("memory: create order %q: %w", order.ID, domain.ErrDuplicateOrderID)
	}
	r.orders[order.ID] = order.Clone()
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id domain.ID) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Err != nil {
		return nil, r.Err
	}
	o, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("memory: get order %q: %w", id, domain.ErrOrderNotFound)
	}
	return o.Clone(), nil
}

// List returns matching orders, newest first.
func (r *OrderRepository) List(ctx context.Context, filter ports.OrderFilter) ([]*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Err != nil {
		return nil, r.Err
	}

	email := domain.NormalizeEmail(filter.Email)
	out := make([]*domain.Order, 0, len(r.orders))
	for _, o := range r.orders {
		if email != "" && o.Customer.Email != email {
			continue
		}
		if len(filter.IDs) > 0 && !slices.Contains(filter.IDs, o.ID) {
			continue
		}
		out = append(out, o.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id domain.ID, status domain.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	o, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("memory: update order %q: %w", id, domain.ErrOrderNotFound)
	}
	o.Status = status
	return nil
}

func (r *OrderRepository) Delete(ctx context.Context, id domain.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.orders[id]; !ok {
		return fmt.Errorf("memory: delete order %q: %w", id, domain.ErrOrderNotFound)
	}
	delete(r.orders, id)
	return nil
}
