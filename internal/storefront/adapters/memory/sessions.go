package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/jcmexdev/lvs-storefront/internal/storefront/domain"
	"github.com/jcmexdev/lvs-storefront/internal/storefront/ports"
)

var (
	_ ports.CartStore   = (*CartStore)(nil)
	_ ports.GuestMemory = (*GuestMemory)(nil)
)

type CartStore struct {
	mu    sync.Mutex
	carts map[string][]domain.CartLine
	Err   error
	saves int
}

func NewCartStore() *CartStore {
	return &CartStore{carts: make(map[string][]domain.CartLine)}
}

func (s *CartStore) LoadCart(ctx context.Context, sessionID string) ([]domain.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return slices.Clone(s.carts[sessionID]), nil
}

func (s *CartStore) SaveCart(ctx context.Context, sessionID string, lines []domain.CartLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.saves++
	s.carts[sessionID] = slices.Clone(lines)
	return nil
}

func (s *CartStore) DeleteCart(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	delete(s.carts, sessionID)
	return nil
}

// Saves reports how many times SaveCart succeeded.
func (s *CartStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

type GuestMemory struct {
	mu     sync.Mutex
	guests map[string]ports.GuestIdentity
}

func NewGuestMemory() *GuestMemory {
	return &GuestMemory{guests: make(map[string]ports.GuestIdentity)}
}

func (g *GuestMemory) Recall(ctx context.Context, sessionID string) (ports.GuestIdentity, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.guests[sessionID]
	id.OrderIDs = slices.Clone(id.OrderIDs)
	return id, nil
}

func (g *GuestMemory) Remember(ctx context.Context, sessionID string, orderID domain.ID, email string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.guests[sessionID]
	if !slices.Contains(id.OrderIDs, orderID) {
		id.OrderIDs = append(id.OrderIDs, orderID)
	}
	if email != "" {
		id.Email = domain.NormalizeEmail(email)
	}
	g.guests[sessionID] = id
	return nil
}

func (g *GuestMemory) Forget(ctx context.Context, sessionID string, orderID domain.ID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.guests[sessionID]
	id.OrderIDs = slices.DeleteFunc(id.OrderIDs, func(o domain.ID) bool { return o == orderID })
	g.guests[sessionID] = id
	return nil
}
