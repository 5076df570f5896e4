// Package redis keeps cart sessions and guest identities in Redis so they
// survive restarts and are shared between replicas.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/jcmexdev/lvs-storefront/internal/pkg/cache"
	"github.com/jcmexdev/lvs-storefront/internal/storefront/domain"
	"github.com/jcmexdev/lvs-storefront/internal/storefront/ports"
)

var (
	_ ports.CartStore   = (*CartStore)(nil)
	_ ports.GuestMemory = (*GuestMemory)(nil)
)

// CartStore saves cart lines as JSON under storefront:cart:<session>. Every
// save refreshes the TTL, so idle carts expire.
type CartStore struct {
	cache cache.Cache
	ttl   time.Duration
}

func NewCartStore(c cache.Cache, ttl time.Duration) *CartStore {
	return &CartStore{cache: c, ttl: ttl}
}

func (s *CartStore) LoadCart(ctx context.Context, sessionID string) ([]domain.CartLine, error) {
	raw, found, err := s.cache.Get(ctx, s.cache.GenerateKey("cart", sessionID))
	if err != nil || !found {
		return nil, err
	}
	var lines []domain.CartLine
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil, fmt.Errorf("redis: decode cart %s: %w", sessionID, err)
	}
	return lines, nil
}

func (s *CartStore) SaveCart(ctx context.Context, sessionID string, lines []domain.CartLine) error {
	b, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("redis: encode cart %s: %w", sessionID, err)
	}
	return s.cache.Set(ctx, s.cache.GenerateKey("cart", sessionID), b, s.ttl)
}

func (s *CartStore) DeleteCart(ctx context.Context, sessionID string) error {
	return s.cache.Del(ctx, s.cache.GenerateKey("cart", sessionID))
}

// GuestMemory stores a GuestIdentity as JSON under storefront:guest:<session>.
// Concurrent Remember calls for one session may lose an order id; the record
// only seeds progressive pricing.
type GuestMemory struct {
	cache cache.Cache
	ttl   time.Duration
}

func NewGuestMemory(c cache.Cache, ttl time.Duration) *GuestMemory {
	return &GuestMemory{cache: c, ttl: ttl}
}

func (g *GuestMemory) Recall(ctx context.Context, sessionID string) (ports.GuestIdentity, error) {
	raw, found, err := g.cache.Get(ctx, g.cache.GenerateKey("guest", sessionID))
	if err != nil || !found {
		return ports.GuestIdentity{}, err
	}
	var id ports.GuestIdentity
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		return ports.GuestIdentity{}, fmt.Errorf("redis: decode guest %s: %w", sessionID, err)
	}
	return id, nil
}

func (g *GuestMemory) Remember(ctx context.Context, sessionID string, orderID domain.ID, email string) error {
	id, err := g.Recall(ctx, sessionID)
	if err != nil {
		return err
	}
	if !slices.Contains(id.OrderIDs, orderID) {
		id.OrderIDs = append(id.OrderIDs, orderID)
	}
	if email != "" {
		id.Email = domain.NormalizeEmail(email)
	}
	return g.save(ctx, sessionID, id)
}

func (g *GuestMemory) Forget(ctx context.Context, sessionID string, orderID domain.ID) error {
	id, err := g.Recall(ctx, sessionID)
	if err != nil {
		return err
	}
	id.OrderIDs = slices.DeleteFunc(id.OrderIDs, func(o domain.ID) bool { return o == orderID })
	return g.save(ctx, sessionID, id)
}

func (g *GuestMemory) save(ctx context.Context, sessionID string, id ports.GuestIdentity) error {
	b, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("redis: encode guest %s: %w", sessionID, err)
	}
	return g.cache.Set(ctx, g.cache.GenerateKey("guest", sessionID), b, g.ttl)
}
