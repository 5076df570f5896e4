package cart

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jcmexdev/lvs-storefront/internal/storefront/domain"
	"github.com/jcmexdev/lvs-storefront/internal/storefront/ports"
)

// Sessions owns one Cart per session id. Carts live in memory while they are
// used; an evicted cart is reloaded from the store on its next Open.
type Sessions struct {
	deps   Deps
	now    ports.Clock
	logger *slog.Logger

	mu    sync.Mutex
	carts map[string]*session
}

type session struct {
	cart     *Cart
	lastSeen time.Time
}

// NewSessions builds the registry. deps.Now defaults to time.Now.
func NewSessions(deps Deps) *Sessions {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Sessions{deps: deps, now: now, logger: logger, carts: make(map[string]*session)}
}

// Open returns the session's cart, loading persisted lines on first use, and
// binds it to customer.
func (s *Sessions) Open(ctx context.Context, sessionID string, customer domain.Customer) (*Cart, error) {
	c, loaded, err := s.get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if loaded {
		c.mu.Lock()
		c.customer = customer
		c.mu.Unlock()
		// persisted prices may predate the current settings
		return c, c.RecalculateAll(ctx)
	}
	return c, c.SetCustomer(ctx, customer)
}

func (s *Sessions) get(ctx context.Context, sessionID string) (c *Cart, loaded bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.carts[sessionID]; ok {
		sess.lastSeen = s.now()
		return sess.cart, false, nil
	}
	lines, err := s.deps.Store.LoadCart(ctx, sessionID)
	if err != nil {
		return nil, false, fmt.Errorf("cart: load session %q: %w", sessionID, err)
	}
	c = New(sessionID, s.deps, lines)
	s.carts[sessionID] = &session{cart: c, lastSeen: s.now()}
	return c, true, nil
}

// Drop forgets a session's cart from memory. Persisted lines are untouched.
func (s *Sessions) Drop(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sessionID)
}

// Release drops the session's cart if it holds no lines, e.g. after it was
// cleared or checked out. It reports whether the cart was dropped.
func (s *Sessions) Release(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.carts[sessionID]
	if !ok {
		return false
	}
	sess.cart.mu.Lock()
	empty := len(sess.cart.lines) == 0
	sess.cart.mu.Unlock()
	if !empty {
		return false
	}
	delete(s.carts, sessionID)
	return true
}

// Sweep drops every cart not opened within idle and returns how many went.
func (s *Sessions) Sweep(idle time.Duration) int {
	cutoff := s.now().Add(-idle)

	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for id, sess := range s.carts {
		if sess.lastSeen.Before(cutoff) {
			delete(s.carts, id)
			evicted++
		}
	}
	return evicted
}

// Janitor sweeps idle carts every interval until ctx is done.
func (s *Sessions) Janitor(ctx context.Context, idle, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.Sweep(idle); n > 0 {
				s.logger.InfoContext(ctx, "evicted idle carts", "count", n, "remaining", s.Len())
			}
		}
	}
}

// Len is the number of carts held in memory.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.carts)
}

// RecalculateAll re-prices every live cart, e.g. after a settings change.
func (s *Sessions) RecalculateAll(ctx context.Context) error {
	s.mu.Lock()
	carts := make([]*Cart, 0, len(s.carts))
	for _, sess := range s.carts {
		carts = append(carts, sess.cart)
	}
	s.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, c := range carts {
		g.Go(func() error { return c.RecalculateAll(ctx) })
	}
	return g.Wait()
}
