// Package cart keeps the priced lines of a shopping session.
//
// Every mutation of a Cart is serialised on the cart's mutex. RecalculateAll
// prices outside the lock so it does not block the shopper, and its result is
// only applied if no newer recalculation started meanwhile.
package cart

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/lvs-storefront/internal/storefront/domain"
	"github.com/jcmexdev/lvs-storefront/internal/storefront/pricing"
	"github.com/jcmexdev/lvs-storefront/internal/storefront/ports"
)

// Pricer is the part of pricing.Quoter a cart needs.
type Pricer interface {
	Settings(ctx context.Context) (domain.Settings, bool)
	QuoteWith(ctx context.Context, settings domain.Settings, product domain.Product, quantity int, customer domain.Customer) pricing.Quote
}

var _ Pricer = (*pricing.Quoter)(nil)

// View is a read-only snapshot handed to listeners and API callers.
type View struct {
	SessionID string            `json:"sessionId"`
	Lines     []domain.CartLine `json:"lines"`
	Count     int               `json:"count"`
	Total     decimal.Decimal   `json:"total"`
}

// Listener is signalled after every committed change, e.g. to refresh a
// bound view.
type Listener func(ctx context.Context, view View)

type Cart struct {
	sessionID string
	catalog   ports.Catalog
	pricer    Pricer
	store     ports.CartStore
	listener  Listener
	logger    *slog.Logger

	mu       sync.Mutex
	customer domain.Customer
	lines    []domain.CartLine
	gen      uint64
}

type Deps struct {
	Catalog  ports.Catalog
	Pricer   Pricer
	Store    ports.CartStore
	Listener Listener
	Logger   *slog.Logger
	// Now stamps session activity for idle eviction.
	Now ports.Clock
}

func New(sessionID string, deps Deps, lines []domain.CartLine) *Cart {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Cart{
		sessionID: sessionID,
		catalog:   deps.Catalog,
		pricer:    deps.Pricer,
		store:     deps.Store,
		listener:  deps.Listener,
		logger:    logger.With("session_id", sessionID),
		lines:     slices.Clone(lines),
	}
}

func (c *Cart) SessionID() string { return c.sessionID }

// AddUnit adds one unit of productID and re-prices the line for its new
// quantity.
func (c *Cart) AddUnit(ctx context.Context, productID domain.ID) (domain.CartLine, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	product, err := c.catalog.GetProduct(ctx, productID)
	if err != nil {
		return domain.CartLine{}, fmt.Errorf("cart: add %q: %w", productID, err)
	}

	quantity := 1
	idx := c.indexOf(productID)
	if idx >= 0 {
		quantity = c.lines[idx].Quantity + 1
	}

	settings, _ := c.pricer.Settings(ctx)
	line := c.priceLine(ctx, settings, *product, quantity)
	if idx >= 0 {
		c.lines[idx] = line
	} else {
		c.lines = append(c.lines, line)
	}

	c.commit(ctx)
	return line, nil
}

// RemoveUnit takes one unit of productID out of the cart, dropping the line
// at zero. A remaining line is re-priced for the smaller quantity.
func (c *Cart) RemoveUnit(ctx context.Context, productID domain.ID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexOf(productID)
	if idx < 0 {
		return fmt.Errorf("cart: remove %q: %w", productID, domain.ErrLineNotFound)
	}

	line := c.lines[idx]
	if line.Quantity <= 1 {
		c.lines = slices.Delete(c.lines, idx, idx+1)
		c.commit(ctx)
		return nil
	}

	line.Quantity--
	settings, _ := c.pricer.Settings(ctx)
	c.lines[idx] = c.reprice(ctx, settings, c.customer, line)
	c.commit(ctx)
	return nil
}

// SetCustomer switches the purchase context (login, logout, guest identity
// learned) and re-prices every line when it actually changed.
func (c *Cart) SetCustomer(ctx context.Context, customer domain.Customer) error {
	c.mu.Lock()
	changed := c.customer.Authenticated != customer.Authenticated ||
		c.customer.IdentityKey() != customer.IdentityKey()
	c.customer = customer
	c.mu.Unlock()

	if !changed {
		return nil
	}
	return c.RecalculateAll(ctx)
}

func (c *Cart) Customer() domain.Customer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.customer
}

// RecalculateAll re-prices every line against fresh settings and purchase
// history. A result superseded by a newer recalculation is discarded, and a
// line whose quantity changed while pricing keeps its newer price.
func (c *Cart) RecalculateAll(ctx context.Context) error {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	snapshot := slices.Clone(c.lines)
	customer := c.customer
	c.mu.Unlock()

	if len(snapshot) == 0 {
		return nil
	}

	settings, _ := c.pricer.Settings(ctx)
	repriced := make([]domain.CartLine, len(snapshot))
	for i, line := range snapshot {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("cart: recalculate: %w", err)
		}
		repriced[i] = c.reprice(ctx, settings, customer, line)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		c.logger.DebugContext(ctx, "discarding superseded cart recalculation", "generation", gen)
		return nil
	}
	for _, line := range repriced {
		idx := c.indexOf(line.ProductID)
		if idx < 0 || c.lines[idx].Quantity != line.Quantity {
			continue
		}
		c.lines[idx] = line
	}
	c.commit(ctx)
	return nil
}

// Clear empties the cart and returns the lines it held.
func (c *Cart) Clear(ctx context.Context) ([]domain.CartLine, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	previous := c.lines
	if err := c.store.DeleteCart(ctx, c.sessionID); err != nil {
		return nil, fmt.Errorf("cart: clear: %w", err)
	}
	c.lines = nil
	c.notify(ctx)
	return previous, nil
}

// Restore merges lines previously returned by Clear back into the cart. A
// product the shopper added again in the meantime gets the quantities summed
// and is re-priced, other lines come back as they were.
func (c *Cart) Restore(ctx context.Context, lines []domain.CartLine) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var settings domain.Settings
	priced := false
	for _, line := range lines {
		idx := c.indexOf(line.ProductID)
		if idx < 0 {
			c.lines = append(c.lines, line)
			continue
		}
		if !priced {
			settings, _ = c.pricer.Settings(ctx)
			priced = true
		}
		merged := c.lines[idx]
		merged.Quantity += line.Quantity
		c.lines[idx] = c.reprice(ctx, settings, c.customer, merged)
	}

	if err := c.store.SaveCart(ctx, c.sessionID, c.lines); err != nil {
		return fmt.Errorf("cart: restore: %w", err)
	}
	c.notify(ctx)
	return nil
}

func (c *Cart) Lines() []domain.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.lines)
}

// Total is the sum of unit price times quantity, rounded to cents.
func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return total(c.lines)
}

func (c *Cart) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view()
}

func (c *Cart) view() View {
	count := 0
	for _, l := range c.lines {
		count += l.Quantity
	}
	return View{
		SessionID: c.sessionID,
		Lines:     slices.Clone(c.lines),
		Count:     count,
		Total:     total(c.lines),
	}
}

func total(lines []domain.CartLine) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Subtotal())
	}
	return domain.RoundMoney(sum)
}

func (c *Cart) indexOf(productID domain.ID) int {
	return slices.IndexFunc(c.lines, func(l domain.CartLine) bool { return l.ProductID == productID })
}

func (c *Cart) priceLine(ctx context.Context, settings domain.Settings, product domain.Product, quantity int) domain.CartLine {
	quote := c.pricer.QuoteWith(ctx, settings, product, quantity, c.customer)
	return domain.CartLine{
		ProductID:         product.ID,
		Name:              product.Name,
		Quantity:          quantity,
		UnitPrice:         quote.UnitPrice,
		ListPriceSnapshot: quote.ListPrice,
	}
}

// reprice re-quotes an existing line. When the product can no longer be
// resolved the line falls back to its list price snapshot.
func (c *Cart) reprice(ctx context.Context, settings domain.Settings, customer domain.Customer, line domain.CartLine) domain.CartLine {
	product, err := c.catalog.GetProduct(ctx, line.ProductID)
	if err != nil {
		c.logger.WarnContext(ctx, "pricing cart line at list price", "product_id", line.ProductID, "error", err)
		line.UnitPrice = line.ListPriceSnapshot
		return line
	}
	quote := c.pricer.QuoteWith(ctx, settings, *product, line.Quantity, customer)
	line.Name = product.Name
	line.UnitPrice = quote.UnitPrice
	line.ListPriceSnapshot = quote.ListPrice
	return line
}

// commit persists the lines and signals the listener. The backing store is
// best effort: the in-memory cart stays authoritative for the session.
func (c *Cart) commit(ctx context.Context) {
	if err := c.store.SaveCart(ctx, c.sessionID, c.lines); err != nil {
		c.logger.WarnContext(ctx, "failed to persist cart", "error", err)
	}
	c.notify(ctx)
}

func (c *Cart) notify(ctx context.Context) {
	if c.listener != nil {
		c.listener(ctx, c.view())
	}
}
