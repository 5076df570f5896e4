package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/jcmexdev/lvs-storefront/internal/storefront/domain"
	"github.com/jcmexdev/lvs-storefront/internal/storefront/ports"
)

var _ ports.Catalog = (*Catalog)(nil)

type Catalog struct {
	mu       sync.RWMutex
	products []domain.Product
	Err      error
}

func NewCatalog(products ...domain.Product) *Catalog {
	return &Catalog{products: append([]domain.Product(nil), products...)}
}

func (c *Catalog) GetProduct(ctx context.Context, id domain.ID) (*domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.Err != nil {
		return nil, c.Err
	}
	for _, p := range c.products {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	return nil, fmt.Errorf("memory: get product %q: %w", id, domain.ErrUnknownProduct)
}

func (c *Catalog) ListProducts(ctx context.Context) ([]domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.Err != nil {
		return nil, c.Err
	}
	return append([]domain.Product(nil), c.products...), nil
}

func (c *Catalog) ReplaceProducts(ctx context.Context, products []domain.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.products = append([]domain.Product(nil), products...)
	return nil
}
