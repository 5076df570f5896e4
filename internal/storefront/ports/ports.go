// Package ports declares the collaborators the pricing and order engine
// depends on. Adapters live under internal/storefront/adapters.
package ports

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jcmexdev/lvs-storefront/internal/storefront/domain"
)

type Catalog interface {
	// GetProduct returns domain.ErrUnknownProduct when the id is not listed.
	GetProduct(ctx context.Context, id domain.ID) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	// ReplaceProducts swaps the whole catalog, as the admin panel saves it.
	ReplaceProducts(ctx context.Context, products []domain.Product) error
}

type SettingsStore interface {
	GetSettings(ctx context.Context) (domain.Settings, error)
	// SetSetting upserts a raw JSON value under key.
	SetSetting(ctx context.Context, key string, value json.RawMessage) error
}

// OrderFilter narrows an order history query. Zero value matches everything.
type OrderFilter struct {
	Email string
	IDs   []domain.ID
}

// OrderHistory is the read side the purchase history accumulator needs.
type OrderHistory interface {
	List(ctx context.Context, filter OrderFilter) ([]*domain.Order, error)
}

type OrderRepository interface {
	OrderHistory
	// Create returns domain.ErrDuplicateOrderID if the id already exists.
	Create(ctx context.Context, order *domain.Order) error
	Get(ctx context.Context, id domain.ID) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id domain.ID, status domain.Status) error
	Delete(ctx context.Context, id domain.ID) error
}

// CartStore is the backing store of a cart session.
type CartStore interface {
	LoadCart(ctx context.Context, sessionID string) ([]domain.CartLine, error)
	SaveCart(ctx context.Context, sessionID string, lines []domain.CartLine) error
	DeleteCart(ctx context.Context, sessionID string) error
}

// GuestIdentity is what a guest session remembers between visits.
type GuestIdentity struct {
	Email    string      `json:"email,omitempty"`
	OrderIDs []domain.ID `json:"orderIds,omitempty"`
}

// GuestMemory keeps best-effort guest identity per session. It is a
// convenience for progressive-discount continuity, not a billing guarantee.
type GuestMemory interface {
	Recall(ctx context.Context, sessionID string) (GuestIdentity, error)
	Remember(ctx context.Context, sessionID string, orderID domain.ID, email string) error
	Forget(ctx context.Context, sessionID string, orderID domain.ID) error
}

// Clock is injected wherever a timestamp is persisted or compared.
type Clock func() time.Time
