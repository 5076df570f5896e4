package sqlite

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/lvs-storefront/internal/pkg/sqlitedb"
	"github.com/jcmexdev/lvs-storefront/internal/storefront/domain"
	"github.com/jcmexdev/lvs-storefront/internal/storefront/ports"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	db, err := sqlitedb.Open(filepath.Join(t.TempDir(), "storefront.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store, err := Open(context.Background(), db)
	require.NoError(t, err)
	return store
}

func newOrder(id, email string, at time.Time) *domain.Order {
	lines := []domain.CartLine{{
		ProductID: "7",
		Name:      "Mug",
		Quantity:  3,
		UnitPrice: decimal.RequireFromString("8.5"),
	}}
	return domain.NewOrder(domain.ID(id), domain.OrderCustomer{Name: "Ana", Email: email}, lines, at)
}

func TestOrderRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := openStore(t).Orders
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, newOrder("ORD-100001", "Ana@Example.com", at)))

	got, err := repo.Get(ctx, "ORD-100001")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPlaced, got.Status)
	assert.Equal(t, "ana@example.com", got.Customer.Email)
	assert.Equal(t, domain.PaymentOnDelivery, got.Customer.PaymentMethod)
	assert.True(t, at.Equal(got.CreatedAt))
	require.Len(t, got.Items, 1)
	assert.Equal(t, 3, got.Items[0].Quantity)
	assert.True(t, decimal.RequireFromString("25.5").Equal(got.Total), "total %s", got.Total)
}

func TestOrderRepository_DuplicateID(t *testing.T) {
	ctx := context.Background()
	repo := openStore(t).Orders
	order := newOrder("ORD-100001", "a@example.com", time.Now())

	require.NoError(t, repo.Create(ctx, order))
	err := repo.Create(ctx, order)
	assert.ErrorIs(t, err, domain.ErrDuplicateOrderID)
}

func TestOrderRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := openStore(t).Orders

	_, err := repo.Get(ctx, "ORD-404404")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	assert.ErrorIs(t, repo.UpdateStatus(ctx, "ORD-404404", domain.StatusShipped), domain.ErrOrderNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "ORD-404404"), domain.ErrOrderNotFound)
}

func TestOrderRepository_ListFiltersNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := openStore(t).Orders
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, newOrder("ORD-100001", "a@example.com", base)))
	require.NoError(t, repo.Create(ctx, newOrder("ORD-100002", "b@example.com", base.Add(time.Hour))))
	require.NoError(t, repo.Create(ctx, newOrder("ORD-100003", "a@example.com", base.Add(2*time.Hour))))

	all, err := repo.List(ctx, ports.OrderFilter{})
	require.NoError(t, err)
	assert.Equal(t, []domain.ID{"ORD-100003", "ORD-100002", "ORD-100001"}, ids(all))

	byEmail, err := repo.List(ctx, ports.OrderFilter{Email: " A@example.com"})
	require.NoError(t, err)
	assert.Equal(t, []domain.ID{"ORD-100003", "ORD-100001"}, ids(byEmail))

	byIDs, err := repo.List(ctx, ports.OrderFilter{IDs: []domain.ID{"ORD-100002", "ORD-100001"}})
	require.NoError(t, err)
	assert.Equal(t, []domain.ID{"ORD-100002", "ORD-100001"}, ids(byIDs))
}

func TestOrderRepository_UpdateStatusAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := openStore(t).Orders
	require.NoError(t, repo.Create(ctx, newOrder("ORD-100001", "a@example.com", time.Now())))

	require.NoError(t, repo.UpdateStatus(ctx, "ORD-100001", domain.StatusShipped))
	got, err := repo.Get(ctx, "ORD-100001")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShipped, got.Status)

	require.NoError(t, repo.Delete(ctx, "ORD-100001"))
	_, err = repo.Get(ctx, "ORD-100001")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestOrderRepository_NormalizesLegacyStatus(t *testing.T) {
	ctx := context.Background()
	repo := openStore(t).Orders
	require.NoError(t, repo.Create(ctx, newOrder("ORD-100001", "a@example.com", time.Now())))

	_, err := repo.db.ExecContext(ctx, `UPDATE orders SET status = 'enviado' WHERE id = 'ORD-100001'`)
	require.NoError(t, err)

	got, err := repo.Get(ctx, "ORD-100001")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShipped, got.Status)
}

func TestSettingsStore(t *testing.T) {
	ctx := context.Background()
	store := openStore(t).Settings

	s, err := store.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Settings{}, s)

	require.NoError(t, store.SetSetting(ctx, domain.SettingMemberDiscountEnabled, json.RawMessage(`true`)))
	require.NoError(t, store.SetSetting(ctx, domain.SettingFeaturedPromoProductID, json.RawMessage(`7`)))
	require.NoError(t, store.SetSetting(ctx, domain.SettingFeaturedPromoProductID, json.RawMessage(`"12"`)))

	s, err = store.GetSettings(ctx)
	require.NoError(t, err)
	assert.True(t, s.MemberDiscountEnabled)
	assert.Equal(t, domain.ID("12"), s.FeaturedPromoProductID)

	var verr *domain.ValidationError
	assert.ErrorAs(t, store.SetSetting(ctx, "broken", json.RawMessage(`{`)), &verr)
}

func TestCatalog_ReplaceAndRead(t *testing.T) {
	ctx := context.Background()
	catalog := openStore(t).Catalog

	products := []domain.Product{
		{ID: "7", Name: "Mug", ListPrice: decimal.NewFromInt(10), FixedDiscountPercent: decimal.Zero},
		{ID: "3", Name: "Tee", ListPrice: decimal.RequireFromString("19.99"), FixedDiscountPercent: decimal.NewFromInt(15), Image: "tee.png"},
	}
	require.NoError(t, catalog.ReplaceProducts(ctx, products))

	list, err := catalog.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, domain.ID("7"), list[0].ID)
	assert.Equal(t, domain.ID("3"), list[1].ID)

	tee, err := catalog.GetProduct(ctx, "3")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("19.99").Equal(tee.ListPrice))
	assert.True(t, decimal.NewFromInt(15).Equal(tee.FixedDiscountPercent))
	assert.Equal(t, "tee.png", tee.Image)

	require.NoError(t, catalog.ReplaceProducts(ctx, products[:1]))
	_, err = catalog.GetProduct(ctx, "3")
	assert.ErrorIs(t, err, domain.ErrUnknownProduct)
}

func TestCatalog_ReplaceIsAtomic(t *testing.T) {
	ctx := context.Background()
	catalog := openStore(t).Catalog
	require.NoError(t, catalog.ReplaceProducts(ctx, []domain.Product{{ID: "1", Name: "Pen", ListPrice: decimal.NewFromInt(2)}}))

	err := catalog.ReplaceProducts(ctx, []domain.Product{
		{ID: "2", Name: "Cap", ListPrice: decimal.NewFromInt(5)},
		{ID: "2", Name: "Dup", ListPrice: decimal.NewFromInt(5)},
	})
	require.Error(t, err)

	list, err := catalog.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.ID("1"), list[0].ID)
}

func ids(orders []*domain.Order) []domain.ID {
	out := make([]domain.ID, len(orders))
	for i, o := range orders {
		out[i] = o.ID
	}
	return out
}
