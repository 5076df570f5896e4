// Package sqlite persists orders, settings and the catalog in the
// storefront's SQLite database.
package sqlite

import (
	"context"
	"database/sql"

	"github.com/jcmexdev/lvs-storefront/internal/pkg/sqlitedb"
)

const schema = `
CREATE TABLE IF NOT EXISTS orders (
    id          TEXT PRIMARY KEY,
    status      TEXT NOT NULL,
    created_at  TEXT NOT NULL,
    -- lower-cased at write time so history lookups can use the index
    email       TEXT NOT NULL DEFAULT '',
    customer    TEXT NOT NULL,
    items       TEXT NOT NULL,
    total       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_email ON orders(email, created_at);

CREATE TABLE IF NOT EXISTS settings (
    key    TEXT PRIMARY KEY,
    value  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS products (
    position  INTEGER NOT NULL,
    id        TEXT PRIMARY KEY,
    name      TEXT NOT NULL,
    price     TEXT NOT NULL,
    discount  TEXT NOT NULL DEFAULT '0',
    image     TEXT NOT NULL DEFAULT ''
);
`

// Store groups the SQLite-backed repositories over one shared handle.
type Store struct {
	Orders   *OrderRepository
	Settings *SettingsStore
	Catalog  *Catalog
}

// Open applies the storefront schema to db and returns the repositories.
func Open(ctx context.Context, db *sql.DB) (*Store, error) {
	if err := sqlitedb.Migrate(ctx, db, schema); err != nil {
		return nil, err
	}
	return &Store{
		Orders:   &OrderRepository{db: db},
		Settings: &SettingsStore{db: db},
		Catalog:  &Catalog{db: db},
	}, nil
}
