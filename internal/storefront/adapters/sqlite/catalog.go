package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/lvs-storefront/internal/storefront/domain"
	"github.com/jcmexdev/lvs-storefront/internal/storefront/ports"
)

var _ ports.Catalog = (*Catalog)(nil)

type Catalog struct {
	db *sql.DB
}

const selectProducts = `SELECT id, name, price, discount, image FROM products`

func (c *Catalog) GetProduct(ctx context.Context, id domain.ID) (*domain.Product, error) {
	row := c.db.QueryRowContext(ctx, selectProducts+` WHERE id = ?`, id.String())
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlite: get product %q: %w", id, domain.ErrUnknownProduct)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get product %q: %w", id, err)
	}
	return &p, nil
}

// ListProducts returns the catalog in the order it was saved.
func (c *Catalog) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := c.db.QueryContext(ctx, selectProducts+` ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query products: %w", err)
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan product: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate products: %w", err)
	}
	return out, nil
}

// ReplaceProducts swaps the whole catalog in one transaction.
func (c *Catalog) ReplaceProducts(ctx context.Context, products []domain.Product) (err error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin replace products: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM products`); err != nil {
		return fmt.Errorf("sqlite: clear products: %w", err)
	}
	for i, p := range products {
		if p.ID.IsZero() {
			return &domain.ValidationError{Field: fmt.Sprintf("products[%d].id", i), Reason: "is required"}
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO products (position, id, name, price, discount, image) VALUES (?, ?, ?, ?, ?, ?)`,
			i, p.ID.String(), p.Name, p.ListPrice.String(), p.FixedDiscountPercent.String(), p.Image,
		)
		if err != nil {
			return fmt.Errorf("sqlite: insert product %q: %w", p.ID, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit products: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(s scanner) (domain.Product, error) {
	var (
		p               domain.Product
		id              string
		price, discount string
	)
	if err := s.Scan(&id, &p.Name, &price, &discount, &p.Image); err != nil {
		return domain.Product{}, err
	}
	p.ID = domain.ID(id)
	var err error
	if p.ListPrice, err = decimal.NewFromString(price); err != nil {
		return domain.Product{}, fmt.Errorf("price of %q: %w", id, err)
	}
	if p.FixedDiscountPercent, err = decimal.NewFromString(discount); err != nil {
		return domain.Product{}, fmt.Errorf("discount of %q: %w", id, err)
	}
	return p, nil
}
