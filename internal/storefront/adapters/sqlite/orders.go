package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/lvs-storefront/internal/pkg/sqlitedb"
	"github.com/jcmexdev/lvs-storefront/internal/storefront/domain"
	"github.com/jcmexdev/lvs-storefront/internal/storefront/ports"
)

var _ ports.OrderRepository = (*OrderRepository)(nil)

type OrderRepository struct {
	db *sql.DB
}

func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	customer, err := json.Marshal(order.Customer)
	if err != nil {
		return fmt.Errorf("sqlite: encode customer of %q: %w", order.ID, err)
	}
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("sqlite: encode items of %q: %w", order.ID, err)
	}

	const q = `
		INSERT INTO orders (id, status, created_at, email, customer, items, total)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, q,
		order.ID.String(),
		string(order.Status),
		sqlitedb.FormatTime(order.CreatedAt),
		domain.NormalizeEmail(order.Customer.Email),
		string(customer),
		string(items),
		order.Total.String(),
	)
	if sqlitedb.IsUniqueViolation(err) {
		return fmt.Errorf("sqlite: create order %q: %w", order.ID, domain.ErrDuplicateOrderID)
	}
	if err != nil {
		return fmt.Errorf("sqlite: create order %q: %w", order.ID, err)
	}
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id domain.ID) (*domain.Order, error) {
	orders, err := r.query(ctx, selectOrders+` WHERE id = ?`, id.String())
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("sqlite: get order %q: %w", id, domain.ErrOrderNotFound)
	}
	return orders[0], nil
}

// List returns matching orders, newest first.
func (r *OrderRepository) List(ctx context.Context, filter ports.OrderFilter) ([]*domain.Order, error) {
	var (
		where []string
		args  []any
	)
	if email := domain.NormalizeEmail(filter.Email); email != "" {
		where = append(where, "email = ?")
		args = append(args, email)
	}
	if len(filter.IDs) > 0 {
		marks := make([]string, len(filter.IDs))
		for i, id := range filter.IDs {
			marks[i] = "?"
			args = append(args, id.String())
		}
		where = append(where, "id IN ("+strings.Join(marks, ",")+")")
	}

	q := selectOrders
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, id DESC"
	return r.query(ctx, q, args...)
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id domain.ID, status domain.Status) error {
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET status = ? WHERE id = ?`, string(status), id.String())
	if err != nil {
		return fmt.Errorf("sqlite: update order %q: %w", id, err)
	}
	return expectOne(res, id, "update")
}

func (r *OrderRepository) Delete(ctx context.Context, id domain.ID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("sqlite: delete order %q: %w", id, err)
	}
	return expectOne(res, id, "delete")
}

const selectOrders = `SELECT id, status, created_at, customer, items, total FROM orders`

func (r *OrderRepository) query(ctx context.Context, q string, args ...any) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query orders: %w", err)
	}
	defer rows.Close()

	var out []*domain.Order
	for rows.Next() {
		var (
			id, status, createdAt string
			customer, items, total string
		)
		if err := rows.Scan(&id, &status, &createdAt, &customer, &items, &total); err != nil {
			return nil, fmt.Errorf("sqlite: scan order: %w", err)
		}
		o, err := decodeOrder(id, status, createdAt, customer, items, total)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate orders: %w", err)
	}
	return out, nil
}

func decodeOrder(id, status, createdAt, customer, items, total string) (*domain.Order, error) {
	o := &domain.Order{ID: domain.ID(id)}

	// Rows written by older clients may carry localized or legacy labels.
	st, err := domain.Normalize(status)
	if err != nil {
		return nil, fmt.Errorf("sqlite: order %q: %w", id, err)
	}
	o.Status = st

	if o.CreatedAt, err = sqlitedb.ParseTime(createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(customer), &o.Customer); err != nil {
		return nil, fmt.Errorf("sqlite: decode customer of %q: %w", id, err)
	}
	if err := json.Unmarshal([]byte(items), &o.Items); err != nil {
		return nil, fmt.Errorf("sqlite: decode items of %q: %w", id, err)
	}
	if o.Total, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("sqlite: decode total of %q: %w", id, err)
	}
	return o, nil
}

func expectOne(res sql.Result, id domain.ID, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: %s order %q: %w", op, id, err)
	}
	if n == 0 {
		return fmt.Errorf("sqlite: %s order %q: %w", op, id, domain.ErrOrderNotFound)
	}
	return nil
}
