package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/ec-order-engine/internal/model"
	"github.com/lib/pq"
)

// PostgresOrderStore stores orders and order items in PostgreSQL
type PostgresOrderStore struct {
	db *sql.DB
}

func NewPostgresOrderStore(db *sql.DB) *PostgresOrderStore {
	return &PostgresOrderStore{db: db}
}

const orderColumns = `id, owner_id, owner_email, total_amount, status, payment_status,
	street_address, city, region, postal_code, phone, created_at, updated_at`

// Create inserts the order row and its item rows in one transaction
func (s *PostgresOrderStore) Create(ctx context.Context, o *model.Order) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (`+orderColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		o.ID, o.OwnerID, o.OwnerEmail, o.TotalAmount, string(o.Status), string(o.PaymentStatus),
		o.Address.Street, o.Address.City, o.Address.Region, o.Address.PostalCode, o.Address.Phone,
		o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO order_items (id, order_id, product_id, quantity, price_at_purchase)
		 VALUES ($1, $2, $3, $4, $5)`)
	if err != nil {
		return fmt.Errorf("prepare order item insert: %w", err)
	}
	defer stmt.Close()

	for _, item := range o.Items {
		if _, err := stmt.ExecContext(ctx, item.ID, o.ID, item.ProductID, item.Quantity, item.PriceAtPurchase); err != nil {
			return fmt.Errorf("insert order item %s: %w", item.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit order: %w", err)
	}
	return nil
}

// FindByID loads an order with its items
func (s *PostgresOrderStore) FindByID(ctx context.Context, id string) (*model.Order, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.attachItems(ctx, []*model.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

// ListByOwner returns the owner's orders, newest first
func (s *PostgresOrderStore) ListByOwner(ctx context.Context, ownerID string) ([]*model.Order, error) {
	return s.list(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE owner_id = $1 ORDER BY created_at DESC`,
		ownerID,
	)
}

// ListAll returns every order, newest first
func (s *PostgresOrderStore) ListAll(ctx context.Context) ([]*model.Order, error) {
	return s.list(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
}

// TransitionStatus is a compare-and-set on the status column
func (s *PostgresOrderStore) TransitionStatus(ctx context.Context, id string, to model.Status, from ...model.Status) (bool, error) {
	allowed := make([]string, len(from))
	for i, st := range from {
		allowed[i] = string(st)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE orders SET status = $2, updated_at = now()
		 WHERE id = $1 AND status = ANY($3)`,
		id, string(to), pq.Array(allowed),
	)
	if err != nil {
		return false, fmt.Errorf("update order status: %w", err)
	}
	return s.applied(ctx, res, id)
}

// MarkPaid flips payment_status to PAID once; a PLACED order becomes CONFIRMED in the same statement
func (s *PostgresOrderStore) MarkPaid(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE orders
		 SET payment_status = $2,
		     status = CASE WHEN status = $3 THEN $4 ELSE status END,
		     updated_at = now()
		 WHERE id = $1 AND payment_status <> $2`,
		id, string(model.PaymentPaid), string(model.StatusPlaced), string(model.StatusConfirmed),
	)
	if err != nil {
		return false, fmt.Errorf("mark order paid: %w", err)
	}
	return s.applied(ctx, res, id)
}

// applied converts an affected-row count into (changed, error), distinguishing a
// missing order from a row that did not satisfy the condition
func (s *PostgresOrderStore) applied(ctx context.Context, res sql.Result, id string) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, err
	}
	if !exists {
		return false, ErrNotFound
	}
	return false, nil
}

func (s *PostgresOrderStore) list(ctx context.Context, query string, args ...any) ([]*model.Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]*model.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// attachItems loads items for all given orders with one query
func (s *PostgresOrderStore) attachItems(ctx context.Context, orders []*model.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, len(orders))
	byID := make(map[string]*model.Order, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		byID[o.ID] = o
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT oi.id, oi.order_id, oi.product_id, COALESCE(p.name, ''), oi.quantity, oi.price_at_purchase
		 FROM order_items oi
		 LEFT JOIN products p ON p.id = oi.product_id
		 WHERE oi.order_id = ANY($1)
		 ORDER BY oi.order_id, oi.id`,
		pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.Quantity, &item.PriceAtPurchase); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		if o, ok := byID[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*model.Order, error) {
	var (
		o             model.Order
		status        string
		paymentStatus string
	)
	err := row.Scan(
		&o.ID, &o.OwnerID, &o.OwnerEmail, &o.TotalAmount, &status, &paymentStatus,
		&o.Address.Street, &o.Address.City, &o.Address.Region, &o.Address.PostalCode, &o.Address.Phone,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Status = model.Status(status)
	o.PaymentStatus = model.PaymentStatus(paymentStatus)
	return &o, nil
}
