package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/ec-order-engine/internal/model"
)

// PostgresStockStore mutates products.available_quantity with single conditional statements.
// The row lock taken by UPDATE serialises concurrent reservations of the same product.
type PostgresStockStore struct {
	db *sql.DB
}

func NewPostgresStockStore(db *sql.DB) *PostgresStockStore {
	return &PostgresStockStore{db: db}
}

// Decrement subtracts quantity only when enough stock is available
func (s *PostgresStockStore) Decrement(ctx context.Context, productID string, quantity int) (*model.Product, error) {
	var p model.Product
	err := s.db.QueryRowContext(ctx,
		`UPDATE products
		 SET available_quantity = available_quantity - $2, updated_at = now()
		 WHERE id = $1 AND available_quantity >= $2
		 RETURNING id, name, unit_price, available_quantity`,
		productID, quantity,
	).Scan(&p.ID, &p.Name, &p.UnitPrice, &p.AvailableQuantity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrConditionFailed
	}
	if err != nil {
		return nil, fmt.Errorf("decrement stock %s: %w", productID, err)
	}
	return &p, nil
}

// Increment adds quantity back to the product
func (s *PostgresStockStore) Increment(ctx context.Context, productID string, quantity int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE products
		 SET available_quantity = available_quantity + $2, updated_at = now()
		 WHERE id = $1`,
		productID, quantity,
	)
	if err != nil {
		return fmt.Errorf("increment stock %s: %w", productID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
