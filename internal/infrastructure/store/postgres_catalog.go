package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/ec-order-engine/internal/model"
)

// PostgresCatalog reads product snapshots straight from the products table
type PostgresCatalog struct {
	db *sql.DB
}

func NewPostgresCatalog(db *sql.DB) *PostgresCatalog {
	return &PostgresCatalog{db: db}
}

func (c *PostgresCatalog) GetProductSnapshot(ctx context.Context, productID string) (*model.Product, error) {
	var p model.Product
	err := c.db.QueryRowContext(ctx,
		`SELECT id, name, unit_price, available_quantity FROM products WHERE id = $1`,
		productID,
	).Scan(&p.ID, &p.Name, &p.UnitPrice, &p.AvailableQuantity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
