package store

import (
	"context"
	"database/sql"

	"github.com/example/ec-order-engine/internal/model"
)

// PostgresCartStore reads and clears the cart_items table owned by the cart service
type PostgresCartStore struct {
	db *sql.DB
}

func NewPostgresCartStore(db *sql.DB) *PostgresCartStore {
	return &PostgresCartStore{db: db}
}

func (s *PostgresCartStore) GetLineItems(ctx context.Context, ownerID string) ([]model.CartLine, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT product_id, quantity FROM cart_items WHERE user_id = $1 ORDER BY created_at, product_id`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []model.CartLine
	for rows.Next() {
		var l model.CartLine
		if err := rows.Scan(&l.ProductID, &l.Quantity); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (s *PostgresCartStore) Clear(ctx context.Context, ownerID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, ownerID)
	return err
}
