package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

// ConnectPostgres establishes a connection to PostgreSQL
func ConnectPostgres(ctx context.Context, connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Test connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// Schema creates the tables owned by (or read by) the order engine.
// products and cart_items belong to the catalog and cart collaborators; they
// are declared here so a fresh database is usable end to end.
const Schema = `
CREATE TABLE IF NOT EXISTS products (
	id                 TEXT PRIMARY KEY,
	name               TEXT NOT NULL,
	unit_price         NUMERIC(12,2) NOT NULL,
	available_quantity INTEGER NOT NULL CHECK (available_quantity >= 0),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS cart_items (
	user_id    TEXT NOT NULL,
	product_id TEXT NOT NULL REFERENCES products(id),
	quantity   INTEGER NOT NULL CHECK (quantity > 0),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (user_id, product_id)
);

CREATE TABLE IF NOT EXISTS orders (
	id             TEXT PRIMARY KEY,
	owner_id       TEXT NOT NULL,
	owner_email    TEXT NOT NULL DEFAULT '',
	total_amount   NUMERIC(14,2) NOT NULL,
	status         TEXT NOT NULL,
	payment_status TEXT NOT NULL,
	street_address TEXT NOT NULL,
	city           TEXT NOT NULL,
	region         TEXT NOT NULL,
	postal_code    TEXT NOT NULL,
	phone          TEXT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_owner_created ON orders (owner_id, created_at DESC);

CREATE TABLE IF NOT EXISTS order_items (
	id                TEXT PRIMARY KEY,
	order_id          TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
	product_id        TEXT NOT NULL,
	quantity          INTEGER NOT NULL CHECK (quantity > 0),
	price_at_purchase NUMERIC(12,2) NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items (order_id);
`

// Migrate applies Schema
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, Schema)
	return err
}
