package store

import (
	"context"
	"errors"

	"github.com/example/ec-order-engine/internal/model"
)

var (
	// ErrNotFound is returned when the addressed row does not exist
	ErrNotFound = errors.New("store: not found")
	// ErrConditionFailed is returned when a conditional write matched no row
	ErrConditionFailed = errors.New("store: condition failed")
)

// ConditionFailedError is a failed conditional decrement that carries the row the
// condition was evaluated against. Current is nil when the row does not exist.
type ConditionFailedError struct {
	ProductID string
	Current   *model.Product
}

func (e *ConditionFailedError) Error() string {
	if e.Current == nil {
		return "store: condition failed: " + e.ProductID + " does not exist"
	}
	return "store: condition failed: " + e.ProductID
}

func (e *ConditionFailedError) Is(target error) bool {
	return target == ErrConditionFailed
}

// OrderStore persists the order aggregate (order row + item rows) as one unit
type OrderStore interface {
	// Create inserts the order and all of its items in a single transaction
	Create(ctx context.Context, order *model.Order) error

	// FindByID loads an order with its items, or ErrNotFound
	FindByID(ctx context.Context, id string) (*model.Order, error)

	// ListByOwner returns the owner's orders, newest first
	ListByOwner(ctx context.Context, ownerID string) ([]*model.Order, error)

	// ListAll returns every order, newest first
	ListAll(ctx context.Context) ([]*model.Order, error)

	// TransitionStatus sets status to `to` only if the current status is one of `from`.
	// It reports whether a row was changed; ErrNotFound if the order does not exist.
	TransitionStatus(ctx context.Context, id string, to model.Status, from ...model.Status) (bool, error)

	// MarkPaid sets payment_status = PAID (and PLACED -> CONFIRMED) unless already PAID.
	// It reports whether this call applied the transition.
	MarkPaid(ctx context.Context, id string) (bool, error)
}

// StockStore owns the available quantity column and mutates it only through conditional writes
type StockStore interface {
	// Decrement subtracts quantity iff available_quantity >= quantity, in one statement.
	// Returns the product after the decrement, or an error matching ErrConditionFailed.
	// Stores that can read the row in the same write return *ConditionFailedError.
	Decrement(ctx context.Context, productID string, quantity int) (*model.Product, error)

	// Increment adds quantity back
	Increment(ctx context.Context, productID string, quantity int) error
}

// CartStore is the cart collaborator
type CartStore interface {
	GetLineItems(ctx context.Context, ownerID string) ([]model.CartLine, error)
	Clear(ctx context.Context, ownerID string) error
}

// Catalog is the catalog collaborator
type Catalog interface {
	// GetProductSnapshot returns name, unit price and available quantity, or ErrNotFound
	GetProductSnapshot(ctx context.Context, productID string) (*model.Product, error)
}
