package mocks

import (
	"context"
	"sync"

	"github.com/example/ec-order-engine/internal/infrastructure/store"
	"github.com/example/ec-order-engine/internal/model"
	"github.com/shopspring/decimal"
)

// MockStockStore is an in-memory implementation of store.StockStore.
// It also satisfies store.Catalog so both views share one product table.
type MockStockStore struct {
	mu       sync.Mutex
	products map[string]*model.Product

	// For tracking calls in tests
	DecrementCalls []StockCall
	IncrementCalls []StockCall

	DecrementErr error
	IncrementErr error
	// DecrementErrFor fails Decrement only for the given product ID
	DecrementErrFor map[string]error
	SnapshotErr     error
}

// StockCall records parameters passed to Decrement or Increment
type StockCall struct {
	ProductID string
	Quantity  int
}

// NewMockStockStore creates a new MockStockStore
func NewMockStockStore() *MockStockStore {
	return &MockStockStore{
		products:        make(map[string]*model.Product),
		DecrementErrFor: make(map[string]error),
	}
}

// AddProduct seeds a product
func (m *MockStockStore) AddProduct(id, name, price string, available int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[id] = &model.Product{
		ID:                id,
		Name:              name,
		UnitPrice:         decimal.RequireFromString(price),
		AvailableQuantity: available,
	}
}

// SetPrice changes a product's current unit price
func (m *MockStockStore) SetPrice(id, price string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.products[id]; ok {
		p.UnitPrice = decimal.RequireFromString(price)
	}
}

// Available returns the current stock for a product, or -1 when unknown
func (m *MockStockStore) Available(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return -1
	}
	return p.AvailableQuantity
}

// Decrement subtracts stock when enough is available
func (m *MockStockStore) Decrement(ctx context.Context, productID string, quantity int) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DecrementCalls = append(m.DecrementCalls, StockCall{ProductID: productID, Quantity: quantity})
	if m.DecrementErr != nil {
		return nil, m.DecrementErr
	}
	if err := m.DecrementErrFor[productID]; err != nil {
		return nil, err
	}

	p, ok := m.products[productID]
	if !ok || p.AvailableQuantity < quantity {
		return nil, store.ErrConditionFailed
	}
	p.AvailableQuantity -= quantity
	snapshot := *p
	return &snapshot, nil
}

// Increment adds stock back
func (m *MockStockStore) Increment(ctx context.Context, productID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.IncrementCalls = append(m.IncrementCalls, StockCall{ProductID: productID, Quantity: quantity})
	if m.IncrementErr != nil {
		return m.IncrementErr
	}

	p, ok := m.products[productID]
	if !ok {
		return store.ErrNotFound
	}
	p.AvailableQuantity += quantity
	return nil
}

// GetProductSnapshot returns a copy of the product
func (m *MockStockStore) GetProductSnapshot(ctx context.Context, productID string) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SnapshotErr != nil {
		return nil, m.SnapshotErr
	}
	p, ok := m.products[productID]
	if !ok {
		return nil, store.ErrNotFound
	}
	snapshot := *p
	return &snapshot, nil
}
