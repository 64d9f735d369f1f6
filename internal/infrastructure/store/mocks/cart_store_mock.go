package mocks

import (
	"context"
	"sync"

	"github.com/example/ec-order-engine/internal/model"
)

// MockCartStore is an in-memory implementation of store.CartStore for testing
type MockCartStore struct {
	mu    sync.RWMutex
	lines map[string][]model.CartLine

	ClearCalls []string
	GetErr     error
	ClearErr   error
}

// NewMockCartStore creates a new MockCartStore
func NewMockCartStore() *MockCartStore {
	return &MockCartStore{
		lines: make(map[string][]model.CartLine),
	}
}

// AddLine appends a cart line for the owner
func (m *MockCartStore) AddLine(ownerID, productID string, quantity int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines[ownerID] = append(m.lines[ownerID], model.CartLine{ProductID: productID, Quantity: quantity})
}

// GetLineItems returns a copy of the owner's cart
func (m *MockCartStore) GetLineItems(ctx context.Context, ownerID string) ([]model.CartLine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.GetErr != nil {
		return nil, m.GetErr
	}
	return append([]model.CartLine(nil), m.lines[ownerID]...), nil
}

// Clear empties the owner's cart
func (m *MockCartStore) Clear(ctx context.Context, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ClearCalls = append(m.ClearCalls, ownerID)
	if m.ClearErr != nil {
		return m.ClearErr
	}
	delete(m.lines, ownerID)
	return nil
}

// Len returns the number of lines in the owner's cart
func (m *MockCartStore) Len(ownerID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.lines[ownerID])
}
