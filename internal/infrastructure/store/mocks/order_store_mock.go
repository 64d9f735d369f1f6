package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/ec-order-engine/internal/infrastructure/store"
	"github.com/example/ec-order-engine/internal/model"
)

// MockOrderStore is an in-memory implementation of store.OrderStore for testing
type MockOrderStore struct {
	mu     sync.RWMutex
	orders map[string]*model.Order

	// For tracking calls in tests
	CreateCalls     []*model.Order
	TransitionCalls []TransitionCall
	MarkPaidCalls   []string

	CreateErr     error
	FindErr       error
	TransitionErr error
	MarkPaidErr   error
}

// TransitionCall records parameters passed to TransitionStatus
type TransitionCall struct {
	ID   string
	To   model.Status
	From []model.Status
}

// NewMockOrderStore creates a new MockOrderStore
func NewMockOrderStore() *MockOrderStore {
	return &MockOrderStore{
		orders: make(map[string]*model.Order),
	}
}

// Create stores a copy of the order
func (m *MockOrderStore) Create(ctx context.Context, o *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateCalls = append(m.CreateCalls, o.Clone())
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.orders[o.ID] = o.Clone()
	return nil
}

// FindByID returns a copy of the stored order
func (m *MockOrderStore) FindByID(ctx context.Context, id string) (*model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FindErr != nil {
		return nil, m.FindErr
	}
	o, ok := m.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return o.Clone(), nil
}

// ListByOwner returns the owner's orders, newest first
func (m *MockOrderStore) ListByOwner(ctx context.Context, ownerID string) ([]*model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*model.Order
	for _, o := range m.orders {
		if o.OwnerID == ownerID {
			out = append(out, o.Clone())
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// ListAll returns every order, newest first
func (m *MockOrderStore) ListAll(ctx context.Context) ([]*model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*model.Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, o.Clone())
	}
	sortNewestFirst(out)
	return out, nil
}

// TransitionStatus sets the status when the current status is one of from (or from is empty)
func (m *MockOrderStore) TransitionStatus(ctx context.Context, id string, to model.Status, from ...model.Status) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TransitionCalls = append(m.TransitionCalls, TransitionCall{ID: id, To: to, From: from})
	if m.TransitionErr != nil {
		return false, m.TransitionErr
	}

	o, ok := m.orders[id]
	if !ok {
		return false, store.ErrNotFound
	}
	if len(from) > 0 && !containsStatus(from, o.Status) {
		return false, nil
	}
	o.Status = to
	o.UpdatedAt = time.Now()
	return true, nil
}

// MarkPaid sets payment to PAID once, confirming a PLACED order
func (m *MockOrderStore) MarkPaid(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.MarkPaidCalls = append(m.MarkPaidCalls, id)
	if m.MarkPaidErr != nil {
		return false, m.MarkPaidErr
	}

	o, ok := m.orders[id]
	if !ok {
		return false, store.ErrNotFound
	}
	if o.PaymentStatus == model.PaymentPaid {
		return false, nil
	}
	o.PaymentStatus = model.PaymentPaid
	if o.Status == model.StatusPlaced {
		o.Status = model.StatusConfirmed
	}
	o.UpdatedAt = time.Now()
	return true, nil
}

// Put seeds an order directly, bypassing call recording
func (m *MockOrderStore) Put(o *model.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = o.Clone()
}

// Count returns the number of stored orders
func (m *MockOrderStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.orders)
}

func containsStatus(list []model.Status, s model.Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func sortNewestFirst(orders []*model.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
