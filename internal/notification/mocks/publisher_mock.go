package mocks

import (
	"context"
	"sync"

	"github.com/example/ec-order-engine/internal/notification"
)

// MockPublisher records published messages for testing
type MockPublisher struct {
	mu sync.Mutex

	OrderConfirmations   []notification.OrderConfirmation
	PaymentConfirmations []notification.PaymentConfirmation

	OrderErr   error
	PaymentErr error
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) OrderConfirmed(ctx context.Context, msg notification.OrderConfirmation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.OrderErr != nil {
		return m.OrderErr
	}
	m.OrderConfirmations = append(m.OrderConfirmations, msg)
	return nil
}

func (m *MockPublisher) PaymentConfirmed(ctx context.Context, msg notification.PaymentConfirmation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PaymentErr != nil {
		return m.PaymentErr
	}
	m.PaymentConfirmations = append(m.PaymentConfirmations, msg)
	return nil
}

// PaymentCount returns the number of recorded payment confirmations
func (m *MockPublisher) PaymentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.PaymentConfirmations)
}
