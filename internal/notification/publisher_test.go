package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/example/ec-order-engine/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProducer struct {
	keys     []string
	values   []any
	deadline bool
	err      error
}

func (f *fakeProducer) Publish(ctx context.Context, key string, v any) error {
	_, f.deadline = ctx.Deadline()
	f.keys = append(f.keys, key)
	f.values = append(f.values, v)
	return f.err
}

func TestKafkaPublisher_OrderConfirmed(t *testing.T) {
	producer := &fakeProducer{}
	pub := NewKafkaPublisher(producer, time.Second)

	o := &model.Order{
		ID:          "order-1",
		OwnerEmail:  "buyer@example.com",
		TotalAmount: decimal.RequireFromString("159998.00"),
		Items: []model.OrderItem{
			{ProductID: "prod-a", ProductName: "Laptop", Quantity: 2, PriceAtPurchase: decimal.RequireFromString("79999.00")},
		},
	}

	require.NoError(t, pub.OrderConfirmed(context.Background(), NewOrderConfirmation(o)))

	require.Len(t, producer.keys, 1)
	assert.Equal(t, "order-1", producer.keys[0])
	assert.True(t, producer.deadline)

	env := producer.values[0].(Envelope)
	assert.Equal(t, TypeOrderConfirmation, env.Type)

	var msg OrderConfirmation
	require.NoError(t, json.Unmarshal(env.Data, &msg))
	assert.Equal(t, "buyer@example.com", msg.Email)
	assert.True(t, decimal.RequireFromString("159998").Equal(msg.TotalAmount))
	require.Len(t, msg.Items, 1)
	assert.Equal(t, "Laptop", msg.Items[0].Name)
}

func TestKafkaPublisher_PropagatesError(t *testing.T) {
	producer := &fakeProducer{err: errors.New("broker unavailable")}
	pub := NewKafkaPublisher(producer, 0)

	err := pub.PaymentConfirmed(context.Background(), PaymentConfirmation{OrderID: "order-1"})

	assert.ErrorContains(t, err, "broker unavailable")
	assert.False(t, producer.deadline)
}
