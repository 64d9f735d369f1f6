package query

import (
	"context"
	"testing"
	"time"

	"github.com/example/ec-order-engine/internal/domain/order"
	"github.com/example/ec-order-engine/internal/infrastructure/store/mocks"
	"github.com/example/ec-order-engine/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueryHandler() (*Handler, *mocks.MockOrderStore) {
	orders := mocks.NewMockOrderStore()
	return NewHandler(order.NewService(orders)), orders
}

func put(orders *mocks.MockOrderStore, id, owner string, created time.Time) {
	orders.Put(&model.Order{
		ID:            id,
		OwnerID:       owner,
		Status:        model.StatusPlaced,
		PaymentStatus: model.PaymentPending,
		TotalAmount:   decimal.RequireFromString("159998"),
		Items: []model.OrderItem{
			{ID: id + "-1", OrderID: id, ProductID: "prod-a", ProductName: "Laptop", Quantity: 2, PriceAtPurchase: decimal.RequireFromString("79999")},
		},
		CreatedAt: created,
		UpdatedAt: created,
	})
}

func TestHandler_GetOrderByID(t *testing.T) {
	h, orders := newTestQueryHandler()
	put(orders, "o-1", "user-1", time.Now())

	view, err := h.GetOrderByID(context.Background(), "user-1", "o-1")

	require.NoError(t, err)
	assert.Equal(t, "159998.00", view.TotalAmount)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "Laptop", view.Items[0].ProductName)
	assert.Equal(t, "79999.00", view.Items[0].PriceAtPurchase)
	assert.Equal(t, "159998.00", view.Items[0].Subtotal)
}

func TestHandler_GetOrderByID_Errors(t *testing.T) {
	h, orders := newTestQueryHandler()
	put(orders, "o-1", "user-1", time.Now())

	_, err := h.GetOrderByID(context.Background(), "user-2", "o-1")
	assert.ErrorIs(t, err, order.ErrForbidden)

	_, err = h.GetOrderByID(context.Background(), "user-1", "missing")
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestHandler_GetMyOrders_NewestFirst(t *testing.T) {
	h, orders := newTestQueryHandler()
	now := time.Now()
	put(orders, "old", "user-1", now.Add(-time.Hour))
	put(orders, "new", "user-1", now)
	put(orders, "other", "user-2", now)

	views, err := h.GetMyOrders(context.Background(), "user-1")

	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "new", views[0].ID)
	assert.Equal(t, "old", views[1].ID)
}

func TestHandler_GetMyOrders_Empty(t *testing.T) {
	h, _ := newTestQueryHandler()

	views, err := h.GetMyOrders(context.Background(), "nobody")

	require.NoError(t, err)
	assert.NotNil(t, views)
	assert.Empty(t, views)
}

func TestHandler_GetAllOrders(t *testing.T) {
	h, orders := newTestQueryHandler()
	now := time.Now()
	put(orders, "a", "user-1", now.Add(-time.Minute))
	put(orders, "b", "user-2", now)

	views, err := h.GetAllOrders(context.Background())

	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "b", views[0].ID)
}
