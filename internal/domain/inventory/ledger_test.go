package inventory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/example/ec-order-engine/internal/infrastructure/store"
	"github.com/example/ec-order-engine/internal/infrastructure/store/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingInvalidator struct {
	mu    sync.Mutex
	stock *mocks.MockStockStore
	calls []string
	// seen holds the available quantity observed when the hook ran
	seen []int
	err  error
}

func (r *recordingInvalidator) InvalidateProduct(ctx context.Context, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, productID)
	r.seen = append(r.seen, r.stock.Available(productID))
	return r.err
}

func newTestLedger() (*Ledger, *mocks.MockStockStore, *recordingInvalidator) {
	stock := mocks.NewMockStockStore()
	cache := &recordingInvalidator{stock: stock}
	return NewLedger(stock, stock, cache, nil, nil), stock, cache
}

// ============================================
// Reserve Tests
// ============================================

func TestLedger_Reserve_Success(t *testing.T) {
	ledger, stock, cache := newTestLedger()
	stock.AddProduct("prod-a", "Laptop", "79999.00", 10)

	r, err := ledger.Reserve(context.Background(), "prod-a", 2)

	require.NoError(t, err)
	assert.Equal(t, "prod-a", r.ProductID)
	assert.Equal(t, 2, r.Quantity)
	assert.Equal(t, "Laptop", r.Product.Name)
	assert.Equal(t, "79999", r.Product.UnitPrice.String())
	assert.Equal(t, 8, stock.Available("prod-a"))

	require.Equal(t, []string{"prod-a"}, cache.calls)
	assert.Equal(t, 8, cache.seen[0], "invalidation runs after the mutation")
}

func TestLedger_Reserve_Insufficient(t *testing.T) {
	ledger, stock, cache := newTestLedger()
	stock.AddProduct("prod-a", "Laptop", "79999.00", 1)

	r, err := ledger.Reserve(context.Background(), "prod-a", 5)

	assert.Nil(t, r)
	require.ErrorIs(t, err, ErrInsufficientStock)

	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, "Laptop", stockErr.ProductName)
	assert.Equal(t, 1, stockErr.Available)
	assert.Equal(t, 5, stockErr.Requested)
	assert.Equal(t, "Insufficient stock for: Laptop. Available: 1", stockErr.Error())

	assert.Equal(t, 1, stock.Available("prod-a"))
	assert.Empty(t, cache.calls)
}

func TestLedger_Reserve_UnknownProduct(t *testing.T) {
	ledger, _, _ := newTestLedger()

	_, err := ledger.Reserve(context.Background(), "ghost", 1)

	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.NotErrorIs(t, err, ErrInsufficientStock)
}

func TestLedger_Reserve_InvalidQuantity(t *testing.T) {
	ledger, stock, _ := newTestLedger()
	stock.AddProduct("prod-a", "Laptop", "10.00", 10)

	for _, q := range []int{0, -1} {
		_, err := ledger.Reserve(context.Background(), "prod-a", q)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	}
	assert.Empty(t, stock.DecrementCalls)
}

func TestLedger_Reserve_StorageError(t *testing.T) {
	ledger, stock, _ := newTestLedger()
	stock.AddProduct("prod-a", "Laptop", "10.00", 10)
	stock.DecrementErr = errors.New("connection reset")

	_, err := ledger.Reserve(context.Background(), "prod-a", 1)

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInsufficientStock)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestLedger_Reserve_CacheFailureIgnored(t *testing.T) {
	ledger, stock, cache := newTestLedger()
	stock.AddProduct("prod-a", "Laptop", "10.00", 10)
	cache.err = errors.New("redis down")

	_, err := ledger.Reserve(context.Background(), "prod-a", 1)

	require.NoError(t, err)
	assert.Equal(t, 9, stock.Available("prod-a"))
}

// ============================================
// Concurrency Tests
// ============================================

func TestLedger_Reserve_ConcurrentNeverOversells(t *testing.T) {
	ledger, stock, _ := newTestLedger()
	const available = 7
	stock.AddProduct("prod-a", "Last units", "10.00", available)

	var reserved int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(q int) {
			defer wg.Done()
			if _, err := ledger.Reserve(context.Background(), "prod-a", q); err == nil {
				atomic.AddInt64(&reserved, int64(q))
			}
		}(1 + i%3)
	}
	wg.Wait()

	assert.LessOrEqual(t, reserved, int64(available))
	assert.GreaterOrEqual(t, stock.Available("prod-a"), 0)
	assert.Equal(t, available-int(reserved), stock.Available("prod-a"))
}

// ============================================
// Release Tests
// ============================================

func TestLedger_Release(t *testing.T) {
	ledger, stock, cache := newTestLedger()
	stock.AddProduct("prod-a", "Laptop", "10.00", 3)

	require.NoError(t, ledger.Release(context.Background(), "prod-a", 2))

	assert.Equal(t, 5, stock.Available("prod-a"))
	assert.Equal(t, []string{"prod-a"}, cache.calls)
	assert.Equal(t, 5, cache.seen[0])
}

func TestLedger_ReleaseAll_ContinuesPastFailure(t *testing.T) {
	ledger, stock, _ := newTestLedger()
	stock.AddProduct("prod-a", "A", "10.00", 0)
	stock.AddProduct("prod-b", "B", "10.00", 0)

	err := ledger.ReleaseAll(context.Background(), []*Reservation{
		{ProductID: "prod-a", Quantity: 1},
		{ProductID: "ghost", Quantity: 1},
		{ProductID: "prod-b", Quantity: 2},
	})

	require.Error(t, err)
	assert.Equal(t, 1, stock.Available("prod-a"))
	assert.Equal(t, 2, stock.Available("prod-b"))
}

func TestLedger_ReserveThenRelease_RestoresStock(t *testing.T) {
	ledger, stock, _ := newTestLedger()
	stock.AddProduct("prod-a", "A", "10.00", 4)

	r, err := ledger.Reserve(context.Background(), "prod-a", 4)
	require.NoError(t, err)
	assert.Equal(t, 0, stock.Available("prod-a"))

	require.NoError(t, ledger.ReleaseAll(context.Background(), []*Reservation{r}))
	assert.Equal(t, 4, stock.Available("prod-a"))
}

func TestLedger_Reserve_CatalogReadFails(t *testing.T) {
	ledger, stock, _ := newTestLedger()
	stock.AddProduct("prod-a", "Laptop", "79999.00", 1)
	stock.SnapshotErr = errors.New("connection reset")

	_, err := ledger.Reserve(context.Background(), "prod-a", 5)

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInsufficientStock)
	assert.NotErrorIs(t, err, ErrProductNotFound)
	assert.ErrorContains(t, err, "connection reset")
}

// ============================================
// DynamoDB-backed Reserve Tests
// ============================================

// rejectingUpdater fails every UpdateItem with a conditional check failure carrying item
type rejectingUpdater struct {
	item map[string]types.AttributeValue
}

func (r *rejectingUpdater) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	return nil, &types.ConditionalCheckFailedException{Message: aws.String("condition failed"), Item: r.item}
}

func dynamoItem(id, name string, available string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"product_id":         &types.AttributeValueMemberS{Value: id},
		"name":               &types.AttributeValueMemberS{Value: name},
		"unit_price":         &types.AttributeValueMemberS{Value: "79999.00"},
		"available_quantity": &types.AttributeValueMemberN{Value: available},
	}
}

func TestLedger_Reserve_DynamoRejectionUsesStoredItem(t *testing.T) {
	catalog := mocks.NewMockStockStore()
	catalog.AddProduct("prod-a", "Laptop (catalog)", "79999.00", 10)
	stock := store.NewDynamoStockStore(&rejectingUpdater{item: dynamoItem("prod-a", "Laptop", "1")}, "stock")
	ledger := NewLedger(stock, catalog, nil, nil, nil)

	_, err := ledger.Reserve(context.Background(), "prod-a", 3)

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 1, stockErr.Available)
	assert.Equal(t, "Laptop", stockErr.ProductName)
	assert.Equal(t, 3, stockErr.Requested)
}

func TestLedger_Reserve_DynamoOnlyProduct(t *testing.T) {
	stock := store.NewDynamoStockStore(&rejectingUpdater{item: dynamoItem("prod-b", "Kettle", "0")}, "stock")
	ledger := NewLedger(stock, mocks.NewMockStockStore(), nil, nil, nil)

	_, err := ledger.Reserve(context.Background(), "prod-b", 1)

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Kettle", stockErr.ProductName)
	assert.Equal(t, 0, stockErr.Available)
}

func TestLedger_Reserve_DynamoMissingItem(t *testing.T) {
	catalog := mocks.NewMockStockStore()
	catalog.AddProduct("prod-c", "Ghost", "10.00", 5)
	stock := store.NewDynamoStockStore(&rejectingUpdater{}, "stock")
	ledger := NewLedger(stock, catalog, nil, nil, nil)

	_, err := ledger.Reserve(context.Background(), "prod-c", 1)

	assert.ErrorIs(t, err, ErrProductNotFound)
}
