package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/example/ec-order-engine/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sqlLike matches a statement containing the fragments in order
func sqlLike(fragments ...string) string {
	quoted := make([]string, len(fragments))
	for i, f := range fragments {
		quoted[i] = regexp.QuoteMeta(f)
	}
	return strings.Join(quoted, ".*")
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

var decrementSQL = sqlLike(
	"UPDATE products",
	"SET available_quantity = available_quantity - $2",
	"WHERE id = $1 AND available_quantity >= $2",
	"RETURNING id, name, unit_price, available_quantity",
)

// ============================================
// PostgresStockStore Tests
// ============================================

func TestPostgresStockStore_Decrement_Success(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(decrementSQL).
		WithArgs("prod-1", 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "unit_price", "available_quantity"}).
			AddRow("prod-1", "Laptop", "79999.00", 8))

	p, err := NewPostgresStockStore(db).Decrement(context.Background(), "prod-1", 2)

	require.NoError(t, err)
	assert.Equal(t, "Laptop", p.Name)
	assert.True(t, decimal.RequireFromString("79999.00").Equal(p.UnitPrice))
	assert.Equal(t, 8, p.AvailableQuantity)
}

func TestPostgresStockStore_Decrement_NoRowMeansConditionFailed(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(decrementSQL).
		WithArgs("prod-1", 5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "unit_price", "available_quantity"}))

	p, err := NewPostgresStockStore(db).Decrement(context.Background(), "prod-1", 5)

	assert.ErrorIs(t, err, ErrConditionFailed)
	assert.Nil(t, p)
}

func TestPostgresStockStore_Decrement_DriverError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(decrementSQL).WillReturnError(errors.New("connection refused"))

	_, err := NewPostgresStockStore(db).Decrement(context.Background(), "prod-1", 1)

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrConditionFailed)
	assert.ErrorContains(t, err, "connection refused")
}

func TestPostgresStockStore_Increment(t *testing.T) {
	incrementSQL := sqlLike("UPDATE products", "SET available_quantity = available_quantity + $2", "WHERE id = $1")

	t.Run("row updated", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(incrementSQL).WithArgs("prod-1", 3).WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, NewPostgresStockStore(db).Increment(context.Background(), "prod-1", 3))
	})

	t.Run("no row", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(incrementSQL).WithArgs("ghost", 1).WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, NewPostgresStockStore(db).Increment(context.Background(), "ghost", 1), ErrNotFound)
	})
}

// ============================================
// PostgresOrderStore Tests
// ============================================

var (
	transitionSQL = sqlLike("UPDATE orders SET status = $2", "WHERE id = $1 AND status = ANY($3)")
	markPaidSQL   = sqlLike(
		"UPDATE orders",
		"SET payment_status = $2",
		"status = CASE WHEN status = $3 THEN $4 ELSE status END",
		"WHERE id = $1 AND payment_status <> $2",
	)
	existsSQL = sqlLike("SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)")
)

func existsRows(exists bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"exists"}).AddRow(exists)
}

func TestPostgresOrderStore_TransitionStatus(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		exists   *bool
		want     bool
		wantErr  error
	}{
		{name: "applied", affected: 1, want: true},
		{name: "condition not met", affected: 0, exists: ptr(true), want: false},
		{name: "missing order", affected: 0, exists: ptr(false), wantErr: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			mock.ExpectExec(transitionSQL).
				WithArgs("o-1", "CANCELLED", `{"PLACED"}`).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))
			if tt.exists != nil {
				mock.ExpectQuery(existsSQL).WithArgs("o-1").WillReturnRows(existsRows(*tt.exists))
			}

			got, err := NewPostgresOrderStore(db).TransitionStatus(context.Background(), "o-1", model.StatusCancelled, model.StatusPlaced)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPostgresOrderStore_MarkPaid(t *testing.T) {
	t.Run("applied once", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(markPaidSQL).
			WithArgs("o-1", "PAID", "PLACED", "CONFIRMED").
			WillReturnResult(sqlmock.NewResult(0, 1))

		applied, err := NewPostgresOrderStore(db).MarkPaid(context.Background(), "o-1")

		require.NoError(t, err)
		assert.True(t, applied)
	})

	t.Run("already paid", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(markPaidSQL).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(existsSQL).WithArgs("o-1").WillReturnRows(existsRows(true))

		applied, err := NewPostgresOrderStore(db).MarkPaid(context.Background(), "o-1")

		require.NoError(t, err)
		assert.False(t, applied)
	})

	t.Run("rows affected unavailable", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(markPaidSQL).WillReturnResult(sqlmock.NewErrorResult(errors.New("no rows affected info")))

		_, err := NewPostgresOrderStore(db).MarkPaid(context.Background(), "o-1")

		assert.ErrorContains(t, err, "no rows affected info")
	})
}

func TestPostgresOrderStore_FindByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(sqlLike("FROM orders WHERE id = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := NewPostgresOrderStore(db).FindByID(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrNotFound)
}

func testOrder() *model.Order {
	now := time.Now()
	return &model.Order{
		ID:            "o-1",
		OwnerID:       "user-1",
		TotalAmount:   decimal.RequireFromString("159998.00"),
		Status:        model.StatusPlaced,
		PaymentStatus: model.PaymentPending,
		Items: []model.OrderItem{
			{ID: "item-1", OrderID: "o-1", ProductID: "prod-1", Quantity: 2, PriceAtPurchase: decimal.RequireFromString("79999.00")},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestPostgresOrderStore_Create_OneTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec(sqlLike("INSERT INTO orders")).WillReturnResult(sqlmock.NewResult(0, 1))
	prep := mock.ExpectPrepare(sqlLike("INSERT INTO order_items"))
	prep.ExpectExec().
		WithArgs("item-1", "o-1", "prod-1", 2, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	assert.NoError(t, NewPostgresOrderStore(db).Create(context.Background(), testOrder()))
}

func TestPostgresOrderStore_Create_RollsBackOnItemFailure(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec(sqlLike("INSERT INTO orders")).WillReturnResult(sqlmock.NewResult(0, 1))
	prep := mock.ExpectPrepare(sqlLike("INSERT INTO order_items"))
	prep.ExpectExec().WillReturnError(errors.New("foreign key violation"))
	mock.ExpectRollback()

	err := NewPostgresOrderStore(db).Create(context.Background(), testOrder())

	assert.ErrorContains(t, err, "foreign key violation")
}

func ptr[T any](v T) *T { return &v }
