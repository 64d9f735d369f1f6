package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/ec-order-engine/internal/infrastructure/store"
	"github.com/example/ec-order-engine/internal/logging"
	"github.com/example/ec-order-engine/internal/metrics"
	"github.com/example/ec-order-engine/internal/model"
	"go.uber.org/zap"
)

// Invalidator drops cached projections of a product
type Invalidator interface {
	InvalidateProduct(ctx context.Context, productID string) error
}

type noopInvalidator struct{}

func (noopInvalidator) InvalidateProduct(context.Context, string) error { return nil }

// Reservation is one successful decrement, kept so it can be compensated
type Reservation struct {
	ProductID string
	Quantity  int
	// Product is the snapshot returned by the decrement, including the unit price at that moment
	Product model.Product
}

// Ledger is the only writer of available quantity.
// Reserve and Release are single conditional writes in the stock store.
type Ledger struct {
	stock   store.StockStore
	catalog store.Catalog
	cache   Invalidator
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewLedger(stock store.StockStore, catalog store.Catalog, cache Invalidator, logger *zap.Logger, m *metrics.Metrics) *Ledger {
	if cache == nil {
		cache = noopInvalidator{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		stock:   stock,
		catalog: catalog,
		cache:   cache,
		logger:  logger,
		metrics: m,
	}
}

// Reserve atomically checks and decrements available stock
func (l *Ledger) Reserve(ctx context.Context, productID string, quantity int) (*Reservation, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	log := logging.FromContext(ctx, l.logger)

	product, err := l.stock.Decrement(ctx, productID, quantity)
	if err != nil {
		if !errors.Is(err, store.ErrConditionFailed) {
			l.metrics.Reservation(metrics.OutcomeError)
			return nil, fmt.Errorf("reserve %s: %w", productID, err)
		}
		rejected, readErr := l.rejection(ctx, productID, quantity, err)
		if readErr != nil {
			l.metrics.Reservation(metrics.OutcomeError)
			return nil, fmt.Errorf("reserve %s: %w", productID, readErr)
		}
		l.metrics.Reservation(metrics.OutcomeBusiness)
		log.Info("stock_reserve_rejected",
			zap.String("product_id", productID),
			zap.Int("requested", quantity),
			zap.Error(rejected),
		)
		return nil, rejected
	}

	l.metrics.Reservation(metrics.OutcomeOK)
	l.invalidate(ctx, productID)

	return &Reservation{
		ProductID: productID,
		Quantity:  quantity,
		Product:   *product,
	}, nil
}

// rejection explains a failed conditional decrement. The row returned by the stock store
// is preferred; otherwise the catalog snapshot is read. A failed read is returned as err.
func (l *Ledger) rejection(ctx context.Context, productID string, quantity int, cause error) (rejected, err error) {
	var failed *store.ConditionFailedError
	if errors.As(cause, &failed) {
		if failed.Current == nil {
			return fmt.Errorf("%w: %s", ErrProductNotFound, productID), nil
		}
		return insufficient(productID, quantity, failed.Current), nil
	}

	snapshot, err := l.catalog.GetProductSnapshot(ctx, productID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrProductNotFound, productID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read product snapshot: %w", err)
	}
	return insufficient(productID, quantity, snapshot), nil
}

func insufficient(productID string, quantity int, current *model.Product) *InsufficientStockError {
	return &InsufficientStockError{
		ProductID:   productID,
		ProductName: current.Name,
		Available:   current.AvailableQuantity,
		Requested:   quantity,
	}
}

// Release atomically returns quantity to available stock
func (l *Ledger) Release(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if err := l.stock.Increment(ctx, productID, quantity); err != nil {
		return fmt.Errorf("release %s: %w", productID, err)
	}
	l.invalidate(ctx, productID)
	return nil
}

// ReleaseAll compensates every reservation, continuing past failures
func (l *Ledger) ReleaseAll(ctx context.Context, reservations []*Reservation) error {
	var errs []error
	for _, r := range reservations {
		if err := l.Release(ctx, r.ProductID, r.Quantity); err != nil {
			logging.FromContext(ctx, l.logger).Error("stock_release_failed",
				zap.String("product_id", r.ProductID),
				zap.Int("quantity", r.Quantity),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (l *Ledger) invalidate(ctx context.Context, productID string) {
	if err := l.cache.InvalidateProduct(ctx, productID); err != nil {
		logging.FromContext(ctx, l.logger).Warn("cache_invalidation_failed",
			zap.String("product_id", productID),
			zap.Error(err),
		)
	}
}
