package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/ec-order-engine/internal/domain/inventory"
	"github.com/example/ec-order-engine/internal/infrastructure/store"
	"github.com/example/ec-order-engine/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Service struct {
	orders store.OrderStore
	now    func() time.Time
}

func NewService(orders store.OrderStore) *Service {
	return &Service{orders: orders, now: time.Now}
}

// Build assembles a PLACED/PENDING order from reservations.
// Each item's price is the unit price returned by its reservation.
func (s *Service) Build(ownerID, ownerEmail string, addr model.Address, reservations []*inventory.Reservation) *model.Order {
	now := s.now().UTC()
	o := &model.Order{
		ID:            uuid.New().String(),
		OwnerID:       ownerID,
		OwnerEmail:    ownerEmail,
		Status:        model.StatusPlaced,
		PaymentStatus: model.PaymentPending,
		Address:       addr,
		Items:         make([]model.OrderItem, 0, len(reservations)),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, r := range reservations {
		o.Items = append(o.Items, model.OrderItem{
			ID:              uuid.New().String(),
			OrderID:         o.ID,
			ProductID:       r.ProductID,
			ProductName:     r.Product.Name,
			Quantity:        r.Quantity,
			PriceAtPurchase: r.Product.UnitPrice,
		})
	}
	o.TotalAmount = Total(o.Items)
	return o
}

// Total sums quantity × price at purchase over items
func Total(items []model.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// Create persists the order and its items as one unit
func (s *Service) Create(ctx context.Context, o *model.Order) error {
	if len(o.Items) == 0 {
		return ErrEmptyCart
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return fmt.Errorf("persist order %s: %w", o.ID, err)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, orderID string) (*model.Order, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load order %s: %w", orderID, err)
	}
	return o, nil
}

// GetOwned loads an order and enforces ownership
func (s *Service) GetOwned(ctx context.Context, ownerID, orderID string) (*model.Order, error) {
	o, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := CheckOwner(o, ownerID); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]*model.Order, error) {
	orders, err := s.orders.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list orders for %s: %w", ownerID, err)
	}
	return orders, nil
}

func (s *Service) ListAll(ctx context.Context) ([]*model.Order, error) {
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// Cancel flips PLACED to CANCELLED with a conditional write.
// Only the caller whose write applied may release stock.
func (s *Service) Cancel(ctx context.Context, o *model.Order) (*model.Order, error) {
	if err := CheckCancellable(o); err != nil {
		return nil, err
	}
	applied, err := s.orders.TransitionStatus(ctx, o.ID, model.StatusCancelled, model.StatusPlaced)
	if err != nil {
		return nil, s.mapStoreErr(o.ID, err)
	}
	if !applied {
		return nil, s.stateConflict(ctx, o.ID, "cannot cancel order")
	}
	cancelled := o.Clone()
	cancelled.Status = model.StatusCancelled
	cancelled.UpdatedAt = s.now().UTC()
	return cancelled, nil
}

// SetStatus overwrites the status of any order that is not CANCELLED.
// Cancellation is not accepted here; it goes through Cancel.
func (s *Service) SetStatus(ctx context.Context, o *model.Order, next model.Status) (*model.Order, error) {
	if !next.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, next)
	}
	if next == model.StatusCancelled {
		return nil, fmt.Errorf("%w: use cancellation to cancel an order", ErrInvalidState)
	}
	if o.Status == model.StatusCancelled {
		return nil, fmt.Errorf("%w: cannot update a cancelled order", ErrInvalidState)
	}

	applied, err := s.orders.TransitionStatus(ctx, o.ID, next, updatableStatuses()...)
	if err != nil {
		return nil, s.mapStoreErr(o.ID, err)
	}
	if !applied {
		return nil, s.stateConflict(ctx, o.ID, "cannot update order")
	}
	updated := o.Clone()
	updated.Status = next
	updated.UpdatedAt = s.now().UTC()
	return updated, nil
}

// MarkPaid sets payment to PAID and confirms a PLACED order.
// It reports false when the order was already PAID.
func (s *Service) MarkPaid(ctx context.Context, orderID string) (bool, error) {
	applied, err := s.orders.MarkPaid(ctx, orderID)
	if err != nil {
		return false, s.mapStoreErr(orderID, err)
	}
	return applied, nil
}

func (s *Service) mapStoreErr(orderID string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrOrderNotFound
	}
	return fmt.Errorf("update order %s: %w", orderID, err)
}

// stateConflict reports the status observed after a conditional write lost
func (s *Service) stateConflict(ctx context.Context, orderID, action string) error {
	current, err := s.Get(ctx, orderID)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: %s in status %s", ErrInvalidState, action, current.Status)
}
