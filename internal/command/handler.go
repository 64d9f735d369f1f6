package command

import (
	"context"
	"errors"
	"time"

	"github.com/example/ec-order-engine/internal/domain/inventory"
	"github.com/example/ec-order-engine/internal/domain/order"
	"github.com/example/ec-order-engine/internal/infrastructure/store"
	"github.com/example/ec-order-engine/internal/logging"
	"github.com/example/ec-order-engine/internal/metrics"
	"github.com/example/ec-order-engine/internal/model"
	"github.com/example/ec-order-engine/internal/notification"
	"github.com/example/ec-order-engine/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Handler runs the order lifecycle: placement, cancellation and administrative status changes
type Handler struct {
	orderSvc  *order.Service
	ledger    *inventory.Ledger
	carts     store.CartStore
	publisher notification.Publisher
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

func NewHandler(
	orderSvc *order.Service,
	ledger *inventory.Ledger,
	carts store.CartStore,
	publisher notification.Publisher,
	logger *zap.Logger,
	m *metrics.Metrics,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		orderSvc:  orderSvc,
		ledger:    ledger,
		carts:     carts,
		publisher: publisher,
		logger:    logger,
		metrics:   m,
	}
}

// PlaceOrder turns the owner's cart into a PLACED order.
// Any failure before the order is persisted releases every reservation made by this call.
func (h *Handler) PlaceOrder(ctx context.Context, cmd PlaceOrder) (_ *model.Order, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "OrderLifecycle.PlaceOrder")
	started := time.Now()
	defer func() { h.finish(span, "place_order", started, err) }()
	log := logging.FromContext(ctx, h.logger).With(zap.String("owner_id", cmd.OwnerID))

	addr := order.NormalizeAddress(cmd.Address)
	if err := order.ValidateAddress(addr); err != nil {
		return nil, err
	}

	// 1. Snapshot the cart
	lines, err := h.carts.GetLineItems(ctx, cmd.OwnerID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, order.ErrEmptyCart
	}

	// 2. Reserve stock line by line
	reservations := make([]*inventory.Reservation, 0, len(lines))
	for _, line := range lines {
		r, err := h.ledger.Reserve(ctx, line.ProductID, line.Quantity)
		if err != nil {
			h.compensate(ctx, reservations)
			return nil, err
		}
		reservations = append(reservations, r)
	}

	// 3-4. Price from the reservations and persist
	o := h.orderSvc.Build(cmd.OwnerID, cmd.OwnerEmail, addr, reservations)
	if err := h.orderSvc.Create(ctx, o); err != nil {
		h.compensate(ctx, reservations)
		return nil, err
	}
	span.SetAttributes(attribute.String("order.id", o.ID), attribute.Int("order.items", len(o.Items)))

	// 5. Clear the cart; the order already exists so this cannot fail the placement
	if err := h.carts.Clear(ctx, cmd.OwnerID); err != nil {
		log.Error("cart_clear_failed", zap.String("order_id", o.ID), zap.Error(err))
	}

	// 6. Best-effort confirmation
	h.notify(ctx, o)

	log.Info("order_placed",
		zap.String("order_id", o.ID),
		zap.String("total_amount", o.TotalAmount.StringFixed(2)),
		zap.Int("items", len(o.Items)),
	)
	return o, nil
}

// CancelOrder cancels a PLACED order owned by the caller and restores its stock
func (h *Handler) CancelOrder(ctx context.Context, cmd CancelOrder) (_ *model.Order, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "OrderLifecycle.CancelOrder")
	started := time.Now()
	defer func() { h.finish(span, "cancel_order", started, err) }()
	span.SetAttributes(attribute.String("order.id", cmd.OrderID))

	o, err := h.orderSvc.GetOwned(ctx, cmd.OwnerID, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	return h.cancel(ctx, o)
}

// UpdateOrderStatus overwrites the status of a non-cancelled order.
// CANCELLED is routed through cancellation so stock is restored.
func (h *Handler) UpdateOrderStatus(ctx context.Context, cmd UpdateOrderStatus) (_ *model.Order, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "OrderLifecycle.UpdateOrderStatus")
	started := time.Now()
	defer func() { h.finish(span, "update_order_status", started, err) }()
	span.SetAttributes(attribute.String("order.id", cmd.OrderID), attribute.String("order.status", cmd.Status))

	next, err := order.ParseStatus(cmd.Status)
	if err != nil {
		return nil, err
	}
	o, err := h.orderSvc.Get(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if next == model.StatusCancelled {
		return h.cancel(ctx, o)
	}

	updated, err := h.orderSvc.SetStatus(ctx, o, next)
	if err != nil {
		return nil, err
	}

	log := logging.FromContext(ctx, h.logger)
	if !order.IsForward(o.Status, next) && o.Status != next {
		log.Warn("order_status_overridden",
			zap.String("order_id", o.ID),
			zap.String("from", string(o.Status)),
			zap.String("to", string(next)),
		)
	} else {
		log.Info("order_status_updated",
			zap.String("order_id", o.ID),
			zap.String("from", string(o.Status)),
			zap.String("to", string(next)),
		)
	}
	return updated, nil
}

func (h *Handler) cancel(ctx context.Context, o *model.Order) (*model.Order, error) {
	cancelled, err := h.orderSvc.Cancel(ctx, o)
	if err != nil {
		return nil, err
	}

	reservations := make([]*inventory.Reservation, len(o.Items))
	for i, item := range o.Items {
		reservations[i] = &inventory.Reservation{ProductID: item.ProductID, Quantity: item.Quantity}
	}
	h.compensate(ctx, reservations)

	logging.FromContext(ctx, h.logger).Info("order_cancelled",
		zap.String("order_id", o.ID),
		zap.String("owner_id", o.OwnerID),
	)
	return cancelled, nil
}

// compensate releases reservations even when the request context is already cancelled
func (h *Handler) compensate(ctx context.Context, reservations []*inventory.Reservation) {
	if len(reservations) == 0 {
		return
	}
	if err := h.ledger.ReleaseAll(context.WithoutCancel(ctx), reservations); err != nil {
		logging.FromContext(ctx, h.logger).Error("compensation_incomplete", zap.Error(err))
	}
}

func (h *Handler) notify(ctx context.Context, o *model.Order) {
	if h.publisher == nil {
		return
	}
	if err := h.publisher.OrderConfirmed(ctx, notification.NewOrderConfirmation(o)); err != nil {
		h.metrics.NotificationFailed(notification.TypeOrderConfirmation)
		logging.FromContext(ctx, h.logger).Warn("notification_failed",
			zap.String("type", notification.TypeOrderConfirmation),
			zap.String("order_id", o.ID),
			zap.Error(err),
		)
	}
}

func (h *Handler) finish(span trace.Span, useCase string, started time.Time, err error) {
	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = metrics.OutcomeError
		if IsBusinessError(err) {
			outcome = metrics.OutcomeBusiness
		} else {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}
	h.metrics.ObserveUseCase(useCase, outcome, started)
	span.End()
}

// IsBusinessError reports whether err is an expected rejection rather than a failure
func IsBusinessError(err error) bool {
	for _, target := range []error{
		order.ErrOrderNotFound,
		order.ErrForbidden,
		order.ErrEmptyCart,
		order.ErrInvalidState,
		order.ErrInvalidStatus,
		order.ErrInvalidAddress,
		inventory.ErrInsufficientStock,
		inventory.ErrProductNotFound,
		inventory.ErrInvalidQuantity,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
