package query

import (
	"context"

	"github.com/example/ec-order-engine/internal/domain/order"
)

type Handler struct {
	orderSvc *order.Service
}

func NewHandler(orderSvc *order.Service) *Handler {
	return &Handler{orderSvc: orderSvc}
}

// GetOrderByID returns the order when ownerID owns it
func (h *Handler) GetOrderByID(ctx context.Context, ownerID, orderID string) (*OrderReadModel, error) {
	o, err := h.orderSvc.GetOwned(ctx, ownerID, orderID)
	if err != nil {
		return nil, err
	}
	return NewOrderReadModel(o), nil
}

// GetMyOrders lists the owner's orders, newest first
func (h *Handler) GetMyOrders(ctx context.Context, ownerID string) ([]*OrderReadModel, error) {
	orders, err := h.orderSvc.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return newOrderReadModels(orders), nil
}

// GetAllOrders lists every order, newest first (administrative)
func (h *Handler) GetAllOrders(ctx context.Context) ([]*OrderReadModel, error) {
	orders, err := h.orderSvc.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return newOrderReadModels(orders), nil
}
