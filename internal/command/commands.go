package command

import "github.com/example/ec-order-engine/internal/model"

// Order Commands
type PlaceOrder struct {
	OwnerID    string        `json:"owner_id"`
	OwnerEmail string        `json:"owner_email"`
	Address    model.Address `json:"delivery_address"`
}

type CancelOrder struct {
	OwnerID string `json:"owner_id"`
	OrderID string `json:"order_id"`
}

// UpdateOrderStatus is administrative; Status is parsed and validated by the handler
type UpdateOrderStatus struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}
