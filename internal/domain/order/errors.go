package order

import "errors"

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrForbidden      = errors.New("order belongs to another user")
	ErrEmptyCart      = errors.New("cart is empty")
	ErrInvalidState   = errors.New("invalid order state")
	ErrInvalidStatus  = errors.New("unknown order status")
	ErrInvalidAddress = errors.New("invalid delivery address")
)
