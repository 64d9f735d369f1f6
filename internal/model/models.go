package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the fulfilment state of an order
type Status string

const (
	StatusPlaced    Status = "PLACED"
	StatusConfirmed Status = "CONFIRMED"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
)

// AllStatuses lists every known order status in lifecycle order
var AllStatuses = []Status{
	StatusPlaced,
	StatusConfirmed,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
}

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// PaymentStatus is the payment state of an order
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentFailed  PaymentStatus = "FAILED"
)

// Address is the delivery address captured at placement. It is never updated.
type Address struct {
	Street     string `json:"street_address"`
	City       string `json:"city"`
	Region     string `json:"state"`
	PostalCode string `json:"pincode"`
	Phone      string `json:"phone"`
}

// OrderItem is a line of an order with the price snapshot taken at purchase time
type OrderItem struct {
	ID              string          `json:"order_item_id"`
	OrderID         string          `json:"order_id"`
	ProductID       string          `json:"product_id"`
	ProductName     string          `json:"product_name"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
}

// Subtotal returns quantity × price at purchase
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.PriceAtPurchase.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is the aggregate root; it owns its items by value
type Order struct {
	ID            string          `json:"id"`
	OwnerID       string          `json:"owner_id"`
	OwnerEmail    string          `json:"owner_email,omitempty"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Status        Status          `json:"status"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	Address       Address         `json:"delivery_address"`
	Items         []OrderItem     `json:"order_items"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Clone returns a deep copy of the order
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.Items = append([]OrderItem(nil), o.Items...)
	return &c
}

// Product is the stock-bearing product record
type Product struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	AvailableQuantity int             `json:"available_quantity"`
}

// CartLine is one line of a buyer's cart
type CartLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}
