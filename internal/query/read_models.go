package query

import (
	"time"

	"github.com/example/ec-order-engine/internal/model"
)

// OrderItemReadModel is an order line as returned to clients
type OrderItemReadModel struct {
	ID              string `json:"id"`
	ProductID       string `json:"productId"`
	ProductName     string `json:"productName"`
	Quantity        int    `json:"quantity"`
	PriceAtPurchase string `json:"priceAtPurchase"`
	Subtotal        string `json:"subtotal"`
}

type AddressReadModel struct {
	Street     string `json:"streetAddress"`
	City       string `json:"city"`
	Region     string `json:"state"`
	PostalCode string `json:"pincode"`
	Phone      string `json:"phone"`
}

// OrderReadModel is the order projection; money is rendered with two decimal places
type OrderReadModel struct {
	ID            string               `json:"id"`
	OwnerID       string               `json:"ownerId"`
	TotalAmount   string               `json:"totalAmount"`
	Status        model.Status         `json:"status"`
	PaymentStatus model.PaymentStatus  `json:"paymentStatus"`
	Address       AddressReadModel     `json:"deliveryAddress"`
	Items         []OrderItemReadModel `json:"items"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

// NewOrderReadModel projects an order
func NewOrderReadModel(o *model.Order) *OrderReadModel {
	items := make([]OrderItemReadModel, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderItemReadModel{
			ID:              it.ID,
			ProductID:       it.ProductID,
			ProductName:     it.ProductName,
			Quantity:        it.Quantity,
			PriceAtPurchase: it.PriceAtPurchase.StringFixed(2),
			Subtotal:        it.Subtotal().StringFixed(2),
		}
	}
	return &OrderReadModel{
		ID:            o.ID,
		OwnerID:       o.OwnerID,
		TotalAmount:   o.TotalAmount.StringFixed(2),
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		Address: AddressReadModel{
			Street:     o.Address.Street,
			City:       o.Address.City,
			Region:     o.Address.Region,
			PostalCode: o.Address.PostalCode,
			Phone:      o.Address.Phone,
		},
		Items:     items,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

func newOrderReadModels(orders []*model.Order) []*OrderReadModel {
	out := make([]*OrderReadModel, 0, len(orders))
	for _, o := range orders {
		out = append(out, NewOrderReadModel(o))
	}
	return out
}
