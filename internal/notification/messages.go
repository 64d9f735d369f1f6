package notification

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/ec-order-engine/internal/model"
	"github.com/shopspring/decimal"
)

// Message types carried in Envelope.Type
const (
	TypeOrderConfirmation   = "OrderConfirmation"
	TypePaymentConfirmation = "PaymentConfirmation"
)

// Envelope is the wire format on the notification topic
type Envelope struct {
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

type Item struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type OrderConfirmation struct {
	Email       string          `json:"email"`
	OrderID     string          `json:"order_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Items       []Item          `json:"items"`
}

type PaymentConfirmation struct {
	Email   string          `json:"email"`
	OrderID string          `json:"order_id"`
	Amount  decimal.Decimal `json:"amount"`
}

// NewOrderConfirmation builds the confirmation message for a placed order
func NewOrderConfirmation(o *model.Order) OrderConfirmation {
	items := make([]Item, len(o.Items))
	for i, it := range o.Items {
		items[i] = Item{
			ProductID: it.ProductID,
			Name:      it.ProductName,
			Quantity:  it.Quantity,
			UnitPrice: it.PriceAtPurchase,
		}
	}
	return OrderConfirmation{
		Email:       o.OwnerEmail,
		OrderID:     o.ID,
		TotalAmount: o.TotalAmount,
		Items:       items,
	}
}

func newEnvelope(msgType string, payload any, now time.Time) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s: %w", msgType, err)
	}
	return Envelope{Type: msgType, OccurredAt: now, Data: data}, nil
}
