package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/ec-order-engine/internal/email"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// EmailSender is satisfied by email.Service
type EmailSender interface {
	SendOrderConfirmation(to, orderID string, total decimal.Decimal, items []email.OrderItem) error
	SendPaymentConfirmation(to, orderID string, amount decimal.Decimal) error
}

// Handler turns notification messages into emails
type Handler struct {
	emailService EmailSender
	logger       *zap.Logger
}

// NewHandler creates a new notification handler
func NewHandler(emailSvc EmailSender, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		emailService: emailSvc,
		logger:       logger,
	}
}

// HandleEvent processes one message from the notification topic.
// Unknown types are skipped; malformed payloads are returned as errors.
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	var env Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		return fmt.Errorf("unmarshal envelope: %w", err)
	}

	switch env.Type {
	case TypeOrderConfirmation:
		var msg OrderConfirmation
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return fmt.Errorf("unmarshal %s: %w", env.Type, err)
		}
		return h.handleOrderConfirmation(msg)
	case TypePaymentConfirmation:
		var msg PaymentConfirmation
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return fmt.Errorf("unmarshal %s: %w", env.Type, err)
		}
		return h.handlePaymentConfirmation(msg)
	default:
		h.logger.Debug("notification_skipped", zap.String("type", env.Type), zap.ByteString("key", key))
		return nil
	}
}

func (h *Handler) handleOrderConfirmation(msg OrderConfirmation) error {
	if msg.Email == "" {
		h.logger.Warn("notification_no_recipient", zap.String("order_id", msg.OrderID))
		return nil
	}

	items := make([]email.OrderItem, len(msg.Items))
	for i, it := range msg.Items {
		items[i] = email.OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			Price:     it.UnitPrice,
		}
	}

	if err := h.emailService.SendOrderConfirmation(msg.Email, msg.OrderID, msg.TotalAmount, items); err != nil {
		return fmt.Errorf("send order confirmation for %s: %w", msg.OrderID, err)
	}
	h.logger.Info("order_confirmation_sent", zap.String("order_id", msg.OrderID), zap.String("to", msg.Email))
	return nil
}

func (h *Handler) handlePaymentConfirmation(msg PaymentConfirmation) error {
	if msg.Email == "" {
		h.logger.Warn("notification_no_recipient", zap.String("order_id", msg.OrderID))
		return nil
	}
	if err := h.emailService.SendPaymentConfirmation(msg.Email, msg.OrderID, msg.Amount); err != nil {
		return fmt.Errorf("send payment confirmation for %s: %w", msg.OrderID, err)
	}
	h.logger.Info("payment_confirmation_sent", zap.String("order_id", msg.OrderID), zap.String("to", msg.Email))
	return nil
}
