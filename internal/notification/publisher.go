package notification

import (
	"context"
	"time"
)

// Publisher hands confirmation messages to the messaging backbone
type Publisher interface {
	OrderConfirmed(ctx context.Context, msg OrderConfirmation) error
	PaymentConfirmed(ctx context.Context, msg PaymentConfirmation) error
}

// MessagePublisher is satisfied by kafka.Producer
type MessagePublisher interface {
	Publish(ctx context.Context, key string, v any) error
}

// KafkaPublisher wraps each message in an Envelope keyed by order ID
type KafkaPublisher struct {
	producer MessagePublisher
	timeout  time.Duration
}

func NewKafkaPublisher(producer MessagePublisher, timeout time.Duration) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, timeout: timeout}
}

func (p *KafkaPublisher) OrderConfirmed(ctx context.Context, msg OrderConfirmation) error {
	return p.publish(ctx, msg.OrderID, TypeOrderConfirmation, msg)
}

func (p *KafkaPublisher) PaymentConfirmed(ctx context.Context, msg PaymentConfirmation) error {
	return p.publish(ctx, msg.OrderID, TypePaymentConfirmation, msg)
}

func (p *KafkaPublisher) publish(ctx context.Context, key, msgType string, payload any) error {
	env, err := newEnvelope(msgType, payload, time.Now().UTC())
	if err != nil {
		return err
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	return p.producer.Publish(ctx, key, env)
}
