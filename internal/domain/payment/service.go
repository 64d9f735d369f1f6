package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/ec-order-engine/internal/domain/order"
	"github.com/example/ec-order-engine/internal/logging"
	"github.com/example/ec-order-engine/internal/metrics"
	"github.com/example/ec-order-engine/internal/model"
	"github.com/example/ec-order-engine/internal/notification"
	"github.com/example/ec-order-engine/internal/telemetry"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var (
	ErrAlreadyPaid      = errors.New("order is already paid")
	ErrSignatureInvalid = errors.New("payment signature is invalid")
	ErrInvalidRequest   = errors.New("invalid payment request")
)

// Provider opens payment intents with the external payment provider and looks them up again
type Provider interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency, receipt string) (string, error)
	FetchIntent(ctx context.Context, ref string) (*ProviderOrder, error)
	KeyID() string
}

// ProviderOrder is the provider's record of an intent
type ProviderOrder struct {
	Ref         string
	AmountMinor int64
	Currency    string
	Receipt     string
}

// SignatureVerifier checks the provider's callback signature
type SignatureVerifier interface {
	Verify(providerOrderRef, providerPaymentRef, signature string) error
}

// Intent is what the client needs to complete checkout with the provider.
// Amount is the order total in major units; AmountMinor is what the provider was asked to collect.
type Intent struct {
	ProviderOrderRef string `json:"providerOrderRef"`
	Amount           string `json:"amount"`
	AmountMinor      int64  `json:"amountMinor"`
	Currency         string `json:"currency"`
	KeyID            string `json:"keyId"`
}

type VerifyRequest struct {
	OrderID            string `json:"orderId"`
	ProviderOrderRef   string `json:"providerOrderRef"`
	ProviderPaymentRef string `json:"providerPaymentRef"`
	Signature          string `json:"signature"`
}

type VerifyResult struct {
	Success       bool                `json:"success"`
	PaymentStatus model.PaymentStatus `json:"paymentStatus"`
	Message       string              `json:"message"`
	OrderID       string              `json:"orderId"`
}

type Service struct {
	orders    *order.Service
	provider  Provider
	verifier  SignatureVerifier
	publisher notification.Publisher
	currency  string
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

type Config struct {
	Orders    *order.Service
	Provider  Provider
	Verifier  SignatureVerifier
	Publisher notification.Publisher
	Currency  string
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
}

func NewService(cfg Config) *Service {
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Service{
		orders:    cfg.Orders,
		provider:  cfg.Provider,
		verifier:  cfg.Verifier,
		publisher: cfg.Publisher,
		currency:  cfg.Currency,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
	}
}

// Receipt is the reference sent to the provider for an order
func Receipt(orderID string) string {
	return "order_" + orderID
}

// CreatePaymentIntent asks the provider to open an intent for the order total
func (s *Service) CreatePaymentIntent(ctx context.Context, ownerID, orderID string) (_ *Intent, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "PaymentReconciliation.CreatePaymentIntent")
	started := time.Now()
	defer func() { s.finish(span, "create_payment_intent", started, err) }()
	span.SetAttributes(attribute.String("order.id", orderID))

	o, err := s.orders.GetOwned(ctx, ownerID, orderID)
	if err != nil {
		return nil, err
	}
	if o.PaymentStatus == model.PaymentPaid {
		return nil, ErrAlreadyPaid
	}
	if o.Status == model.StatusCancelled {
		return nil, fmt.Errorf("%w: order is cancelled", order.ErrInvalidState)
	}

	amount := minorUnits(o.TotalAmount)
	ref, err := s.provider.CreateIntent(ctx, amount, s.currency, Receipt(o.ID))
	if err != nil {
		return nil, fmt.Errorf("create payment intent for %s: %w", o.ID, err)
	}

	logging.FromContext(ctx, s.logger).Info("payment_intent_created",
		zap.String("order_id", o.ID),
		zap.String("provider_order_ref", ref),
		zap.Int64("amount_minor", amount),
	)

	return &Intent{
		ProviderOrderRef: ref,
		Amount:           o.TotalAmount.StringFixed(2),
		AmountMinor:      amount,
		Currency:         s.currency,
		KeyID:            s.provider.KeyID(),
	}, nil
}

// VerifyPayment checks the provider signature and marks the caller's order paid.
// A bad signature, or a provider order opened for a different order or amount, yields a
// FAILED result and leaves the order untouched.
// Repeated verification of a PAID order succeeds without side effects.
func (s *Service) VerifyPayment(ctx context.Context, ownerID string, req VerifyRequest) (_ *VerifyResult, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "PaymentReconciliation.VerifyPayment")
	started := time.Now()
	defer func() { s.finish(span, "verify_payment", started, err) }()
	span.SetAttributes(attribute.String("order.id", req.OrderID))

	if err := validate(req); err != nil {
		return nil, err
	}
	log := logging.FromContext(ctx, s.logger).With(zap.String("order_id", req.OrderID))

	o, err := s.orders.GetOwned(ctx, ownerID, req.OrderID)
	if err != nil {
		return nil, err
	}

	if err := s.verifier.Verify(req.ProviderOrderRef, req.ProviderPaymentRef, req.Signature); err != nil {
		if !errors.Is(err, ErrSignatureInvalid) {
			return nil, fmt.Errorf("verify signature: %w", err)
		}
		log.Warn("payment_signature_invalid", zap.String("provider_order_ref", req.ProviderOrderRef))
		return failedResult(o.ID), nil
	}

	intent, err := s.provider.FetchIntent(ctx, req.ProviderOrderRef)
	if err != nil {
		return nil, fmt.Errorf("fetch provider order %s: %w", req.ProviderOrderRef, err)
	}
	if reason := s.mismatch(o, intent); reason != "" {
		log.Warn("payment_order_mismatch",
			zap.String("provider_order_ref", req.ProviderOrderRef),
			zap.String("provider_receipt", intent.Receipt),
			zap.Int64("provider_amount_minor", intent.AmountMinor),
			zap.String("reason", reason),
		)
		return failedResult(o.ID), nil
	}

	if o.PaymentStatus == model.PaymentPaid {
		log.Info("payment_already_verified")
		return paidResult(o.ID, "Payment already verified"), nil
	}

	applied, err := s.orders.MarkPaid(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	if !applied {
		log.Info("payment_already_verified")
		return paidResult(o.ID, "Payment already verified"), nil
	}

	if o.Status == model.StatusCancelled {
		log.Warn("payment_on_cancelled_order", zap.String("provider_payment_ref", req.ProviderPaymentRef))
	} else {
		log.Info("payment_verified", zap.String("provider_payment_ref", req.ProviderPaymentRef))
	}

	s.notifyPaid(ctx, o)
	return paidResult(o.ID, "Payment verified successfully"), nil
}

func (s *Service) notifyPaid(ctx context.Context, o *model.Order) {
	if s.publisher == nil {
		return
	}
	msg := notification.PaymentConfirmation{
		Email:   o.OwnerEmail,
		OrderID: o.ID,
		Amount:  o.TotalAmount,
	}
	if err := s.publisher.PaymentConfirmed(ctx, msg); err != nil {
		s.metrics.NotificationFailed(notification.TypePaymentConfirmation)
		logging.FromContext(ctx, s.logger).Warn("notification_failed",
			zap.String("type", notification.TypePaymentConfirmation),
			zap.String("order_id", o.ID),
			zap.Error(err),
		)
	}
}

// mismatch reports why a provider order does not belong to o, or "" when it does
func (s *Service) mismatch(o *model.Order, intent *ProviderOrder) string {
	switch {
	case intent.Receipt != Receipt(o.ID):
		return "receipt"
	case intent.AmountMinor != minorUnits(o.TotalAmount):
		return "amount"
	case !strings.EqualFold(intent.Currency, s.currency):
		return "currency"
	}
	return ""
}

func minorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func failedResult(orderID string) *VerifyResult {
	return &VerifyResult{
		Success:       false,
		PaymentStatus: model.PaymentFailed,
		Message:       "Payment verification failed",
		OrderID:       orderID,
	}
}

func paidResult(orderID, message string) *VerifyResult {
	return &VerifyResult{
		Success:       true,
		PaymentStatus: model.PaymentPaid,
		Message:       message,
		OrderID:       orderID,
	}
}

func validate(req VerifyRequest) error {
	var missing []string
	if strings.TrimSpace(req.OrderID) == "" {
		missing = append(missing, "orderId")
	}
	if strings.TrimSpace(req.ProviderOrderRef) == "" {
		missing = append(missing, "providerOrderRef")
	}
	if strings.TrimSpace(req.ProviderPaymentRef) == "" {
		missing = append(missing, "providerPaymentRef")
	}
	if strings.TrimSpace(req.Signature) == "" {
		missing = append(missing, "signature")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidRequest, strings.Join(missing, ", "))
	}
	return nil
}

func (s *Service) finish(span trace.Span, useCase string, started time.Time, err error) {
	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = metrics.OutcomeError
		if isBusiness(err) {
			outcome = metrics.OutcomeBusiness
		} else {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}
	s.metrics.ObserveUseCase(useCase, outcome, started)
	span.End()
}

func isBusiness(err error) bool {
	return errors.Is(err, ErrAlreadyPaid) ||
		errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, order.ErrOrderNotFound) ||
		errors.Is(err, order.ErrForbidden) ||
		errors.Is(err, order.ErrInvalidState)
}
