package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/example/ec-order-engine/internal/config"
	"github.com/example/ec-order-engine/internal/email"
	"github.com/example/ec-order-engine/internal/infrastructure/msk"
	"github.com/example/ec-order-engine/internal/logging"
	"github.com/example/ec-order-engine/internal/notification"
	"go.uber.org/zap"
)

var (
	notificationHandler *notification.Handler
	logger              *zap.Logger
)

func init() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Lambda Notifier] %v", err)
	}

	logger, err = logging.New("order-notifier-lambda", cfg.Env)
	if err != nil {
		log.Fatalf("[Lambda Notifier] init logger: %v", err)
	}

	emailSvc := email.NewService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.PaymentCurrency)
	notificationHandler = notification.NewHandler(emailSvc, logger)

	logger.Info("lambda_initialized", zap.String("smtp", cfg.SMTPHost+":"+cfg.SMTPPort))
}

// handler processes an MSK batch. A non-nil error makes Lambda redeliver the batch.
func handler(ctx context.Context, event events.KafkaEvent) error {
	processed, err := msk.Dispatch(ctx, event, notificationHandler.HandleEvent, logger)
	logger.Info("batch_processed",
		zap.String("source", event.EventSourceARN),
		zap.Int("processed", processed),
		zap.Bool("failed", err != nil),
	)
	return err
}

func main() {
	lambda.Start(handler)
}
