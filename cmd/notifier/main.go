package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/ec-order-engine/internal/config"
	"github.com/example/ec-order-engine/internal/email"
	"github.com/example/ec-order-engine/internal/infrastructure/kafka"
	"github.com/example/ec-order-engine/internal/logging"
	"github.com/example/ec-order-engine/internal/notification"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "[Notifier] %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.ValidateNotifier(); err != nil {
		return err
	}

	logger, err := logging.New("order-notifier", cfg.Env)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	emailSvc := email.NewService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.PaymentCurrency)
	handler := notification.NewHandler(emailSvc, logger)

	consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.ConsumerGroup, logger)
	defer consumer.Close()

	logger.Info("notifier_started",
		zap.Strings("brokers", cfg.KafkaBrokers),
		zap.String("topic", cfg.KafkaTopic),
		zap.String("group", cfg.ConsumerGroup),
		zap.String("smtp", cfg.SMTPHost+":"+cfg.SMTPPort),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := consumer.Consume(gctx, handler.HandleEvent)
		if gctx.Err() != nil {
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Error("notifier_failed", zap.Error(err))
		return err
	}
	logger.Info("notifier_stopped")
	return nil
}
