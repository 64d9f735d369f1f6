package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/example/ec-order-engine/internal/api"
	"github.com/example/ec-order-engine/internal/auth"
	"github.com/example/ec-order-engine/internal/command"
	"github.com/example/ec-order-engine/internal/config"
	"github.com/example/ec-order-engine/internal/domain/inventory"
	"github.com/example/ec-order-engine/internal/domain/order"
	"github.com/example/ec-order-engine/internal/domain/payment"
	"github.com/example/ec-order-engine/internal/infrastructure/cache"
	"github.com/example/ec-order-engine/internal/infrastructure/kafka"
	"github.com/example/ec-order-engine/internal/infrastructure/razorpay"
	"github.com/example/ec-order-engine/internal/infrastructure/store"
	"github.com/example/ec-order-engine/internal/logging"
	"github.com/example/ec-order-engine/internal/metrics"
	"github.com/example/ec-order-engine/internal/notification"
	"github.com/example/ec-order-engine/internal/query"
	"github.com/example/ec-order-engine/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "[API] %v\n", err)
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
	if err := cfg.ValidateAPI(); err != nil {
		return err
	}

	logger, err := logging.New("order-api", cfg.Env)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	shutdownTracing, err := telemetry.Setup(ctx, "order-api", cfg.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	m := metrics.New(prometheus.DefaultRegisterer)

	db, err := store.ConnectPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := store.Migrate(ctx, db); err != nil {
		return err
	}
	logger.Info("postgres_connected")

	stockStore, err := newStockStore(ctx, cfg, db)
	if err != nil {
		return err
	}
	logger.Info("stock_backend_selected", zap.String("backend", cfg.StockBackend))

	var invalidator inventory.Invalidator
	if cfg.RedisAddr != "" {
		rdb, err := cache.NewClient(ctx, cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer rdb.Close()
		invalidator = cache.NewRedisInvalidator(rdb)
		logger.Info("redis_connected", zap.String("addr", cfg.RedisAddr))
	}

	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer producer.Close()
	publisher := notification.NewKafkaPublisher(producer, cfg.NotifyTimeout)

	orderSvc := order.NewService(store.NewPostgresOrderStore(db))
	ledger := inventory.NewLedger(stockStore, store.NewPostgresCatalog(db), invalidator, logger, m)
	cmdHandler := command.NewHandler(orderSvc, ledger, store.NewPostgresCartStore(db), publisher, logger, m)
	queryHandler := query.NewHandler(orderSvc)
	paymentSvc := payment.NewService(payment.Config{
		Orders:    orderSvc,
		Provider:  razorpay.NewClient(cfg.RazorpayBaseURL, cfg.RazorpayKeyID, cfg.RazorpayKeySecret),
		Verifier:  razorpay.NewVerifier(cfg.RazorpayKeySecret),
		Publisher: publisher,
		Currency:  cfg.PaymentCurrency,
		Logger:    logger,
		Metrics:   m,
	})

	router := api.NewRouter(api.RouterConfig{
		Handlers:       api.NewHandlers(cmdHandler, queryHandler, paymentSvc),
		JWTService:     auth.NewJWTService(cfg.JWTSecret, "", 15*time.Minute),
		Logger:         logger,
		Metrics:        m,
		MetricsHandler: metrics.Handler(),
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server_started", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("server_stopping")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server_failed", zap.Error(err))
		return err
	}
	logger.Info("server_stopped")
	return nil
}

func newStockStore(ctx context.Context, cfg *config.Config, db *sql.DB) (store.StockStore, error) {
	if cfg.StockBackend != config.StockBackendDynamoDB {
		return store.NewPostgresStockStore(db), nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return store.NewDynamoStockStore(dynamodb.NewFromConfig(awsCfg), cfg.DynamoDBStockTable), nil
}
