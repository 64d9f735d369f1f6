package api

import (
	"net/http"

	"github.com/example/ec-order-engine/internal/api/middleware"
	"github.com/example/ec-order-engine/internal/auth"
	"github.com/example/ec-order-engine/internal/metrics"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Handlers       *Handlers
	JWTService     *auth.JWTService
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	h := cfg.Handlers

	authed := middleware.AuthMiddleware(cfg.JWTService)
	admin := func(next http.HandlerFunc) http.Handler {
		return authed(middleware.RequireRole(auth.RoleAdmin)(next))
	}
	user := func(next http.HandlerFunc) http.Handler {
		return authed(next)
	}

	// Orders
	mux.Handle("POST /api/orders/place", user(h.PlaceOrder))
	mux.Handle("GET /api/orders", user(h.GetMyOrders))
	mux.Handle("GET /api/orders/{id}", user(h.GetOrder))
	mux.Handle("PUT /api/orders/{id}/cancel", user(h.CancelOrder))

	// Admin
	mux.Handle("GET /api/orders/all", admin(h.GetAllOrders))
	mux.Handle("PUT /api/orders/{id}/status", admin(h.UpdateOrderStatus))

	// Payments
	mux.Handle("POST /api/payments/create-order", user(h.CreatePayment))
	mux.Handle("POST /api/payments/verify", user(h.VerifyPayment))

	mux.HandleFunc("GET /healthz", h.Health)
	if cfg.MetricsHandler != nil {
		mux.Handle("GET /metrics", cfg.MetricsHandler)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return middleware.RequestLogger(logger, cfg.Metrics)(mux)
}
