package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/ec-order-engine/internal/auth"
	"github.com/example/ec-order-engine/internal/logging"
	"github.com/example/ec-order-engine/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLogger_LogsAndCounts(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	m := metrics.New(nil)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		logging.FromContext(r.Context(), nil).Info("inside")
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/orders/abc", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()

	RequestLogger(zap.New(core), m)(mux).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "req-42", rec.Header().Get(RequestIDHeader))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "inside", entries[0].Message)
	assert.Equal(t, "req-42", entries[0].ContextMap()["request_id"])
	assert.Equal(t, "http_request", entries[1].Message)
	assert.Equal(t, "GET /api/orders/{id}", entries[1].ContextMap()["route"])

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET /api/orders/{id}", "418")))
}

func TestRequestLogger_GeneratesRequestID(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	rec := httptest.NewRecorder()

	RequestLogger(zap.NewNop(), nil)(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware_TagsRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	jwtService := auth.NewJWTService("test-secret-key", "", time.Minute)
	token, _, err := jwtService.GenerateAccessToken("user-9", "u9@example.com", auth.RoleCustomer)
	require.NoError(t, err)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logging.FromContext(r.Context(), nil).Info("inside")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req = req.WithContext(logging.WithContext(req.Context(), zap.New(core)))

	AuthMiddleware(jwtService)(handler).ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "user-9", logs.All()[0].ContextMap()["user_id"])
}
