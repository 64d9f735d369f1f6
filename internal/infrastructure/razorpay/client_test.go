package razorpay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/ec-order-engine/internal/domain/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_CreateIntent(t *testing.T) {
	var got createOrderRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "rzp_test_key", user)
		assert.Equal(t, "secret", pass)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"order_Provider123","status":"created"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", "rzp_test_key", "secret")
	ref, err := client.CreateIntent(context.Background(), 15999800, "INR", "order_abc")

	require.NoError(t, err)
	assert.Equal(t, "order_Provider123", ref)
	assert.Equal(t, int64(15999800), got.Amount)
	assert.Equal(t, "INR", got.Currency)
	assert.Equal(t, "order_abc", got.Receipt)
	assert.Equal(t, "rzp_test_key", client.KeyID())
}

func TestClient_CreateIntent_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"amount too small"}}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "k", "s").CreateIntent(context.Background(), 1, "INR", "r")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "amount too small")
}

func TestClient_CreateIntent_MissingID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "k", "s").CreateIntent(context.Background(), 100, "INR", "r")

	assert.Error(t, err)
}

func TestClient_FetchIntent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/orders/order_Provider123", r.URL.Path)
		_, _, ok := r.BasicAuth()
		assert.True(t, ok)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"order_Provider123","amount":15999800,"currency":"INR","receipt":"order_abc","status":"paid"}`))
	}))
	defer server.Close()

	got, err := NewClient(server.URL, "k", "s").FetchIntent(context.Background(), "order_Provider123")

	require.NoError(t, err)
	assert.Equal(t, payment.ProviderOrder{
		Ref:         "order_Provider123",
		AmountMinor: 15999800,
		Currency:    "INR",
		Receipt:     "order_abc",
	}, *got)
}

func TestClient_FetchIntent_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"The id provided does not exist"}}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "k", "s").FetchIntent(context.Background(), "order_missing")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestVerifier(t *testing.T) {
	v := NewVerifier("secret")
	sig := Sign("secret", "order_1", "pay_1")

	assert.NoError(t, v.Verify("order_1", "pay_1", sig))
	assert.ErrorIs(t, v.Verify("order_1", "pay_2", sig), payment.ErrSignatureInvalid)
	assert.ErrorIs(t, v.Verify("order_1", "pay_1", "deadbeef"), payment.ErrSignatureInvalid)
	assert.ErrorIs(t, v.Verify("order_1", "pay_1", Sign("other", "order_1", "pay_1")), payment.ErrSignatureInvalid)
}
