package paymenthttp_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magelan-app/magelan/internal/domain/payment"
	"github.com/magelan-app/magelan/internal/infrastructure/paymenthttp"
)

func respond(t *testing.T, w http.ResponseWriter, status int, body any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func paymentBody(id, orderID, status string) map[string]any {
	return map[string]any{
		"id":        id,
		"orderId":   orderID,
		"amount":    "25.50",
		"method":    "CARD",
		"status":    status,
		"createdOn": time.Now().UTC().Format(time.RFC3339),
	}
}

func TestCreatePayment(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/payments", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		respond(t, w, http.StatusCreated, paymentBody("pay-1", "order-1", "PENDING"))
	}))
	defer srv.Close()

	client := paymenthttp.New(srv.URL, time.Second)
	result, err := client.CreatePayment(context.Background(), "order-1", decimal.RequireFromString("25.50"), payment.MethodCard)
	require.NoError(t, err)

	assert.False(t, result.AlreadyExists)
	require.NotNil(t, result.Payment)
	assert.Equal(t, "pay-1", result.Payment.ID)
	assert.Equal(t, "order-1", result.Payment.OrderID)
	assert.True(t, result.Payment.Amount.Equal(decimal.RequireFromString("25.50")))

	assert.Equal(t, "order-1", gotBody["orderId"])
	assert.Equal(t, "CARD", gotBody["method"])
}

func TestCreatePayment_ConflictIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	client := paymenthttp.New(srv.URL, time.Second)
	result, err := client.CreatePayment(context.Background(), "order-1", decimal.RequireFromString("10.00"), payment.MethodCard)

	require.NoError(t, err)
	assert.True(t, result.AlreadyExists)
	assert.Nil(t, result.Payment)
}

func TestCreatePayment_ServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := paymenthttp.New(srv.URL, time.Second)
	_, err := client.CreatePayment(context.Background(), "order-1", decimal.RequireFromString("10.00"), payment.MethodCard)

	assert.ErrorIs(t, err, payment.ErrUnavailable)
}

func TestCreatePayment_TransportFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := paymenthttp.New(srv.URL, time.Second)
	_, err := client.CreatePayment(context.Background(), "order-1", decimal.RequireFromString("10.00"), payment.MethodCard)

	assert.ErrorIs(t, err, payment.ErrUnavailable)
}

func TestGetPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/payments/pay-1", r.URL.Path)
		respond(t, w, http.StatusOK, paymentBody("pay-1", "order-1", "PAID"))
	}))
	defer srv.Close()

	client := paymenthttp.New(srv.URL, time.Second)
	p, err := client.GetPayment(context.Background(), "pay-1")
	require.NoError(t, err)

	assert.Equal(t, "pay-1", p.ID)
	assert.Equal(t, payment.OutcomeSucceeded, p.Outcome())
}

func TestGetPayment_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := paymenthttp.New(srv.URL, time.Second)
	_, err := client.GetPayment(context.Background(), "missing")

	assert.ErrorIs(t, err, payment.ErrNotFound)
}

func TestGetPaymentByOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/payments/order/order-1", r.URL.Path)
		respond(t, w, http.StatusOK, paymentBody("pay-1", "order-1", "PENDING"))
	}))
	defer srv.Close()

	client := paymenthttp.New(srv.URL, time.Second)
	p, err := client.GetPaymentByOrder(context.Background(), "order-1")
	require.NoError(t, err)

	assert.Equal(t, "order-1", p.OrderID)
}

func TestProcessPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/payments/pay-1/process", r.URL.Path)
		respond(t, w, http.StatusOK, paymentBody("pay-1", "order-1", "PAID"))
	}))
	defer srv.Close()

	client := paymenthttp.New(srv.URL, time.Second)
	p, err := client.ProcessPayment(context.Background(), "pay-1")
	require.NoError(t, err)

	assert.Equal(t, "PAID", p.Status)
}

func TestTimeoutIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		respond(t, w, http.StatusOK, paymentBody("pay-1", "order-1", "PAID"))
	}))
	defer srv.Close()

	client := paymenthttp.New(srv.URL, 50*time.Millisecond)
	_, err := client.GetPayment(context.Background(), "pay-1")

	assert.ErrorIs(t, err, payment.ErrUnavailable)
}
