// Package paymenthttp is the HTTP client for the external payment service.
// The service exposes /api/v1/payments and answers 409 when a payment
// already exists for an order; that response is surfaced as a tagged
// AlreadyExists result, not an error.
package paymenthttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/magelan-app/magelan/internal/domain/payment"
)

const tracerName = "magelan/paymenthttp"

type Client struct {
	baseURL string
	http    *http.Client
	tracer  trace.Tracer
}

// New builds a client for the payment service at baseURL. Every request is
// bounded by the given timeout; a slow gateway surfaces as ErrUnavailable
// instead of hanging the caller.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		tracer:  otel.Tracer(tracerName),
	}
}

type paymentRequest struct {
	OrderID string          `json:"orderId"`
	Amount  decimal.Decimal `json:"amount"`
	Method  string          `json:"method"`
}

type paymentResponse struct {
	ID        string          `json:"id"`
	OrderID   string          `json:"orderId"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Status    string          `json:"status"`
	CreatedOn time.Time       `json:"createdOn"`
}

func (p *paymentResponse) toDomain() *payment.Payment {
	return &payment.Payment{
		ID:        p.ID,
		OrderID:   p.OrderID,
		Amount:    p.Amount,
		Method:    p.Method,
		Status:    p.Status,
		CreatedAt: p.CreatedOn,
	}
}

func (c *Client) CreatePayment(ctx context.Context, orderID string, amount decimal.Decimal, method string) (payment.CreateResult, error) {
	body, err := json.Marshal(paymentRequest{OrderID: orderID, Amount: amount, Method: method})
	if err != nil {
		return payment.CreateResult{}, fmt.Errorf("paymenthttp: encode request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/v1/payments", body,
		attribute.String("payment.order_id", orderID),
	)
	if err != nil {
		return payment.CreateResult{}, err
	}
	defer drain(resp)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		p, err := decodePayment(resp)
		if err != nil {
			return payment.CreateResult{}, err
		}
		return payment.CreateResult{Payment: p}, nil
	case http.StatusConflict:
		return payment.CreateResult{AlreadyExists: true}, nil
	default:
		return payment.CreateResult{}, unexpectedStatus(resp)
	}
}

func (c *Client) GetPayment(ctx context.Context, paymentID string) (*payment.Payment, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/v1/payments/"+url.PathEscape(paymentID), nil,
		attribute.String("payment.id", paymentID),
	)
	if err != nil {
		return nil, err
	}
	defer drain(resp)
	return decodeSingle(resp)
}

func (c *Client) GetPaymentByOrder(ctx context.Context, orderID string) (*payment.Payment, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/v1/payments/order/"+url.PathEscape(orderID), nil,
		attribute.String("payment.order_id", orderID),
	)
	if err != nil {
		return nil, err
	}
	defer drain(resp)
	return decodeSingle(resp)
}

func (c *Client) ProcessPayment(ctx context.Context, paymentID string) (*payment.Payment, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/v1/payments/"+url.PathEscape(paymentID)+"/process", nil,
		attribute.String("payment.id", paymentID),
	)
	if err != nil {
		return nil, err
	}
	defer drain(resp)
	return decodeSingle(resp)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, attrs ...attribute.KeyValue) (*http.Response, error) {
	attrs = append(attrs,
		attribute.String("http.method", method),
		attribute.String("http.path", path),
	)
	ctx, span := c.tracer.Start(ctx, "PaymentGateway "+method+" "+path, trace.WithAttributes(attrs...))
	defer span.End()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("paymenthttp: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: %v", payment.ErrUnavailable, err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, resp.Status)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	return resp, nil
}

func decodeSingle(resp *http.Response) (*payment.Payment, error) {
	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		return decodePayment(resp)
	case http.StatusNotFound:
		return nil, payment.ErrNotFound
	default:
		return nil, unexpectedStatus(resp)
	}
}

func decodePayment(resp *http.Response) (*payment.Payment, error) {
	var body paymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("paymenthttp: decode response: %w", err)
	}
	return body.toDomain(), nil
}

func unexpectedStatus(resp *http.Response) error {
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: gateway returned %s", payment.ErrUnavailable, resp.Status)
	}
	return fmt.Errorf("paymenthttp: unexpected status %s", resp.Status)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
