package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ChargeRequest is sent to the payment gateway sidecar. The sidecar owns the
// acquirer integration (tokenized cards, 3DS) and returns a transaction ref.
type ChargeRequest struct {
	OrderNumber string  `json:"order_number"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Method      string  `json:"method"`
	CardRef     *string `json:"card_ref,omitempty"`
}

// ChargeResponse is returned by the gateway sidecar.
type ChargeResponse struct {
	TransactionID string `json:"transaction_id"`
	GatewayRef    string `json:"gateway_ref"`
	Result        string `json:"result"` // "aprobado" | "rechazado"
	Message       string `json:"message,omitempty"`
}

// RefundRequest asks the gateway to reverse (part of) a charge.
type RefundRequest struct {
	TransactionID string  `json:"transaction_id"`
	Amount        float64 `json:"amount"`
	Reason        string  `json:"reason"`
}

// GatewayClient delegates card processing to the payment sidecar over HTTP.
// Keeping the acquirer protocol out of process isolates its failures from
// the core backend; callers wrap invocations in the circuit breaker.
type GatewayClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewGatewayClient(baseURL string) *GatewayClient {
	return &GatewayClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Charge sends a charge request and returns the gateway's verdict.
func (c *GatewayClient) Charge(ctx context.Context, payload ChargeRequest) (*ChargeResponse, error) {
	return c.post(ctx, "/charge", payload)
}

// Refund reverses a previous charge (total or partial).
func (c *GatewayClient) Refund(ctx context.Context, payload RefundRequest) (*ChargeResponse, error) {
	return c.post(ctx, "/refund", payload)
}

func (c *GatewayClient) post(ctx context.Context, path string, payload interface{}) (*ChargeResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("gateway: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gateway: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("gateway: sidecar returned %d", resp.StatusCode)
	}

	var out ChargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("gateway: decode response: %w", err)
	}
	return &out, nil
}
