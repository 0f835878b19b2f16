// Package paystack is a thin client for the Paystack API. It carries no
// business logic, no caching and no retries; retry policy belongs to the
// ledger engine and its scheduler.
package paystack

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	initializeTimeout = 15 * time.Second
	verifyTimeout     = 10 * time.Second
)

// Config carries the provider credentials.
type Config struct {
	BaseURL       string
	SecretKey     string
	WebhookSecret string
}

// ChargeAuthorization is the provider's answer to charge initialization.
type ChargeAuthorization struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
	Metadata         map[string]interface{}
}

// ChargeVerification is the provider's view of a charge's outcome.
// Status is "success", "failed", or a provider-specific pending value.
type ChargeVerification struct {
	Status   string
	Metadata map[string]interface{}
}

// Client calls the Paystack API over HTTPS with a bearer credential.
type Client struct {
	baseURL       string
	secretKey     string
	webhookSecret string
	httpClient    *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		baseURL:       cfg.BaseURL,
		secretKey:     cfg.SecretKey,
		webhookSecret: cfg.WebhookSecret,
		httpClient:    &http.Client{},
	}
}

// envelope is Paystack's response wrapper. Status false in a 200
// response still means the provider rejected the request.
type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// InitializeCharge starts a charge for the given email and amount in
// minor units. The reference is caller-supplied and must be unique.
func (c *Client) InitializeCharge(ctx context.Context, email string, amount int64, reference string) (*ChargeAuthorization, error) {
	payload := map[string]interface{}{
		"email":     email,
		"amount":    amount,
		"reference": reference,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode initialize payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, initializeTimeout)
	defer cancel()

	data, err := c.do(ctx, http.MethodPost, "/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var parsed struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("%w: malformed initialize response: %v", ErrGatewayRejected, err)
	}

	var raw map[string]interface{}
	_ = json.Unmarshal(data, &raw)

	return &ChargeAuthorization{
		AuthorizationURL: parsed.AuthorizationURL,
		AccessCode:       parsed.AccessCode,
		Reference:        parsed.Reference,
		Metadata:         raw,
	}, nil
}

// VerifyCharge polls the provider for the outcome of a charge.
func (c *Client) VerifyCharge(ctx context.Context, reference string) (*ChargeVerification, error) {
	ctx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()

	data, err := c.do(ctx, http.MethodGet, "/transaction/verify/"+reference, nil)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("%w: malformed verify response: %v", ErrGatewayRejected, err)
	}

	var raw map[string]interface{}
	_ = json.Unmarshal(data, &raw)

	return &ChargeVerification{
		Status:   parsed.Status,
		Metadata: raw,
	}, nil
}

// ValidateWebhookSignature recomputes the HMAC-SHA512 of the raw webhook
// body with the shared secret and compares it constant-time against the
// provided hex signature. A missing or mismatched signature is false,
// never an error.
func (c *Client) ValidateWebhookSignature(body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(c.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrGatewayUnavailable, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: status %d: %s", ErrGatewayRejected, resp.StatusCode, respBody)
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", ErrGatewayRejected, err)
	}
	if !env.Status {
		return nil, fmt.Errorf("%w: %s", ErrGatewayRejected, env.Message)
	}
	return env.Data, nil
}
