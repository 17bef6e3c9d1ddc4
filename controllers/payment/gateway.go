package paymentControllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/CreedTech/blackrose-backend-sub000/config"
)

// Gateway is the boundary to the external payment provider. Amounts cross
// it in minor units (kobo).
type Gateway interface {
	Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error)
	Verify(ctx context.Context, reference string) (*ChargeData, error)
	Refund(ctx context.Context, gatewayRef string, amountMinor int64, reason string) (*RefundResult, error)
}

type InitializeRequest struct {
	Reference   string
	Email       string
	AmountMinor int64
	Currency    string
	CallbackURL string
	Metadata    map[string]interface{}
}

type InitializeResult struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// ChargeData is the gateway's view of one charge, shared by the verify call
// and webhook events so both drive the same resolution path.
type ChargeData struct {
	Status      string `json:"status"` // "success" or "failed"
	Reference   string `json:"reference"`
	GatewayID   int64  `json:"id"`
	Amount      int64  `json:"amount"` // minor units
	Fees        int64  `json:"fees"`
	Currency    string `json:"currency"`
	Channel     string `json:"channel"`
	GatewayResp string `json:"gateway_response"`
	PaidAt      string `json:"paid_at"`
	Message     string `json:"message"`
}

type RefundResult struct {
	GatewayID   int64  `json:"id"`
	Status      string `json:"status"` // usually "pending" until transfer.success
	AmountMinor int64  `json:"amount"`
	Currency    string `json:"currency"`
}

// ToMinorUnits converts a major-unit amount to the integer minor units the
// gateway expects.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// FromMinorUnits converts back for ledger rows.
func FromMinorUnits(minor int64) float64 {
	return float64(minor) / 100
}

// PaystackClient talks to the Paystack REST API.
type PaystackClient struct {
	secretKey string
	baseURL   string
	http      *http.Client
}

func NewPaystackClient(cfg *config.Settings) *PaystackClient {
	timeout := cfg.GatewayTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &PaystackClient{
		secretKey: cfg.PaystackSecretKey,
		baseURL:   cfg.PaystackBaseURL,
		http:      &http.Client{Timeout: timeout},
	}
}

type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (p *PaystackClient) call(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.secretKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach payment gateway: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("gateway API error (%d): %s", resp.StatusCode, string(raw))
	}

	var envelope paystackEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("failed to parse gateway response: %w", err)
	}
	if !envelope.Status {
		return fmt.Errorf("gateway error: %s", envelope.Message)
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("failed to parse gateway data: %w", err)
		}
	}
	return nil
}

func (p *PaystackClient) Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error) {
	payload := map[string]interface{}{
		"reference":    req.Reference,
		"email":        req.Email,
		"amount":       req.AmountMinor,
		"currency":     req.Currency,
		"callback_url": req.CallbackURL,
	}
	if req.Metadata != nil {
		payload["metadata"] = req.Metadata
	}

	var result InitializeResult
	if err := p.call(ctx, http.MethodPost, "/transaction/initialize", payload, &result); err != nil {
		return nil, err
	}
	if result.AuthorizationURL == "" {
		return nil, fmt.Errorf("gateway returned empty authorization URL")
	}
	return &result, nil
}

func (p *PaystackClient) Verify(ctx context.Context, reference string) (*ChargeData, error) {
	var data ChargeData
	if err := p.call(ctx, http.MethodGet, "/transaction/verify/"+reference, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (p *PaystackClient) Refund(ctx context.Context, gatewayRef string, amountMinor int64, reason string) (*RefundResult, error) {
	payload := map[string]interface{}{
		"transaction":   gatewayRef,
		"merchant_note": reason,
	}
	if amountMinor > 0 {
		payload["amount"] = amountMinor
	}
	var result RefundResult
	if err := p.call(ctx, http.MethodPost, "/refund", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
