package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// RazorpayConfig carries the credentials of the live adapter.
type RazorpayConfig struct {
	BaseURL       string
	KeyID         string
	KeySecret     string
	AccountNumber string
	WebhookSecret string
}

// RazorpayGateway calls the Razorpay Orders and Payouts REST APIs.
type RazorpayGateway struct {
	cfg    RazorpayConfig
	client *http.Client
}

func NewRazorpayGateway(cfg RazorpayConfig) *RazorpayGateway {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &RazorpayGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *RazorpayGateway) CreateOrder(ctx context.Context, req OrderRequest) (Order, error) {
	body := map[string]interface{}{
		"amount":   req.Amount,
		"currency": req.Currency,
		"receipt":  req.Receipt,
		"notes":    req.Notes,
	}
	var order Order
	if err := g.post(ctx, "/v1/orders", body, nil, &order); err != nil {
		return Order{}, fmt.Errorf("razorpay: create order: %w", err)
	}
	return order, nil
}

func (g *RazorpayGateway) CreatePayout(ctx context.Context, req PayoutRequest) (Payout, error) {
	name := req.Name
	if name == "" {
		name = "User"
	}
	body := map[string]interface{}{
		"account_number": g.cfg.AccountNumber,
		"amount":         req.Amount,
		"currency":       req.Currency,
		"mode":           "UPI",
		"purpose":        "payout",
		"reference_id":   req.ReferenceID,
		"fund_account": map[string]interface{}{
			"account_type": "vpa",
			"vpa":          map[string]string{"address": req.UPIID},
			"contact": map[string]string{
				"name":  name,
				"email": req.Email,
			},
		},
		"queue_if_low_balance": true,
	}
	headers := map[string]string{"X-Payout-Idempotency": req.ReferenceID}

	var payout Payout
	if err := g.post(ctx, "/v1/payouts", body, headers, &payout); err != nil {
		return Payout{}, fmt.Errorf("razorpay: create payout: %w", err)
	}
	return payout, nil
}

func (g *RazorpayGateway) PublicKey() string {
	return g.cfg.KeyID
}

func (g *RazorpayGateway) VerifyWebhook(body []byte, signature string) bool {
	return verifySignature(g.cfg.WebhookSecret, body, signature)
}

func (g *RazorpayGateway) post(ctx context.Context, path string, body interface{}, headers map[string]string, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.SetBasicAuth(g.cfg.KeyID, g.cfg.KeySecret)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Error struct {
				Code        string `json:"code"`
				Description string `json:"description"`
			} `json:"error"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Description != "" {
			return fmt.Errorf("status %d: %s: %s", resp.StatusCode, apiErr.Error.Code, apiErr.Error.Description)
		}
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.Unmarshal(raw, out)
}
