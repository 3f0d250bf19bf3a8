// Package payment talks to the payment provider that captures subscription
// payments and executes payouts.
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// Payout statuses reported by the provider.
const (
	PayoutQueued     = "queued"
	PayoutProcessing = "processing"
	PayoutProcessed  = "processed"
	PayoutReversed   = "reversed"
	PayoutFailed     = "failed"
	PayoutRejected   = "rejected"
	PayoutCancelled  = "cancelled"
)

// ErrInvalidWebhook is returned for webhook bodies that cannot be decoded.
var ErrInvalidWebhook = errors.New("invalid webhook payload")

// OrderRequest asks the provider to open a payment order. Amount is in
// minor units (paise).
type OrderRequest struct {
	Amount   int64
	Currency string
	Receipt  string
	Notes    map[string]string
}

type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

// PayoutRequest moves Amount minor units to a UPI handle. ReferenceID is
// also sent as the provider idempotency key.
type PayoutRequest struct {
	Amount      int64
	Currency    string
	UPIID       string
	Name        string
	Email       string
	ReferenceID string
}

type Payout struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	ReferenceID string `json:"reference_id,omitempty"`
}

// Gateway is the payment provider seen by the services.
type Gateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (Order, error)
	CreatePayout(ctx context.Context, req PayoutRequest) (Payout, error)
	PublicKey() string
	VerifyWebhook(body []byte, signature string) bool
}

// PayoutEvent is a payout status change pushed by the provider.
// ReferenceID echoes PayoutRequest.ReferenceID, our transaction id.
type PayoutEvent struct {
	Event       string
	PayoutID    string
	ReferenceID string
	Status      string
}

// Settled reports whether the event ends the payout, and whether it succeeded.
func (e PayoutEvent) Settled() (done bool, ok bool) {
	switch e.Status {
	case PayoutProcessed:
		return true, true
	case PayoutFailed, PayoutReversed, PayoutRejected, PayoutCancelled:
		return true, false
	}
	return false, false
}

type webhookBody struct {
	Event   string `json:"event"`
	Payload struct {
		Payout struct {
			Entity Payout `json:"entity"`
		} `json:"payout"`
	} `json:"payload"`
}

// ParsePayoutEvent decodes a payout.* webhook body.
func ParsePayoutEvent(body []byte) (PayoutEvent, error) {
	var wb webhookBody
	if err := json.Unmarshal(body, &wb); err != nil {
		return PayoutEvent{}, fmt.Errorf("%w: %v", ErrInvalidWebhook, err)
	}
	entity := wb.Payload.Payout.Entity
	if entity.ID == "" || entity.Status == "" {
		return PayoutEvent{}, fmt.Errorf("%w: missing payout entity", ErrInvalidWebhook)
	}
	return PayoutEvent{
		Event:       wb.Event,
		PayoutID:    entity.ID,
		ReferenceID: entity.ReferenceID,
		Status:      entity.Status,
	}, nil
}

// Sign returns the hex HMAC-SHA256 of body, the provider's webhook signature.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func verifySignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	return hmac.Equal([]byte(Sign(secret, body)), []byte(signature))
}

// OrderEvent is an order.* webhook; Notes echo what CreateOrder sent.
type OrderEvent struct {
	Event   string
	OrderID string
	Status  string
	Notes   map[string]string
}

type orderWebhookBody struct {
	Event   string `json:"event"`
	Payload struct {
		Order struct {
			Entity struct {
				ID     string            `json:"id"`
				Status string            `json:"status"`
				Notes  map[string]string `json:"notes"`
			} `json:"entity"`
		} `json:"order"`
	} `json:"payload"`
}

func ParseOrderEvent(body []byte) (OrderEvent, error) {
	var wb orderWebhookBody
	if err := json.Unmarshal(body, &wb); err != nil {
		return OrderEvent{}, fmt.Errorf("%w: %v", ErrInvalidWebhook, err)
	}
	entity := wb.Payload.Order.Entity
	if entity.ID == "" {
		return OrderEvent{}, fmt.Errorf("%w: missing order entity", ErrInvalidWebhook)
	}
	return OrderEvent{Event: wb.Event, OrderID: entity.ID, Status: entity.Status, Notes: entity.Notes}, nil
}

// EventName returns the "event" field of a webhook body.
func EventName(body []byte) (string, error) {
	var head struct {
		Event string `json:"event"`
	}
	if err := json.Unmarshal(body, &head); err != nil || head.Event == "" {
		return "", ErrInvalidWebhook
	}
	return head.Event, nil
}
