package payment

import (
	"context"
	"errors"
)

// IDSource mints prefixed unique ids.
type IDSource interface {
	Next(prefix string) string
}

// DemoGateway never leaves the process: orders are created and payouts are
// processed immediately. It backs PAYMENT_MODE=demo and the tests.
type DemoGateway struct {
	ids           IDSource
	keyID         string
	webhookSecret string

	// FailPayouts makes CreatePayout return an error.
	FailPayouts bool
}

func NewDemoGateway(ids IDSource, keyID, webhookSecret string) *DemoGateway {
	return &DemoGateway{ids: ids, keyID: keyID, webhookSecret: webhookSecret}
}

func (g *DemoGateway) CreateOrder(ctx context.Context, req OrderRequest) (Order, error) {
	return Order{
		ID:       g.ids.Next("order"),
		Amount:   req.Amount,
		Currency: req.Currency,
		Status:   "paid",
	}, nil
}

func (g *DemoGateway) CreatePayout(ctx context.Context, req PayoutRequest) (Payout, error) {
	if g.FailPayouts {
		return Payout{}, errors.New("demo gateway: payout rejected")
	}
	return Payout{ID: g.ids.Next("payout"), Status: PayoutProcessed, ReferenceID: req.ReferenceID}, nil
}

func (g *DemoGateway) PublicKey() string {
	return g.keyID
}

func (g *DemoGateway) VerifyWebhook(body []byte, signature string) bool {
	return verifySignature(g.webhookSecret, body, signature)
}
