package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"taskmind/internal/payment"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WebhookService verifies and dispatches payment provider callbacks.
type WebhookService interface {
	Handle(ctx context.Context, body []byte, signature string) error
}

type webhookService struct {
	gateway       payment.Gateway
	payouts       PayoutService
	subscriptions SubscriptionService
}

func NewWebhookService(gateway payment.Gateway, payouts PayoutService, subscriptions SubscriptionService) WebhookService {
	return &webhookService{gateway: gateway, payouts: payouts, subscriptions: subscriptions}
}

// Handle ignores events it does not act on. Unknown payout references are
// acknowledged too, so the provider stops retrying.
func (s *webhookService) Handle(ctx context.Context, body []byte, signature string) error {
	if !s.gateway.VerifyWebhook(body, signature) {
		return ErrInvalidSignature
	}

	event, err := payment.EventName(body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	switch {
	case strings.HasPrefix(event, "payout."):
		ev, err := payment.ParsePayoutEvent(body)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		done, ok := ev.Settled()
		if !done {
			return nil
		}
		if _, err := s.payouts.Reconcile(ctx, ev.PayoutID, ev.ReferenceID, ok); err != nil {
			if errors.Is(err, ErrNotFound) {
				zap.L().Warn("webhook for unknown payout", zap.String("payout_id", ev.PayoutID))
				return nil
			}
			return err
		}
	case event == "order.paid":
		ev, err := payment.ParseOrderEvent(body)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		userID, err := uuid.Parse(ev.Notes["user_id"])
		if err != nil {
			return fmt.Errorf("%w: order %s has no user", ErrInvalidInput, ev.OrderID)
		}
		return s.subscriptions.Activate(ctx, userID, ev.Notes["plan_id"])
	default:
		zap.L().Debug("ignoring webhook event", zap.String("event", event))
	}
	return nil
}
