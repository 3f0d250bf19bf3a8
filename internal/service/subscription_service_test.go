package service

import (
	"context"
	"strings"
	"testing"

	"taskmind/internal/model"
	"taskmind/internal/payment"
	"taskmind/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestSubscribe(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := uuid.New()
	gateway := &countingGateway{DemoGateway: env.gateway}
	env.subscriptions = NewSubscriptionService(env.profileRepo, env.auditRepo, env.txManager, gateway, env.notifier)

	_, err := env.subscriptions.Subscribe(ctx, SubscribeRequest{UserID: user})
	require.ErrorIs(t, err, ErrMissingFields)

	_, err = env.subscriptions.Subscribe(ctx, SubscribeRequest{PlanID: "platinum", UserID: user})
	require.ErrorIs(t, err, ErrInvalidPlan)
	require.Equal(t, "Invalid plan", err.Error())

	free, err := env.subscriptions.Subscribe(ctx, SubscribeRequest{PlanID: PlanFree, UserID: user})
	require.NoError(t, err)
	require.True(t, free.Success)
	require.Equal(t, "Free plan activated", free.Message)
	require.Zero(t, gateway.orders)

	pro, err := env.subscriptions.Subscribe(ctx, SubscribeRequest{PlanID: PlanPro, UserID: user, UserEmail: "u@taskmind.test"})
	require.NoError(t, err)
	require.True(t, pro.Success)
	require.Equal(t, "Subscription activated (Demo mode)", pro.Message)
	require.Equal(t, "Pro Plan", pro.Plan)
	require.Equal(t, 1, gateway.orders)

	profile, err := env.profileRepo.FindByID(ctx, user)
	require.NoError(t, err)
	require.Equal(t, PlanPro, profile.SubscriptionPlan)
	require.Equal(t, int64(2), env.auditCount(t, model.ActionChangePlan))
}

func TestPlans(t *testing.T) {
	env := newTestEnv(t)
	plans := env.subscriptions.Plans()
	require.Len(t, plans, 3)
	require.Equal(t, "free", plans[0].ID)
	require.Equal(t, int64(0), plans[0].Price)
	require.Equal(t, int64(799), plans[1].Price)
	require.Equal(t, int64(79900), plans[1].Amount)
	require.Equal(t, "Business", plans[2].Name)
	require.Equal(t, int64(2499), plans[2].Price)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	env := newTestEnv(t)
	body := []byte(`{"event":"payout.processed"}`)
	err := env.webhooks.Handle(context.Background(), body, "deadbeef")
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestWebhookSettlesPayoutAndActivatesPlan(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := uuid.New()
	testutil.CreateTransaction(t, env.db, user, model.TxTypeEarning, model.TxStatusCompleted, "20")

	payouts := env.newPayoutService(&queuedGateway{DemoGateway: env.gateway})
	webhooks := NewWebhookService(env.gateway, payouts, env.subscriptions)

	res, err := payouts.Withdraw(ctx, withdrawReq(user, "10"))
	require.NoError(t, err)

	body := []byte(`{"event":"payout.reversed","payload":{"payout":{"entity":{"id":"` + res.PayoutID + `","status":"reversed"}}}}`)
	require.NoError(t, webhooks.Handle(ctx, body, payment.Sign(webhookSecret, body)))

	info, _, err := env.wallet.GetWallet(ctx, user)
	require.NoError(t, err)
	requireDecimal(t, "20", info.Available)

	unknown := []byte(`{"event":"payout.processed","payload":{"payout":{"entity":{"id":"pout_missing","status":"processed"}}}}`)
	require.NoError(t, webhooks.Handle(ctx, unknown, payment.Sign(webhookSecret, unknown)))

	order := []byte(`{"event":"order.paid","payload":{"order":{"entity":{"id":"order_1","status":"paid","notes":{"plan_id":"enterprise","user_id":"` + user.String() + `"}}}}}`)
	require.NoError(t, webhooks.Handle(ctx, order, payment.Sign(webhookSecret, order)))

	profile, err := env.profileRepo.FindByID(ctx, user)
	require.NoError(t, err)
	require.Equal(t, PlanEnterprise, profile.SubscriptionPlan)
}

func TestWebhookTerminalFailuresReleaseFunds(t *testing.T) {
	for _, status := range []string{payment.PayoutFailed, payment.PayoutRejected, payment.PayoutCancelled, payment.PayoutReversed} {
		t.Run(status, func(t *testing.T) {
			env := newTestEnv(t)
			ctx := context.Background()
			user := uuid.New()
			testutil.CreateTransaction(t, env.db, user, model.TxTypeEarning, model.TxStatusCompleted, "20")

			payouts := env.newPayoutService(&queuedGateway{DemoGateway: env.gateway})
			webhooks := NewWebhookService(env.gateway, payouts, env.subscriptions)
			res, err := payouts.Withdraw(ctx, withdrawReq(user, "10"))
			require.NoError(t, err)

			body := []byte(`{"event":"payout.` + status + `","payload":{"payout":{"entity":{"id":"` + res.PayoutID + `","status":"` + status + `"}}}}`)
			require.NoError(t, webhooks.Handle(ctx, body, payment.Sign(webhookSecret, body)))

			info, _, err := env.wallet.GetWallet(ctx, user)
			require.NoError(t, err)
			requireDecimal(t, "20", info.Available)
			requireDecimal(t, "0", info.PendingPayouts)
		})
	}
}

func TestWebhookBeforePayoutIDIsStored(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := uuid.New()
	testutil.CreateTransaction(t, env.db, user, model.TxTypeEarning, model.TxStatusCompleted, "20")

	gateway := &earlyWebhookGateway{DemoGateway: env.gateway}
	payouts := env.newPayoutService(gateway)
	gateway.webhooks = NewWebhookService(env.gateway, payouts, env.subscriptions)

	_, err := payouts.Withdraw(ctx, withdrawReq(user, "10"))
	require.ErrorIs(t, err, ErrGateway)
	require.NoError(t, gateway.webhookErr)

	info, _, err := env.wallet.GetWallet(ctx, user)
	require.NoError(t, err)
	requireDecimal(t, "20", info.Available)
	requireDecimal(t, "0", info.PendingPayouts)

	var payout model.Transaction
	require.NoError(t, env.db.Where("type = ?", model.TxTypePayout).First(&payout).Error)
	require.Equal(t, model.TxStatusFailed, payout.Status)
	require.True(t, strings.HasPrefix(payout.Reference, "payout_"))
	require.Equal(t, int64(1), env.auditCount(t, model.ActionSettlePayout))
}
