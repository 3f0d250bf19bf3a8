package service

import (
	"context"
	"testing"

	"taskmind/internal/payment"
	"taskmind/internal/repository"
	"taskmind/internal/testutil"
	"taskmind/pkg/idgen"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	db       *gorm.DB
	gateway  *payment.DemoGateway
	notifier *testutil.RecordingNotifier
	store    *testutil.MemoryStore

	txManager       repository.TransactionManager
	taskRepo        repository.TaskRepository
	submissionRepo  repository.SubmissionRepository
	transactionRepo repository.TransactionRepository
	profileRepo     repository.ProfileRepository
	auditRepo       repository.AuditRepository

	settings      SettingsService
	catalog       CatalogService
	submissions   SubmissionService
	reviews       ReviewService
	wallet        WalletService
	payouts       PayoutService
	subscriptions SubscriptionService
	webhooks      WebhookService
	analytics     AnalyticsService
}

const webhookSecret = "whsec_test"

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)

	ids, err := idgen.New(1)
	require.NoError(t, err)

	env := &testEnv{
		db:              db,
		gateway:         payment.NewDemoGateway(ids, "rzp_test_key", webhookSecret),
		notifier:        &testutil.RecordingNotifier{},
		store:           testutil.NewMemoryStore(),
		txManager:       repository.NewTransactionManager(db),
		taskRepo:        repository.NewTaskRepository(db),
		submissionRepo:  repository.NewSubmissionRepository(db),
		transactionRepo: repository.NewTransactionRepository(db),
		profileRepo:     repository.NewProfileRepository(db),
		auditRepo:       repository.NewAuditRepository(db),
	}
	env.settings = NewSettingsService(repository.NewSettingRepository(db), env.auditRepo, env.txManager)
	env.catalog = NewCatalogService(env.taskRepo, env.auditRepo, env.settings, env.txManager)
	env.submissions = NewSubmissionService(env.submissionRepo, env.taskRepo, env.store, env.notifier)
	env.reviews = NewReviewService(env.submissionRepo, env.taskRepo, env.transactionRepo, env.auditRepo, env.txManager, env.notifier, true)
	env.wallet = NewWalletService(env.transactionRepo, env.submissionRepo)
	env.payouts = env.newPayoutService(env.gateway)
	env.subscriptions = NewSubscriptionService(env.profileRepo, env.auditRepo, env.txManager, env.gateway, env.notifier)
	env.webhooks = NewWebhookService(env.gateway, env.payouts, env.subscriptions)
	env.analytics = NewAnalyticsService(repository.NewAnalyticsRepository(db))
	return env
}

func (e *testEnv) newPayoutService(gw payment.Gateway) PayoutService {
	return NewPayoutService(e.profileRepo, e.transactionRepo, e.auditRepo, e.txManager, e.settings, gw, e.notifier, PayoutConfig{
		ExchangeRate: decimal.NewFromInt(83),
		Currency:     "INR",
	})
}

func (e *testEnv) auditCount(t *testing.T, action string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Table("audit_logs").Where("action = ?", action).Count(&n).Error)
	return n
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

// queuedGateway accepts payouts without settling them.
type queuedGateway struct {
	*payment.DemoGateway
}

func (g *queuedGateway) CreatePayout(ctx context.Context, req payment.PayoutRequest) (payment.Payout, error) {
	p, err := g.DemoGateway.CreatePayout(ctx, req)
	if err != nil {
		return p, err
	}
	p.Status = payment.PayoutQueued
	return p, nil
}

// countingGateway counts the orders it is asked to open.
type countingGateway struct {
	*payment.DemoGateway
	orders int
}

func (g *countingGateway) CreateOrder(ctx context.Context, req payment.OrderRequest) (payment.Order, error) {
	g.orders++
	return g.DemoGateway.CreateOrder(ctx, req)
}

// earlyWebhookGateway delivers a signed payout.failed webhook before
// CreatePayout returns, the way a fast provider can.
type earlyWebhookGateway struct {
	*payment.DemoGateway
	webhooks   WebhookService
	webhookErr error
}

func (g *earlyWebhookGateway) CreatePayout(ctx context.Context, req payment.PayoutRequest) (payment.Payout, error) {
	p, err := g.DemoGateway.CreatePayout(ctx, req)
	if err != nil {
		return p, err
	}
	body := []byte(`{"event":"payout.failed","payload":{"payout":{"entity":{"id":"` + p.ID +
		`","reference_id":"` + req.ReferenceID + `","status":"failed"}}}}`)
	g.webhookErr = g.webhooks.Handle(ctx, body, payment.Sign(webhookSecret, body))
	p.Status = payment.PayoutQueued
	return p, nil
}

func decimalFromString(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
