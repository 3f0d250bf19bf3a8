package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taskmind/internal/middleware"
	"taskmind/internal/model"
	"taskmind/internal/payment"
	"taskmind/internal/repository"
	"taskmind/internal/service"
	"taskmind/internal/testutil"
	"taskmind/pkg/idgen"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type apiEnv struct {
	db     *gorm.DB
	router *gin.Engine
}

func newAPI(t *testing.T) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.NewTestDB(t)

	ids, err := idgen.New(1)
	require.NoError(t, err)
	gateway := payment.NewDemoGateway(ids, "rzp_test_key", "whsec_test")
	notifier := &testutil.RecordingNotifier{}

	txManager := repository.NewTransactionManager(db)
	taskRepo := repository.NewTaskRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	settings := service.NewSettingsService(repository.NewSettingRepository(db), auditRepo, txManager)
	catalog := service.NewCatalogService(taskRepo, auditRepo, settings, txManager)
	submissions := service.NewSubmissionService(submissionRepo, taskRepo, testutil.NewMemoryStore(), notifier)
	reviews := service.NewReviewService(submissionRepo, taskRepo, transactionRepo, auditRepo, txManager, notifier, true)
	wallet := service.NewWalletService(transactionRepo, submissionRepo)
	payouts := service.NewPayoutService(profileRepo, transactionRepo, auditRepo, txManager, settings, gateway, notifier, service.PayoutConfig{
		ExchangeRate: decimal.NewFromInt(83),
		Currency:     "INR",
	})
	subscriptions := service.NewSubscriptionService(profileRepo, auditRepo, txManager, gateway, notifier)
	webhooks := service.NewWebhookService(gateway, payouts, subscriptions)

	auth := middleware.NewAuthenticator([]byte(testutil.TestSecret), profileRepo, time.Minute)
	router := gin.New()
	api := router.Group("")
	NewTaskHandler(catalog).RegisterRoutes(api, auth)
	NewSubmissionHandler(submissions).RegisterRoutes(api, auth)
	NewReviewHandler(reviews).RegisterRoutes(api, auth)
	NewWalletHandler(wallet).RegisterRoutes(api, auth)
	NewPaymentHandler(payouts, subscriptions, webhooks, middleware.NewPerMinuteLimiter(100)).RegisterRoutes(api, auth)
	NewAnalyticsHandler(service.NewAnalyticsService(repository.NewAnalyticsRepository(db))).RegisterRoutes(api, auth)
	NewSettingsHandler(settings).RegisterRoutes(api, auth)
	NewAuditHandler(service.NewAuditService(auditRepo)).RegisterRoutes(api, auth)

	return &apiEnv{db: db, router: router}
}

func (e *apiEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestWithdrawErrors(t *testing.T) {
	env := newAPI(t)
	user := uuid.New()
	token := testutil.Token(t, user, "worker@taskmind.test")

	w := env.do(t, http.MethodPost, "/api/payment/withdraw", "", map[string]interface{}{"amount": 20})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/api/payment/withdraw", token, map[string]interface{}{"userId": user.String()})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Missing required fields", decode(t, w)["error"])

	w = env.do(t, http.MethodPost, "/api/payment/withdraw", token, map[string]interface{}{
		"amount": 5, "userId": user.String(), "upiId": "worker@upi",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"error":"Minimum withdrawal amount is $10"}`, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/payment/withdraw", token, map[string]interface{}{
		"amount": 20, "userId": user.String(), "upiId": "worker@upi",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Insufficient balance", decode(t, w)["error"])

	w = env.do(t, http.MethodPost, "/api/payment/withdraw", token, map[string]interface{}{
		"amount": 20, "userId": uuid.New().String(), "upiId": "worker@upi",
	})
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestWithdrawSuccess(t *testing.T) {
	env := newAPI(t)
	user := uuid.New()
	testutil.CreateTransaction(t, env.db, user, model.TxTypeEarning, model.TxStatusCompleted, "50")
	token := testutil.Token(t, user, "worker@taskmind.test")

	w := env.do(t, http.MethodPost, "/api/payment/withdraw", token, map[string]interface{}{
		"amount": 20, "userId": user.String(), "userName": "Worker", "upiId": "worker@upi",
	})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	require.Equal(t, true, body["success"])
	require.Equal(t, float64(1660), body["amount"])
	require.Equal(t, "INR", body["currency"])
	require.NotEmpty(t, body["payoutId"])

	w = env.do(t, http.MethodGet, "/api/wallet", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	require.Len(t, data["transactions"], 2)
}

func TestWithdrawReplayWhileInFlight(t *testing.T) {
	env := newAPI(t)
	user := uuid.New()
	testutil.CreateTransaction(t, env.db, user, model.TxTypeEarning, model.TxStatusCompleted, "50")
	inflight := testutil.CreateTransaction(t, env.db, user, model.TxTypePayout, model.TxStatusPending, "10")
	require.NoError(t, env.db.Model(inflight).Update("idempotency_key", "retry-1").Error)
	token := testutil.Token(t, user, "worker@taskmind.test")

	body, err := json.Marshal(map[string]interface{}{"amount": 10, "userId": user.String(), "upiId": "worker@upi"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/payment/withdraw", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Idempotency-Key", "retry-1")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusConflict, w.Code)
	require.JSONEq(t, `{"error":"Withdrawal is still being processed"}`, w.Body.String())
}

func TestPaymentPublicEndpoints(t *testing.T) {
	env := newAPI(t)

	w := env.do(t, http.MethodGet, "/api/payment/withdraw", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"key":"rzp_test_key"}`, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/payment/subscribe", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	plans := decode(t, w)["plans"].([]interface{})
	require.Len(t, plans, 3)

	w = env.do(t, http.MethodPost, "/api/payment/webhook", "", map[string]interface{}{"event": "payout.processed"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSubscribe(t *testing.T) {
	env := newAPI(t)
	user := uuid.New()
	token := testutil.Token(t, user, "buyer@taskmind.test")

	w := env.do(t, http.MethodPost, "/api/payment/subscribe", token, map[string]interface{}{
		"planId": "gold", "userId": user.String(),
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Invalid plan", decode(t, w)["error"])

	w = env.do(t, http.MethodPost, "/api/payment/subscribe", token, map[string]interface{}{
		"planId": "pro", "userId": user.String(), "userEmail": "buyer@taskmind.test",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, decode(t, w)["success"])

	var profile model.Profile
	require.NoError(t, env.db.First(&profile, "id = ?", user).Error)
	require.Equal(t, "pro", profile.SubscriptionPlan)
}

func TestTaskCatalogEnvelope(t *testing.T) {
	env := newAPI(t)
	testutil.CreateTask(t, env.db, "Photo a storefront", "1", "2", model.TaskStatusActive)
	testutil.CreateTask(t, env.db, "Old task", "1", "2", model.TaskStatusArchived)

	w := env.do(t, http.MethodGet, "/api/tasks?search=storefront", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	require.Equal(t, "success", body["status"])
	require.Len(t, body["data"], 1)

	w = env.do(t, http.MethodGet, "/api/tasks/"+uuid.New().String(), "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/api/tasks/not-a-uuid", "", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	env := newAPI(t)
	worker := testutil.Token(t, uuid.New(), "worker@taskmind.test")

	for _, path := range []string{"/api/admin/tasks", "/api/admin/submissions", "/api/admin/analytics", "/api/admin/settings", "/api/admin/audit-logs"} {
		w := env.do(t, http.MethodGet, path, worker, nil)
		require.Equal(t, http.StatusForbidden, w.Code, path)
		require.Equal(t, "error", decode(t, w)["status"], path)
	}
}

func TestReviewConflict(t *testing.T) {
	env := newAPI(t)
	admin := testutil.CreateProfile(t, env.db, model.RoleAdmin)
	token := testutil.Token(t, admin.ID, admin.Email)
	task := testutil.CreateTask(t, env.db, "Task", "1", "2", model.TaskStatusActive)
	sub := testutil.CreateTextSubmission(t, env.db, uuid.New(), task.ID)

	w := env.do(t, http.MethodPut, "/api/admin/submissions/"+sub.ID.String()+"/reject", token, map[string]string{"reason": "blurry"})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPut, "/api/admin/submissions/"+sub.ID.String()+"/approve", token, nil)
	require.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodGet, "/api/admin/submissions?status=rejected", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode(t, w)["data"].(map[string]interface{})
	require.Equal(t, float64(1), page["total"])

	w = env.do(t, http.MethodGet, "/api/admin/analytics?start_date=2026-02-01T00:00:00Z&end_date=2026-01-01T00:00:00Z", token, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
