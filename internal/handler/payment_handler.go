package handler

import (
	"errors"
	"io"
	"net/http"

	"taskmind/internal/middleware"
	"taskmind/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type WithdrawBody struct {
	Amount    decimal.Decimal `json:"amount" swaggertype:"number"`
	UserID    string          `json:"userId"`
	UserName  string          `json:"userName"`
	UserEmail string          `json:"userEmail"`
	UPIID     string          `json:"upiId"`
}

type SubscribeBody struct {
	PlanID    string `json:"planId"`
	UserID    string `json:"userId"`
	UserEmail string `json:"userEmail"`
}

type PaymentHandler struct {
	payoutService       service.PayoutService
	subscriptionService service.SubscriptionService
	webhookService      service.WebhookService
	withdrawLimiter     *middleware.RateLimiter
}

func NewPaymentHandler(payoutService service.PayoutService, subscriptionService service.SubscriptionService, webhookService service.WebhookService, withdrawLimiter *middleware.RateLimiter) *PaymentHandler {
	return &PaymentHandler{
		payoutService:       payoutService,
		subscriptionService: subscriptionService,
		webhookService:      webhookService,
		withdrawLimiter:     withdrawLimiter,
	}
}

func (h *PaymentHandler) RegisterRoutes(router *gin.RouterGroup, auth *middleware.Authenticator) {
	payment := router.Group("/api/payment")
	{
		payment.GET("/withdraw", h.GetPayoutKey)
		payment.POST("/withdraw", auth.RequireAuth(), h.withdrawLimiter.Handler(), h.Withdraw)
		payment.GET("/subscribe", h.ListPlans)
		payment.POST("/subscribe", auth.RequireAuth(), h.Subscribe)
		payment.POST("/webhook", h.Webhook)
	}
}

// callerMatches rejects a body userId that names someone other than the token subject.
func callerMatches(c *gin.Context, bodyUserID string) (uuid.UUID, bool) {
	if bodyUserID == "" {
		return uuid.Nil, true
	}
	caller, _ := middleware.UserID(c)
	id, err := uuid.Parse(bodyUserID)
	if err != nil || id != caller {
		c.JSON(http.StatusForbidden, gin.H{"error": "userId does not match the authenticated user"})
		return uuid.Nil, false
	}
	return id, true
}

// @Summary      Request a withdrawal
// @Description  Converts the wallet amount at the configured rate and pays it out to a UPI handle. Send Idempotency-Key to make retries safe.
// @Tags         Payment
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string        false  "Client-chosen retry key"
// @Param        request          body    WithdrawBody  true   "Withdrawal"
// @Success      200  {object}  service.WithdrawResult
// @Failure      400  {object}  map[string]string  "Missing required fields, below minimum or insufficient balance"
// @Failure      409  {object}  map[string]string  "A withdrawal with this Idempotency-Key is still being processed"
// @Failure      502  {object}  map[string]string  "Payment gateway error"
// @Security     BearerAuth
// @Router       /api/payment/withdraw [post]
func (h *PaymentHandler) Withdraw(c *gin.Context) {
	var body WithdrawBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	userID, ok := callerMatches(c, body.UserID)
	if !ok {
		return
	}

	result, err := h.payoutService.Withdraw(c.Request.Context(), service.WithdrawRequest{
		Amount:         body.Amount,
		UserID:         userID,
		UserName:       body.UserName,
		UserEmail:      body.UserEmail,
		UPIID:          body.UPIID,
		IdempotencyKey: c.GetHeader("Idempotency-Key"),
	})
	if err != nil {
		paymentError(c, err, "Failed to process withdrawal")
		return
	}
	c.JSON(http.StatusOK, result)
}

// @Summary      Public payment key
// @Tags         Payment
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /api/payment/withdraw [get]
func (h *PaymentHandler) GetPayoutKey(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"key": h.payoutService.PublicKey()})
}

// @Summary      Subscribe to a plan
// @Tags         Payment
// @Accept       json
// @Produce      json
// @Param        request  body  SubscribeBody  true  "Subscription"
// @Success      200  {object}  service.SubscribeResult
// @Failure      400  {object}  map[string]string  "Missing required fields or invalid plan"
// @Security     BearerAuth
// @Router       /api/payment/subscribe [post]
func (h *PaymentHandler) Subscribe(c *gin.Context) {
	var body SubscribeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	userID, ok := callerMatches(c, body.UserID)
	if !ok {
		return
	}

	result, err := h.subscriptionService.Subscribe(c.Request.Context(), service.SubscribeRequest{
		PlanID:    body.PlanID,
		UserID:    userID,
		UserEmail: body.UserEmail,
	})
	if err != nil {
		paymentError(c, err, "Failed to create subscription")
		return
	}
	c.JSON(http.StatusOK, result)
}

// @Summary      List subscription plans
// @Tags         Payment
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/payment/subscribe [get]
func (h *PaymentHandler) ListPlans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"plans": h.subscriptionService.Plans()})
}

// @Summary      Payment provider webhook
// @Description  HMAC-SHA256 signed with the webhook secret in X-Razorpay-Signature
// @Tags         Payment
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /api/payment/webhook [post]
func (h *PaymentHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.webhookService.Handle(c.Request.Context(), body, c.GetHeader("X-Razorpay-Signature")); err != nil {
		if errors.Is(err, service.ErrInvalidSignature) {
			zap.L().Warn("webhook signature rejected", zap.String("client_ip", c.ClientIP()))
		}
		paymentError(c, err, "Failed to process webhook")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
