package service

import (
	"context"
	"fmt"
	"time"

	"taskmind/internal/model"
	"taskmind/internal/payment"
	"taskmind/internal/repository"

	"github.com/google/uuid"
)

const (
	PlanFree       = "free"
	PlanPro        = "pro"
	PlanEnterprise = "enterprise"
)

// Plan is a subscription tier. Price is in rupees, Amount in paise.
type Plan struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`

	title string // shown once the plan is activated
}

var plans = []Plan{
	{ID: PlanFree, Name: "Free", Price: 0, Amount: 0, Currency: "INR", title: "Free"},
	{ID: PlanPro, Name: "Pro", Price: 799, Amount: 79900, Currency: "INR", title: "Pro Plan"},
	{ID: PlanEnterprise, Name: "Business", Price: 2499, Amount: 249900, Currency: "INR", title: "Business Plan"},
}

func findPlan(id string) (Plan, bool) {
	for _, p := range plans {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}

type SubscribeRequest struct {
	PlanID    string
	UserID    uuid.UUID
	UserEmail string
}

type SubscribeResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Plan    string `json:"plan,omitempty"`
	OrderID string `json:"orderId,omitempty"`
	Amount  int64  `json:"amount,omitempty"`
	Key     string `json:"key,omitempty"`
}

type SubscriptionService interface {
	Plans() []Plan
	Subscribe(ctx context.Context, req SubscribeRequest) (*SubscribeResult, error)
	Activate(ctx context.Context, userID uuid.UUID, planID string) error
}

type subscriptionService struct {
	profileRepo repository.ProfileRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	gateway     payment.Gateway
	notifier    Notifier
}

func NewSubscriptionService(profileRepo repository.ProfileRepository, auditRepo repository.AuditRepository, txManager repository.TransactionManager, gateway payment.Gateway, notifier Notifier) SubscriptionService {
	return &subscriptionService{
		profileRepo: profileRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		gateway:     gateway,
		notifier:    notifierOrNop(notifier),
	}
}

func (s *subscriptionService) Plans() []Plan {
	out := make([]Plan, len(plans))
	copy(out, plans)
	return out
}

// Subscribe activates the free plan directly. Paid plans open a gateway
// order; the plan is switched at once when the order comes back paid, and
// otherwise when the order.paid webhook arrives.
func (s *subscriptionService) Subscribe(ctx context.Context, req SubscribeRequest) (*SubscribeResult, error) {
	if req.PlanID == "" || req.UserID == uuid.Nil {
		return nil, ErrMissingFields
	}

	if req.PlanID == PlanFree {
		if err := s.activate(ctx, req.UserID, req.UserEmail, PlanFree); err != nil {
			return nil, err
		}
		return &SubscribeResult{Success: true, Message: "Free plan activated"}, nil
	}

	plan, ok := findPlan(req.PlanID)
	if !ok {
		return nil, ErrInvalidPlan
	}

	order, err := s.gateway.CreateOrder(ctx, payment.OrderRequest{
		Amount:   plan.Amount,
		Currency: plan.Currency,
		Receipt:  fmt.Sprintf("subscription_%d", time.Now().UnixMilli()),
		Notes: map[string]string{
			"plan_id": plan.ID,
			"user_id": req.UserID.String(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	if order.Status == "paid" {
		if err := s.activate(ctx, req.UserID, req.UserEmail, plan.ID); err != nil {
			return nil, err
		}
		return &SubscribeResult{
			Success: true,
			Message: "Subscription activated (Demo mode)",
			Plan:    plan.title,
		}, nil
	}

	return &SubscribeResult{
		Success: true,
		Message: "Complete the payment to activate your subscription",
		Plan:    plan.title,
		OrderID: order.ID,
		Amount:  order.Amount,
		Key:     s.gateway.PublicKey(),
	}, nil
}

// Activate switches the user's plan after a confirmed payment.
func (s *subscriptionService) Activate(ctx context.Context, userID uuid.UUID, planID string) error {
	if _, ok := findPlan(planID); !ok {
		return ErrInvalidPlan
	}
	return s.activate(ctx, userID, "", planID)
}

func (s *subscriptionService) activate(ctx context.Context, userID uuid.UUID, email, planID string) error {
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.profileRepo.Ensure(txCtx, &model.Profile{ID: userID, Email: email}); err != nil {
			return fmt.Errorf("failed to ensure profile: %w", err)
		}
		if err := s.profileRepo.UpdatePlan(txCtx, userID, planID); err != nil {
			return fmt.Errorf("failed to update subscription plan: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionChangePlan, userID.String(), "Profile", map[string]interface{}{
			"plan": planID,
		})
	})
	if err != nil {
		return err
	}
	s.notifier.Publish(EventPlanChanged, map[string]string{"user_id": userID.String(), "plan": planID})
	return nil
}
