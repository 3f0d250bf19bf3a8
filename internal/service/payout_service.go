package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"taskmind/internal/metrics"
	"taskmind/internal/model"
	"taskmind/internal/payment"
	"taskmind/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const withdrawSubmittedMessage = "Withdrawal request submitted successfully!"

// --- DTOs ---

type WithdrawRequest struct {
	Amount         decimal.Decimal
	UserID         uuid.UUID
	UserName       string
	UserEmail      string
	UPIID          string
	IdempotencyKey string
}

type WithdrawResult struct {
	Success  bool   `json:"success"`
	PayoutID string `json:"payoutId"`
	Amount   int64  `json:"amount"` // whole units of the payout currency
	Currency string `json:"currency"`
	Message  string `json:"message"`
}

// PayoutConfig converts wallet amounts into the currency the gateway pays out in.
type PayoutConfig struct {
	ExchangeRate decimal.Decimal
	Currency     string
}

// --- Interface ---

type PayoutService interface {
	Withdraw(ctx context.Context, req WithdrawRequest) (*WithdrawResult, error)
	Reconcile(ctx context.Context, reference, transactionID string, succeeded bool) (*model.Transaction, error)
	PublicKey() string
}

type payoutService struct {
	profileRepo     repository.ProfileRepository
	transactionRepo repository.TransactionRepository
	auditRepo       repository.AuditRepository
	txManager       repository.TransactionManager
	settings        SettingsService
	gateway         payment.Gateway
	notifier        Notifier
	cfg             PayoutConfig
}

func NewPayoutService(
	profileRepo repository.ProfileRepository,
	transactionRepo repository.TransactionRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	settings SettingsService,
	gateway payment.Gateway,
	notifier Notifier,
	cfg PayoutConfig,
) PayoutService {
	return &payoutService{
		profileRepo:     profileRepo,
		transactionRepo: transactionRepo,
		auditRepo:       auditRepo,
		txManager:       txManager,
		settings:        settings,
		gateway:         gateway,
		notifier:        notifierOrNop(notifier),
		cfg:             cfg,
	}
}

// --- Implementation ---

func (s *payoutService) PublicKey() string {
	return s.gateway.PublicKey()
}

// ConvertAmount returns the payout in whole currency units and in minor units.
func ConvertAmount(amount, rate decimal.Decimal) (whole int64, minor int64) {
	converted := amount.Mul(rate).Round(0)
	return converted.IntPart(), converted.Mul(decimal.NewFromInt(100)).IntPart()
}

// Withdraw reserves the amount against the caller's available balance and
// asks the gateway to pay it out. Balance check and debit happen under a
// lock on the profile row, so concurrent requests cannot overdraw.
func (s *payoutService) Withdraw(ctx context.Context, req WithdrawRequest) (*WithdrawResult, error) {
	req.UPIID = strings.TrimSpace(req.UPIID)
	if req.Amount.IsZero() || req.UserID == uuid.Nil || req.UPIID == "" {
		return nil, ErrMissingFields
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	if req.Amount.LessThan(settings.MinimumWithdrawal) {
		metrics.RecordPayout("rejected")
		return nil, &BelowMinimumError{Minimum: settings.MinimumWithdrawal}
	}

	whole, minor := ConvertAmount(req.Amount, s.cfg.ExchangeRate)

	var payout *model.Transaction
	replayed := false

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.profileRepo.Ensure(txCtx, &model.Profile{ID: req.UserID, Email: req.UserEmail}); err != nil {
			return fmt.Errorf("failed to ensure profile: %w", err)
		}
		if _, err := s.profileRepo.LockByID(txCtx, req.UserID); err != nil {
			return fmt.Errorf("failed to lock profile: %w", err)
		}

		if req.IdempotencyKey != "" {
			existing, err := s.transactionRepo.FindByIdempotencyKey(txCtx, req.UserID, req.IdempotencyKey)
			if err != nil {
				return fmt.Errorf("failed to check idempotency key: %w", err)
			}
			if existing != nil {
				payout = existing
				replayed = true
				return nil
			}
		}

		txs, err := s.transactionRepo.ListByUser(txCtx, req.UserID)
		if err != nil {
			return fmt.Errorf("failed to fetch transactions: %w", err)
		}
		wallet := model.SummarizeWallet(txs)
		if req.Amount.GreaterThan(wallet.Available) {
			return fmt.Errorf("%w: available %s", ErrInsufficientBalance, wallet.Available.StringFixed(2))
		}

		payout = &model.Transaction{
			UserID:      req.UserID,
			Type:        model.TxTypePayout,
			Amount:      req.Amount,
			Status:      model.TxStatusPending,
			Description: "Withdrawal to UPI: " + req.UPIID,
			Destination: req.UPIID,
		}
		if req.IdempotencyKey != "" {
			key := req.IdempotencyKey
			payout.IdempotencyKey = &key
		}
		if err := s.transactionRepo.Create(txCtx, payout); err != nil {
			return fmt.Errorf("failed to record payout: %w", err)
		}

		return writeAudit(txCtx, s.auditRepo, req.UserID, model.ActionRequestPayout, payout.ID.String(), "Transaction", map[string]interface{}{
			"amount":      req.Amount.String(),
			"destination": req.UPIID,
		})
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientBalance) {
			metrics.RecordPayout("rejected")
		}
		return nil, err
	}

	if replayed {
		metrics.RecordPayout("replayed")
		switch {
		case payout.Status == model.TxStatusFailed:
			return nil, fmt.Errorf("%w: payout %s failed", ErrGateway, payout.ID)
		case payout.Reference == "":
			return nil, fmt.Errorf("%w: payout %s", ErrPayoutInProgress, payout.ID)
		}
		stored, _ := ConvertAmount(payout.Amount, s.cfg.ExchangeRate)
		return s.result(payout.Reference, stored), nil
	}

	gp, gwErr := s.gateway.CreatePayout(ctx, payment.PayoutRequest{
		Amount:      minor,
		Currency:    s.cfg.Currency,
		UPIID:       req.UPIID,
		Name:        req.UserName,
		Email:       req.UserEmail,
		ReferenceID: payout.ID.String(),
	})
	if gwErr != nil {
		metrics.RecordPayout("failed")
		if _, err := s.applyGatewayResult(ctx, payout.ID, "", payment.PayoutFailed); err != nil {
			zap.L().Error("failed to mark payout as failed", zap.String("payout_id", payout.ID.String()), zap.Error(err))
		}
		return nil, fmt.Errorf("%w: %v", ErrGateway, gwErr)
	}

	// A webhook may have settled the row already; the reference lets it be found either way.
	payout, err = s.applyGatewayResult(ctx, payout.ID, gp.ID, gp.Status)
	if err != nil {
		return nil, fmt.Errorf("failed to store gateway payout id: %w", err)
	}

	metrics.RecordPayout("requested")
	s.notifier.Publish(EventPayoutRequested, payout)
	zap.L().Info("payout requested",
		zap.String("user_id", req.UserID.String()),
		zap.String("payout_id", gp.ID),
		zap.String("status", payout.Status),
		zap.Int64("amount", whole))

	if payout.Status == model.TxStatusFailed {
		return nil, fmt.Errorf("%w: payout %s was %s", ErrGateway, gp.ID, gp.Status)
	}
	return s.result(gp.ID, whole), nil
}

// applyGatewayResult stores the provider's payout id and, while the row is
// still pending, the status the provider answered with.
func (s *payoutService) applyGatewayResult(ctx context.Context, id uuid.UUID, reference, status string) (*model.Transaction, error) {
	var payout *model.Transaction
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		if payout, err = s.transactionRepo.FindByIDForUpdate(txCtx, id); err != nil {
			return err
		}
		if reference != "" && payout.Reference == "" {
			payout.Reference = reference
		}
		if !payout.IsTerminal() {
			if done, ok := (payment.PayoutEvent{Status: status}).Settled(); done {
				payout.Status = model.TxStatusFailed
				if ok {
					payout.Status = model.TxStatusCompleted
				}
			}
		}
		return s.transactionRepo.Update(txCtx, payout)
	})
	if err != nil {
		return nil, err
	}
	return payout, nil
}

func (s *payoutService) result(payoutID string, whole int64) *WithdrawResult {
	return &WithdrawResult{
		Success:  true,
		PayoutID: payoutID,
		Amount:   whole,
		Currency: s.cfg.Currency,
		Message:  withdrawSubmittedMessage,
	}
}

// Reconcile settles a pending payout from a gateway confirmation. The row is
// found by the provider's payout id, or by transactionID (the reference_id we
// sent) when the provider id was never stored. Settled rows are returned
// unchanged.
func (s *payoutService) Reconcile(ctx context.Context, reference, transactionID string, succeeded bool) (*model.Transaction, error) {
	var payout *model.Transaction
	changed := false

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		payout, err = s.findPayoutForUpdate(txCtx, reference, transactionID)
		if err != nil {
			return err
		}
		if payout.IsTerminal() {
			return nil
		}

		payout.Status = model.TxStatusFailed
		if succeeded {
			payout.Status = model.TxStatusCompleted
		}
		if err := s.transactionRepo.Update(txCtx, payout); err != nil {
			return fmt.Errorf("failed to settle payout: %w", err)
		}
		changed = true

		return writeAudit(txCtx, s.auditRepo, uuid.Nil, model.ActionSettlePayout, payout.ID.String(), "Transaction", map[string]interface{}{
			"reference": reference,
			"status":    payout.Status,
		})
	})
	if err != nil {
		return nil, err
	}

	if changed {
		metrics.RecordPayout("settled_" + payout.Status)
		s.notifier.Publish(EventPayoutSettled, payout)
	}
	return payout, nil
}

func (s *payoutService) findPayoutForUpdate(ctx context.Context, reference, transactionID string) (*model.Transaction, error) {
	if reference != "" {
		payout, err := s.transactionRepo.FindByReferenceForUpdate(ctx, model.TxTypePayout, reference)
		if err == nil {
			return payout, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to fetch payout: %w", err)
		}
	}

	id, parseErr := uuid.Parse(transactionID)
	if parseErr != nil {
		return nil, fmt.Errorf("payout %s: %w", reference, ErrNotFound)
	}
	payout, err := s.transactionRepo.FindByIDForUpdate(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("payout %s: %w", reference, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payout: %w", err)
	}
	if payout.Type != model.TxTypePayout || (payout.Reference != "" && payout.Reference != reference) {
		return nil, fmt.Errorf("payout %s: %w", reference, ErrNotFound)
	}
	if payout.Reference == "" && reference != "" {
		payout.Reference = reference
	}
	return payout, nil
}
