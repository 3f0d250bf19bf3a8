package service

import (
	"context"
	"fmt"

	"taskmind/internal/model"
	"taskmind/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	DefaultCommissionRate    = decimal.NewFromInt(50)
	DefaultMinimumWithdrawal = decimal.NewFromInt(10)
)

// Settings are the admin-editable platform parameters.
type Settings struct {
	CommissionRate    decimal.Decimal `json:"commission_rate"`
	MinimumWithdrawal decimal.Decimal `json:"minimum_withdrawal"`
}

type UpdateSettingsRequest struct {
	CommissionRate    *decimal.Decimal `json:"commission_rate"`
	MinimumWithdrawal *decimal.Decimal `json:"minimum_withdrawal"`
}

type SettingsService interface {
	Get(ctx context.Context) (Settings, error)
	Update(ctx context.Context, actorID uuid.UUID, req UpdateSettingsRequest) (Settings, error)
}

type settingsService struct {
	repo      repository.SettingRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
}

func NewSettingsService(repo repository.SettingRepository, auditRepo repository.AuditRepository, txManager repository.TransactionManager) SettingsService {
	return &settingsService{repo: repo, auditRepo: auditRepo, txManager: txManager}
}

// Get falls back to the defaults for missing or unparsable values.
func (s *settingsService) Get(ctx context.Context) (Settings, error) {
	values, err := s.repo.All(ctx)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	return Settings{
		CommissionRate:    parseSetting(values[model.SettingCommissionRate], DefaultCommissionRate),
		MinimumWithdrawal: parseSetting(values[model.SettingMinimumWithdrawal], DefaultMinimumWithdrawal),
	}, nil
}

func parseSetting(raw string, fallback decimal.Decimal) decimal.Decimal {
	if raw == "" {
		return fallback
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return fallback
	}
	return v
}

func (s *settingsService) Update(ctx context.Context, actorID uuid.UUID, req UpdateSettingsRequest) (Settings, error) {
	if req.CommissionRate == nil && req.MinimumWithdrawal == nil {
		return Settings{}, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	if req.CommissionRate != nil && (req.CommissionRate.IsNegative() || req.CommissionRate.GreaterThan(decimal.NewFromInt(100))) {
		return Settings{}, fmt.Errorf("%w: commission_rate must be between 0 and 100", ErrInvalidInput)
	}
	if req.MinimumWithdrawal != nil && !req.MinimumWithdrawal.IsPositive() {
		return Settings{}, fmt.Errorf("%w: minimum_withdrawal must be greater than 0", ErrInvalidInput)
	}

	changes := map[string]interface{}{}
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if req.CommissionRate != nil {
			if err := s.repo.Upsert(txCtx, model.SettingCommissionRate, req.CommissionRate.String()); err != nil {
				return fmt.Errorf("failed to save commission rate: %w", err)
			}
			changes[model.SettingCommissionRate] = req.CommissionRate.String()
		}
		if req.MinimumWithdrawal != nil {
			if err := s.repo.Upsert(txCtx, model.SettingMinimumWithdrawal, req.MinimumWithdrawal.String()); err != nil {
				return fmt.Errorf("failed to save minimum withdrawal: %w", err)
			}
			changes[model.SettingMinimumWithdrawal] = req.MinimumWithdrawal.String()
		}
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionUpdateSettings, "settings", "Platform settings", changes)
	})
	if err != nil {
		return Settings{}, err
	}
	return s.Get(ctx)
}
