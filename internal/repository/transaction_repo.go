package repository

import (
	"context"
	"errors"

	"taskmind/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TransactionRepository interface {
	Create(ctx context.Context, t *model.Transaction) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Transaction, error)
	ListByUserPaged(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.Transaction, int64, error)
	FindByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*model.Transaction, error)
	FindByReferenceForUpdate(ctx context.Context, txType, reference string) (*model.Transaction, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	FindEarningForSubmission(ctx context.Context, submissionID uuid.UUID) (*model.Transaction, error)
	Update(ctx context.Context, t *model.Transaction) error
}

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, t *model.Transaction) error {
	return GetDB(ctx, r.db).Create(t).Error
}

// ListByUser returns the user's full history, most recent first.
func (r *transactionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Transaction, error) {
	var txs []model.Transaction
	if err := GetDB(ctx, r.db).Where("user_id = ?", userID).
		Order("created_at DESC").Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

func (r *transactionRepository) ListByUserPaged(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.Transaction, int64, error) {
	var txs []model.Transaction
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Transaction{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Where("user_id = ?", userID).Order("created_at DESC").
		Offset(offset).Limit(limit).Find(&txs).Error; err != nil {
		return nil, 0, err
	}
	return txs, total, nil
}

// FindByIdempotencyKey returns nil, nil when no row carries the key.
func (r *transactionRepository) FindByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*model.Transaction, error) {
	var t model.Transaction
	err := GetDB(ctx, r.db).Where("user_id = ? AND idempotency_key = ?", userID, key).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *transactionRepository) FindByReferenceForUpdate(ctx context.Context, txType, reference string) (*model.Transaction, error) {
	var t model.Transaction
	if err := lockedDB(ctx, r.db).
		Where("type = ? AND reference = ?", txType, reference).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *transactionRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	var t model.Transaction
	if err := lockedDB(ctx, r.db).
		Where("id = ?", id).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// FindEarningForSubmission returns nil, nil when the submission was never credited.
func (r *transactionRepository) FindEarningForSubmission(ctx context.Context, submissionID uuid.UUID) (*model.Transaction, error) {
	var t model.Transaction
	err := GetDB(ctx, r.db).Where("type = ? AND reference = ?", model.TxTypeEarning, submissionID.String()).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *transactionRepository) Update(ctx context.Context, t *model.Transaction) error {
	return GetDB(ctx, r.db).Save(t).Error
}
