package repository

import (
	"context"

	"taskmind/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SubmissionRepository interface {
	Create(ctx context.Context, sub *model.Submission) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Submission, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Submission, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.Submission, int64, error)
	List(ctx context.Context, status string, page, limit int) ([]model.Submission, int64, error)
	CountPendingByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	Update(ctx context.Context, sub *model.Submission) error
}

type submissionRepository struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) Create(ctx context.Context, sub *model.Submission) error {
	return GetDB(ctx, r.db).Create(sub).Error
}

func (r *submissionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Submission, error) {
	var sub model.Submission
	if err := GetDB(ctx, r.db).Preload("Task").First(&sub, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

// FindByIDForUpdate row-locks the submission for the rest of the transaction.
func (r *submissionRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Submission, error) {
	var sub model.Submission
	if err := lockedDB(ctx, r.db).
		First(&sub, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *submissionRepository) ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.Submission, int64, error) {
	var subs []model.Submission
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Submission{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Task").Where("user_id = ?", userID).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&subs).Error; err != nil {
		return nil, 0, err
	}
	return subs, total, nil
}

func (r *submissionRepository) List(ctx context.Context, status string, page, limit int) ([]model.Submission, int64, error) {
	var subs []model.Submission
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Submission{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetchQuery := db.Preload("Task")
	if status != "" {
		fetchQuery = fetchQuery.Where("status = ?", status)
	}
	if err := fetchQuery.Order("created_at DESC").Offset(offset).Limit(limit).Find(&subs).Error; err != nil {
		return nil, 0, err
	}
	return subs, total, nil
}

func (r *submissionRepository) CountPendingByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Submission{}).
		Where("user_id = ? AND status = ?", userID, model.SubmissionPending).
		Count(&count).Error
	return count, err
}

func (r *submissionRepository) Update(ctx context.Context, sub *model.Submission) error {
	return GetDB(ctx, r.db).Omit("Task").Save(sub).Error
}
