package repository

import (
	"context"

	"taskmind/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileRepository defines the data access of profiles mirrored from the auth provider
type ProfileRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	Ensure(ctx context.Context, profile *model.Profile) error
	LockByID(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	UpdatePlan(ctx context.Context, id uuid.UUID, plan string) error
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository returns a new instance of ProfileRepository
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	var profile model.Profile
	if err := GetDB(ctx, r.db).First(&profile, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// Ensure inserts the profile unless a row with the same id already exists.
func (r *profileRepository) Ensure(ctx context.Context, profile *model.Profile) error {
	if profile.Role == "" {
		profile.Role = model.RoleUser
	}
	if profile.SubscriptionPlan == "" {
		profile.SubscriptionPlan = "free"
	}
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{DoNothing: true}).Create(profile).Error
}

// LockByID row-locks the profile; callers serialize per-user balance changes on it.
func (r *profileRepository) LockByID(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	var profile model.Profile
	if err := lockedDB(ctx, r.db).
		First(&profile, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) UpdatePlan(ctx context.Context, id uuid.UUID, plan string) error {
	return GetDB(ctx, r.db).Model(&model.Profile{}).Where("id = ?", id).Update("subscription_plan", plan).Error
}
