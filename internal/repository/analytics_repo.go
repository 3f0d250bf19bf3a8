package repository

import (
	"context"
	"fmt"
	"time"

	"taskmind/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StatusCount is one row of a GROUP BY status query.
type StatusCount struct {
	Status string `gorm:"column:status"`
	Count  int64  `gorm:"column:count"`
}

type AnalyticsRepository interface {
	ApprovedRevenue(ctx context.Context, start, end time.Time) (decimal.Decimal, error)
	CompletedPayouts(ctx context.Context, start, end time.Time) (decimal.Decimal, error)
	SubmissionCounts(ctx context.Context, start, end time.Time) ([]StatusCount, error)
	CountTasks(ctx context.Context, status string) (int64, error)
	CountProfiles(ctx context.Context) (int64, error)
}

type analyticsRepository struct {
	db *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

// within bounds column to [start, end]; a zero time leaves that side open.
func within(query *gorm.DB, column string, start, end time.Time) *gorm.DB {
	if !start.IsZero() {
		query = query.Where(column+" >= ?", start)
	}
	if !end.IsZero() {
		query = query.Where(column+" <= ?", end)
	}
	return query
}

// ApprovedRevenue sums the client fee of every approved submission's task.
func (r *analyticsRepository) ApprovedRevenue(ctx context.Context, start, end time.Time) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal `gorm:"column:total"`
	}
	query := r.db.WithContext(ctx).Table("submissions").
		Select("COALESCE(SUM(tasks.total_client_fee), 0) AS total").
		Joins("JOIN tasks ON tasks.id = submissions.task_id").
		Where("submissions.status = ?", model.SubmissionApproved)
	if err := within(query, "submissions.created_at", start, end).Scan(&result).Error; err != nil {
		return decimal.Zero, fmt.Errorf("failed to query approved revenue: %w", err)
	}
	return result.Total, nil
}

func (r *analyticsRepository) CompletedPayouts(ctx context.Context, start, end time.Time) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal `gorm:"column:total"`
	}
	query := r.db.WithContext(ctx).Table("transactions").
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("type = ? AND status = ?", model.TxTypePayout, model.TxStatusCompleted)
	if err := within(query, "created_at", start, end).Scan(&result).Error; err != nil {
		return decimal.Zero, fmt.Errorf("failed to query completed payouts: %w", err)
	}
	return result.Total, nil
}

func (r *analyticsRepository) SubmissionCounts(ctx context.Context, start, end time.Time) ([]StatusCount, error) {
	var rows []StatusCount
	query := r.db.WithContext(ctx).Table("submissions").
		Select("status, COUNT(*) AS count")
	if err := within(query, "created_at", start, end).Group("status").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count submissions: %w", err)
	}
	return rows, nil
}

func (r *analyticsRepository) CountTasks(ctx context.Context, status string) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&model.Task{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *analyticsRepository) CountProfiles(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Profile{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
