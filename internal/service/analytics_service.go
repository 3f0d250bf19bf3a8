package service

import (
	"context"
	"fmt"
	"time"

	"taskmind/internal/model"
	"taskmind/internal/repository"
)

// Window bounds analytics on created_at. A zero bound is open.
type Window struct {
	Start time.Time
	End   time.Time
}

type AnalyticsService interface {
	Summarize(ctx context.Context, window Window) (model.RevenueAnalytics, error)
}

type analyticsService struct {
	repo repository.AnalyticsRepository
}

func NewAnalyticsService(repo repository.AnalyticsRepository) AnalyticsService {
	return &analyticsService{repo: repo}
}

// Summarize aggregates platform revenue from the ledger tables: revenue is
// the client fee of every approved submission, payouts are completed payout
// rows, and profit is their difference.
func (s *analyticsService) Summarize(ctx context.Context, window Window) (model.RevenueAnalytics, error) {
	if !window.Start.IsZero() && !window.End.IsZero() && window.End.Before(window.Start) {
		return model.RevenueAnalytics{}, fmt.Errorf("%w: end_date is before start_date", ErrInvalidInput)
	}

	var res model.RevenueAnalytics
	if !window.Start.IsZero() {
		start := window.Start
		res.TimeRangeStartDate = &start
	}
	if !window.End.IsZero() {
		end := window.End
		res.TimeRangeEndDate = &end
	}

	revenue, err := s.repo.ApprovedRevenue(ctx, window.Start, window.End)
	if err != nil {
		return model.RevenueAnalytics{}, fmt.Errorf("failed to sum revenue: %w", err)
	}
	payouts, err := s.repo.CompletedPayouts(ctx, window.Start, window.End)
	if err != nil {
		return model.RevenueAnalytics{}, fmt.Errorf("failed to sum payouts: %w", err)
	}
	res.TotalRevenue = revenue
	res.TotalPayouts = payouts
	res.AdminProfit = revenue.Sub(payouts)

	counts, err := s.repo.SubmissionCounts(ctx, window.Start, window.End)
	if err != nil {
		return model.RevenueAnalytics{}, fmt.Errorf("failed to count submissions: %w", err)
	}
	for _, c := range counts {
		switch c.Status {
		case model.SubmissionPending:
			res.PendingSubmissions = c.Count
		case model.SubmissionApproved:
			res.ApprovedSubmissions = c.Count
		case model.SubmissionRejected:
			res.RejectedSubmissions = c.Count
		}
	}

	if res.ActiveTasks, err = s.repo.CountTasks(ctx, model.TaskStatusActive); err != nil {
		return model.RevenueAnalytics{}, fmt.Errorf("failed to count tasks: %w", err)
	}
	if res.TotalUsers, err = s.repo.CountProfiles(ctx); err != nil {
		return model.RevenueAnalytics{}, fmt.Errorf("failed to count users: %w", err)
	}
	return res, nil
}
