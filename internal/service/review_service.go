package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskmind/internal/metrics"
	"taskmind/internal/model"
	"taskmind/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SubmissionFilter struct {
	Status string // pending, approved, rejected or empty for all
	Page   int
	Limit  int
}

type RejectRequestDTO struct {
	Reason string `json:"reason"`
}

// ReviewService is the admin gate that moves submissions out of pending.
type ReviewService interface {
	List(ctx context.Context, filter SubmissionFilter) ([]model.Submission, int64, error)
	Approve(ctx context.Context, submissionID, reviewerID uuid.UUID) (*model.Submission, error)
	Reject(ctx context.Context, submissionID, reviewerID uuid.UUID, reason string) (*model.Submission, error)
}

type reviewService struct {
	submissionRepo   repository.SubmissionRepository
	taskRepo         repository.TaskRepository
	transactionRepo  repository.TransactionRepository
	auditRepo        repository.AuditRepository
	txManager        repository.TransactionManager
	notifier         Notifier
	creditOnApproval bool
}

// NewReviewService builds the review gate. With creditOnApproval an approval
// also books the task reward as a completed earning.
func NewReviewService(
	submissionRepo repository.SubmissionRepository,
	taskRepo repository.TaskRepository,
	transactionRepo repository.TransactionRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier Notifier,
	creditOnApproval bool,
) ReviewService {
	return &reviewService{
		submissionRepo:   submissionRepo,
		taskRepo:         taskRepo,
		transactionRepo:  transactionRepo,
		auditRepo:        auditRepo,
		txManager:        txManager,
		notifier:         notifierOrNop(notifier),
		creditOnApproval: creditOnApproval,
	}
}

func (s *reviewService) List(ctx context.Context, filter SubmissionFilter) ([]model.Submission, int64, error) {
	if filter.Status != "" && filter.Status != model.SubmissionPending &&
		filter.Status != model.SubmissionApproved && filter.Status != model.SubmissionRejected {
		return nil, 0, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, filter.Status)
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	subs, total, err := s.submissionRepo.List(ctx, filter.Status, filter.Page, filter.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch submissions: %w", err)
	}
	return subs, total, nil
}

func (s *reviewService) Approve(ctx context.Context, submissionID, reviewerID uuid.UUID) (*model.Submission, error) {
	return s.decide(ctx, submissionID, reviewerID, model.SubmissionApproved, "")
}

func (s *reviewService) Reject(ctx context.Context, submissionID, reviewerID uuid.UUID, reason string) (*model.Submission, error) {
	return s.decide(ctx, submissionID, reviewerID, model.SubmissionRejected, reason)
}

// decide applies a terminal status once. Repeating the same decision returns
// the stored submission untouched; the opposite decision is refused.
func (s *reviewService) decide(ctx context.Context, submissionID, reviewerID uuid.UUID, status, reason string) (*model.Submission, error) {
	replay := false

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		sub, err := s.submissionRepo.FindByIDForUpdate(txCtx, submissionID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("submission %s: %w", submissionID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to fetch submission: %w", err)
		}

		if sub.IsTerminal() {
			if sub.Status == status {
				replay = true
				return nil
			}
			return fmt.Errorf("%w: submission is already %s", ErrSubmissionAlreadyReviewed, sub.Status)
		}

		now := time.Now()
		sub.Status = status
		sub.ReviewedBy = &reviewerID
		sub.ReviewedAt = &now
		sub.RejectionReason = reason
		if err := s.submissionRepo.Update(txCtx, sub); err != nil {
			return fmt.Errorf("failed to update submission: %w", err)
		}

		action := model.ActionApproveSubmission
		if status == model.SubmissionRejected {
			action = model.ActionRejectSubmission
		}
		if err := writeAudit(txCtx, s.auditRepo, reviewerID, action, sub.ID.String(), "Submission", map[string]interface{}{
			"task_id": sub.TaskID.String(),
			"user_id": sub.UserID.String(),
			"reason":  reason,
		}); err != nil {
			return err
		}

		if status == model.SubmissionApproved && s.creditOnApproval {
			return s.creditReward(txCtx, sub, reviewerID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sub, err := s.submissionRepo.FindByID(ctx, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload submission: %w", err)
	}

	if !replay {
		metrics.RecordReview(status)
		s.notifier.Publish(EventSubmissionReviewed, sub)
	}
	return sub, nil
}

// creditReward books the task reward for an approved submission, at most once.
func (s *reviewService) creditReward(ctx context.Context, sub *model.Submission, reviewerID uuid.UUID) error {
	existing, err := s.transactionRepo.FindEarningForSubmission(ctx, sub.ID)
	if err != nil {
		return fmt.Errorf("failed to check existing earning: %w", err)
	}
	if existing != nil {
		return nil
	}

	task, err := s.taskRepo.FindByID(ctx, sub.TaskID)
	if err != nil {
		return fmt.Errorf("failed to fetch task for reward: %w", err)
	}

	earning := &model.Transaction{
		UserID:      sub.UserID,
		Type:        model.TxTypeEarning,
		Amount:      task.RewardAmount,
		Status:      model.TxStatusCompleted,
		Description: "Reward for task: " + task.Title,
		Reference:   sub.ID.String(),
	}
	if err := s.transactionRepo.Create(ctx, earning); err != nil {
		return fmt.Errorf("failed to credit earning: %w", err)
	}

	return writeAudit(ctx, s.auditRepo, reviewerID, model.ActionCreditEarning, earning.ID.String(), "Transaction", map[string]interface{}{
		"submission_id": sub.ID.String(),
		"amount":        earning.Amount.String(),
	})
}
