package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"taskmind/internal/model"
	"taskmind/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type TaskFilter struct {
	Search   string
	Category string // "" or "all" for every category
}

type CreateTaskRequest struct {
	Title          string           `json:"title" binding:"required"`
	Description    string           `json:"description" binding:"required"`
	Category       string           `json:"category" binding:"required"`
	TotalClientFee decimal.Decimal  `json:"total_client_fee"`
	RewardAmount   *decimal.Decimal `json:"reward_amount"` // derived from the commission rate when omitted
}

type UpdateTaskStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// --- Interface ---

type CatalogService interface {
	List(ctx context.Context, filter TaskFilter) ([]model.Task, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Task, error)
	ListAll(ctx context.Context, status string) ([]model.Task, error)
	Create(ctx context.Context, actorID uuid.UUID, req CreateTaskRequest) (*model.Task, error)
	UpdateStatus(ctx context.Context, actorID, id uuid.UUID, status string) (*model.Task, error)
	Commission(ctx context.Context, fee decimal.Decimal) (model.Commission, error)
}

type catalogService struct {
	taskRepo  repository.TaskRepository
	auditRepo repository.AuditRepository
	settings  SettingsService
	txManager repository.TransactionManager
}

func NewCatalogService(taskRepo repository.TaskRepository, auditRepo repository.AuditRepository, settings SettingsService, txManager repository.TransactionManager) CatalogService {
	return &catalogService{taskRepo: taskRepo, auditRepo: auditRepo, settings: settings, txManager: txManager}
}

// --- Implementation ---

// List returns active tasks, newest first, narrowed by search text and category.
func (s *catalogService) List(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	tasks, err := s.taskRepo.ListByStatus(ctx, model.TaskStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tasks: %w", err)
	}
	return model.FilterTasks(tasks, filter.Search, filter.Category), nil
}

func (s *catalogService) Get(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch task: %w", err)
	}
	return task, nil
}

func (s *catalogService) ListAll(ctx context.Context, status string) ([]model.Task, error) {
	if status != "" && !model.IsValidTaskStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	tasks, err := s.taskRepo.ListByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tasks: %w", err)
	}
	return tasks, nil
}

func (s *catalogService) Create(ctx context.Context, actorID uuid.UUID, req CreateTaskRequest) (*model.Task, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" || strings.TrimSpace(req.Description) == "" {
		return nil, fmt.Errorf("%w: title and description are required", ErrInvalidInput)
	}
	if !model.IsValidCategory(req.Category) {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, req.Category)
	}
	if !req.TotalClientFee.IsPositive() {
		return nil, fmt.Errorf("%w: total_client_fee must be greater than 0", ErrInvalidInput)
	}

	var reward decimal.Decimal
	if req.RewardAmount != nil {
		reward = *req.RewardAmount
	} else {
		split, err := s.Commission(ctx, req.TotalClientFee)
		if err != nil {
			return nil, err
		}
		reward = split.WorkerReward
	}
	if !reward.IsPositive() || reward.GreaterThan(req.TotalClientFee) {
		return nil, fmt.Errorf("%w: reward_amount must be greater than 0 and at most total_client_fee", ErrInvalidInput)
	}

	task := &model.Task{
		Title:          title,
		Description:    strings.TrimSpace(req.Description),
		Category:       req.Category,
		RewardAmount:   reward,
		TotalClientFee: req.TotalClientFee,
		Status:         model.TaskStatusActive,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.taskRepo.Create(txCtx, task); err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionCreateTask, task.ID.String(), task.Title, map[string]interface{}{
			"category":         task.Category,
			"reward_amount":    task.RewardAmount.String(),
			"total_client_fee": task.TotalClientFee.String(),
		})
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *catalogService) UpdateStatus(ctx context.Context, actorID, id uuid.UUID, status string) (*model.Task, error) {
	if !model.IsValidTaskStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.taskRepo.UpdateStatus(txCtx, id, status); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("task %s: %w", id, ErrNotFound)
			}
			return fmt.Errorf("failed to update task status: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actorID, model.ActionUpdateTaskStatus, id.String(), "Task", map[string]interface{}{
			"status": status,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Commission splits a client fee with the current commission rate.
func (s *catalogService) Commission(ctx context.Context, fee decimal.Decimal) (model.Commission, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return model.Commission{}, err
	}
	return model.SplitFee(fee, settings.CommissionRate), nil
}
