package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"taskmind/internal/model"
	"taskmind/internal/repository"
	"taskmind/internal/storage"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Upload is an image handed in with a submission.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type CreateSubmissionRequest struct {
	UserID uuid.UUID
	TaskID uuid.UUID
	Type   string
	Text   string
	File   *Upload
}

type SubmissionService interface {
	Create(ctx context.Context, req CreateSubmissionRequest) (*model.Submission, error)
	ListMine(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.Submission, int64, error)
}

type submissionService struct {
	submissionRepo repository.SubmissionRepository
	taskRepo       repository.TaskRepository
	store          storage.ObjectStore
	notifier       Notifier
	now            func() time.Time
}

// NewSubmissionService accepts a nil store; image submissions are then refused.
func NewSubmissionService(submissionRepo repository.SubmissionRepository, taskRepo repository.TaskRepository, store storage.ObjectStore, notifier Notifier) SubmissionService {
	return &submissionService{
		submissionRepo: submissionRepo,
		taskRepo:       taskRepo,
		store:          store,
		notifier:       notifierOrNop(notifier),
		now:            time.Now,
	}
}

func (s *submissionService) Create(ctx context.Context, req CreateSubmissionRequest) (*model.Submission, error) {
	task, err := s.taskRepo.FindByID(ctx, req.TaskID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("task %s: %w", req.TaskID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch task: %w", err)
	}
	if task.Status != model.TaskStatusActive {
		return nil, ErrTaskInactive
	}

	sub := &model.Submission{
		UserID:         req.UserID,
		TaskID:         req.TaskID,
		SubmissionType: req.Type,
		Status:         model.SubmissionPending,
	}

	switch req.Type {
	case model.SubmissionTypeImage:
		if req.File == nil {
			return nil, fmt.Errorf("%w: image submissions need a file", ErrInvalidSubmission)
		}
		if s.store == nil {
			return nil, fmt.Errorf("%w: image uploads are not configured", ErrInvalidSubmission)
		}
		url, err := s.store.Put(ctx, s.objectKey(req.UserID, req.File.Filename), req.File.ContentType, req.File.Body, req.File.Size)
		if err != nil {
			return nil, fmt.Errorf("failed to store submission image: %w", err)
		}
		sub.SubmissionURL = &url
	case model.SubmissionTypeText:
		text := strings.TrimSpace(req.Text)
		if text == "" {
			return nil, fmt.Errorf("%w: text submissions need text", ErrInvalidSubmission)
		}
		sub.SubmissionText = &text
	default:
		return nil, fmt.Errorf("%w: submission_type must be image or text", ErrInvalidSubmission)
	}

	if err := s.submissionRepo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}
	sub.Task = task

	s.notifier.Publish(EventSubmissionCreated, sub)
	return sub, nil
}

// objectKey is <userID>/<unix-ms>.<ext>.
func (s *submissionService) objectKey(userID uuid.UUID, filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" {
		ext = "jpg"
	}
	return fmt.Sprintf("%s/%d.%s", userID, s.now().UnixMilli(), ext)
}

func (s *submissionService) ListMine(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.Submission, int64, error) {
	subs, total, err := s.submissionRepo.ListByUser(ctx, userID, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch submissions: %w", err)
	}
	return subs, total, nil
}
