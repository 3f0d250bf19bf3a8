package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SubmissionType enum constants
const (
	SubmissionTypeImage = "image"
	SubmissionTypeText  = "text"
)

// SubmissionStatus enum constants
const (
	SubmissionPending  = "pending"
	SubmissionApproved = "approved"
	SubmissionRejected = "rejected"
)

// Submission is the work a user hands in against a task.
// Status moves from pending to approved or rejected exactly once.
type Submission struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	TaskID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"task_id"`
	Task            *Task      `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	SubmissionType  string     `gorm:"type:varchar(10);not null" json:"submission_type"`
	SubmissionURL   *string    `gorm:"type:text" json:"submission_url"`
	SubmissionText  *string    `gorm:"type:text" json:"submission_text"`
	Status          string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ReviewedBy      *uuid.UUID `gorm:"type:uuid" json:"reviewed_by"`
	ReviewedAt      *time.Time `json:"reviewed_at"`
	RejectionReason string     `gorm:"type:text" json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (s *Submission) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return s.Validate()
}

// Validate checks that exactly one of SubmissionURL and SubmissionText is
// set and that it matches SubmissionType.
func (s *Submission) Validate() error {
	hasURL := s.SubmissionURL != nil && *s.SubmissionURL != ""
	hasText := s.SubmissionText != nil && *s.SubmissionText != ""
	switch s.SubmissionType {
	case SubmissionTypeImage:
		if !hasURL || hasText {
			return errors.New("image submissions carry a url and no text")
		}
	case SubmissionTypeText:
		if !hasText || hasURL {
			return errors.New("text submissions carry text and no url")
		}
	default:
		return errors.New("submission_type must be image or text")
	}
	return nil
}

// IsTerminal reports whether the submission has already been reviewed.
func (s *Submission) IsTerminal() bool {
	return s.Status == SubmissionApproved || s.Status == SubmissionRejected
}
