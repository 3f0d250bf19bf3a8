package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TaskCategory enum constants
const (
	CategoryPhotoVerification = "photo_verification"
	CategoryVoiceRecording    = "voice_recording"
	CategoryTextReview        = "text_review"
	CategoryDataEntry         = "data_entry"
	CategoryOther             = "other"

	// CategoryAll disables category filtering in the catalog.
	CategoryAll = "all"
)

// TaskStatus enum constants
const (
	TaskStatusActive   = "active"
	TaskStatusInactive = "inactive"
	TaskStatusArchived = "archived"
)

// CategoryLabels maps categories to their display names.
var CategoryLabels = map[string]string{
	CategoryPhotoVerification: "Photo Verification",
	CategoryVoiceRecording:    "Voice Recording",
	CategoryTextReview:        "Text Review",
	CategoryDataEntry:         "Data Entry",
	CategoryOther:             "Other",
}

// Task is a unit of paid work published by an administrator.
// Tasks are never deleted, only archived.
type Task struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Title          string          `gorm:"type:varchar(255);not null" json:"title"`
	Description    string          `gorm:"type:text;not null" json:"description"`
	Category       string          `gorm:"type:varchar(30);not null;index" json:"category"`
	RewardAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"reward_amount"`    // paid to the worker
	TotalClientFee decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total_client_fee"` // charged to the client
	Status         string          `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	CreatedAt      time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// IsValidCategory reports whether c is one of the task categories.
func IsValidCategory(c string) bool {
	_, ok := CategoryLabels[c]
	return ok
}

// IsValidTaskStatus reports whether s is one of the task statuses.
func IsValidTaskStatus(s string) bool {
	return s == TaskStatusActive || s == TaskStatusInactive || s == TaskStatusArchived
}

// FilterTasks keeps the tasks whose title or description contains search
// (case-insensitive) and whose category equals category. An empty search
// matches everything; an empty or "all" category matches every category.
func FilterTasks(tasks []Task, search, category string) []Task {
	needle := strings.ToLower(strings.TrimSpace(search))
	filtered := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if needle != "" &&
			!strings.Contains(strings.ToLower(t.Title), needle) &&
			!strings.Contains(strings.ToLower(t.Description), needle) {
			continue
		}
		if category != "" && category != CategoryAll && t.Category != category {
			continue
		}
		filtered = append(filtered, t)
	}
	return filtered
}
