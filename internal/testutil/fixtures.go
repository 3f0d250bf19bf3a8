package testutil

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"taskmind/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const TestSecret = "test-secret"

// Token signs an HS256 access token the way the auth provider does.
func Token(t *testing.T, userID uuid.UUID, email string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID.String(),
		"email": email,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(TestSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func CreateProfile(t *testing.T, db *gorm.DB, role string) *model.Profile {
	t.Helper()
	p := &model.Profile{
		ID:               uuid.New(),
		Email:            role + "@taskmind.test",
		Role:             role,
		SubscriptionPlan: "free",
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}
	return p
}

func CreateTask(t *testing.T, db *gorm.DB, title string, reward, fee string, status string) *model.Task {
	t.Helper()
	task := &model.Task{
		Title:          title,
		Description:    "Description of " + title,
		Category:       model.CategoryTextReview,
		RewardAmount:   decimal.RequireFromString(reward),
		TotalClientFee: decimal.RequireFromString(fee),
		Status:         status,
	}
	if err := db.Create(task).Error; err != nil {
		t.Fatalf("failed to create task: %v", err)
	}
	return task
}

func CreateTextSubmission(t *testing.T, db *gorm.DB, userID, taskID uuid.UUID) *model.Submission {
	t.Helper()
	text := "my answer"
	sub := &model.Submission{
		UserID:         userID,
		TaskID:         taskID,
		SubmissionType: model.SubmissionTypeText,
		SubmissionText: &text,
		Status:         model.SubmissionPending,
	}
	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("failed to create submission: %v", err)
	}
	return sub
}

// CreateTransaction inserts a ledger row with the given type, status and amount.
func CreateTransaction(t *testing.T, db *gorm.DB, userID uuid.UUID, txType, status, amount string) *model.Transaction {
	t.Helper()
	tx := &model.Transaction{
		UserID:      userID,
		Type:        txType,
		Amount:      decimal.RequireFromString(amount),
		Status:      status,
		Description: txType,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create transaction: %v", err)
	}
	return tx
}

// MemoryStore is an ObjectStore that keeps objects in memory.
type MemoryStore struct {
	mu      sync.Mutex
	Objects map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{Objects: make(map[string][]byte)}
}

func (s *MemoryStore) Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Objects[key] = buf.Bytes()
	return "memory://submissions/" + key, nil
}

// RecordingNotifier remembers every published event name.
type RecordingNotifier struct {
	mu     sync.Mutex
	Events []string
}

func (n *RecordingNotifier) Publish(event string, data interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Events = append(n.Events, event)
}

func (n *RecordingNotifier) Count(event string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, e := range n.Events {
		if e == event {
			c++
		}
	}
	return c
}
