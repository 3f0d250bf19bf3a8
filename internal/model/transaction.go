package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionType enum constants
const (
	TxTypeEarning = "earning"
	TxTypePayout  = "payout"
)

// TransactionStatus enum constants
const (
	TxStatusPending   = "pending"
	TxStatusCompleted = "completed"
	TxStatusFailed    = "failed"
)

// Transaction is one ledger row. Status moves from pending to completed or
// failed and never changes afterwards.
type Transaction struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_tx_user_idempotency" json:"user_id"`
	Type           string          `gorm:"type:varchar(10);not null;index" json:"type"`
	Amount         decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	Status         string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Description    string          `gorm:"type:text" json:"description"`
	Reference      string          `gorm:"type:varchar(100);index" json:"reference,omitempty"` // submission id or gateway payout id
	Destination    string          `gorm:"type:varchar(255)" json:"destination,omitempty"`     // UPI handle for payouts
	IdempotencyKey *string         `gorm:"type:varchar(100);uniqueIndex:idx_tx_user_idempotency" json:"-"`
	CreatedAt      time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// IsTerminal reports whether the transaction has settled.
func (t *Transaction) IsTerminal() bool {
	return t.Status == TxStatusCompleted || t.Status == TxStatusFailed
}
