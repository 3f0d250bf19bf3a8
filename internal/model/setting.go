package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Setting keys
const (
	SettingCommissionRate    = "commission_rate"
	SettingMinimumWithdrawal = "minimum_withdrawal"
)

// Setting is a platform-wide key/value pair edited by administrators.
type Setting struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Key   string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"key"`
	Value string    `gorm:"type:text;not null" json:"value"`
}

func (s *Setting) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
