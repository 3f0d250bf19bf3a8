package model

import (
	"time"

	"github.com/google/uuid"
)

// Role constants
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Profile mirrors an account of the external auth provider; ID is the
// provider's user id (the JWT subject).
type Profile struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FullName         *string   `gorm:"type:varchar(255)" json:"full_name"`
	AvatarURL        *string   `gorm:"type:text" json:"avatar_url"`
	Email            string    `gorm:"type:varchar(255);index" json:"email"`
	Role             string    `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	SubscriptionPlan string    `gorm:"type:varchar(20);not null;default:'free'" json:"subscription_plan"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
