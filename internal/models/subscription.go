package models

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatusCancelled is the local terminal status written after the
// gateway confirms a cancellation.
const SubscriptionStatusCancelled = "cancelled"

type Subscription struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	SubscriptionID string    `gorm:"size:64;not null;uniqueIndex" json:"subscription_id"`
	Status         string    `gorm:"size:50;not null" json:"status"`
	Plan           string    `gorm:"size:100;not null" json:"plan"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
