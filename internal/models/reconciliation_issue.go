package models

import (
	"time"

	"github.com/google/uuid"
)

// Reconciliation issue kinds. Each one names a cross-system state that the
// workflows cannot repair on their own.
const (
	IssueOrphanedAccount          = "orphaned_account"
	IssueOrphanedBillingCustomer  = "orphaned_billing_customer"
	IssueSubscriptionNotPersisted = "subscription_not_persisted"
	IssueCancellationNotPersisted = "cancellation_not_persisted"
)

type ReconciliationIssue struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Kind        string     `gorm:"size:50;not null;index" json:"kind"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	ExternalRef string     `gorm:"size:64" json:"external_ref,omitempty"`
	Detail      string     `gorm:"type:text" json:"detail"`
	ResolvedAt  *time.Time `gorm:"index" json:"resolved_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
