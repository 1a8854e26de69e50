package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) Create(ctx context.Context, sub *models.Subscription) error {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(sub).Error
}

// FindOwned returns the subscription only when it belongs to userID.
func (r *SubscriptionRepository) FindOwned(ctx context.Context, subscriptionID string, userID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.WithContext(ctx).
		Where("subscription_id = ? AND user_id = ?", subscriptionID, userID).
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}
	return &sub, nil
}

// MarkCancelled sets the local terminal status and reports how many rows
// changed. Zero means the row vanished or changed owner in the meantime.
func (r *SubscriptionRepository) MarkCancelled(ctx context.Context, subscriptionID string, userID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("subscription_id = ? AND user_id = ?", subscriptionID, userID).
		Update("status", models.SubscriptionStatusCancelled)
	return res.RowsAffected, res.Error
}
