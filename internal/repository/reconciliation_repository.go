package repository

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReconciliationRepository struct {
	db *gorm.DB
}

func NewReconciliationRepository(db *gorm.DB) *ReconciliationRepository {
	return &ReconciliationRepository{db: db}
}

func (r *ReconciliationRepository) Record(ctx context.Context, issue *models.ReconciliationIssue) error {
	if issue.ID == uuid.Nil {
		issue.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(issue).Error
}

// ListOpen returns unresolved issues, oldest first.
func (r *ReconciliationRepository) ListOpen(ctx context.Context, limit int) ([]models.ReconciliationIssue, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var issues []models.ReconciliationIssue
	err := r.db.WithContext(ctx).
		Where("resolved_at IS NULL").
		Order("created_at ASC").
		Limit(limit).
		Find(&issues).Error
	return issues, err
}

func (r *ReconciliationRepository) Resolve(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&models.ReconciliationIssue{}).
		Where("id = ? AND resolved_at IS NULL", id).
		Update("resolved_at", time.Now())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
