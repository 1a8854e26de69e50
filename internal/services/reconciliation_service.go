package services

import (
	"context"
	"errors"

	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/repository"
	"github.com/google/uuid"
)

var ErrIssueNotFound = errors.New("reconciliation issue not found or already resolved")

type IssueStore interface {
	ListOpen(ctx context.Context, limit int) ([]models.ReconciliationIssue, error)
	Resolve(ctx context.Context, id uuid.UUID) error
}

// ReconciliationService lets operators work through the states the
// workflows could not repair themselves.
type ReconciliationService struct {
	issues IssueStore
}

func NewReconciliationService(issues IssueStore) *ReconciliationService {
	return &ReconciliationService{issues: issues}
}

func (s *ReconciliationService) ListOpen(ctx context.Context, limit int) ([]models.ReconciliationIssue, error) {
	issues, err := s.issues.ListOpen(ctx, limit)
	if err != nil {
		return nil, apperr.Internal(err, "")
	}
	return issues, nil
}

func (s *ReconciliationService) Resolve(ctx context.Context, id uuid.UUID) error {
	err := s.issues.Resolve(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(ErrIssueNotFound, id.String())
	}
	if err != nil {
		return apperr.Internal(err, "")
	}
	return nil
}
