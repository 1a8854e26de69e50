package dto

import "github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/models"

type ReconciliationIssuesResponse struct {
	Issues []models.ReconciliationIssue `json:"issues"`
	Count  int                          `json:"count"`
}
