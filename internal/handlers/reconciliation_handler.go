package handlers

import (
	"context"

	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Reconciliation interface {
	ListOpen(ctx context.Context, limit int) ([]models.ReconciliationIssue, error)
	Resolve(ctx context.Context, id uuid.UUID) error
}

type ReconciliationHandler struct {
	reconciliation Reconciliation
}

func NewReconciliationHandler(reconciliation Reconciliation) *ReconciliationHandler {
	return &ReconciliationHandler{reconciliation: reconciliation}
}

func (h *ReconciliationHandler) List(c *fiber.Ctx) error {
	issues, err := h.reconciliation.ListOpen(c.UserContext(), c.QueryInt("limit", 100))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ReconciliationIssuesResponse{Issues: issues, Count: len(issues)})
}

func (h *ReconciliationHandler) Resolve(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Code: "validation_error", Message: "Invalid issue ID",
		})
	}

	if err := h.reconciliation.Resolve(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "Issue resolved"})
}
