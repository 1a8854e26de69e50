package handlers

import (
	"context"

	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Subscriptions interface {
	Create(ctx context.Context, user *models.User, req *dto.CreateSubscriptionRequest, remoteIP string) (*dto.CreateSubscriptionResponse, error)
	Get(ctx context.Context, subscriptionID string, userID uuid.UUID) (*models.Subscription, error)
	Cancel(ctx context.Context, subscriptionID string, userID uuid.UUID) error
}

type SubscriptionHandler struct {
	subscriptions Subscriptions
}

func NewSubscriptionHandler(subscriptions Subscriptions) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptions: subscriptions}
}

func (h *SubscriptionHandler) Create(c *fiber.Ctx) error {
	user := middleware.Profile(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Code: "auth_error", Message: "Unauthorized",
		})
	}

	var req dto.CreateSubscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if err := req.Validate(); err != nil {
		return validationFailed(c, err)
	}

	resp, err := h.subscriptions.Create(c.UserContext(), user, &req, c.IP())
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *SubscriptionHandler) Get(c *fiber.Ctx) error {
	user := middleware.Profile(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Code: "auth_error", Message: "Unauthorized",
		})
	}

	sub, err := h.subscriptions.Get(c.UserContext(), c.Params("id"), user.ID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(dto.NewSubscriptionDetails(sub))
}

func (h *SubscriptionHandler) Cancel(c *fiber.Ctx) error {
	user := middleware.Profile(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Code: "auth_error", Message: "Unauthorized",
		})
	}

	if err := h.subscriptions.Cancel(c.UserContext(), c.Params("id"), user.ID); err != nil {
		return respondError(c, err)
	}

	return c.JSON(dto.MessageResponse{Message: "Subscription cancelled successfully"})
}
