package handlers

import (
	"context"

	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Onboarding interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*services.RegisterResult, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Logout(ctx context.Context, userID uuid.UUID, accessToken string) error
}

type AuthHandler struct {
	onboarding Onboarding
}

func NewAuthHandler(onboarding Onboarding) *AuthHandler {
	return &AuthHandler{onboarding: onboarding}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if err := req.Validate(); err != nil {
		return validationFailed(c, err)
	}

	res, err := h.onboarding.Register(c.UserContext(), &req)
	if err != nil {
		return respondError(c, err)
	}

	if res.Degraded() {
		return c.Status(fiber.StatusCreated).JSON(dto.RegisteredResponse{
			Message: "User registered, but the profile could not be loaded",
			UserID:  res.UserID,
		})
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewUserProfile(res.Profile))
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if err := req.Validate(); err != nil {
		return validationFailed(c, err)
	}

	resp, err := h.onboarding.Login(c.UserContext(), &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(resp)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Code: "auth_error", Message: "Unauthorized",
		})
	}

	if err := h.onboarding.Logout(c.UserContext(), userID, middleware.AccessToken(c)); err != nil {
		return respondError(c, err)
	}

	return c.JSON(dto.MessageResponse{Message: "Logged out successfully"})
}
