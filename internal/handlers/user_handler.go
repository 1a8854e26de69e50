package handlers

import (
	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
)

type UserHandler struct{}

func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// Me returns the profile loaded by middleware.CurrentProfile.
func (h *UserHandler) Me(c *fiber.Ctx) error {
	user := middleware.Profile(c)
	if user == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Code: "not_found", Message: "user profile not found",
		})
	}
	return c.JSON(dto.NewUserProfile(user))
}
