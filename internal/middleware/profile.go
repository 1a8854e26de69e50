package middleware

import (
	"context"

	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ProfileLoader interface {
	Current(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

// CurrentProfile loads the profile of the authenticated account. It must run
// after JWTProtected.
func CurrentProfile(profiles ProfileLoader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := UserID(c)
		if err != nil {
			return unauthorized(c)
		}

		user, err := profiles.Current(c.UserContext(), userID)
		if err != nil {
			status, body := dto.NewErrorResponse(err)
			return c.Status(status).JSON(body)
		}

		c.Locals(profileKey, user)
		return c.Next()
	}
}
