package middleware

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const profileKey = "profile"

// UserID extracts the account UUID from the verified token's sub claim.
func UserID(c *fiber.Ctx) (uuid.UUID, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return uuid.Nil, errors.New("invalid token in context")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, errors.New("invalid claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, errors.New("missing sub claim")
	}

	return uuid.Parse(sub)
}

// AccessToken returns the raw bearer token of the current request.
func AccessToken(c *fiber.Ctx) string {
	if token, ok := c.Locals("user").(*jwt.Token); ok {
		return token.Raw
	}
	return ""
}

// Profile returns the profile loaded by CurrentProfile.
func Profile(c *fiber.Ctx) *models.User {
	if u, ok := c.Locals(profileKey).(*models.User); ok {
		return u
	}
	return nil
}
