package middleware

import (
	"lessonfolders/internal/types"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// RequireRole must run after RequireAuth.
func (m *Middleware) RequireRole(role types.Role) fiber.Handler {
	log := m.log.Function("RequireRole")

	return func(c *fiber.Ctx) error {
		userID := GetUserID(c)
		if userID == uuid.Nil {
			log.Info("user not found in context")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}

		roles, err := m.roles.RolesOf(c.UserContext(), userID)
		if err != nil {
			log.Er("failed to resolve roles", err, "userID", userID)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Directory unavailable",
			})
		}

		if !roles.Has(role) {
			log.Info("missing required role", "userID", userID, "role", role.String())
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": role.String() + " role required",
			})
		}

		return c.Next()
	}
}
