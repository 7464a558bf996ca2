package api

import (
	"github.com/gofiber/fiber/v2"
)

// handleEnsureProfile makes sure a profile row exists for the caller,
// creating it with default credits and tier on first contact.
func (s *Server) handleEnsureProfile(c *fiber.Ctx) error {
	userID := userIDFromContext(c)

	profile, err := s.profiles.EnsureProfile(c.Context(), userID)
	if err != nil {
		s.logger.Error("Failed to ensure profile", "user_id", userID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to ensure profile",
		})
	}
	if profile == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	return c.JSON(fiber.Map{"profile": profile})
}
