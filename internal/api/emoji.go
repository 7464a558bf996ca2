package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/illegalcall/emoji-maker/internal/models"
	"github.com/illegalcall/emoji-maker/internal/service"
)

// handleGenerate handles POST /api/generate. This endpoint keeps the plain
// text error bodies its consumers already expect; the JSON error shape is
// used everywhere else.
func (s *Server) handleGenerate(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
	}

	var req models.GenerateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Prompt is required")
	}
	if req.Prompt == "" {
		return c.Status(fiber.StatusBadRequest).SendString("Prompt is required")
	}

	emoji, err := s.emojis.Generate(c.Context(), userID, req.Prompt)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyPrompt):
			return c.Status(fiber.StatusBadRequest).SendString("Prompt is required")
		case errors.Is(err, service.ErrUnauthenticated):
			return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
		default:
			return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
		}
	}

	return c.JSON(models.GenerateResponse{
		Images: []string{emoji.ImageURL},
		Data:   emoji,
	})
}

func (s *Server) handleListEmojis(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	emojis, err := s.emojis.List(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch emojis"})
	}
	if emojis == nil {
		emojis = []models.Emoji{}
	}

	return c.JSON(fiber.Map{"emojis": emojis})
}

func (s *Server) handleLikedEmojis(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	ids, err := s.emojis.LikedEmojiIDs(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch liked emojis"})
	}
	if ids == nil {
		ids = []int{}
	}

	return c.JSON(fiber.Map{"liked_emoji_ids": ids})
}

func (s *Server) handleToggleLike(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	emojiID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid emoji ID"})
	}

	liked, err := s.emojis.ToggleLike(c.Context(), userID, emojiID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to toggle like"})
	}

	return c.JSON(models.ToggleLikeResponse{Liked: liked})
}

func (s *Server) handleDeleteEmoji(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	emojiID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid emoji ID"})
	}

	if err := s.emojis.Delete(c.Context(), userID, emojiID); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Emoji not found or you do not have permission to delete it",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete emoji"})
	}

	return c.JSON(fiber.Map{"success": true})
}
