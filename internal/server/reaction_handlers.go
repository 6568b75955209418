package server

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Tatiana-20/tati-blog/internal/models"
	"github.com/Tatiana-20/tati-blog/internal/service"
)

// CreateReaction handles POST /api/reactions
func (s *Server) CreateReaction(c *fiber.Ctx) error {
	var req struct {
		PostID uint                `json:"post_id"`
		Type   models.ReactionType `json:"type"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.PostID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("post_id is required"))
	}

	reaction, err := s.reactionService.React(c.UserContext(), service.ReactInput{
		UserID: currentUserID(c),
		PostID: req.PostID,
		Type:   req.Type,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(reaction)
}

// GetPostReactions handles GET /api/posts/:id/reactions
func (s *Server) GetPostReactions(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	page := parsePagination(c, 50)
	reactions, err := s.reactionService.ListReactions(c.UserContext(), postID, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(reactions)
}

// DeleteReaction handles DELETE /api/reactions/:id
func (s *Server) DeleteReaction(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.reactionService.RemoveReaction(c.UserContext(), currentUserID(c), id); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Reaction removed"})
}
