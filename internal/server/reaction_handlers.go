package server

import "github.com/gofiber/fiber/v2"

// GetReactions handles GET /api/posts/:id/reactions
// @Summary Reaction counts and the caller's reaction
// @Tags reactions
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.ReactionSummary
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/reactions [get]
func (s *Server) GetReactions(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	summary, err := s.reactionService.Summary(c.UserContext(), postID, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}

// SetReaction handles PUT /api/posts/:id/reactions. An empty type removes
// the caller's reaction.
// @Summary Set or clear the caller's reaction
// @Tags reactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body object{type=string} true "like, dislike or empty"
// @Success 200 {object} models.ReactionSummary
// @Failure 400 {object} models.ErrorResponse
// @Router /posts/{id}/reactions [put]
func (s *Server) SetReaction(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Type string `json:"type"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	summary, err := s.reactionService.SetReaction(c.UserContext(), currentUserID(c), postID, req.Type)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}
