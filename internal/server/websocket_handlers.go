package server

import (
	"encoding/json"

	"inkwell/internal/middleware"
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebSocketUpgrade rejects plain HTTP requests on websocket routes.
func (s *Server) WebSocketUpgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return models.RespondWithError(c, fiber.StatusUpgradeRequired,
			models.NewValidationError("WebSocket upgrade required"))
	}
}

// PostEventsHandler streams the events of one published post: comment and
// reaction changes, archive state and reader counts. Anonymous readers may
// follow; a token identifies the reader when present.
func (s *Server) PostEventsHandler() fiber.Handler {
	upgrade := websocket.New(func(conn *websocket.Conn) {
		postID, _ := conn.Locals("postID").(uint)
		userID, _ := conn.Locals("userID").(uint)

		client, err := s.hub.Register(postID, userID, conn)
		if err != nil {
			middleware.Logger.Warn("post follower rejected", "post_id", postID, "error", err)
			msg, _ := json.Marshal(fiber.Map{"error": err.Error()})
			_ = conn.WriteMessage(websocket.TextMessage, msg)
			_ = conn.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})

	return func(c *fiber.Ctx) error {
		id, err := parseID(c, "id")
		if err != nil {
			return nil
		}
		if err := s.postService.EnsureVisible(c.UserContext(), id); err != nil {
			return respondError(c, err)
		}
		c.Locals("postID", id)
		return upgrade(c)
	}
}
