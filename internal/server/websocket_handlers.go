package server

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/Tatiana-20/tati-blog/internal/middleware"
	"github.com/Tatiana-20/tati-blog/internal/notifications"
)

// WebsocketUpgrade gates /api/ws behind a real upgrade request. The bearer
// token travels into the connection via locals; authentication happens after
// the upgrade so clients get an error frame instead of a failed handshake.
func (s *Server) WebsocketUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	c.Locals("wsToken", middleware.ExtractToken(c))
	return c.Next()
}

// WebsocketHandler handles GET /api/ws: the realtime notification channel.
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		ctx := context.Background()

		token, _ := conn.Locals("wsToken").(string)
		user, err := s.authService.ValidateAccessToken(ctx, token)
		if err != nil {
			_ = conn.WriteMessage(websocket.TextMessage,
				notifications.ErrorFrame("No autorizado: token inválido o ausente"))
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(conn, user.ID, user.Email)
		if err != nil {
			_ = conn.WriteMessage(websocket.TextMessage, notifications.ErrorFrame(err.Error()))
			_ = conn.Close()
			return
		}

		middleware.Logger.Info("websocket connected",
			slog.Any("user_id", user.ID), slog.String("email", user.Email))

		go client.WritePump()
		client.ReadPump()
	})
}
