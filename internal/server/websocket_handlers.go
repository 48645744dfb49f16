package server

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// LiveFeedHandler upgrades GET /api/ws to the live feed. AuthRequired runs
// first and stores the caller in locals.
func (s *Server) LiveFeedHandler() fiber.Handler {
	upgrade := websocket.New(func(conn *websocket.Conn) {
		userID, ok := conn.Locals("userID").(string)
		if !ok || userID == "" {
			_ = conn.WriteJSON(fiber.Map{"error": "unauthorized"})
			_ = conn.Close()
			return
		}

		sub, err := s.hub.Subscribe(userID, conn)
		if err != nil {
			slog.Warn("live feed subscription rejected", "user_id", userID, "error", err)
			_ = conn.WriteJSON(fiber.Map{"error": err.Error()})
			_ = conn.Close()
			return
		}
		sub.Run()
	})

	return func(c *fiber.Ctx) error {
		if s.hub == nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "Live feed unavailable")
		}
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return upgrade(c)
	}
}
