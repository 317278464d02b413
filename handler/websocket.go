package handler

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// UpgradeCheckins only lets websocket handshakes through to CheckinFeed.
func UpgradeCheckins(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// CheckinFeed streams check-in events to a connected scanner or dashboard.
func (h *Handler) CheckinFeed() fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		h.hub.Serve(c)
	})
}
