package handler

import (
	"society_tickets/utils"

	"github.com/gofiber/fiber/v2"
)

// EnvCheck reports which integrations are configured without exposing any
// secret.
func (h *Handler) EnvCheck(c *fiber.Ctx) error {
	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"stripeMode":         h.payments.Mode(),
		"webhookSecretSet":   h.cfg.Stripe.WebhookSecret != "",
		"smtpConfigured":     h.cfg.Mail.Enabled(),
		"redisConfigured":    h.cfg.Redis.Enabled(),
		"cloudinaryEnabled":  h.cfg.Cloudinary.Enabled(),
		"appUrl":             h.cfg.App.URL,
		"environment":        h.cfg.App.Environment,
		"defaultCapacity":    h.cfg.Checkout.DefaultCapacity,
		"maxTicketsPerOrder": h.cfg.Checkout.MaxQuantity,
	})
}

func (h *Handler) Healthz(c *fiber.Ctx) error {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.UserContext())
	}
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable", "error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
