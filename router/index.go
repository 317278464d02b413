package router

import (
	"society_tickets/config"
	"society_tickets/handler"
	"society_tickets/middleware"
	"society_tickets/validate"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(app *fiber.App, h *handler.Handler, cfg *config.Settings) {
	rl := cfg.RateLimit
	general := middleware.RateLimit("general", rl.GeneralMax, rl.GeneralWindow)
	requireAdmin := middleware.RequireAdmin(h.Admins(), cfg.Auth)

	app.Get("/healthz", h.Healthz)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api", logger.New(), middleware.RequestID(), middleware.ContextRequestID())
	v1 := api.Group("/v1")

	// Provider callbacks are signed and must never be throttled.
	webhooks := v1.Group("/webhooks")
	webhooks.Post("/stripe", h.PaymentWebhook)
	webhooks.Post("/payment", h.PaymentWebhook)

	checkout := v1.Group("/checkout", general)
	checkout.Post("/session", middleware.RateLimit("checkout", rl.CheckoutMax, rl.CheckoutWindow), validate.CreateCheckout(), h.CreateCheckoutSession)
	checkout.Get("/success", h.CheckoutSuccess)

	v1.Get("/env-check", general, h.EnvCheck)

	events := v1.Group("/events", general)
	events.Get("/", h.ListEvents)
	events.Get("/:id", h.GetEvent)
	events.Post("/", requireAdmin, validate.CreateEvent(), h.CreateEvent)
	events.Put("/:id", requireAdmin, validate.GetById("id"), validate.EditEvent(), h.UpdateEvent)
	events.Delete("/:id", requireAdmin, validate.GetById("id"), h.DeleteEvent)
	events.Get("/:id/summary", requireAdmin, validate.GetById("id"), h.EventSummary)
	events.Get("/:id/attendees", requireAdmin, validate.GetById("id"), h.EventAttendees)
	events.Post("/:id/image", requireAdmin, validate.GetById("id"), h.UploadEventImage)

	auth := v1.Group("/auth", general)
	auth.Post("/login", middleware.RateLimit("login", rl.LoginMax, rl.LoginWindow), validate.Login(), h.Login)
	auth.Post("/logout", h.Logout)
	auth.Post("/register", middleware.OptionalAdmin(h.Admins(), cfg.Auth), validate.RegisterAdmin(), h.Register)
	auth.Get("/me", requireAdmin, h.Me)

	reset := v1.Group("/password-reset", middleware.RateLimit("login", rl.LoginMax, rl.LoginWindow))
	reset.Post("/request", validate.ForgotPassword(), h.RequestPasswordReset)
	reset.Get("/verify/:token", h.VerifyResetToken)
	reset.Post("/reset", validate.ResetPassword(), h.ResetPassword)

	admin := v1.Group("/admin", middleware.RateLimit("admin", rl.AdminMax, rl.AdminWindow), requireAdmin)
	admin.Get("/summary", h.AdminSummary)
	admin.Get("/attendees", h.ListAttendees)
	admin.Get("/attendees/:code", validate.BookingCode(), h.GetAttendeeByCode)
	admin.Post("/attendees/:code/checkin", validate.BookingCode(), h.Checkin)
	admin.Put("/attendees/:id", validate.GetById("id"), validate.EditAttendee(), h.UpdateAttendee)
	admin.Delete("/attendees/:id", validate.GetById("id"), h.DeleteAttendee)
	admin.Post("/toggle-checkin", validate.ToggleCheckin(), h.ToggleCheckin)
	admin.Get("/ws/checkins", handler.UpgradeCheckins, h.CheckinFeed())
}
