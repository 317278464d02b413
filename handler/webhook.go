package handler

import (
	"society_tickets/constants"
	"society_tickets/metrics"
	"society_tickets/model"
	"society_tickets/payment"
	"society_tickets/reconcile"
	"society_tickets/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// PaymentWebhook turns verified payment notifications into attendees.
// Failures that a redelivery could fix answer 500 so the provider retries;
// everything else is acknowledged.
func (h *Handler) PaymentWebhook(c *fiber.Ctx) error {
	ctx := c.UserContext()
	log := h.log.WithContext(ctx)

	event, err := h.payments.ParseWebhook(c.Body(), c.Get("Stripe-Signature"))
	if err != nil {
		metrics.Webhooks.WithLabelValues("unknown", "invalid_signature").Inc()
		log.Warn("webhook signature verification failed", zap.String("ip", c.IP()), zap.Error(err))
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Webhook signature verification failed", err)
	}
	log = log.WithFields(zap.String("webhook_event_id", event.ID), zap.String("type", event.Type))

	delivery := &model.WebhookDelivery{
		Provider:        constants.WEBHOOK_PROVIDER_STRIPE,
		ProviderEventID: event.ID,
		EventType:       event.Type,
		Status:          constants.WEBHOOK_STATUS_RECEIVED,
	}
	if event.Session != nil {
		delivery.SessionID = &event.Session.ID
		log = log.WithFields(zap.String("session_id", event.Session.ID))
	}
	if err := h.webhooks.Record(ctx, delivery); err != nil {
		log.Error("could not record webhook delivery", zap.Error(err))
		return err
	}

	finish := func(status string, procErr error) {
		if err := h.webhooks.Finish(ctx, constants.WEBHOOK_PROVIDER_STRIPE, event.ID, status, procErr); err != nil {
			log.Warn("could not store webhook outcome", zap.Error(err))
		}
		metrics.Webhooks.WithLabelValues(event.Type, status).Inc()
	}

	if !event.SettlesPurchase() {
		finish(constants.WEBHOOK_STATUS_IGNORED, nil)
		return c.JSON(fiber.Map{"received": true})
	}

	purchase, err := payment.DecodePurchase(event.Session)
	var out reconcile.Outcome
	if err == nil {
		out, err = h.engine.Reconcile(ctx, purchase)
	}
	if err != nil {
		if reconcile.Terminal(err) {
			log.Error("paid session cannot be fulfilled, refund or allocate manually", zap.Error(err))
			finish(constants.WEBHOOK_STATUS_FAILED, err)
			return c.JSON(fiber.Map{"received": true, "fulfilled": false})
		}
		log.Warn("webhook processing failed, provider will redeliver", zap.Error(err))
		finish(constants.WEBHOOK_STATUS_RECEIVED, err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "webhook-handler-failed", err)
	}

	finish(constants.WEBHOOK_STATUS_HANDLED, nil)
	log.Info("webhook reconciled purchase",
		zap.String("purchase_id", out.PurchaseID),
		zap.Bool("replayed", out.Replayed),
		zap.Int("created", out.Created))
	h.SendTicketOnce(ctx, out)
	return c.JSON(fiber.Map{"received": true, "fulfilled": true})
}
