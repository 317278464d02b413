package handler

import (
	"errors"
	"fmt"
	"math"
	"society_tickets/constants"
	"society_tickets/model"
	"society_tickets/payment"
	"society_tickets/reconcile"
	"society_tickets/utils"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) CreateCheckoutSession(c *fiber.Ctx) error {
	input, err := localsInput[model.CheckoutInput](c, "checkoutInput")
	if err != nil {
		return err
	}
	ctx := c.UserContext()

	if input.Quantity > h.cfg.Checkout.MaxQuantity {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.ERROR_INPUT,
			fmt.Errorf("quantity must be at most %d", h.cfg.Checkout.MaxQuantity))
	}

	event, err := h.events.FindByID(ctx, input.EventID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, constants.EVENT_NOT_FOUND, err)
		}
		return err
	}
	if !event.IsActive {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.EVENT_INACTIVE, errors.New("event inactive"))
	}

	remaining, err := h.engine.Ledger().Remaining(ctx, event.ID)
	if err != nil {
		return err
	}
	if remaining < input.Quantity {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message":   constants.EVENT_SOLD_OUT,
			"error":     fmt.Sprintf("only %d tickets remaining", remaining),
			"remaining": remaining,
		})
	}

	base := strings.TrimRight(h.cfg.App.URL, "/")
	session, err := h.payments.CreateSession(ctx, payment.CheckoutRequest{
		Event:      *event,
		Name:       input.Name,
		Email:      input.Email,
		Phone:      input.Phone,
		Quantity:   input.Quantity,
		SuccessURL: base + "/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  base + "/?cancelled=true",
		ExpiresAt:  time.Now().Add(h.cfg.Checkout.SessionTTL),
	})
	if err != nil {
		return err
	}

	return c.JSON(model.CheckoutResult{URL: session.URL, SessionID: session.ID})
}

// CheckoutSuccess confirms the ticket for the success page. Without wait it
// makes a single attempt and tells the client when to poll again.
func (h *Handler) CheckoutSuccess(c *fiber.Ctx) error {
	sessionID := strings.TrimSpace(c.Query("session_id"))
	if sessionID == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.SESSION_ID_REQUIRED, errors.New("missing session_id"))
	}
	attempt := c.QueryInt("attempt", 0)
	if attempt < 0 {
		attempt = 0
	}
	ctx := c.UserContext()

	var out reconcile.Outcome
	var err error
	if c.QueryBool("wait", false) {
		out, err = h.poller.Poll(ctx, sessionID)
	} else {
		out, err = h.poller.Attempt(ctx, sessionID)
	}

	switch {
	case err == nil:
		h.SendTicketOnce(ctx, out)
		view, err := h.ticketView(ctx, out)
		if err != nil {
			return err
		}
		return c.JSON(view)

	case errors.Is(err, reconcile.ErrConfirmationFailed):
		return confirmationFailed(c, sessionID)

	case errors.Is(err, reconcile.ErrNotReady):
		backoff := h.poller.Backoff()
		if backoff.Exhausted(attempt) {
			return confirmationFailed(c, sessionID)
		}
		delay := backoff.Delay(attempt)
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(delay.Seconds()))))
		return c.Status(fiber.StatusTooEarly).JSON(fiber.Map{
			"status":       constants.POLL_STATUS_CONFIRMING,
			"message":      constants.TICKET_CONFIRMING,
			"retryAfterMs": delay.Milliseconds(),
			"nextAttempt":  attempt + 1,
		})

	case errors.Is(err, model.ErrCapacityExceeded):
		return pollFailed(c, fiber.StatusConflict, constants.EVENT_SOLD_OUT, err)
	case errors.Is(err, model.ErrNotFound):
		return pollFailed(c, fiber.StatusNotFound, constants.NOT_FOUND_RECORDS, err)
	case errors.Is(err, model.ErrValidation):
		return pollFailed(c, fiber.StatusBadRequest, constants.ERROR_INPUT, err)
	default:
		return err
	}
}

func confirmationFailed(c *fiber.Ctx, sessionID string) error {
	return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
		"status":    constants.POLL_STATUS_GAVE_UP,
		"message":   constants.TICKET_NOT_CONFIRMED,
		"sessionId": sessionID,
	})
}

func pollFailed(c *fiber.Ctx, status int, message string, err error) error {
	return c.Status(status).JSON(fiber.Map{
		"status":  constants.POLL_STATUS_FAILED,
		"message": message,
		"error":   err.Error(),
	})
}
