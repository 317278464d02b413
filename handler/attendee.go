package handler

import (
	"errors"
	"society_tickets/constants"
	"society_tickets/metrics"
	"society_tickets/model"
	"society_tickets/realtime"
	"society_tickets/utils"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/copier"
	"go.uber.org/zap"
)

func (h *Handler) ListAttendees(c *fiber.Ctx) error {
	var filter model.FilterAttendee
	if err := c.QueryParser(&filter); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.ERROR_INPUT, err)
	}

	attendees, total, err := h.attendees.Search(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, fiber.StatusOK, model.ResponseCustom{
		Rows:       attendees,
		Limit:      filter.Limit,
		Page:       filter.Page,
		TotalCount: total,
	})
}

func (h *Handler) GetAttendeeByCode(c *fiber.Ctx) error {
	code, _ := c.Locals("code").(string)
	attendee, err := h.attendees.FindByCode(c.UserContext(), code)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, constants.ATTENDEE_NOT_FOUND, err)
		}
		return err
	}
	return utils.SuccessResponse(c, fiber.StatusOK, attendee)
}

// Checkin flips the attendee's checked-in flag. With mode=once it only ever
// checks in and reports a repeat scan as alreadyCheckedIn.
func (h *Handler) Checkin(c *fiber.Ctx) error {
	code, _ := c.Locals("code").(string)
	mode := c.Query("mode", constants.CHECKIN_MODE_TOGGLE)
	if mode != constants.CHECKIN_MODE_TOGGLE && mode != constants.CHECKIN_MODE_ONCE {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.ERROR_INPUT, errors.New("mode must be toggle or once"))
	}
	return h.checkin(c, code, mode)
}

// ToggleCheckin is the body-based form kept for older scanner clients.
func (h *Handler) ToggleCheckin(c *fiber.Ctx) error {
	input, err := localsInput[model.ToggleCheckinInput](c, "toggleInput")
	if err != nil {
		return err
	}
	return h.checkin(c, input.Code, constants.CHECKIN_MODE_TOGGLE)
}

func (h *Handler) checkin(c *fiber.Ctx, code, mode string) error {
	ctx := c.UserContext()
	res, err := h.attendees.SetCheckin(ctx, code, mode == constants.CHECKIN_MODE_ONCE)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			metrics.Checkins.WithLabelValues("not_found").Inc()
			return utils.ErrorResponse(c, fiber.StatusNotFound, constants.ATTENDEE_NOT_FOUND, err)
		}
		return err
	}
	res.Mode = mode

	action := "checked_out"
	switch {
	case res.AlreadyCheckedIn:
		action = "repeat"
	case res.CheckedIn:
		action = "checked_in"
	}
	metrics.Checkins.WithLabelValues(action).Inc()

	if h.publisher != nil {
		if err := h.publisher.PublishCheckin(ctx, realtime.NewCheckinEvent(*res, time.Now())); err != nil {
			h.log.WithContext(ctx).Warn("could not publish check-in", zap.String("code", code), zap.Error(err))
		}
	}
	return utils.SuccessResponse(c, fiber.StatusOK, res)
}

func (h *Handler) UpdateAttendee(c *fiber.Ctx) error {
	id, err := inputID(c)
	if err != nil {
		return err
	}
	input, err := localsInput[model.EditAttendeeInput](c, "editInput")
	if err != nil {
		return err
	}
	ctx := c.UserContext()

	attendee, err := h.attendees.FindByID(ctx, id)
	if err != nil {
		return err
	}
	wasCheckedIn := attendee.CheckedIn
	if err := copier.CopyWithOption(attendee, &input, copier.Option{IgnoreEmpty: true}); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.ERROR_UPDATE, err)
	}
	if input.CheckedIn != nil && *input.CheckedIn != wasCheckedIn {
		attendee.CheckedInAt = nil
		if attendee.CheckedIn {
			attendee.CheckedInAt = utils.Ptr(time.Now())
		}
	}

	if err := h.attendees.Update(ctx, attendee); err != nil {
		return err
	}
	return utils.SuccessResponse(c, fiber.StatusOK, attendee)
}

// DeleteAttendee soft deletes the row, which frees its seat.
func (h *Handler) DeleteAttendee(c *fiber.Ctx) error {
	id, err := inputID(c)
	if err != nil {
		return err
	}
	if err := h.attendees.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"id": id, "deleted": true})
}

// AdminSummary is the dashboard headline against the configured default
// capacity.
func (h *Handler) AdminSummary(c *fiber.Ctx) error {
	paid, pending, err := h.attendees.Summary(c.UserContext())
	if err != nil {
		return err
	}
	capacity := h.cfg.Checkout.DefaultCapacity
	remaining := capacity - int(paid+pending)
	if remaining < 0 {
		remaining = 0
	}
	return utils.SuccessResponse(c, fiber.StatusOK, model.AttendanceSummary{
		Paid:      paid,
		Pending:   pending,
		Capacity:  capacity,
		Remaining: remaining,
	})
}
