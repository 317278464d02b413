package handler

import (
	"errors"
	"society_tickets/constants"
	"society_tickets/model"
	"society_tickets/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/copier"
	"go.uber.org/zap"
)

func (h *Handler) ListEvents(c *fiber.Ctx) error {
	var filter model.FilterEvent
	if err := c.QueryParser(&filter); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.ERROR_INPUT, err)
	}
	ctx := c.UserContext()

	events, total, err := h.events.List(ctx, filter)
	if err != nil {
		return err
	}

	var rows any = events
	if filter.IncludeStats {
		stats, err := h.events.Stats(ctx, events)
		if err != nil {
			return err
		}
		withStats := make([]model.EventWithStats, 0, len(events))
		for _, e := range events {
			withStats = append(withStats, model.EventWithStats{Event: e, EventStats: stats[e.ID]})
		}
		rows = withStats
	}

	return utils.SuccessResponse(c, fiber.StatusOK, model.ResponseCustom{
		Rows:       rows,
		Limit:      filter.Limit,
		Page:       filter.Page,
		TotalCount: total,
	})
}

// GetEvent accepts a numeric id or a slug.
func (h *Handler) GetEvent(c *fiber.Ctx) error {
	ctx := c.UserContext()
	event, err := h.events.Find(ctx, c.Params("id"))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, constants.EVENT_NOT_FOUND, err)
		}
		return err
	}
	stats, err := h.engine.Ledger().Snapshot(ctx, event.ID)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, fiber.StatusOK, model.EventWithStats{Event: *event, EventStats: stats})
}

func (h *Handler) CreateEvent(c *fiber.Ctx) error {
	input, err := localsInput[model.CreateEventInput](c, "createInput")
	if err != nil {
		return err
	}

	var event model.Event
	if err := copier.Copy(&event, &input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.ERROR_CREATE, err)
	}
	event.Price = input.Price
	if event.Capacity == 0 {
		event.Capacity = h.cfg.Checkout.DefaultCapacity
	}

	if err := h.events.Create(c.UserContext(), &event); err != nil {
		return err
	}
	return utils.SuccessResponse(c, fiber.StatusCreated, event)
}

func (h *Handler) UpdateEvent(c *fiber.Ctx) error {
	id, err := inputID(c)
	if err != nil {
		return err
	}
	input, err := localsInput[model.EditEventInput](c, "editInput")
	if err != nil {
		return err
	}
	ctx := c.UserContext()

	event, err := h.events.FindByID(ctx, id)
	if err != nil {
		return err
	}
	oldName := event.Name
	if err := copier.CopyWithOption(event, &input, copier.Option{IgnoreEmpty: true}); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.ERROR_UPDATE, err)
	}
	// copier walks into decimal.Decimal's unexported fields instead of
	// assigning it.
	if input.Price != nil {
		event.Price = *input.Price
	}

	if err := h.events.Update(ctx, event, event.Name != oldName); err != nil {
		if errors.Is(err, model.ErrConflict) {
			return utils.ErrorResponse(c, fiber.StatusConflict, constants.CAPACITY_BELOW_ATTENDEES, err)
		}
		return err
	}
	return utils.SuccessResponse(c, fiber.StatusOK, event)
}

// DeleteEvent deactivates the event, or removes it with hard=true when no
// attendee was ever registered.
func (h *Handler) DeleteEvent(c *fiber.Ctx) error {
	id, err := inputID(c)
	if err != nil {
		return err
	}
	ctx := c.UserContext()

	if c.QueryBool("hard", false) {
		if err := h.events.HardDelete(ctx, id); err != nil {
			if errors.Is(err, model.ErrConflict) {
				return utils.ErrorResponse(c, fiber.StatusConflict, constants.EVENT_HAS_ATTENDEES, err)
			}
			return err
		}
		return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"id": id, "deleted": true})
	}

	if err := h.events.Deactivate(ctx, id); err != nil {
		return err
	}
	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"id": id, "isActive": false})
}

func (h *Handler) EventSummary(c *fiber.Ctx) error {
	id, err := inputID(c)
	if err != nil {
		return err
	}
	summary, err := h.events.Summary(c.UserContext(), id)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, fiber.StatusOK, summary)
}

func (h *Handler) EventAttendees(c *fiber.Ctx) error {
	id, err := inputID(c)
	if err != nil {
		return err
	}
	var filter model.FilterAttendee
	if err := c.QueryParser(&filter); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.ERROR_INPUT, err)
	}
	filter.EventID = &id
	ctx := c.UserContext()

	if _, err := h.events.FindByID(ctx, id); err != nil {
		return err
	}
	attendees, total, err := h.attendees.Search(ctx, filter)
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

func (h *Handler) UploadEventImage(c *fiber.Ctx) error {
	if h.images == nil {
		return utils.ErrorResponse(c, fiber.StatusServiceUnavailable, constants.IMAGE_UPLOAD_DISABLED, errors.New("cloudinary not configured"))
	}
	id, err := inputID(c)
	if err != nil {
		return err
	}
	ctx := c.UserContext()
	event, err := h.events.FindByID(ctx, id)
	if err != nil {
		return err
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.IMAGE_REQUIRED, err)
	}
	file, err := fileHeader.Open()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.IMAGE_REQUIRED, err)
	}
	defer file.Close()

	url, err := h.images.UploadEventImage(ctx, id, file)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadGateway, "Image upload failed", err)
	}
	if err := h.events.SetImage(ctx, id, url); err != nil {
		return err
	}
	if event.ImageURL != nil && *event.ImageURL != url {
		if err := h.images.RemoveImage(ctx, *event.ImageURL); err != nil {
			h.log.WithContext(ctx).Warn("could not remove old poster", zap.Uint("event_id", id), zap.Error(err))
		}
	}
	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"id": id, "imageUrl": url})
}
