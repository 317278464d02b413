package validate

import (
	"errors"
	"society_tickets/constants"
	"society_tickets/model"
	"society_tickets/reconcile"
	"society_tickets/utils"
	"strings"

	"github.com/gofiber/fiber/v2"
)

func EditAttendee() fiber.Handler {
	return bindBody("editInput", func(in *model.EditAttendeeInput) map[string]string {
		if in.Email != nil {
			email := strings.ToLower(strings.TrimSpace(*in.Email))
			in.Email = &email
		}
		return nil
	})
}

func ToggleCheckin() fiber.Handler {
	return bindBody("toggleInput", func(in *model.ToggleCheckinInput) map[string]string {
		in.Code = strings.ToUpper(strings.TrimSpace(in.Code))
		if !reconcile.ValidCode(in.Code) {
			return map[string]string{"code": "format"}
		}
		return nil
	})
}

// BookingCode normalises the :code route parameter.
func BookingCode() fiber.Handler {
	return func(c *fiber.Ctx) error {
		code := strings.ToUpper(strings.TrimSpace(c.Params("code")))
		if !reconcile.ValidCode(code) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.INVALID_BOOKING_CODE, errors.New("code format"))
		}
		c.Locals("code", code)
		return c.Next()
	}
}
