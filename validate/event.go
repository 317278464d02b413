package validate

import (
	"society_tickets/model"
	"strings"

	"github.com/gofiber/fiber/v2"
)

func CreateEvent() fiber.Handler {
	return bindBody("createInput", func(in *model.CreateEventInput) map[string]string {
		in.Name = strings.TrimSpace(in.Name)
		if in.Name == "" {
			return map[string]string{"name": "required"}
		}
		if in.Price.IsNegative() {
			return map[string]string{"price": "gte=0"}
		}
		return nil
	})
}

func EditEvent() fiber.Handler {
	return bindBody("editInput", func(in *model.EditEventInput) map[string]string {
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return map[string]string{"name": "required"}
			}
			in.Name = &name
		}
		if in.Price != nil && in.Price.IsNegative() {
			return map[string]string{"price": "gte=0"}
		}
		return nil
	})
}
