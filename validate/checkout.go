package validate

import (
	"society_tickets/model"
	"strings"

	"github.com/gofiber/fiber/v2"
)

func CreateCheckout() fiber.Handler {
	return bindBody("checkoutInput", func(in *model.CheckoutInput) map[string]string {
		in.Name = strings.TrimSpace(in.Name)
		in.Email = strings.ToLower(strings.TrimSpace(in.Email))
		if in.Phone != nil {
			p := strings.TrimSpace(*in.Phone)
			if p == "" {
				in.Phone = nil
			} else {
				in.Phone = &p
			}
		}
		if in.Name == "" {
			return map[string]string{"name": "required"}
		}
		return nil
	})
}
