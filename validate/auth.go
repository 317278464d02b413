package validate

import (
	"society_tickets/model"
	"strings"

	"github.com/gofiber/fiber/v2"
)

func normaliseEmail(email *string) {
	*email = strings.ToLower(strings.TrimSpace(*email))
}

func RegisterAdmin() fiber.Handler {
	return bindBody("registerInput", func(in *model.RegisterAdminInput) map[string]string {
		normaliseEmail(&in.Email)
		in.Name = strings.TrimSpace(in.Name)
		return nil
	})
}

func Login() fiber.Handler {
	return bindBody("loginInput", func(in *model.LoginInput) map[string]string {
		normaliseEmail(&in.Email)
		return nil
	})
}

func ForgotPassword() fiber.Handler {
	return bindBody("forgotInput", func(in *model.ForgotPasswordRequest) map[string]string {
		normaliseEmail(&in.Email)
		return nil
	})
}

func ResetPassword() fiber.Handler {
	return bindBody[model.ResetPasswordRequest]("resetInput")
}
