package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"society_tickets/config"
	"society_tickets/constants"
	"society_tickets/helper"
	"society_tickets/logger"
	"society_tickets/model"
	"society_tickets/utils"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// AdminLookup resolves the admin a token was issued to.
type AdminLookup interface {
	FindByID(ctx context.Context, id uint) (*model.Admin, error)
}

const adminLocalsKey = "admin"

// sharedPasswordAdmin is the principal for requests authenticated with the
// shared x-admin-password header.
var sharedPasswordAdmin = model.Admin{Email: "shared-password", Name: "Door staff", Role: constants.ROLE_ADMIN}

func bearerToken(c *fiber.Ctx) string {
	auth := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return c.Cookies("token")
}

// resolveAdmin returns the authenticated admin or nil. A token is only
// trusted while its admin still exists.
func resolveAdmin(c *fiber.Ctx, admins AdminLookup, auth config.AuthConfig) (*model.Admin, error) {
	if token := bearerToken(c); token != "" {
		claim, err := helper.ParseToken(token, auth.JWTSecret)
		if err != nil {
			return nil, err
		}
		admin, err := admins.FindByID(c.UserContext(), claim.AdminId)
		if err != nil {
			return nil, err
		}
		return admin, nil
	}

	if pw := c.Get("x-admin-password"); pw != "" {
		if auth.AdminPassword == "" || subtle.ConstantTimeCompare([]byte(pw), []byte(auth.AdminPassword)) != 1 {
			return nil, errors.New("wrong admin password")
		}
		admin := sharedPasswordAdmin
		return &admin, nil
	}
	return nil, nil
}

func RequireAdmin(admins AdminLookup, auth config.AuthConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		admin, err := resolveAdmin(c, admins, auth)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, constants.NOT_ADMIN, err)
		}
		if admin == nil {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, constants.NOT_ADMIN, errors.New("no credentials"))
		}
		c.Locals(adminLocalsKey, admin)
		return c.Next()
	}
}

// OptionalAdmin sets the admin when valid credentials are present and
// otherwise lets the request through anonymously.
func OptionalAdmin(admins AdminLookup, auth config.AuthConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if admin, err := resolveAdmin(c, admins, auth); err == nil && admin != nil {
			c.Locals(adminLocalsKey, admin)
		}
		return c.Next()
	}
}

// CurrentAdmin is the admin set by RequireAdmin or OptionalAdmin, or nil.
func CurrentAdmin(c *fiber.Ctx) *model.Admin {
	admin, _ := c.Locals(adminLocalsKey).(*model.Admin)
	return admin
}

func RequestID() fiber.Handler {
	return requestid.New()
}

// ContextRequestID copies the request id set by RequestID into the user
// context so loggers pick it up. It must run after RequestID.
func ContextRequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id, ok := c.Locals(requestid.ConfigDefault.ContextKey).(string); ok && id != "" {
			c.SetUserContext(context.WithValue(c.UserContext(), logger.RequestIDKey, id))
		}
		return c.Next()
	}
}

// RateLimit allows max requests per window for each client IP.
func RateLimit(name string, max int, window time.Duration) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return name + ":" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return utils.ErrorResponse(c, fiber.StatusTooManyRequests, "Too many requests, please try again later", errors.New("rate limit exceeded"))
		},
	})
}
