package handler

import (
	"errors"
	"society_tickets/constants"
	"society_tickets/helper"
	"society_tickets/middleware"
	"society_tickets/model"
	"society_tickets/utils"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const tokenCookie = "token"

func (h *Handler) Login(c *fiber.Ctx) error {
	input, err := localsInput[model.LoginInput](c, "loginInput")
	if err != nil {
		return err
	}
	ctx := c.UserContext()

	admin, err := h.admins.FindByEmail(ctx, input.Email)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return err
	}
	if admin == nil || !helper.CheckPasswordHash(input.Password, admin.Password) {
		h.log.WithContext(ctx).Warn("failed admin login", zap.String("email", input.Email), zap.String("ip", c.IP()))
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, constants.INVALID_CREDENTIALS, errors.New("credentials do not match"))
	}

	token, err := helper.GenerateAccessToken(model.TokenClaim{AdminId: admin.ID, Email: admin.Email}, h.cfg.Auth.JWTSecret, h.cfg.Auth.TokenTTL)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     tokenCookie,
		Value:    token,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   !h.cfg.App.IsDevelopment(),
		Path:     "/",
		Expires:  time.Now().Add(h.cfg.Auth.TokenTTL),
	})
	return utils.SuccessResponse(c, fiber.StatusOK, model.LoginResult{Token: token, Admin: *admin})
}

func (h *Handler) Logout(c *fiber.Ctx) error {
	c.ClearCookie(tokenCookie)
	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"loggedOut": true})
}

// Register creates an admin. Only an admin may do so, except for the very
// first account.
func (h *Handler) Register(c *fiber.Ctx) error {
	input, err := localsInput[model.RegisterAdminInput](c, "registerInput")
	if err != nil {
		return err
	}
	ctx := c.UserContext()

	if middleware.CurrentAdmin(c) == nil {
		count, err := h.admins.Count(ctx)
		if err != nil {
			return err
		}
		if count > 0 {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, constants.NOT_ADMIN, errors.New("only admins can register admins"))
		}
	}

	hash, err := helper.HashPassword(input.Password)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.CAN_NOT_HASH_PASSWORD, err)
	}
	admin := model.Admin{
		Email:    input.Email,
		Name:     input.Name,
		Password: hash,
		Role:     constants.ROLE_ADMIN,
	}
	if err := h.admins.Create(ctx, &admin); err != nil {
		if errors.Is(err, model.ErrConflict) {
			return utils.ErrorResponse(c, fiber.StatusConflict, constants.ADMIN_EXISTS, err)
		}
		return err
	}

	h.log.WithContext(ctx).Info("admin registered", zap.Uint("admin_id", admin.ID), zap.String("email", admin.Email))
	return utils.SuccessResponse(c, fiber.StatusCreated, admin)
}

func (h *Handler) Me(c *fiber.Ctx) error {
	admin := middleware.CurrentAdmin(c)
	if admin == nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, constants.NOT_ADMIN, errors.New("no admin"))
	}
	return utils.SuccessResponse(c, fiber.StatusOK, admin)
}
