package handler

import (
	"errors"
	"society_tickets/constants"
	"society_tickets/helper"
	"society_tickets/mailer"
	"society_tickets/model"
	"society_tickets/utils"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const resetTokenBytes = 32

// RequestPasswordReset always answers the same way so the endpoint cannot
// be used to discover admin emails.
func (h *Handler) RequestPasswordReset(c *fiber.Ctx) error {
	input, err := localsInput[model.ForgotPasswordRequest](c, "forgotInput")
	if err != nil {
		return err
	}
	ctx := c.UserContext()
	accepted := utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"message": constants.RESET_REQUEST_ACCEPTED})

	admin, err := h.admins.FindByEmail(ctx, input.Email)
	if errors.Is(err, model.ErrNotFound) {
		return accepted
	}
	if err != nil {
		return err
	}

	token, err := helper.RandomHex(resetTokenBytes)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	if err := h.admins.CreateResetToken(ctx, &model.PasswordResetToken{
		AdminId:   admin.ID,
		Token:     token,
		ExpiresAt: time.Now().Add(h.cfg.Auth.ResetTokenTTL),
	}); err != nil {
		return err
	}

	link := strings.TrimRight(h.cfg.App.URL, "/") + "/reset-password?token=" + token
	mailer.SendResetAsync(h.mailer, h.log, admin.Email, link)
	h.log.WithContext(ctx).Info("password reset requested", zap.Uint("admin_id", admin.ID))
	return accepted
}

func (h *Handler) VerifyResetToken(c *fiber.Ctx) error {
	t, err := h.admins.FindResetToken(c.UserContext(), c.Params("token"))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.RESET_TOKEN_INVALID, err)
		}
		return err
	}
	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"valid": true, "email": t.Admin.Email, "expiresAt": t.ExpiresAt})
}

func (h *Handler) ResetPassword(c *fiber.Ctx) error {
	input, err := localsInput[model.ResetPasswordRequest](c, "resetInput")
	if err != nil {
		return err
	}
	ctx := c.UserContext()

	t, err := h.admins.FindResetToken(ctx, input.Token)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.RESET_TOKEN_INVALID, err)
		}
		return err
	}

	hash, err := helper.HashPassword(input.NewPassword)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.CAN_NOT_HASH_PASSWORD, err)
	}
	if err := h.admins.ResetPassword(ctx, t.ID, t.AdminId, hash); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.RESET_TOKEN_INVALID, err)
		}
		return err
	}

	h.log.WithContext(ctx).Info("admin password reset", zap.Uint("admin_id", t.AdminId))
	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"reset": true})
}
