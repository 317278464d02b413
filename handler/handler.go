package handler

import (
	"errors"
	"society_tickets/config"
	"society_tickets/constants"
	"society_tickets/helper"
	"society_tickets/logger"
	"society_tickets/mailer"
	"society_tickets/model"
	"society_tickets/payment"
	"society_tickets/realtime"
	"society_tickets/reconcile"
	"society_tickets/repository"
	"society_tickets/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are the collaborators the HTTP handlers need. Images, Publisher and
// Hub may be nil.
type Deps struct {
	Config    *config.Settings
	DB        *gorm.DB
	Engine    *reconcile.Engine
	Poller    *reconcile.Poller
	Payments  payment.Provider
	Mailer    mailer.Mailer
	Images    helper.ImageUploader
	Publisher realtime.Publisher
	Hub       *realtime.Hub
	Log       *logger.Logger
}

type Handler struct {
	cfg       *config.Settings
	db        *gorm.DB
	events    *repository.EventRepository
	attendees *repository.AttendeeRepository
	admins    *repository.AdminRepository
	webhooks  *repository.WebhookRepository
	engine    *reconcile.Engine
	poller    *reconcile.Poller
	payments  payment.Provider
	mailer    mailer.Mailer
	images    helper.ImageUploader
	publisher realtime.Publisher
	hub       *realtime.Hub
	log       *logger.Logger
}

func New(d Deps) *Handler {
	log := d.Log
	if log == nil {
		log = logger.Get()
	}
	return &Handler{
		cfg:       d.Config,
		db:        d.DB,
		events:    repository.NewEventRepository(d.DB),
		attendees: repository.NewAttendeeRepository(d.DB),
		admins:    repository.NewAdminRepository(d.DB),
		webhooks:  repository.NewWebhookRepository(d.DB),
		engine:    d.Engine,
		poller:    d.Poller,
		payments:  d.Payments,
		mailer:    d.Mailer,
		images:    d.Images,
		publisher: d.Publisher,
		hub:       d.Hub,
		log:       log,
	}
}

// Admins exposes the admin store for the auth middleware.
func (h *Handler) Admins() *repository.AdminRepository {
	return h.admins
}

// StatusFor maps domain errors to an HTTP status and message.
func StatusFor(err error) (int, string) {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code, fe.Message
	case errors.Is(err, model.ErrValidation):
		return fiber.StatusBadRequest, constants.ERROR_INPUT
	case errors.Is(err, model.ErrSignature):
		return fiber.StatusBadRequest, "Webhook signature verification failed"
	case errors.Is(err, model.ErrNotFound):
		return fiber.StatusNotFound, constants.NOT_FOUND_RECORDS
	case errors.Is(err, model.ErrCapacityExceeded):
		return fiber.StatusConflict, constants.EVENT_SOLD_OUT
	case errors.Is(err, model.ErrConflict), errors.Is(err, gorm.ErrDuplicatedKey):
		return fiber.StatusConflict, constants.ERROR_CONFLICT
	case errors.Is(err, model.ErrUpstream):
		return fiber.StatusBadGateway, constants.PAYMENT_PROVIDER_ERROR
	default:
		return fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR
	}
}

// ErrorHandler is the app-wide fiber error handler.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status, msg := StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		logger.Get().WithContext(c.UserContext()).Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Error(err))
		if status == fiber.StatusInternalServerError {
			return utils.ErrorResponse(c, status, msg, nil)
		}
	}
	return utils.ErrorResponse(c, status, msg, err)
}

func inputID(c *fiber.Ctx) (uint, error) {
	id, ok := c.Locals("inputId").(uint)
	if !ok {
		return 0, fiber.NewError(fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_NUMBER)
	}
	return id, nil
}

func localsInput[T any](c *fiber.Ctx, key string) (T, error) {
	input, ok := c.Locals(key).(T)
	if !ok {
		return input, fiber.NewError(fiber.StatusBadRequest, constants.ERROR_PARSE_DATA_TO_LOCALS)
	}
	return input, nil
}
