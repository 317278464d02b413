package handler_test

import (
	"errors"
	"fmt"
	"net/http"
	"society_tickets/handler"
	"society_tickets/model"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestEventLifecycle(t *testing.T) {
	f := newFixture(t)

	create := map[string]any{
		"name":     "  Winter Ball ",
		"location": "Great Hall",
		"date":     time.Date(2026, 12, 12, 19, 0, 0, 0, time.UTC).Format(time.RFC3339),
		"time":     "19:00 - 23:00",
		"price":    "25.00",
	}
	res := f.do(http.MethodPost, "/api/v1/events", create, nil)
	assert.Equal(t, http.StatusUnauthorized, res.status)

	res = f.do(http.MethodPost, "/api/v1/events", create, f.asAdmin())
	require.Equal(t, http.StatusCreated, res.status, res.body)
	created := data(res)
	assert.Equal(t, "Winter Ball", created["name"])
	assert.Equal(t, "winter-ball", created["slug"])
	assert.EqualValues(t, 100, created["capacity"])
	assert.Equal(t, "25", created["price"])
	id := uint(created["id"].(float64))

	got := f.do(http.MethodGet, "/api/v1/events/winter-ball", nil, nil)
	require.Equal(t, http.StatusOK, got.status)
	assert.EqualValues(t, id, data(got)["id"])
	assert.EqualValues(t, 100, data(got)["remaining"])
	assert.Equal(t, false, data(got)["isFull"])

	res = f.do(http.MethodPut, idPath("/api/v1/events/%s", id),
		map[string]any{"name": "Winter Ball 2026", "capacity": 2, "price": "30.50"}, f.asAdmin())
	require.Equal(t, http.StatusOK, res.status, res.body)
	assert.Equal(t, "winter-ball-2026", data(res)["slug"])
	assert.EqualValues(t, 2, data(res)["capacity"])
	assert.Equal(t, "30.5", data(res)["price"])
	assert.Equal(t, "Great Hall", data(res)["location"])

	list := f.do(http.MethodGet, "/api/v1/events?includeStats=true&activeOnly=true", nil, nil)
	require.Equal(t, http.StatusOK, list.status)
	rows := data(list)["rows"].([]any)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 2, rows[0].(map[string]any)["remaining"])

	res = f.do(http.MethodDelete, idPath("/api/v1/events/%s", id), nil, f.asAdmin())
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, false, data(res)["isActive"])

	list = f.do(http.MethodGet, "/api/v1/events?activeOnly=true", nil, nil)
	assert.EqualValues(t, 0, data(list)["totalCount"])
}

func TestEventCapacityGuards(t *testing.T) {
	f := newFixture(t)
	event := f.seedEvent("Poetry Evening", 5)
	f.paidSession("cs_three", event, 3)
	require.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/v1/checkout/success?session_id=cs_three", nil, nil).status)
	f.awaitTicket()

	res := f.do(http.MethodPut, idPath("/api/v1/events/%s", event.ID), map[string]any{"capacity": 2}, f.asAdmin())
	assert.Equal(t, http.StatusConflict, res.status)

	res = f.do(http.MethodDelete, idPath("/api/v1/events/%s", event.ID)+"?hard=true", nil, f.asAdmin())
	assert.Equal(t, http.StatusConflict, res.status)

	summary := f.do(http.MethodGet, idPath("/api/v1/events/%s/summary", event.ID), nil, f.asAdmin())
	require.Equal(t, http.StatusOK, summary.status)
	assert.EqualValues(t, 3, data(summary)["totalAttendees"])
	assert.EqualValues(t, 2, data(summary)["remaining"])
	assert.Equal(t, "37.5", data(summary)["revenue"])
}

func TestEventErrors(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/v1/events/no-such-event", nil, nil).status)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPut, "/api/v1/events/abc", map[string]any{}, f.asAdmin()).status)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodPut, "/api/v1/events/999", map[string]any{"capacity": 3}, f.asAdmin()).status)

	res := f.do(http.MethodPost, "/api/v1/events", map[string]any{"name": "Bad", "date": time.Now().Format(time.RFC3339), "price": "-1"}, f.asAdmin())
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "gte=0", res.body["fields"].(map[string]any)["price"])

	event := f.seedEvent("Quiz Night", 10)
	res = f.do(http.MethodPost, idPath("/api/v1/events/%s/image", event.ID), nil, f.asAdmin())
	assert.Equal(t, http.StatusServiceUnavailable, res.status)
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fiber.NewError(fiber.StatusTeapot, "teapot"), fiber.StatusTeapot},
		{fmt.Errorf("bad: %w", model.ErrValidation), http.StatusBadRequest},
		{model.ErrSignature, http.StatusBadRequest},
		{fmt.Errorf("event 9: %w", model.ErrNotFound), http.StatusNotFound},
		{model.ErrCapacityExceeded, http.StatusConflict},
		{model.ErrConflict, http.StatusConflict},
		{gorm.ErrDuplicatedKey, http.StatusConflict},
		{fmt.Errorf("stripe: %w", model.ErrUpstream), http.StatusBadGateway},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		status, msg := handler.StatusFor(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.NotEmpty(t, msg)
	}
}

func TestErrorHandlerHidesInternalErrors(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: handler.ErrorHandler})
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("pq: password authentication failed") })
	app.Get("/missing", func(c *fiber.Ctx) error { return fmt.Errorf("event 3: %w", model.ErrNotFound) })

	f := &fixture{t: t, app: app}
	res := f.do(http.MethodGet, "/boom", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, res.status)
	assert.Nil(t, res.body["error"])

	res = f.do(http.MethodGet, "/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, res.status)
	assert.Equal(t, "event 3: not found", res.body["error"])
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	res := f.do(http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "ok", res.body["status"])

	env := f.do(http.MethodGet, "/api/v1/env-check", nil, nil)
	require.Equal(t, http.StatusOK, env.status)
	assert.Equal(t, "test", data(env)["stripeMode"])
	assert.Equal(t, true, data(env)["webhookSecretSet"])
}
