package handler_test

import (
	"context"
	"net/http"
	"society_tickets/constants"
	"society_tickets/model"
	"society_tickets/payment"
	"society_tickets/repository"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var signed = map[string]string{"Stripe-Signature": "t=1,v1=abc"}

func (f *fixture) delivery(eventID string) *model.WebhookDelivery {
	f.t.Helper()
	d, err := repository.NewWebhookRepository(f.db).Find(context.Background(), constants.WEBHOOK_PROVIDER_STRIPE, eventID)
	require.NoError(f.t, err)
	return d
}

func TestPaymentWebhookRejectsBadSignature(t *testing.T) {
	f := newFixture(t)

	res := f.do(http.MethodPost, "/api/v1/webhooks/stripe", map[string]any{"id": "evt_1"}, nil)
	assert.Equal(t, http.StatusBadRequest, res.status)

	var n int64
	require.NoError(t, f.db.Model(&model.WebhookDelivery{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestPaymentWebhookReconcilesOnce(t *testing.T) {
	f := newFixture(t)
	event := f.seedEvent("Cultural Night", 10)
	session := f.paidSession("cs_hook", event, 3)
	f.provider.webhook = &payment.WebhookEvent{ID: "evt_paid", Type: payment.EventCheckoutCompleted, Session: session}

	res := f.do(http.MethodPost, "/api/v1/webhooks/stripe", map[string]any{"id": "evt_paid"}, signed)
	require.Equal(t, http.StatusOK, res.status, res.body)
	assert.Equal(t, true, res.body["fulfilled"])
	assert.EqualValues(t, 3, f.countAttendees(event.ID))

	mail := f.awaitTicket()
	assert.Len(t, mail.Attendees, 3)

	d := f.delivery("evt_paid")
	assert.Equal(t, constants.WEBHOOK_STATUS_HANDLED, d.Status)
	assert.Equal(t, 1, d.Attempts)
	require.NotNil(t, d.SessionID)
	assert.Equal(t, "cs_hook", *d.SessionID)

	// Redelivery and the success page both land on the same purchase.
	res = f.do(http.MethodPost, "/api/v1/webhooks/payment", map[string]any{"id": "evt_paid"}, signed)
	require.Equal(t, http.StatusOK, res.status)
	page := f.do(http.MethodGet, "/api/v1/checkout/success?session_id=cs_hook", nil, nil)
	require.Equal(t, http.StatusOK, page.status)

	assert.EqualValues(t, 3, f.countAttendees(event.ID))
	assert.Equal(t, 2, f.delivery("evt_paid").Attempts)
	f.noTicket()
}

func TestPaymentWebhookIgnoresOtherEvents(t *testing.T) {
	f := newFixture(t)
	f.provider.webhook = &payment.WebhookEvent{ID: "evt_refund", Type: "charge.refunded"}

	res := f.do(http.MethodPost, "/api/v1/webhooks/stripe", map[string]any{}, signed)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, true, res.body["received"])
	assert.Equal(t, constants.WEBHOOK_STATUS_IGNORED, f.delivery("evt_refund").Status)
}

func TestPaymentWebhookAcknowledgesUnfulfillable(t *testing.T) {
	f := newFixture(t)
	event := f.seedEvent("Poetry Evening", 1)
	session := f.paidSession("cs_over", event, 2)
	f.provider.webhook = &payment.WebhookEvent{ID: "evt_over", Type: payment.EventCheckoutCompleted, Session: session}

	res := f.do(http.MethodPost, "/api/v1/webhooks/stripe", map[string]any{}, signed)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, false, res.body["fulfilled"])

	d := f.delivery("evt_over")
	assert.Equal(t, constants.WEBHOOK_STATUS_FAILED, d.Status)
	assert.Contains(t, d.ProcessingError, "seats left")
	assert.Zero(t, f.countAttendees(event.ID))
}

func TestPaymentWebhookAsksForRedeliveryOnStoreFailure(t *testing.T) {
	f := newFixture(t)
	event := f.seedEvent("Cultural Night", 10)
	session := f.paidSession("cs_down", event, 1)
	f.provider.webhook = &payment.WebhookEvent{ID: "evt_down", Type: payment.EventAsyncPaymentSucceeds, Session: session}
	require.NoError(t, f.db.Migrator().DropTable(&model.Attendee{}))

	res := f.do(http.MethodPost, "/api/v1/webhooks/stripe", map[string]any{}, signed)
	assert.Equal(t, http.StatusInternalServerError, res.status)
	assert.Equal(t, constants.WEBHOOK_STATUS_RECEIVED, f.delivery("evt_down").Status)
}
