package payment

import (
	"society_tickets/model"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntentRoundTrip(t *testing.T) {
	phone := "07700 900123"
	req := CheckoutRequest{
		Event:    model.Event{DTO: model.DTO{ID: 7}},
		Name:     "Abdi Warsame",
		Email:    "abdi@example.com",
		Phone:    &phone,
		Quantity: 3,
	}
	s := &Session{ID: "cs_test_a", Paid: true, AmountTotal: 4500, Metadata: EncodeIntent(req)}

	p, err := DecodePurchase(s)
	require.NoError(t, err)
	assert.Equal(t, "cs_test_a", p.SessionID)
	assert.Equal(t, "Abdi Warsame", p.Name)
	assert.Equal(t, "abdi@example.com", p.Email)
	require.NotNil(t, p.Phone)
	assert.Equal(t, phone, *p.Phone)
	assert.Equal(t, 3, p.Quantity)
	assert.EqualValues(t, 7, p.EventID)
	assert.EqualValues(t, 4500, p.AmountPaid)
}

func TestDecodePurchaseFallsBackToCustomerEmail(t *testing.T) {
	s := &Session{
		ID:            "cs_test_b",
		CustomerEmail: "Buyer@Example.com",
		Metadata:      map[string]string{"name": "Buyer", "quantity": "1", "eventId": "2", "phone": ""},
	}
	p, err := DecodePurchase(s)
	require.NoError(t, err)
	assert.Equal(t, "buyer@example.com", p.Email)
	assert.Nil(t, p.Phone)
}

func TestDecodePurchaseRejectsBadMetadata(t *testing.T) {
	cases := map[string]map[string]string{
		"missing quantity": {"name": "A", "email": "a@example.com", "eventId": "1"},
		"bad quantity":     {"name": "A", "email": "a@example.com", "eventId": "1", "quantity": "two"},
		"zero quantity":    {"name": "A", "email": "a@example.com", "eventId": "1", "quantity": "0"},
		"missing event":    {"name": "A", "email": "a@example.com", "quantity": "1"},
		"missing name":     {"email": "a@example.com", "eventId": "1", "quantity": "1"},
	}
	for name, meta := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodePurchase(&Session{ID: "cs_bad", Metadata: meta})
			require.ErrorIs(t, err, model.ErrValidation)
		})
	}
}

func TestMinorUnits(t *testing.T) {
	assert.EqualValues(t, 1250, MinorUnits(model.Event{Price: decimal.RequireFromString("12.50")}))
	assert.EqualValues(t, 1000, MinorUnits(model.Event{Price: decimal.NewFromInt(10)}))
	assert.EqualValues(t, 1, MinorUnits(model.Event{Price: decimal.RequireFromString("0.005")}))
}

func TestSettlesPurchase(t *testing.T) {
	paid := &Session{Paid: true}
	assert.True(t, WebhookEvent{Type: EventCheckoutCompleted, Session: paid}.SettlesPurchase())
	assert.True(t, WebhookEvent{Type: EventAsyncPaymentSucceeds, Session: paid}.SettlesPurchase())
	assert.False(t, WebhookEvent{Type: EventCheckoutCompleted, Session: &Session{}}.SettlesPurchase())
	assert.False(t, WebhookEvent{Type: "payment_intent.created", Session: paid}.SettlesPurchase())
	assert.False(t, WebhookEvent{Type: EventCheckoutCompleted}.SettlesPurchase())
}
