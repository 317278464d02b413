// Package payment talks to the card payment provider: it opens hosted
// checkout sessions, reads them back and verifies webhook deliveries.
package payment

import (
	"context"
	"society_tickets/model"
	"time"
)

const (
	EventCheckoutCompleted    = "checkout.session.completed"
	EventAsyncPaymentSucceeds = "checkout.session.async_payment_succeeded"
)

// CheckoutRequest is what the buyer submitted on the checkout form.
type CheckoutRequest struct {
	Event      model.Event
	Name       string
	Email      string
	Phone      *string
	Quantity   int
	SuccessURL string
	CancelURL  string
	ExpiresAt  time.Time
}

// Session is the provider-neutral view of a checkout session.
type Session struct {
	ID            string
	URL           string
	Paid          bool
	Status        string
	AmountTotal   int64
	CustomerEmail string
	Metadata      map[string]string
}

// WebhookEvent is a verified delivery. Session is set for checkout session
// events only.
type WebhookEvent struct {
	ID      string
	Type    string
	Session *Session
}

// SettlesPurchase reports whether the delivery means money was taken for a
// checkout session.
func (e WebhookEvent) SettlesPurchase() bool {
	if e.Session == nil || !e.Session.Paid {
		return false
	}
	return e.Type == EventCheckoutCompleted || e.Type == EventAsyncPaymentSucceeds
}

type Provider interface {
	CreateSession(ctx context.Context, req CheckoutRequest) (*Session, error)
	RetrieveSession(ctx context.Context, id string) (*Session, error)
	// ParseWebhook verifies the signature header against the raw payload.
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
	// Mode is "test", "live" or "unknown", derived from the secret key.
	Mode() string
}
