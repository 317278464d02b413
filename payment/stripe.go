package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"society_tickets/config"
	"society_tickets/logger"
	"society_tickets/model"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/zap"
)

type StripeProvider struct {
	api           *client.API
	cfg           config.StripeConfig
	log           *logger.Logger
	webhookSecret string
}

func NewStripeProvider(cfg config.StripeConfig, log *logger.Logger) *StripeProvider {
	return &StripeProvider{
		api:           client.New(cfg.SecretKey, nil),
		cfg:           cfg,
		log:           log,
		webhookSecret: cfg.WebhookSecret,
	}
}

func (p *StripeProvider) Mode() string {
	return p.cfg.Mode()
}

func (p *StripeProvider) CreateSession(ctx context.Context, req CheckoutRequest) (*Session, error) {
	item := &stripe.CheckoutSessionLineItemParams{
		Quantity: stripe.Int64(int64(req.Quantity)),
	}
	if req.Event.StripePriceID != nil && *req.Event.StripePriceID != "" {
		item.Price = req.Event.StripePriceID
	} else {
		item.PriceData = &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency:   stripe.String(strings.ToLower(p.cfg.Currency)),
			UnitAmount: stripe.Int64(MinorUnits(req.Event)),
			ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
				Name: stripe.String(req.Event.Name),
			},
		}
	}

	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		CustomerEmail: stripe.String(req.Email),
		SuccessURL:    stripe.String(req.SuccessURL),
		CancelURL:     stripe.String(req.CancelURL),
		LineItems:     []*stripe.CheckoutSessionLineItemParams{item},
		Metadata:      EncodeIntent(req),
		BillingAddressCollection: stripe.String(
			string(stripe.CheckoutSessionBillingAddressCollectionAuto),
		),
	}
	if !req.ExpiresAt.IsZero() {
		params.ExpiresAt = stripe.Int64(req.ExpiresAt.Unix())
	}
	params.Context = ctx

	cs, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		p.log.WithContext(ctx).Error("failed to create checkout session",
			zap.String("email", req.Email),
			zap.Int("quantity", req.Quantity),
			zap.Error(err))
		return nil, classify(err)
	}
	p.log.WithContext(ctx).Info("checkout session created",
		zap.String("session_id", cs.ID),
		zap.Uint("event_id", req.Event.ID))
	return toSession(cs), nil
}

func (p *StripeProvider) RetrieveSession(ctx context.Context, id string) (*Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	cs, err := p.api.CheckoutSessions.Get(id, params)
	if err != nil {
		p.log.WithContext(ctx).Warn("failed to retrieve session", zap.String("session_id", id), zap.Error(err))
		return nil, classify(err)
	}
	return toSession(cs), nil
}

func (p *StripeProvider) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	if p.webhookSecret == "" {
		return nil, fmt.Errorf("webhook secret not configured: %w", model.ErrSignature)
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrSignature, err)
	}

	out := &WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if strings.HasPrefix(out.Type, "checkout.session.") && event.Data != nil {
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w: %v", out.Type, model.ErrValidation, err)
		}
		out.Session = toSession(&cs)
	}
	return out, nil
}

// MinorUnits is the event's unit price in pence.
func MinorUnits(e model.Event) int64 {
	return e.Price.Shift(2).Round(0).IntPart()
}

func toSession(cs *stripe.CheckoutSession) *Session {
	s := &Session{
		ID:            cs.ID,
		URL:           cs.URL,
		Status:        string(cs.Status),
		AmountTotal:   cs.AmountTotal,
		CustomerEmail: cs.CustomerEmail,
		Metadata:      cs.Metadata,
		Paid: cs.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid ||
			cs.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired,
	}
	if cs.CustomerDetails != nil && cs.CustomerDetails.Email != "" {
		s.CustomerEmail = cs.CustomerDetails.Email
	}
	return s
}

// classify maps SDK errors onto the sentinels the handlers understand.
func classify(err error) error {
	var serr *stripe.Error
	if errors.As(err, &serr) {
		switch {
		case serr.Code == stripe.ErrorCodeResourceMissing, serr.HTTPStatusCode == http.StatusNotFound:
			return fmt.Errorf("%w: %w", model.ErrNotFound, err)
		case serr.Type == stripe.ErrorTypeInvalidRequest:
			return fmt.Errorf("%w: %w", model.ErrValidation, err)
		}
	}
	return fmt.Errorf("%w: %w", model.ErrUpstream, err)
}
