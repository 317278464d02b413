package payment

import (
	"fmt"
	"society_tickets/model"
	"society_tickets/reconcile"
	"strconv"
	"strings"
)

const (
	metaName     = "name"
	metaEmail    = "email"
	metaPhone    = "phone"
	metaQuantity = "quantity"
	metaEventID  = "eventId"
)

// EncodeIntent stores the buyer's form on the session so it can be read
// back when the payment settles.
func EncodeIntent(req CheckoutRequest) map[string]string {
	phone := ""
	if req.Phone != nil {
		phone = *req.Phone
	}
	return map[string]string{
		metaName:     req.Name,
		metaEmail:    req.Email,
		metaPhone:    phone,
		metaQuantity: strconv.Itoa(req.Quantity),
		metaEventID:  strconv.FormatUint(uint64(req.Event.ID), 10),
	}
}

// DecodePurchase rebuilds the purchase from a paid session. The buyer's
// email falls back to the one the provider collected.
func DecodePurchase(s *Session) (reconcile.Purchase, error) {
	meta := s.Metadata
	if meta == nil {
		meta = map[string]string{}
	}

	qty, err := strconv.Atoi(strings.TrimSpace(meta[metaQuantity]))
	if err != nil {
		return reconcile.Purchase{}, fmt.Errorf("session %s quantity %q: %w", s.ID, meta[metaQuantity], model.ErrValidation)
	}
	eventID, err := strconv.ParseUint(strings.TrimSpace(meta[metaEventID]), 10, 64)
	if err != nil {
		return reconcile.Purchase{}, fmt.Errorf("session %s event id %q: %w", s.ID, meta[metaEventID], model.ErrValidation)
	}

	email := strings.TrimSpace(meta[metaEmail])
	if email == "" {
		email = s.CustomerEmail
	}
	var phone *string
	if p := strings.TrimSpace(meta[metaPhone]); p != "" {
		phone = &p
	}

	p := reconcile.Purchase{
		SessionID:  s.ID,
		Name:       strings.TrimSpace(meta[metaName]),
		Email:      strings.ToLower(email),
		Phone:      phone,
		Quantity:   qty,
		EventID:    uint(eventID),
		AmountPaid: s.AmountTotal,
	}
	return p, p.Validate()
}
