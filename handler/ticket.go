package handler

import (
	"context"
	"encoding/base64"
	"society_tickets/constants"
	"society_tickets/mailer"
	"society_tickets/model"
	"society_tickets/reconcile"
	"society_tickets/utils"
	"time"

	"go.uber.org/zap"
)

// TicketView is the confirmed-ticket payload of the success page.
type TicketView struct {
	Status            string           `json:"status"`
	PurchaseID        string           `json:"purchaseId"`
	Attendee          *model.Attendee  `json:"attendee"`
	Attendees         []model.Attendee `json:"attendees"`
	Event             *model.Event     `json:"event"`
	QRDataURL         string           `json:"qrDataUrl"`
	GoogleCalendarURL string           `json:"googleCalendarUrl"`
	ICSBase64         string           `json:"icsBase64"`
}

func (h *Handler) ticketView(ctx context.Context, out reconcile.Outcome) (*TicketView, error) {
	view := &TicketView{
		Status:     constants.POLL_STATUS_CONFIRMED,
		PurchaseID: out.PurchaseID,
		Attendees:  out.Attendees,
		Attendee:   out.Primary(),
	}
	if view.Attendee == nil && len(out.Attendees) > 0 {
		view.Attendee = &out.Attendees[0]
	}
	if view.Attendee == nil {
		return view, nil
	}

	event, err := h.events.FindByID(ctx, view.Attendee.EventID)
	if err != nil {
		return nil, err
	}
	view.Event = event

	qr, err := utils.QRDataURL(view.Attendee.Code)
	if err != nil {
		return nil, err
	}
	view.QRDataURL = qr

	cal := utils.TicketCalendarEvent(*event, *view.Attendee, h.cfg.App.URL)
	view.GoogleCalendarURL = utils.GoogleCalendarURL(cal)
	view.ICSBase64 = base64.StdEncoding.EncodeToString([]byte(utils.GenerateICS(cal, time.Now())))
	return view, nil
}

// SendTicketOnce emails the purchase if this caller wins the claim. The
// webhook, the success page and the shortfall job all call it; only one of
// them sends. A send that fails gives the claim back, so the buyer reloading
// the success page or a provider redelivery tries again.
func (h *Handler) SendTicketOnce(ctx context.Context, out reconcile.Outcome) {
	if !h.engine.ClaimTicketEmail(ctx, out) {
		return
	}
	primary := out.Primary()
	if primary == nil {
		return
	}
	event, err := h.events.FindByID(ctx, primary.EventID)
	if err != nil {
		h.log.WithContext(ctx).Error("could not load event for ticket email",
			zap.String("purchase_id", out.PurchaseID),
			zap.Error(err))
		h.engine.ReleaseTicketEmail(ctx, out)
		return
	}
	mailer.SendTicketAsync(h.mailer, h.log, mailer.TicketEmail{
		To:         primary.Email,
		Event:      *event,
		Attendees:  out.Attendees,
		AmountPaid: primary.AmountPaid,
	}, func(ctx context.Context) {
		h.engine.ReleaseTicketEmail(ctx, out)
	})
}
