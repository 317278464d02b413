// Package mailer sends the ticket and password reset emails.
package mailer

import (
	"context"
	"society_tickets/config"
	"society_tickets/logger"
	"society_tickets/metrics"
	"society_tickets/model"
	"time"

	"go.uber.org/zap"
)

const sendTimeout = 30 * time.Second

// TicketEmail carries every seat of one purchase.
type TicketEmail struct {
	To         string
	Event      model.Event
	Attendees  []model.Attendee
	AmountPaid int64
}

type Mailer interface {
	SendTicket(ctx context.Context, mail TicketEmail) error
	SendPasswordReset(ctx context.Context, to, link string) error
}

// New returns an SMTP mailer, or a logging one when no SMTP host is set.
func New(mail config.MailConfig, appURL string, log *logger.Logger) Mailer {
	if !mail.Enabled() {
		log.Warn("SMTP not configured, emails will only be logged")
		return NewLogMailer(log)
	}
	return NewSMTPMailer(mail, appURL, log)
}

// SendTicketAsync sends in the background. Failures are logged and counted,
// never returned; onFailure, when set, runs after a failed send.
func SendTicketAsync(m Mailer, log *logger.Logger, mail TicketEmail, onFailure func(context.Context)) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if err := m.SendTicket(ctx, mail); err != nil {
			metrics.EmailsSent.WithLabelValues("ticket", "error").Inc()
			log.Error("failed to send ticket email",
				zap.String("to", mail.To),
				zap.Uint("event_id", mail.Event.ID),
				zap.Error(err))
			if onFailure != nil {
				rctx, rcancel := context.WithTimeout(context.Background(), sendTimeout)
				defer rcancel()
				onFailure(rctx)
			}
			return
		}
		metrics.EmailsSent.WithLabelValues("ticket", "ok").Inc()
	}()
}

// SendResetAsync is SendTicketAsync for password reset links.
func SendResetAsync(m Mailer, log *logger.Logger, to, link string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if err := m.SendPasswordReset(ctx, to, link); err != nil {
			metrics.EmailsSent.WithLabelValues("password_reset", "error").Inc()
			log.Error("failed to send password reset email", zap.String("to", to), zap.Error(err))
			return
		}
		metrics.EmailsSent.WithLabelValues("password_reset", "ok").Inc()
	}()
}
