package mailer

import (
	"context"
	"society_tickets/logger"

	"go.uber.org/zap"
)

// LogMailer writes what would have been sent to the log.
type LogMailer struct {
	log *logger.Logger
}

func NewLogMailer(log *logger.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) SendTicket(ctx context.Context, mail TicketEmail) error {
	codes := make([]string, 0, len(mail.Attendees))
	for _, a := range mail.Attendees {
		codes = append(codes, a.Code)
	}
	m.log.WithContext(ctx).Info("ticket email (not sent)",
		zap.String("to", mail.To),
		zap.String("event", mail.Event.Name),
		zap.Strings("codes", codes))
	return nil
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, to, link string) error {
	m.log.WithContext(ctx).Info("password reset email (not sent)", zap.String("to", to), zap.String("link", link))
	return nil
}
