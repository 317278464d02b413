package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strconv"

	"github.com/jordan-wright/email"
	"go.uber.org/zap"
)

// BuildResetEmail is the password reset message for to.
func (s *SMTPMailer) BuildResetEmail(to, link string) *email.Email {
	e := email.NewEmail()
	e.From = s.cfg.From
	e.To = []string{to}
	e.Subject = "Reset your admin password"
	e.Text = []byte(fmt.Sprintf("Use this link to choose a new password. It expires in one hour.\n\n%s\n\nIf you did not ask for this, ignore this email.", link))
	e.HTML = []byte(fmt.Sprintf(`<p>Use <a href="%s">this link</a> to choose a new password. It expires in one hour.</p><p>If you did not ask for this, ignore this email.</p>`, link))
	return e
}

func (s *SMTPMailer) SendPasswordReset(ctx context.Context, to, link string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e := s.BuildResetEmail(to, link)
	addr := s.cfg.Host + ":" + strconv.Itoa(s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	if err := e.Send(addr, auth); err != nil {
		return fmt.Errorf("send password reset to %s: %w", to, err)
	}
	s.log.WithContext(ctx).Info("password reset email sent", zap.String("to", to))
	return nil
}
