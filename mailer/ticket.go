package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"society_tickets/config"
	"society_tickets/logger"
	"society_tickets/model"
	"society_tickets/utils"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

//go:embed templates/*.html
var templateFS embed.FS

var ticketTemplate = template.Must(template.ParseFS(templateFS, "templates/ticket.html"))

const qrAttachmentName = "ticket-qr.png"

type ticketView struct {
	EventName   string
	BuyerName   string
	When        string
	Location    string
	Amount      string
	QRName      string
	PrimaryCode string
	Seats       []model.Attendee
	CalendarURL string
	TicketURL   string
}

// SMTPMailer sends through a plain SMTP relay.
type SMTPMailer struct {
	cfg    config.MailConfig
	appURL string
	log    *logger.Logger
	send   func(m ...*gomail.Message) error
}

func NewSMTPMailer(cfg config.MailConfig, appURL string, log *logger.Logger) *SMTPMailer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &SMTPMailer{cfg: cfg, appURL: appURL, log: log, send: d.DialAndSend}
}

// BuildTicketMessage renders the ticket email with the PDF tickets and an
// ICS file attached and the first seat's QR embedded inline.
func (s *SMTPMailer) BuildTicketMessage(mail TicketEmail) (*gomail.Message, error) {
	if len(mail.Attendees) == 0 {
		return nil, fmt.Errorf("ticket email for %s has no attendees", mail.To)
	}
	primary := mail.Attendees[0]

	pdf, err := utils.TicketPDF(mail.Event, mail.Attendees)
	if err != nil {
		return nil, fmt.Errorf("render ticket pdf: %w", err)
	}
	qr, err := utils.GenerateQRCode(primary.Code, utils.QRSize)
	if err != nil {
		return nil, fmt.Errorf("render qr: %w", err)
	}
	cal := utils.TicketCalendarEvent(mail.Event, primary, s.appURL)
	ics := utils.GenerateICS(cal, time.Now())

	start, end := utils.EventWindow(mail.Event)
	view := ticketView{
		EventName:   mail.Event.Name,
		BuyerName:   primary.Name,
		When:        fmt.Sprintf("%s, %s - %s", start.Format("Monday 2 January 2006"), start.Format("15:04"), end.Format("15:04")),
		Location:    mail.Event.Location,
		Amount:      utils.FormatMinor(mail.AmountPaid),
		QRName:      qrAttachmentName,
		PrimaryCode: primary.Code,
		Seats:       mail.Attendees,
		CalendarURL: utils.GoogleCalendarURL(cal),
	}
	if s.appURL != "" && primary.SessionID != nil {
		view.TicketURL = strings.TrimRight(s.appURL, "/") + "/success?session_id=" + *primary.SessionID
	}

	var body bytes.Buffer
	if err := ticketTemplate.Execute(&body, view); err != nil {
		return nil, fmt.Errorf("render ticket email: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", mail.To)
	m.SetHeader("Subject", fmt.Sprintf("Your tickets for %s (%s)", mail.Event.Name, primary.Code))
	m.SetBody("text/html", body.String())
	m.Embed(qrAttachmentName, copyBytes(qr))
	m.Attach("tickets.pdf", copyBytes(pdf))
	m.Attach("event.ics", copyBytes([]byte(ics)))
	return m, nil
}

func (s *SMTPMailer) SendTicket(ctx context.Context, mail TicketEmail) error {
	m, err := s.BuildTicketMessage(mail)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.send(m); err != nil {
		return fmt.Errorf("send ticket email to %s: %w", mail.To, err)
	}
	s.log.WithContext(ctx).Info("ticket email sent",
		zap.String("to", mail.To),
		zap.Int("tickets", len(mail.Attendees)))
	return nil
}

func copyBytes(b []byte) gomail.FileSetting {
	return gomail.SetCopyFunc(func(w io.Writer) error {
		_, err := w.Write(b)
		return err
	})
}
