package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"society_tickets/config"
	"society_tickets/database/dbtest"
	"society_tickets/handler"
	"society_tickets/logger"
	"society_tickets/mailer"
	"society_tickets/model"
	"society_tickets/payment"
	"society_tickets/realtime"
	"society_tickets/reconcile"
	"society_tickets/repository"
	"society_tickets/router"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const doorPassword = "door-pass"

// fakeProvider stands in for the payment provider. Sessions are looked up
// by id; ParseWebhook returns whatever the test queued.
type fakeProvider struct {
	mu       sync.Mutex
	sessions map[string]*payment.Session
	created  []payment.CheckoutRequest
	webhook  *payment.WebhookEvent
	parseErr error
}

func (p *fakeProvider) CreateSession(_ context.Context, req payment.CheckoutRequest) (*payment.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, req)
	id := fmt.Sprintf("cs_test_%d", len(p.created))
	s := &payment.Session{ID: id, URL: "https://checkout.stripe.test/" + id, Metadata: payment.EncodeIntent(req)}
	p.sessions[id] = s
	return s, nil
}

func (p *fakeProvider) RetrieveSession(_ context.Context, id string) (*payment.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, model.ErrNotFound)
	}
	copied := *s
	return &copied, nil
}

func (p *fakeProvider) ParseWebhook(_ []byte, signature string) (*payment.WebhookEvent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.parseErr != nil || signature == "" {
		return nil, fmt.Errorf("%w: bad signature", model.ErrSignature)
	}
	return p.webhook, nil
}

func (p *fakeProvider) Mode() string { return "test" }

func (p *fakeProvider) put(s *payment.Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions[s.ID] = s
}

type recordingMailer struct {
	tickets chan mailer.TicketEmail
	resets  chan string
	// relayDown fails the next ticket send.
	relayDown atomic.Bool
	failed    chan string
}

func (m *recordingMailer) SendTicket(_ context.Context, mail mailer.TicketEmail) error {
	if m.relayDown.CompareAndSwap(true, false) {
		m.failed <- mail.To
		return errors.New("relay down")
	}
	m.tickets <- mail
	return nil
}

func (m *recordingMailer) SendPasswordReset(_ context.Context, _ string, link string) error {
	m.resets <- link
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []realtime.CheckinEvent
}

func (p *recordingPublisher) PublishCheckin(_ context.Context, ev realtime.CheckinEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) published() []realtime.CheckinEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]realtime.CheckinEvent(nil), p.events...)
}

type fixture struct {
	t         *testing.T
	app       *fiber.App
	db        *gorm.DB
	cfg       *config.Settings
	provider  *fakeProvider
	mail      *recordingMailer
	publisher *recordingPublisher
}

func testConfig() *config.Settings {
	return &config.Settings{
		App: config.AppConfig{
			Name:        "society-tickets-test",
			Environment: "development",
			URL:         "http://tickets.test",
		},
		Stripe: config.StripeConfig{WebhookSecret: "whsec_test"},
		Auth: config.AuthConfig{
			JWTSecret:     "test-secret",
			TokenTTL:      time.Hour,
			AdminPassword: doorPassword,
			ResetTokenTTL: time.Hour,
		},
		Checkout: config.CheckoutConfig{
			DefaultCapacity: 100,
			MaxQuantity:     10,
			SessionTTL:      30 * time.Minute,
		},
		RateLimit: config.RateLimitConfig{
			GeneralMax:     1000,
			GeneralWindow:  time.Minute,
			LoginMax:       1000,
			LoginWindow:    time.Minute,
			CheckoutMax:    1000,
			CheckoutWindow: time.Minute,
			AdminMax:       1000,
			AdminWindow:    time.Minute,
		},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:         t,
		db:        dbtest.Open(t),
		cfg:       testConfig(),
		provider:  &fakeProvider{sessions: map[string]*payment.Session{}},
		mail:      &recordingMailer{tickets: make(chan mailer.TicketEmail, 10), resets: make(chan string, 10), failed: make(chan string, 10)},
		publisher: &recordingPublisher{},
	}

	log := logger.Nop()
	engine := reconcile.NewEngine(repository.NewAttendeeRepository(f.db), log)
	poller := reconcile.NewPoller(engine, payment.NewSessionSource(f.provider), reconcile.DefaultBackoff(), log)
	h := handler.New(handler.Deps{
		Config:    f.cfg,
		DB:        f.db,
		Engine:    engine,
		Poller:    poller,
		Payments:  f.provider,
		Mailer:    f.mail,
		Publisher: f.publisher,
		Hub:       realtime.NewHub(log),
		Log:       log,
	})

	f.app = fiber.New(fiber.Config{ErrorHandler: handler.ErrorHandler})
	router.SetupRoutes(f.app, h, f.cfg)
	return f
}

func (f *fixture) seedEvent(name string, capacity int) model.Event {
	f.t.Helper()
	event := model.Event{
		Name:     name,
		Slug:     fmt.Sprintf("event-%d", time.Now().UnixNano()),
		Date:     time.Now().Add(14 * 24 * time.Hour),
		Price:    decimal.RequireFromString("12.50"),
		Capacity: capacity,
		IsActive: true,
	}
	require.NoError(f.t, f.db.Create(&event).Error)
	return event
}

// paidSession registers a settled checkout for qty seats of event.
func (f *fixture) paidSession(id string, event model.Event, qty int) *payment.Session {
	s := &payment.Session{
		ID:          id,
		Paid:        true,
		Status:      "complete",
		AmountTotal: int64(qty) * payment.MinorUnits(event),
		Metadata: payment.EncodeIntent(payment.CheckoutRequest{
			Event:    event,
			Name:     "Amina Yusuf",
			Email:    "amina@example.com",
			Quantity: qty,
		}),
	}
	f.provider.put(s)
	return s
}

type response struct {
	status int
	header http.Header
	body   map[string]any
	raw    *http.Response
}

func (f *fixture) do(method, path string, body any, headers map[string]string) response {
	f.t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(f.t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := f.app.Test(req, -1)
	require.NoError(f.t, err)
	defer resp.Body.Close()

	out := response{status: resp.StatusCode, header: resp.Header, raw: resp}
	data, err := io.ReadAll(resp.Body)
	require.NoError(f.t, err)
	if len(data) > 0 {
		require.NoError(f.t, json.Unmarshal(data, &out.body), string(data))
	}
	return out
}

func (f *fixture) asAdmin() map[string]string {
	return map[string]string{"x-admin-password": doorPassword}
}

func (f *fixture) countAttendees(eventID uint) int64 {
	f.t.Helper()
	var n int64
	require.NoError(f.t, f.db.Model(&model.Attendee{}).Where("event_id = ?", eventID).Count(&n).Error)
	return n
}

func (f *fixture) awaitTicket() mailer.TicketEmail {
	f.t.Helper()
	select {
	case m := <-f.mail.tickets:
		return m
	case <-time.After(2 * time.Second):
		f.t.Fatal("no ticket email sent")
		return mailer.TicketEmail{}
	}
}

func (f *fixture) noTicket() {
	f.t.Helper()
	select {
	case m := <-f.mail.tickets:
		f.t.Fatalf("unexpected ticket email to %s", m.To)
	case <-time.After(100 * time.Millisecond):
	}
}

// data returns the "data" object of a success envelope.
func data(r response) map[string]any {
	d, _ := r.body["data"].(map[string]any)
	return d
}

func idPath(format string, id uint) string {
	return fmt.Sprintf(format, strconv.FormatUint(uint64(id), 10))
}
