package reconcile

import (
	"context"
	"errors"
	"society_tickets/database/dbtest"
	"society_tickets/logger"
	"society_tickets/model"
	"society_tickets/repository"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSessions struct {
	mock.Mock
}

func (m *mockSessions) Purchase(ctx context.Context, sessionID string) (Purchase, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(Purchase), args.Error(1)
}

func TestBackoffDelays(t *testing.T) {
	b := DefaultBackoff()
	want := []int64{400, 540, 729, 984, 1328, 1500, 1500, 1500, 1500, 1500}
	for n, ms := range want {
		assert.Equal(t, time.Duration(ms)*time.Millisecond, b.Delay(n), "attempt %d", n)
	}
	assert.False(t, b.Exhausted(8))
	assert.True(t, b.Exhausted(9))
}

type pollerFixture struct {
	poller   *Poller
	sessions *mockSessions
	event    model.Event
	sleeps   []time.Duration
}

func newPollerFixture(t *testing.T, capacity int) *pollerFixture {
	t.Helper()
	db := dbtest.Open(t)
	event := model.Event{
		Name:     "Fundraiser Dinner",
		Slug:     "fundraiser-dinner",
		Date:     time.Date(2026, 12, 5, 0, 0, 0, 0, time.UTC),
		Price:    decimal.NewFromInt(20),
		Capacity: capacity,
		IsActive: true,
	}
	require.NoError(t, db.Create(&event).Error)

	f := &pollerFixture{sessions: &mockSessions{}, event: event}
	engine := NewEngine(repository.NewAttendeeRepository(db), logger.Nop())
	f.poller = NewPoller(engine, f.sessions, DefaultBackoff(), logger.Nop())
	f.poller.sleep = func(_ context.Context, d time.Duration) error {
		f.sleeps = append(f.sleeps, d)
		return nil
	}
	return f
}

func (f *pollerFixture) purchase(session string, qty int) Purchase {
	return Purchase{
		SessionID:  session,
		Name:       "Hodan Ali",
		Email:      "hodan@example.com",
		Quantity:   qty,
		EventID:    f.event.ID,
		AmountPaid: int64(qty) * 2000,
	}
}

func TestAttemptReconcilesPaidSession(t *testing.T) {
	f := newPollerFixture(t, 10)
	f.sessions.On("Purchase", mock.Anything, "cs_paid").Return(f.purchase("cs_paid", 2), nil).Once()

	out, err := f.poller.Attempt(context.Background(), "cs_paid")
	require.NoError(t, err)
	assert.Len(t, out.Attendees, 2)

	// Once rows exist the provider is not asked again.
	again, err := f.poller.Attempt(context.Background(), "cs_paid")
	require.NoError(t, err)
	assert.Equal(t, out.PurchaseID, again.PurchaseID)
	f.sessions.AssertExpectations(t)
}

func TestAttemptUnpaidIsNotReady(t *testing.T) {
	f := newPollerFixture(t, 10)
	f.sessions.On("Purchase", mock.Anything, "cs_open").Return(Purchase{}, ErrNotReady)

	_, err := f.poller.Attempt(context.Background(), "cs_open")
	require.ErrorIs(t, err, ErrNotReady)
}

func TestAttemptProviderOutageIsNotReady(t *testing.T) {
	f := newPollerFixture(t, 10)
	f.sessions.On("Purchase", mock.Anything, "cs_down").
		Return(Purchase{}, errors.Join(model.ErrUpstream, errors.New("503")))

	_, err := f.poller.Attempt(context.Background(), "cs_down")
	require.ErrorIs(t, err, ErrNotReady)
}

func TestAttemptCapacityIsTerminal(t *testing.T) {
	f := newPollerFixture(t, 1)
	f.sessions.On("Purchase", mock.Anything, "cs_big").Return(f.purchase("cs_big", 3), nil)

	_, err := f.poller.Attempt(context.Background(), "cs_big")
	require.ErrorIs(t, err, model.ErrCapacityExceeded)
	assert.NotErrorIs(t, err, ErrNotReady)
}

func TestAttemptRequiresSession(t *testing.T) {
	f := newPollerFixture(t, 1)
	_, err := f.poller.Attempt(context.Background(), "")
	require.ErrorIs(t, err, model.ErrValidation)
}

func TestPollConfirmsAfterRetries(t *testing.T) {
	f := newPollerFixture(t, 10)
	f.sessions.On("Purchase", mock.Anything, "cs_late").Return(Purchase{}, ErrNotReady).Twice()
	f.sessions.On("Purchase", mock.Anything, "cs_late").Return(f.purchase("cs_late", 1), nil).Once()

	out, err := f.poller.Poll(context.Background(), "cs_late")
	require.NoError(t, err)
	assert.Len(t, out.Attendees, 1)
	assert.Equal(t, []time.Duration{400 * time.Millisecond, 540 * time.Millisecond}, f.sleeps)
	f.sessions.AssertExpectations(t)
}

func TestPollGivesUp(t *testing.T) {
	f := newPollerFixture(t, 10)
	f.sessions.On("Purchase", mock.Anything, "cs_never").Return(Purchase{}, ErrNotReady)

	_, err := f.poller.Poll(context.Background(), "cs_never")
	require.ErrorIs(t, err, ErrConfirmationFailed)
	f.sessions.AssertNumberOfCalls(t, "Purchase", 10)
	assert.Len(t, f.sleeps, 9)
}

func TestPollStopsOnTerminalError(t *testing.T) {
	f := newPollerFixture(t, 10)
	f.sessions.On("Purchase", mock.Anything, "cs_gone").Return(Purchase{}, model.ErrNotFound)

	_, err := f.poller.Poll(context.Background(), "cs_gone")
	require.ErrorIs(t, err, model.ErrNotFound)
	f.sessions.AssertNumberOfCalls(t, "Purchase", 1)
	assert.Empty(t, f.sleeps)
}

func TestPollHonoursCancellation(t *testing.T) {
	f := newPollerFixture(t, 10)
	f.sessions.On("Purchase", mock.Anything, "cs_cancel").Return(Purchase{}, ErrNotReady)
	f.poller.sleep = sleepCtx

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.poller.Poll(ctx, "cs_cancel")
	require.ErrorIs(t, err, context.Canceled)
}
