package reconcile

import (
	"context"
	"errors"
	"fmt"
	"math"
	"society_tickets/logger"
	"society_tickets/metrics"
	"society_tickets/model"
	"time"

	"go.uber.org/zap"
)

// Backoff is the delay schedule between success-page attempts.
type Backoff struct {
	Initial  time.Duration
	Factor   float64
	Max      time.Duration
	Attempts int
}

func DefaultBackoff() Backoff {
	return Backoff{
		Initial:  400 * time.Millisecond,
		Factor:   1.35,
		Max:      1500 * time.Millisecond,
		Attempts: 10,
	}
}

// Delay is the wait after attempt n (zero based). Each step is rounded to
// the millisecond before the next one is derived.
func (b Backoff) Delay(n int) time.Duration {
	ms := float64(b.Initial.Milliseconds())
	limit := float64(b.Max.Milliseconds())
	for i := 0; i < n && ms < limit; i++ {
		ms = math.Round(ms * b.Factor)
	}
	return time.Duration(math.Min(ms, limit)) * time.Millisecond
}

// Exhausted reports whether attempt n is past the last one allowed.
func (b Backoff) Exhausted(n int) bool {
	return n >= b.Attempts-1
}

// SessionSource reads a purchase back from the payment provider. It returns
// ErrNotReady while the session is unpaid.
type SessionSource interface {
	Purchase(ctx context.Context, sessionID string) (Purchase, error)
}

// Poller confirms a purchase from the success page when the webhook has not
// arrived yet.
type Poller struct {
	engine   *Engine
	sessions SessionSource
	backoff  Backoff
	log      *logger.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

func NewPoller(engine *Engine, sessions SessionSource, backoff Backoff, log *logger.Logger) *Poller {
	return &Poller{
		engine:   engine,
		sessions: sessions,
		backoff:  backoff,
		log:      log,
		sleep:    sleepCtx,
	}
}

func (p *Poller) Backoff() Backoff {
	return p.backoff
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Attempt makes one confirmation attempt. Anything that may clear up by
// itself comes back as ErrNotReady; validation, unknown event and capacity
// failures come back as they are.
func (p *Poller) Attempt(ctx context.Context, sessionID string) (Outcome, error) {
	if sessionID == "" {
		return Outcome{}, fmt.Errorf("session id: %w", model.ErrValidation)
	}
	log := p.log.WithContext(ctx).WithFields(zap.String("session_id", sessionID))

	out, found, err := p.engine.Lookup(ctx, sessionID)
	if err != nil && !errors.Is(err, model.ErrPartialAllocation) {
		log.Warn("attendee lookup failed", zap.Error(err))
		return Outcome{}, fmt.Errorf("%w: %w", ErrNotReady, err)
	}
	if found {
		if err != nil {
			return out, fmt.Errorf("%w: %w", ErrNotReady, err)
		}
		return out, nil
	}

	purchase, err := p.sessions.Purchase(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrNotReady) {
			return Outcome{}, err
		}
		if Terminal(err) {
			return Outcome{}, err
		}
		log.Warn("session retrieval failed", zap.Error(err))
		return Outcome{}, fmt.Errorf("%w: %w", ErrNotReady, err)
	}

	out, err = p.engine.Reconcile(ctx, purchase)
	if err != nil {
		if Terminal(err) {
			return Outcome{}, err
		}
		log.Warn("reconciliation did not finish", zap.Error(err))
		return out, fmt.Errorf("%w: %w", ErrNotReady, err)
	}
	return out, nil
}

// Poll retries Attempt on the backoff schedule until the purchase is
// confirmed, a terminal error occurs or the attempts run out.
func (p *Poller) Poll(ctx context.Context, sessionID string) (Outcome, error) {
	var lastErr error
	for n := 0; n < p.backoff.Attempts; n++ {
		out, err := p.Attempt(ctx, sessionID)
		if err == nil {
			metrics.PollAttempts.Observe(float64(n + 1))
			return out, nil
		}
		if !errors.Is(err, ErrNotReady) {
			return Outcome{}, err
		}
		lastErr = err
		if p.backoff.Exhausted(n) {
			break
		}
		if err := p.sleep(ctx, p.backoff.Delay(n)); err != nil {
			return Outcome{}, err
		}
	}
	p.log.WithContext(ctx).Error("gave up confirming paid session",
		zap.String("session_id", sessionID),
		zap.Int("attempts", p.backoff.Attempts),
		zap.Error(lastErr))
	return Outcome{}, fmt.Errorf("%w: %w", ErrConfirmationFailed, lastErr)
}
