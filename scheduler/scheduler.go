package scheduler

import (
	"context"
	"errors"
	"society_tickets/logger"
	"society_tickets/metrics"
	"society_tickets/model"
	"society_tickets/reconcile"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	shortfallSpec  = "@every 1m"
	shortfallBatch = 50
	jobTimeout     = 45 * time.Second
	// Events stay open for sales and check-in on the day they run.
	expiryGrace = 24 * time.Hour
)

type ShortfallSource interface {
	IncompletePurchases(ctx context.Context, limit int) ([]model.Attendee, error)
}

type Completer interface {
	Complete(ctx context.Context, primary model.Attendee) (reconcile.Outcome, error)
}

type EventExpirer interface {
	DeactivatePast(ctx context.Context, cutoff time.Time) (int64, error)
}

// Notify is called with every purchase the shortfall job finishes.
type Notify func(ctx context.Context, out reconcile.Outcome)

type Scheduler struct {
	cron  *cron.Cron
	daily gocron.Scheduler
	log   *logger.Logger
}

// Start runs the shortfall job every minute and the event expiry job daily
// at 00:05 local time.
func Start(source ShortfallSource, completer Completer, notify Notify, events EventExpirer, log *logger.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cron.DefaultLogger),
		)),
		log: log,
	}

	_, err := s.cron.AddFunc(shortfallSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		if _, err := CompleteShortfalls(ctx, source, completer, notify, log); err != nil {
			log.Error("shortfall job failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, err
	}

	daily, err := gocron.NewScheduler(gocron.WithLocation(time.Local))
	if err != nil {
		return nil, err
	}
	_, err = daily.NewJob(
		gocron.DailyJob(
			1,
			gocron.NewAtTimes(
				gocron.NewAtTime(0, 5, 0),
			),
		),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
			defer cancel()
			if _, err := ExpireEvents(ctx, events, time.Now(), log); err != nil {
				log.Error("event expiry job failed", zap.Error(err))
			}
		}),
	)
	if err != nil {
		return nil, err
	}
	s.daily = daily

	s.cron.Start()
	s.daily.Start()
	log.Info("schedulers started", zap.String("shortfall", shortfallSpec), zap.String("expiry", "00:05"))
	return s, nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() error {
	<-s.cron.Stop().Done()
	return s.daily.Shutdown()
}

// CompleteShortfalls finishes purchases that were left with fewer attendee
// rows than seats paid for and hands each finished purchase to notify. It
// returns how many purchases it completed.
func CompleteShortfalls(ctx context.Context, source ShortfallSource, completer Completer, notify Notify, log *logger.Logger) (int, error) {
	primaries, err := source.IncompletePurchases(ctx, shortfallBatch)
	if err != nil {
		return 0, err
	}
	metrics.PartialAllocations.Set(float64(len(primaries)))
	if len(primaries) == 0 {
		return 0, nil
	}

	var (
		completed int
		errs      []error
	)
	for _, primary := range primaries {
		out, err := completer.Complete(ctx, primary)
		if err != nil {
			log.Warn("purchase still incomplete",
				zap.String("purchase_id", primary.PurchaseID),
				zap.Int("quantity", primary.Quantity),
				zap.Error(err))
			errs = append(errs, err)
			continue
		}
		completed++
		if notify != nil {
			notify(ctx, out)
		}
	}
	metrics.PartialAllocations.Set(float64(len(primaries) - completed))
	log.Info("shortfall job finished", zap.Int("found", len(primaries)), zap.Int("completed", completed))
	return completed, errors.Join(errs...)
}

// ExpireEvents deactivates events that finished more than a day before now.
func ExpireEvents(ctx context.Context, events EventExpirer, now time.Time, log *logger.Logger) (int64, error) {
	n, err := events.DeactivatePast(ctx, now.Add(-expiryGrace))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Info("deactivated past events", zap.Int64("count", n))
	}
	return n, nil
}
