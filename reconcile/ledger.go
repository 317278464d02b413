package reconcile

import (
	"context"
	"society_tickets/model"
)

type LedgerStore interface {
	FindEvent(ctx context.Context, id uint) (*model.Event, error)
	CountAttendees(ctx context.Context, eventID uint) (int64, error)
}

// Ledger answers how many seats an event has left. Every call counts
// attendees afresh.
type Ledger struct {
	store LedgerStore
}

func NewLedger(store LedgerStore) *Ledger {
	return &Ledger{store: store}
}

// Remaining is capacity minus the live attendee count, floored at zero.
func (l *Ledger) Remaining(ctx context.Context, eventID uint) (int, error) {
	stats, err := l.Snapshot(ctx, eventID)
	if err != nil {
		return 0, err
	}
	return stats.Remaining, nil
}

func (l *Ledger) Snapshot(ctx context.Context, eventID uint) (model.EventStats, error) {
	event, err := l.store.FindEvent(ctx, eventID)
	if err != nil {
		return model.EventStats{}, err
	}
	count, err := l.store.CountAttendees(ctx, eventID)
	if err != nil {
		return model.EventStats{}, err
	}

	remaining := event.Capacity - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return model.EventStats{
		AttendeeCount: count,
		Remaining:     remaining,
		IsFull:        remaining == 0,
	}, nil
}
