package reconcile

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"society_tickets/logger"
	"society_tickets/metrics"
	"society_tickets/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxInsertAttempts = 5

// Store is the persistence the engine needs. InsertAttendee must report
// unique index violations as model.ErrConflict and capacity shortfalls as
// model.ErrCapacityExceeded.
type Store interface {
	LedgerStore
	CodeProber
	FindPrimaryBySession(ctx context.Context, sessionID string) (*model.Attendee, error)
	ListPurchase(ctx context.Context, purchaseID string) ([]model.Attendee, error)
	TakenSeats(ctx context.Context, purchaseID string) ([]int, error)
	InsertAttendee(ctx context.Context, a *model.Attendee, reserve int) error
	ClaimTicketEmail(ctx context.Context, attendeeID uint) (bool, error)
	ReleaseTicketEmail(ctx context.Context, attendeeID uint) error
}

// Outcome is the attendee set of one purchase, ordered by seat.
type Outcome struct {
	Attendees  []model.Attendee
	PurchaseID string
	PrimaryID  uint
	// Replayed is set when the purchase already existed before this call.
	Replayed bool
	// Created counts rows written by this call.
	Created int
	// Complete is set once every paid seat has a row.
	Complete bool
	// Cancelled is set when an admin deleted the primary row. Its unwritten
	// seats are released and never completed.
	Cancelled bool
}

// Primary returns the row carrying the session id, if it is still live.
func (o Outcome) Primary() *model.Attendee {
	for i := range o.Attendees {
		if o.Attendees[i].ID == o.PrimaryID {
			return &o.Attendees[i]
		}
	}
	return nil
}

type Engine struct {
	store         Store
	ledger        *Ledger
	codes         *CodeGenerator
	log           *logger.Logger
	newPurchaseID func() string
}

func NewEngine(store Store, log *logger.Logger) *Engine {
	return &Engine{
		store:         store,
		ledger:        NewLedger(store),
		codes:         NewCodeGenerator(store),
		log:           log,
		newPurchaseID: uuid.NewString,
	}
}

func (e *Engine) Ledger() *Ledger {
	return e.ledger
}

var errLostRace = errors.New("session already allocated by a concurrent call")

// Reconcile turns a paid purchase into attendee rows. It is safe to call any
// number of times with the same purchase: once a primary row exists for the
// session, later calls return that purchase's rows and only fill in seats
// an earlier call failed to write.
func (e *Engine) Reconcile(ctx context.Context, p Purchase) (Outcome, error) {
	if err := p.Validate(); err != nil {
		metrics.Reconciliations.WithLabelValues("invalid").Inc()
		return Outcome{}, err
	}
	log := e.log.WithContext(ctx).WithFields(
		zap.String("session_id", p.SessionID),
		zap.Uint("event_id", p.EventID),
		zap.Int("quantity", p.Quantity),
	)

	primary, err := e.store.FindPrimaryBySession(ctx, p.SessionID)
	if err != nil {
		return Outcome{}, fmt.Errorf("lookup session %s: %w", p.SessionID, err)
	}
	if primary != nil {
		metrics.Reconciliations.WithLabelValues("replayed").Inc()
		return e.Complete(ctx, *primary)
	}

	remaining, err := e.ledger.Remaining(ctx, p.EventID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			metrics.Reconciliations.WithLabelValues("not_found").Inc()
			log.Error("paid purchase references an unknown event, manual remediation required", zap.Error(err))
		}
		return Outcome{}, err
	}
	if remaining < p.Quantity {
		// A concurrent call may have allocated this very session after the
		// lookup above, using up the seats it counted.
		if out, ok, err := e.Lookup(ctx, p.SessionID); err != nil || ok {
			return out, err
		}
		metrics.Reconciliations.WithLabelValues("capacity_exceeded").Inc()
		log.Error("paid purchase exceeds remaining capacity, manual remediation required", zap.Int("remaining", remaining))
		return Outcome{}, fmt.Errorf("event %d has %d seats left, %d requested: %w",
			p.EventID, remaining, p.Quantity, model.ErrCapacityExceeded)
	}

	purchaseID := e.newPurchaseID()
	log = log.WithFields(zap.String("purchase_id", purchaseID))

	first := e.seat(p, purchaseID, 0)
	first.SessionID = &p.SessionID
	if _, err := e.insert(ctx, &first, p.Quantity); err != nil {
		if errors.Is(err, errLostRace) {
			winner, ferr := e.store.FindPrimaryBySession(ctx, p.SessionID)
			if ferr != nil {
				return Outcome{}, fmt.Errorf("lookup session %s after conflict: %w", p.SessionID, ferr)
			}
			log.Info("lost allocation race, returning the winning purchase",
				zap.String("winner_purchase_id", winner.PurchaseID))
			metrics.Reconciliations.WithLabelValues("race_lost").Inc()
			return e.Complete(ctx, *winner)
		}
		if errors.Is(err, model.ErrCapacityExceeded) {
			if out, ok, lerr := e.Lookup(ctx, p.SessionID); lerr != nil || ok {
				return out, lerr
			}
			metrics.Reconciliations.WithLabelValues("capacity_exceeded").Inc()
			log.Error("paid purchase exceeds remaining capacity, manual remediation required", zap.Error(err))
		}
		return Outcome{}, err
	}
	metrics.AttendeesCreated.Inc()

	out := Outcome{
		Attendees:  []model.Attendee{first},
		PurchaseID: purchaseID,
		PrimaryID:  first.ID,
		Created:    1,
	}
	relist := false
	for i := 1; i < p.Quantity; i++ {
		a := e.seat(p, purchaseID, i)
		inserted, err := e.insert(ctx, &a, 0)
		if err != nil {
			metrics.Reconciliations.WithLabelValues("partial").Inc()
			log.Error("allocation stopped part way, remaining seats will be completed on retry",
				zap.Int("allocated", len(out.Attendees)),
				zap.Int("failed_seat", i),
				zap.Error(err))
			return out, fmt.Errorf("purchase %s seat %d of %d: %w: %w", purchaseID, i+1, p.Quantity, model.ErrPartialAllocation, err)
		}
		if !inserted {
			relist = true
			continue
		}
		metrics.AttendeesCreated.Inc()
		out.Attendees = append(out.Attendees, a)
		out.Created++
	}

	if relist {
		rows, err := e.store.ListPurchase(ctx, purchaseID)
		if err != nil {
			return out, fmt.Errorf("list purchase %s: %w", purchaseID, err)
		}
		out.Attendees = rows
	}
	out.Complete = true

	metrics.Reconciliations.WithLabelValues("created").Inc()
	log.Info("purchase reconciled", zap.Int("created", out.Created))
	return out, nil
}

// Complete writes any seats missing from primary's purchase and returns the
// purchase's live rows. It writes nothing for a purchase that is already
// whole or whose primary row was deleted.
func (e *Engine) Complete(ctx context.Context, primary model.Attendee) (Outcome, error) {
	out := Outcome{
		PurchaseID: primary.PurchaseID,
		PrimaryID:  primary.ID,
		Replayed:   true,
	}

	if primary.DeletedAt.Valid {
		rows, err := e.store.ListPurchase(ctx, primary.PurchaseID)
		if err != nil {
			return out, fmt.Errorf("list purchase %s: %w", primary.PurchaseID, err)
		}
		e.log.WithContext(ctx).Info("purchase primary was deleted, not completing",
			zap.String("purchase_id", primary.PurchaseID),
			zap.Int("live", len(rows)))
		out.Attendees = rows
		out.Cancelled = true
		return out, nil
	}

	taken, err := e.store.TakenSeats(ctx, primary.PurchaseID)
	if err != nil {
		return out, fmt.Errorf("seats of purchase %s: %w", primary.PurchaseID, err)
	}

	p := Purchase{
		SessionID: deref(primary.SessionID),
		Name:      primary.Name,
		Email:     primary.Email,
		Phone:     primary.Phone,
		Quantity:  primary.Quantity,
		EventID:   primary.EventID,
	}
	for i := 1; i < primary.Quantity; i++ {
		if slices.Contains(taken, i) {
			continue
		}
		a := e.seat(p, primary.PurchaseID, i)
		inserted, err := e.insert(ctx, &a, 0)
		if err != nil {
			e.log.WithContext(ctx).Error("could not complete purchase",
				zap.String("purchase_id", primary.PurchaseID),
				zap.Int("failed_seat", i),
				zap.Error(err))
			out.Attendees, _ = e.store.ListPurchase(ctx, primary.PurchaseID)
			return out, fmt.Errorf("purchase %s seat %d of %d: %w: %w", primary.PurchaseID, i+1, primary.Quantity, model.ErrPartialAllocation, err)
		}
		if inserted {
			metrics.AttendeesCreated.Inc()
			out.Created++
		}
	}
	if out.Created > 0 {
		e.log.WithContext(ctx).Info("completed partial purchase",
			zap.String("purchase_id", primary.PurchaseID),
			zap.Int("created", out.Created))
	}

	rows, err := e.store.ListPurchase(ctx, primary.PurchaseID)
	if err != nil {
		return out, fmt.Errorf("list purchase %s: %w", primary.PurchaseID, err)
	}
	out.Attendees = rows
	out.Complete = true
	return out, nil
}

// Lookup returns the reconciled purchase for a session without contacting
// the payment provider. found is false when no call has allocated it yet.
func (e *Engine) Lookup(ctx context.Context, sessionID string) (out Outcome, found bool, err error) {
	primary, err := e.store.FindPrimaryBySession(ctx, sessionID)
	if err != nil || primary == nil {
		return Outcome{}, false, err
	}
	out, err = e.Complete(ctx, *primary)
	return out, true, err
}

// ClaimTicketEmail reports whether the caller should send the ticket email
// for out. Exactly one caller per purchase gets true, and only once the
// purchase is complete.
func (e *Engine) ClaimTicketEmail(ctx context.Context, out Outcome) bool {
	if !out.Complete || out.PrimaryID == 0 {
		return false
	}
	claimed, err := e.store.ClaimTicketEmail(ctx, out.PrimaryID)
	if err != nil {
		e.log.WithContext(ctx).Warn("could not claim ticket email", zap.String("purchase_id", out.PurchaseID), zap.Error(err))
		return false
	}
	return claimed
}

// ReleaseTicketEmail hands the claim back after a failed send, so the next
// replay or success page load sends again.
func (e *Engine) ReleaseTicketEmail(ctx context.Context, out Outcome) {
	if out.PrimaryID == 0 {
		return
	}
	if err := e.store.ReleaseTicketEmail(ctx, out.PrimaryID); err != nil {
		e.log.WithContext(ctx).Warn("could not release ticket email claim", zap.String("purchase_id", out.PurchaseID), zap.Error(err))
	}
}

func (e *Engine) seat(p Purchase, purchaseID string, i int) model.Attendee {
	return model.Attendee{
		Name:       SeatName(p.Name, i),
		Email:      p.Email,
		Phone:      p.Phone,
		EventID:    p.EventID,
		PurchaseID: purchaseID,
		SeatIndex:  i,
		Quantity:   p.Quantity,
		AmountPaid: p.AmountPaid,
	}
}

// insert stores a with a fresh booking code. It returns false without error
// when another writer already stored the same seat, and errLostRace when a
// primary row for the session already exists.
func (e *Engine) insert(ctx context.Context, a *model.Attendee, reserve int) (bool, error) {
	for attempt := 0; attempt < maxInsertAttempts; attempt++ {
		code, err := e.codes.Next(ctx)
		if err != nil {
			return false, err
		}
		a.Code = code

		err = e.store.InsertAttendee(ctx, a, reserve)
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, model.ErrConflict) {
			return false, err
		}

		// Work out which unique index refused the row.
		if a.SessionID != nil {
			winner, ferr := e.store.FindPrimaryBySession(ctx, *a.SessionID)
			if ferr != nil {
				return false, ferr
			}
			if winner != nil {
				return false, errLostRace
			}
		} else {
			taken, ferr := e.store.TakenSeats(ctx, a.PurchaseID)
			if ferr != nil {
				return false, ferr
			}
			if slices.Contains(taken, a.SeatIndex) {
				return false, nil
			}
		}
		a.ID = 0
	}
	return false, fmt.Errorf("booking code kept colliding after %d attempts: %w", maxInsertAttempts, model.ErrConflict)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
