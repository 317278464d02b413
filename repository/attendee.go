package repository

import (
	"context"
	"errors"
	"fmt"
	"society_tickets/model"
	"society_tickets/utils"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttendeeRepository struct {
	db *gorm.DB
}

func NewAttendeeRepository(db *gorm.DB) *AttendeeRepository {
	return &AttendeeRepository{db: db}
}

func (r *AttendeeRepository) FindEvent(ctx context.Context, id uint) (*model.Event, error) {
	var event model.Event
	if err := r.db.WithContext(ctx).First(&event, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("event %d: %w", id, model.ErrNotFound)
		}
		return nil, err
	}
	return &event, nil
}

// CountAttendees counts the live (not deleted) attendees of an event.
func (r *AttendeeRepository) CountAttendees(ctx context.Context, eventID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Attendee{}).Where("event_id = ?", eventID).Count(&count).Error
	return count, err
}

func (r *AttendeeRepository) CountCheckedIn(ctx context.Context, eventID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Attendee{}).
		Where("event_id = ? AND checked_in = ?", eventID, true).
		Count(&count).Error
	return count, err
}

// CodeExists also sees deleted rows: codes are never reused.
func (r *AttendeeRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Unscoped().Model(&model.Attendee{}).Where("code = ?", code).Count(&count).Error
	return count > 0, err
}

// FindPrimaryBySession returns nil without error when no purchase carries
// the session yet.
func (r *AttendeeRepository) FindPrimaryBySession(ctx context.Context, sessionID string) (*model.Attendee, error) {
	var attendee model.Attendee
	err := r.db.WithContext(ctx).Unscoped().Where("session_id = ?", sessionID).First(&attendee).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &attendee, nil
}

func (r *AttendeeRepository) ListPurchase(ctx context.Context, purchaseID string) ([]model.Attendee, error) {
	var attendees []model.Attendee
	err := r.db.WithContext(ctx).
		Where("purchase_id = ?", purchaseID).
		Order("seat_index ASC").
		Find(&attendees).Error
	return attendees, err
}

// TakenSeats lists every seat index ever written for the purchase,
// including rows deleted by an admin afterwards.
func (r *AttendeeRepository) TakenSeats(ctx context.Context, purchaseID string) ([]int, error) {
	var seats []int
	err := r.db.WithContext(ctx).Unscoped().Model(&model.Attendee{}).
		Where("purchase_id = ?", purchaseID).
		Order("seat_index ASC").
		Pluck("seat_index", &seats).Error
	return seats, err
}

// InsertAttendee writes one row while holding the event row lock. A
// positive reserve is the number of seats the row's purchase claims; the
// insert is refused when the event cannot hold them. A guest row whose
// primary has been deleted no longer has a seat held for it and needs a free
// one. Unique index violations, including a second primary row for the same
// session, come back wrapped in model.ErrConflict.
func (r *AttendeeRepository) InsertAttendee(ctx context.Context, a *model.Attendee, reserve int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event model.Event
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&event, a.EventID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("event %d: %w", a.EventID, model.ErrNotFound)
			}
			return err
		}

		need := reserve
		if need == 0 && a.SessionID == nil {
			held, err := purchaseHeld(tx, a.PurchaseID)
			if err != nil {
				return err
			}
			if !held {
				need = 1
			}
		}

		if err := tx.Create(a).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: %w", model.ErrConflict, err)
			}
			return err
		}

		if need > 0 {
			held, err := heldSeats(tx, event.ID)
			if err != nil {
				return err
			}
			if held > int64(event.Capacity) {
				return fmt.Errorf("event %d has %d of %d seats held, %d requested: %w",
					event.ID, held-int64(need), event.Capacity, need, model.ErrCapacityExceeded)
			}
		}
		return nil
	})
}

// purchaseHeld reports whether the purchase's primary row is still live.
func purchaseHeld(tx *gorm.DB, purchaseID string) (bool, error) {
	var count int64
	err := tx.Model(&model.Attendee{}).
		Where("purchase_id = ? AND session_id IS NOT NULL", purchaseID).
		Count(&count).Error
	return count > 0, err
}

// heldSeats is the live attendee count plus the seats still owed to
// purchases whose allocation has not finished.
func heldSeats(tx *gorm.DB, eventID uint) (int64, error) {
	var live int64
	if err := tx.Model(&model.Attendee{}).Where("event_id = ?", eventID).Count(&live).Error; err != nil {
		return 0, err
	}

	var owed int64
	err := tx.Raw(`SELECT CAST(COALESCE(SUM(p.quantity - (
			SELECT COUNT(*) FROM attendees s WHERE s.purchase_id = p.purchase_id
		)), 0) AS INTEGER)
		FROM attendees p
		WHERE p.event_id = ? AND p.session_id IS NOT NULL AND p.deleted_at IS NULL`, eventID).
		Scan(&owed).Error
	if err != nil {
		return 0, err
	}
	if owed < 0 {
		owed = 0
	}
	return live + owed, nil
}

// ClaimTicketEmail marks the purchase's ticket email as sent. Only the first
// caller gets true.
func (r *AttendeeRepository) ClaimTicketEmail(ctx context.Context, attendeeID uint) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Attendee{}).
		Where("id = ? AND ticket_sent_at IS NULL", attendeeID).
		Update("ticket_sent_at", time.Now())
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ReleaseTicketEmail undoes ClaimTicketEmail so a later caller can send.
func (r *AttendeeRepository) ReleaseTicketEmail(ctx context.Context, attendeeID uint) error {
	return r.db.WithContext(ctx).Model(&model.Attendee{}).
		Where("id = ?", attendeeID).
		Update("ticket_sent_at", nil).Error
}

// IncompletePurchases returns primary rows whose purchase has fewer rows
// than the quantity paid for.
func (r *AttendeeRepository) IncompletePurchases(ctx context.Context, limit int) ([]model.Attendee, error) {
	var primaries []model.Attendee
	err := r.db.WithContext(ctx).
		Where("session_id IS NOT NULL").
		Where("quantity > (SELECT COUNT(*) FROM attendees s WHERE s.purchase_id = attendees.purchase_id)").
		Order("created_at ASC").
		Limit(limit).
		Find(&primaries).Error
	return primaries, err
}

func (r *AttendeeRepository) FindByCode(ctx context.Context, code string) (*model.Attendee, error) {
	var attendee model.Attendee
	err := r.db.WithContext(ctx).Preload("Event").Where("code = ?", strings.ToUpper(code)).First(&attendee).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("attendee %s: %w", code, model.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &attendee, nil
}

func (r *AttendeeRepository) FindByID(ctx context.Context, id uint) (*model.Attendee, error) {
	var attendee model.Attendee
	err := r.db.WithContext(ctx).First(&attendee, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("attendee %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &attendee, nil
}

// Search lists attendees newest first. q matches name, email or code,
// ignoring case.
func (r *AttendeeRepository) Search(ctx context.Context, filter model.FilterAttendee) ([]model.Attendee, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Attendee{})

	if q := strings.TrimSpace(filter.Q); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(code) LIKE ?", like, like, like)
	}
	if filter.EventID != nil {
		query = query.Where("event_id = ?", *filter.EventID)
	}
	if filter.CheckedIn != nil {
		query = query.Where("checked_in = ?", *filter.CheckedIn)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var attendees []model.Attendee
	err := utils.ApplyPagination(query, filter.Limit, filter.Page).
		Order("created_at DESC").
		Order("id DESC").
		Find(&attendees).Error
	return attendees, total, err
}

// SetCheckin flips or sets the checked-in flag under a row lock. With once
// set, an already checked-in attendee is reported and left unchanged.
func (r *AttendeeRepository) SetCheckin(ctx context.Context, code string, once bool) (*model.CheckinResult, error) {
	var result model.CheckinResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var attendee model.Attendee
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("code = ?", strings.ToUpper(code)).
			First(&attendee).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("attendee %s: %w", code, model.ErrNotFound)
		}
		if err != nil {
			return err
		}

		if once && attendee.CheckedIn {
			result = model.CheckinResult{Attendee: attendee, CheckedIn: true, AlreadyCheckedIn: true}
			return nil
		}

		next := true
		if !once {
			next = !attendee.CheckedIn
		}
		var at *time.Time
		if next {
			at = utils.Ptr(time.Now())
		}
		if err := tx.Model(&attendee).Updates(map[string]any{"checked_in": next, "checked_in_at": at}).Error; err != nil {
			return err
		}
		attendee.CheckedIn = next
		attendee.CheckedInAt = at
		result = model.CheckinResult{Attendee: attendee, CheckedIn: next, AlreadyCheckedIn: false}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *AttendeeRepository) Update(ctx context.Context, attendee *model.Attendee) error {
	return r.db.WithContext(ctx).Model(attendee).Select("name", "email", "phone", "checked_in", "checked_in_at").Updates(attendee).Error
}

func (r *AttendeeRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Attendee{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("attendee %d: %w", id, model.ErrNotFound)
	}
	return nil
}

// Summary counts paid (primary) and guest rows across all events.
func (r *AttendeeRepository) Summary(ctx context.Context) (paid, pending int64, err error) {
	if err = r.db.WithContext(ctx).Model(&model.Attendee{}).Where("session_id IS NOT NULL").Count(&paid).Error; err != nil {
		return
	}
	err = r.db.WithContext(ctx).Model(&model.Attendee{}).Where("session_id IS NULL").Count(&pending).Error
	return
}
