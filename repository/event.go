package repository

import (
	"context"
	"errors"
	"fmt"
	"society_tickets/helper"
	"society_tickets/model"
	"society_tickets/utils"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Find accepts either a numeric id or a slug.
func (r *EventRepository) Find(ctx context.Context, idOrSlug string) (*model.Event, error) {
	var event model.Event
	query := r.db.WithContext(ctx)
	var err error
	if id, convErr := strconv.ParseUint(idOrSlug, 10, 64); convErr == nil {
		err = query.First(&event, uint(id)).Error
	} else {
		err = query.Where("slug = ?", idOrSlug).First(&event).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("event %s: %w", idOrSlug, model.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *EventRepository) FindByID(ctx context.Context, id uint) (*model.Event, error) {
	return r.Find(ctx, strconv.FormatUint(uint64(id), 10))
}

func (r *EventRepository) List(ctx context.Context, filter model.FilterEvent) ([]model.Event, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Event{})
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var events []model.Event
	err := utils.ApplyPagination(query, filter.Limit, filter.Page).
		Order("date ASC").
		Order("id ASC").
		Find(&events).Error
	return events, total, err
}

// Stats computes attendee count and remaining seats for each event id.
func (r *EventRepository) Stats(ctx context.Context, events []model.Event) (map[uint]model.EventStats, error) {
	stats := make(map[uint]model.EventStats, len(events))
	if len(events) == 0 {
		return stats, nil
	}

	ids := make([]uint, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}

	type row struct {
		EventID uint
		Total   int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&model.Attendee{}).
		Select("event_id, COUNT(*) AS total").
		Where("event_id IN ?", ids).
		Group("event_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[uint]int64, len(rows))
	for _, rw := range rows {
		counts[rw.EventID] = rw.Total
	}
	for _, e := range events {
		stats[e.ID] = StatsFor(e, counts[e.ID])
	}
	return stats, nil
}

func StatsFor(event model.Event, attendees int64) model.EventStats {
	remaining := event.Capacity - int(attendees)
	if remaining < 0 {
		remaining = 0
	}
	return model.EventStats{
		AttendeeCount: attendees,
		Remaining:     remaining,
		IsFull:        remaining == 0,
	}
}

func (r *EventRepository) Create(ctx context.Context, event *model.Event) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		event.Slug = helper.GenerateUniqueEventSlug(tx, event.Name, 0)
		event.IsActive = true
		return tx.Create(event).Error
	})
}

// Update saves the edited event. A lower capacity must still cover the live
// attendees plus the seats owed to unfinished purchases; this is checked
// under the event row lock.
func (r *EventRepository) Update(ctx context.Context, event *model.Event, renamed bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked model.Event
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&locked, event.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("event %d: %w", event.ID, model.ErrNotFound)
			}
			return err
		}

		if event.Capacity < locked.Capacity {
			held, err := heldSeats(tx, event.ID)
			if err != nil {
				return err
			}
			if int64(event.Capacity) < held {
				return fmt.Errorf("capacity %d below %d held seats: %w", event.Capacity, held, model.ErrConflict)
			}
		}

		if renamed {
			event.Slug = helper.GenerateUniqueEventSlug(tx, event.Name, event.ID)
		}
		return tx.Select("*").Omit("created_at", "deleted_at").Updates(event).Error
	})
}

func (r *EventRepository) Deactivate(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&model.Event{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("event %d: %w", id, model.ErrNotFound)
	}
	return nil
}

// HardDelete removes the event permanently. Events that still have
// attendees are refused.
func (r *EventRepository) HardDelete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Unscoped().Model(&model.Attendee{}).Where("event_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("event %d has %d attendees: %w", id, count, model.ErrConflict)
		}
		res := tx.Unscoped().Delete(&model.Event{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("event %d: %w", id, model.ErrNotFound)
		}
		return nil
	})
}

func (r *EventRepository) SetImage(ctx context.Context, id uint, url string) error {
	return r.db.WithContext(ctx).Model(&model.Event{}).Where("id = ?", id).Update("image_url", url).Error
}

// DeactivatePast switches off events dated before cutoff.
func (r *EventRepository) DeactivatePast(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Event{}).
		Where("is_active = ? AND date < ?", true, cutoff).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}

// Summary is the admin view of one event's sales.
func (r *EventRepository) Summary(ctx context.Context, id uint) (*model.EventSummary, error) {
	event, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var total, checkedIn int64
	if err := r.db.WithContext(ctx).Model(&model.Attendee{}).Where("event_id = ?", id).Count(&total).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&model.Attendee{}).Where("event_id = ? AND checked_in = ?", id, true).Count(&checkedIn).Error; err != nil {
		return nil, err
	}

	stats := StatsFor(*event, total)
	return &model.EventSummary{
		EventID:        event.ID,
		Name:           event.Name,
		Capacity:       event.Capacity,
		TotalAttendees: total,
		CheckedIn:      checkedIn,
		Remaining:      stats.Remaining,
		IsFull:         stats.IsFull,
		Revenue:        event.Price.Mul(decimal.NewFromInt(total)),
		PricePerTicket: event.Price,
	}, nil
}
