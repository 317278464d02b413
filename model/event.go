package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event is a ticketed society event. IsActive false is the soft-deleted state.
type Event struct {
	DTO
	Name          string          `gorm:"size:255;not null" json:"name"`
	Slug          string          `gorm:"size:255;not null;uniqueIndex" json:"slug"`
	Description   string          `gorm:"type:text" json:"description"`
	Location      string          `gorm:"size:255" json:"location"`
	Date          time.Time       `gorm:"not null;index" json:"date"`
	TimeRange     string          `gorm:"size:64" json:"time"`
	Price         decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	Capacity      int             `gorm:"not null" json:"capacity"`
	IsActive      bool            `gorm:"not null;default:true;index" json:"isActive"`
	StripePriceID *string         `gorm:"size:255" json:"stripePriceId"`
	ImageURL      *string         `gorm:"size:512" json:"imageUrl"`
}

type EventStats struct {
	AttendeeCount int64 `json:"attendeeCount"`
	Remaining     int   `json:"remaining"`
	IsFull        bool  `json:"isFull"`
}

type EventWithStats struct {
	Event
	EventStats
}

type EventSummary struct {
	EventID        uint            `json:"eventId"`
	Name           string          `json:"name"`
	Capacity       int             `json:"capacity"`
	TotalAttendees int64           `json:"totalAttendees"`
	CheckedIn      int64           `json:"checkedIn"`
	Remaining      int             `json:"remaining"`
	IsFull         bool            `json:"isFull"`
	Revenue        decimal.Decimal `json:"revenue"`
	PricePerTicket decimal.Decimal `json:"pricePerTicket"`
}

type CreateEventInput struct {
	Name          string          `json:"name" validate:"required,max=255"`
	Description   string          `json:"description"`
	Location      string          `json:"location" validate:"max=255"`
	Date          time.Time       `json:"date" validate:"required"`
	TimeRange     string          `json:"time" validate:"omitempty,max=64"`
	Price         decimal.Decimal `json:"price"`
	Capacity      int             `json:"capacity" validate:"gte=0"`
	StripePriceID *string         `json:"stripePriceId"`
	ImageURL      *string         `json:"imageUrl" validate:"omitempty,url"`
}

// EditEventInput is a partial update; nil fields are left unchanged.
type EditEventInput struct {
	Name          *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Description   *string          `json:"description"`
	Location      *string          `json:"location" validate:"omitempty,max=255"`
	Date          *time.Time       `json:"date"`
	TimeRange     *string          `json:"time" validate:"omitempty,max=64"`
	Price         *decimal.Decimal `json:"price"`
	Capacity      *int             `json:"capacity" validate:"omitempty,gte=0"`
	IsActive      *bool            `json:"isActive"`
	StripePriceID *string          `json:"stripePriceId"`
	ImageURL      *string          `json:"imageUrl" validate:"omitempty,url"`
}

type FilterEvent struct {
	Pagination
	ActiveOnly   bool `query:"activeOnly"`
	IncludeStats bool `query:"includeStats"`
}
