package model

import "time"

// Attendee is one seat at one event. Only the primary row of a purchase
// carries SessionID; every row of the purchase shares PurchaseID.
type Attendee struct {
	DTO
	Name         string     `gorm:"size:255;not null" json:"name"`
	Email        string     `gorm:"size:255;not null;index" json:"email"`
	Phone        *string    `gorm:"size:50" json:"phone"`
	Code         string     `gorm:"size:16;not null;uniqueIndex" json:"code"`
	EventID      uint       `gorm:"not null;index" json:"eventId"`
	Event        *Event     `gorm:"foreignKey:EventID" json:"event,omitempty"`
	CheckedIn    bool       `gorm:"not null;default:false" json:"checkedIn"`
	CheckedInAt  *time.Time `json:"checkedInAt"`
	SessionID    *string    `gorm:"size:255;uniqueIndex" json:"stripeSessionId"`
	PurchaseID   string     `gorm:"size:36;not null;uniqueIndex:idx_attendee_purchase_seat,priority:1" json:"purchaseId"`
	SeatIndex    int        `gorm:"not null;uniqueIndex:idx_attendee_purchase_seat,priority:2" json:"seatIndex"`
	Quantity     int        `gorm:"not null" json:"quantity"`
	AmountPaid   int64      `gorm:"not null" json:"amountPaid"`
	TicketSentAt *time.Time `json:"ticketSentAt,omitempty"`
}

func (a Attendee) IsPrimary() bool {
	return a.SessionID != nil
}

type FilterAttendee struct {
	Pagination
	Q         string `query:"q"`
	EventID   *uint  `query:"eventId"`
	CheckedIn *bool  `query:"checkedIn"`
}

// EditAttendeeInput is a partial update; the code and event never change.
type EditAttendeeInput struct {
	Name      *string `json:"name" validate:"omitempty,min=1,max=255"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Phone     *string `json:"phone" validate:"omitempty,max=50"`
	CheckedIn *bool   `json:"checkedIn"`
}

type ToggleCheckinInput struct {
	Code string `json:"code" validate:"required"`
}

type CheckinResult struct {
	Attendee         Attendee `json:"attendee"`
	CheckedIn        bool     `json:"checkedIn"`
	AlreadyCheckedIn bool     `json:"alreadyCheckedIn"`
	Mode             string   `json:"mode"`
}

type AttendanceSummary struct {
	Paid      int64 `json:"paid"`
	Pending   int64 `json:"pending"`
	Capacity  int   `json:"capacity"`
	Remaining int   `json:"remaining"`
}
