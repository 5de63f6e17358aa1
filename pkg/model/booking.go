package model

import (
	"errors"
	"fmt"
	"time"
)

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
)

var ErrInvalidTransition = errors.New("invalid booking status transition")

// transitions lists the statuses reachable from each non-terminal status.
var transitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

func (s BookingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// EarnsRevenue reports whether a booking in this status counts towards revenue.
func (s BookingStatus) EarnsRevenue() bool {
	return s == StatusConfirmed || s == StatusCompleted
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s BookingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type Booking struct {
	ID          int64         `json:"id" bson:"_id" validate:"gte=0"`
	UserID      int64         `json:"user_id" bson:"user_id" validate:"gt=0"`
	CourtID     int64         `json:"court_id" bson:"court_id" validate:"gt=0"`
	BookingDate time.Time     `json:"booking_date" bson:"booking_date" validate:"required"`
	StartTime   time.Time     `json:"start_time" bson:"start_time" validate:"required"`
	EndTime     time.Time     `json:"end_time" bson:"end_time" validate:"required,gtfield=StartTime"`
	TotalAmount float64       `json:"total_amount" bson:"total_amount" validate:"gte=0"`
	Status      BookingStatus `json:"status" bson:"status" validate:"required,oneof=pending confirmed completed cancelled"`
	Notes       string        `json:"notes,omitempty" bson:"notes" validate:"max=500"`
	CreatedAt   time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" bson:"updated_at"`
}

func NewBooking(userID, courtID int64, bookingDate, start, end time.Time, amount float64) *Booking {
	now := time.Now()
	if bookingDate.IsZero() {
		bookingDate = StartOfDay(start)
	}
	return &Booking{
		UserID:      userID,
		CourtID:     courtID,
		BookingDate: bookingDate,
		StartTime:   start,
		EndTime:     end,
		TotalAmount: amount,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// SetStatus moves the booking along its lifecycle and stamps UpdatedAt.
func (b *Booking) SetStatus(next BookingStatus, at time.Time) error {
	if !b.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, next)
	}
	b.Status = next
	b.UpdatedAt = at
	return nil
}

// IsActive reports whether the booking still holds its slot.
func (b *Booking) IsActive() bool {
	return b.Status.Valid() && !b.Status.IsTerminal()
}

// Overlaps reports whether [start, end) intersects the booking's interval.
// Back-to-back intervals do not overlap.
func (b *Booking) Overlaps(start, end time.Time) bool {
	return start.Before(b.EndTime) && end.After(b.StartTime)
}

func (b *Booking) ConflictsWith(other *Booking) bool {
	return b.CourtID == other.CourtID &&
		SameDay(b.BookingDate, other.BookingDate) &&
		b.Overlaps(other.StartTime, other.EndTime)
}

func (b *Booking) Duration() time.Duration {
	return b.EndTime.Sub(b.StartTime)
}

func (b *Booking) DurationHours() float64 {
	return b.Duration().Hours()
}

func (b *Booking) Clone() *Booking {
	if b == nil {
		return nil
	}
	c := *b
	return &c
}

// InLocation converts every timestamp to loc. Storage backends that drop the
// zone (BSON dates come back in UTC) are normalized through this on load.
func (b *Booking) InLocation(loc *time.Location) {
	if loc == nil {
		return
	}
	b.BookingDate = b.BookingDate.In(loc)
	b.StartTime = b.StartTime.In(loc)
	b.EndTime = b.EndTime.In(loc)
	b.CreatedAt = b.CreatedAt.In(loc)
	b.UpdatedAt = b.UpdatedAt.In(loc)
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay compares calendar days, reading b in a's location.
func SameDay(a, b time.Time) bool {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.In(a.Location()).Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// WithinDays reports whether t's calendar day lies in [from, to], both inclusive.
func WithinDays(t, from, to time.Time) bool {
	day := StartOfDay(t.In(from.Location()))
	return !day.Before(StartOfDay(from)) && day.Before(StartOfDay(to.In(from.Location())).AddDate(0, 0, 1))
}
