package availability

import (
	"fmt"
	"iter"
	"regexp"
	"strconv"
	"time"

	"courtbook/pkg/model"
)

const (
	DefaultOpen  = "06:00"
	DefaultClose = "23:00"
)

var clockRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Clock is a wall-clock time of day, in minutes after midnight.
type Clock int

func ParseClock(s string) (Clock, error) {
	if !clockRegex.MatchString(s) {
		return 0, fmt.Errorf("time of day must be in HH:MM format (00:00-23:59), got: %s", s)
	}
	h, _ := strconv.Atoi(s[:2])
	m, _ := strconv.Atoi(s[3:])
	return Clock(h*60 + m), nil
}

func (c Clock) on(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, int(c)/60, int(c)%60, 0, 0, day.Location())
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

type BusinessHours struct {
	Open  Clock
	Close Clock
}

func ParseBusinessHours(open, close string) (BusinessHours, error) {
	o, err := ParseClock(open)
	if err != nil {
		return BusinessHours{}, err
	}
	c, err := ParseClock(close)
	if err != nil {
		return BusinessHours{}, err
	}
	if c <= o {
		return BusinessHours{}, fmt.Errorf("closing time %s must be after opening time %s", close, open)
	}
	return BusinessHours{Open: o, Close: c}, nil
}

func DefaultBusinessHours() BusinessHours {
	hours, _ := ParseBusinessHours(DefaultOpen, DefaultClose)
	return hours
}

// Contains reports whether [start, end) lies inside the hours of start's day.
func (h BusinessHours) Contains(start, end time.Time) bool {
	open := h.Open.on(start)
	closing := h.Close.on(start)
	return !start.Before(open) && !end.After(closing)
}

// IsAvailable reports whether no active booking on courtID overlaps [start, end).
func IsAvailable(courtID int64, start, end time.Time, bookings []*model.Booking) bool {
	for _, b := range bookings {
		if b.CourtID != courtID || !b.IsActive() {
			continue
		}
		if b.Overlaps(start, end) {
			return false
		}
	}
	return true
}

type Engine struct {
	hours BusinessHours
}

func NewEngine(hours BusinessHours) *Engine {
	return &Engine{hours: hours}
}

func (e *Engine) Hours() BusinessHours {
	return e.hours
}

// FreeSlots tiles the business day in slotMinutes steps and yields the windows
// that are still bookable on courtID. The sequence can be ranged over any
// number of times and always yields the same slots for the same input.
func (e *Engine) FreeSlots(courtID int64, day time.Time, slotMinutes int, bookings []*model.Booking) iter.Seq[Slot] {
	return func(yield func(Slot) bool) {
		if slotMinutes <= 0 {
			return
		}
		step := time.Duration(slotMinutes) * time.Minute
		closing := e.hours.Close.on(day)

		for cur := e.hours.Open.on(day); !cur.Add(step).After(closing); cur = cur.Add(step) {
			end := cur.Add(step)
			if !IsAvailable(courtID, cur, end, bookings) {
				continue
			}
			if !yield(Slot{Start: cur, End: end}) {
				return
			}
		}
	}
}
