package notifications

import (
	"context"
	"fmt"
	"sync"
	"time"

	"courtbook/pkg/model"
)

const (
	DefaultInAppCapacity = 100

	inAppTimeLayout = "2006-01-02 15:04:05"
)

// InAppSink keeps the most recent formatted notifications for display.
// Once full, each new message evicts the oldest one.
type InAppSink struct {
	mu       sync.Mutex
	ring     []string
	head     int
	size     int
	now      func() time.Time
	location *time.Location
}

func NewInAppSink(capacity int, loc *time.Location) *InAppSink {
	if capacity <= 0 {
		capacity = DefaultInAppCapacity
	}
	if loc == nil {
		loc = time.Local
	}
	return &InAppSink{
		ring:     make([]string, capacity),
		now:      time.Now,
		location: loc,
	}
}

func (s *InAppSink) Name() string { return "inapp" }

func (s *InAppSink) OnBookingCreated(_ context.Context, b *model.Booking) error {
	s.add(fmt.Sprintf("Booking created successfully for Court %d (ID: %d)", b.CourtID, b.ID))
	return nil
}

func (s *InAppSink) OnBookingCancelled(_ context.Context, b *model.Booking) error {
	s.add(fmt.Sprintf("Booking %d has been cancelled", b.ID))
	return nil
}

func (s *InAppSink) OnBookingModified(_ context.Context, _, updated *model.Booking) error {
	s.add(fmt.Sprintf("Booking %d has been modified", updated.ID))
	return nil
}

func (s *InAppSink) OnBookingReminder(_ context.Context, b *model.Booking) error {
	s.add(fmt.Sprintf("Reminder: Your booking %d is starting soon", b.ID))
	return nil
}

func (s *InAppSink) add(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	line := fmt.Sprintf("[%s] %s", s.now().In(s.location).Format(inAppTimeLayout), message)
	idx := (s.head + s.size) % len(s.ring)
	s.ring[idx] = line
	if s.size < len(s.ring) {
		s.size++
		return
	}
	s.head = (s.head + 1) % len(s.ring)
}

// Messages returns the retained notifications, oldest first.
func (s *InAppSink) Messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, s.size)
	for i := 0; i < s.size; i++ {
		out = append(out, s.ring[(s.head+i)%len(s.ring)])
	}
	return out
}

func (s *InAppSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// Clear empties the buffer and reports how many messages it dropped.
func (s *InAppSink) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	dropped := s.size
	clear(s.ring)
	s.head = 0
	s.size = 0
	return dropped
}
