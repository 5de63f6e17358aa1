package notifications

import (
	"context"
	"fmt"
	"sync/atomic"

	"courtbook/pkg/model"
	"courtbook/pkg/sanitizer"
)

// SMSSink sends short text messages. When region is set, directory entries
// are treated as phone numbers and normalized to E.164 first; entries that
// do not parse are skipped.
type SMSSink struct {
	sender    Sender
	directory Directory
	region    string
	enabled   atomic.Bool
}

func NewSMSSink(sender Sender, directory Directory, region string) *SMSSink {
	s := &SMSSink{sender: sender, directory: directory, region: region}
	s.enabled.Store(true)
	return s
}

func (s *SMSSink) Name() string { return "sms" }

func (s *SMSSink) SetEnabled(enabled bool) { s.enabled.Store(enabled) }

func (s *SMSSink) Enabled() bool { return s.enabled.Load() }

func (s *SMSSink) OnBookingCreated(ctx context.Context, b *model.Booking) error {
	return s.send(ctx, b.UserID, fmt.Sprintf("Booking confirmed for Court %d. Booking ID: %d", b.CourtID, b.ID))
}

func (s *SMSSink) OnBookingCancelled(ctx context.Context, b *model.Booking) error {
	return s.send(ctx, b.UserID, fmt.Sprintf("Booking %d has been cancelled.", b.ID))
}

func (s *SMSSink) OnBookingModified(ctx context.Context, _, updated *model.Booking) error {
	return s.send(ctx, updated.UserID, fmt.Sprintf("Booking %d has been modified.", updated.ID))
}

func (s *SMSSink) OnBookingReminder(ctx context.Context, b *model.Booking) error {
	return s.send(ctx, b.UserID, fmt.Sprintf("Reminder: Your booking %d is coming up soon.", b.ID))
}

func (s *SMSSink) send(ctx context.Context, userID int64, message string) error {
	if !s.enabled.Load() {
		return nil
	}
	to, ok := s.directory.Lookup(userID)
	if !ok {
		return nil
	}
	if s.region != "" {
		phone := sanitizer.NormalizePhone(to, s.region)
		if phone == "" {
			return fmt.Errorf("user %d has an invalid phone number", userID)
		}
		to = phone
	}
	return s.sender.Send(ctx, to, "", message)
}
