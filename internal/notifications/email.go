package notifications

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"courtbook/pkg/model"
)

const emailSignature = "Best regards,\nBadminton Court Management System"

// EmailSink formats a mail for every event and passes it to its Sender.
// Users without an address in the directory are skipped.
type EmailSink struct {
	sender    Sender
	directory Directory
	location  *time.Location
	enabled   atomic.Bool
}

func NewEmailSink(sender Sender, directory Directory, loc *time.Location) *EmailSink {
	if loc == nil {
		loc = time.Local
	}
	s := &EmailSink{sender: sender, directory: directory, location: loc}
	s.enabled.Store(true)
	return s
}

func (s *EmailSink) Name() string { return "email" }

func (s *EmailSink) SetEnabled(enabled bool) { s.enabled.Store(enabled) }

func (s *EmailSink) Enabled() bool { return s.enabled.Load() }

func (s *EmailSink) OnBookingCreated(ctx context.Context, b *model.Booking) error {
	return s.send(ctx, b.UserID, "Booking Confirmation - Badminton Court",
		"Your booking has been successfully created.\n\n"+s.details(b)+
			"\n\nThank you for choosing our badminton courts!\n")
}

func (s *EmailSink) OnBookingCancelled(ctx context.Context, b *model.Booking) error {
	return s.send(ctx, b.UserID, "Booking Cancellation - Badminton Court",
		"Your booking has been cancelled.\n\n"+s.details(b)+
			"\n\nIf you have any questions, please contact us.\n")
}

func (s *EmailSink) OnBookingModified(ctx context.Context, _, updated *model.Booking) error {
	return s.send(ctx, updated.UserID, "Booking Modified - Badminton Court",
		"Your booking has been modified.\n\nNew booking details:\n"+s.details(updated)+
			"\n\nThank you for using our service!\n")
}

func (s *EmailSink) OnBookingReminder(ctx context.Context, b *model.Booking) error {
	return s.send(ctx, b.UserID, "Booking Reminder - Badminton Court",
		"This is a reminder for your upcoming booking.\n\n"+s.details(b)+
			"\n\nPlease arrive 15 minutes before your booking time.\n")
}

func (s *EmailSink) send(ctx context.Context, userID int64, subject, content string) error {
	if !s.enabled.Load() {
		return nil
	}
	to, ok := s.directory.Lookup(userID)
	if !ok {
		return nil
	}
	body := "Dear Customer,\n\n" + content + emailSignature
	return s.sender.Send(ctx, to, subject, body)
}

func (s *EmailSink) details(b *model.Booking) string {
	start := b.StartTime.In(s.location)
	end := b.EndTime.In(s.location)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Booking ID: %d\n", b.ID)
	fmt.Fprintf(&sb, "Court ID: %d\n", b.CourtID)
	fmt.Fprintf(&sb, "Date: %s\n", start.Format(time.DateOnly))
	fmt.Fprintf(&sb, "Start Time: %s\n", start.Format("15:04"))
	fmt.Fprintf(&sb, "End Time: %s\n", end.Format("15:04"))
	fmt.Fprintf(&sb, "Total Amount: %.2f\n", b.TotalAmount)
	fmt.Fprintf(&sb, "Status: %s", b.Status)
	if b.Notes != "" {
		fmt.Fprintf(&sb, "\nNotes: %s", b.Notes)
	}
	return sb.String()
}
