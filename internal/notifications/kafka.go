package notifications

import (
	"context"
	"strconv"
	"time"

	"courtbook/pkg/kafka"
	"courtbook/pkg/middleware"
	"courtbook/pkg/model"
)

const (
	eventSchemaVersion = "1"

	// HeaderCourtID lets consumers route by court without decoding the payload.
	HeaderCourtID = "court-id"
)

// EventPublisher is satisfied by *kafka.Producer.
type EventPublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type BookingEvent struct {
	Type       Event          `json:"type"`
	Booking    *model.Booking `json:"booking"`
	Previous   *model.Booking `json:"previous,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// KafkaSink publishes every lifecycle event as JSON, keyed by booking id.
type KafkaSink struct {
	publisher EventPublisher
	source    string
	now       func() time.Time
}

func NewKafkaSink(publisher EventPublisher, source string) *KafkaSink {
	return &KafkaSink{publisher: publisher, source: source, now: time.Now}
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) OnBookingCreated(ctx context.Context, b *model.Booking) error {
	return s.publish(ctx, EventCreated, b, nil)
}

func (s *KafkaSink) OnBookingCancelled(ctx context.Context, b *model.Booking) error {
	return s.publish(ctx, EventCancelled, b, nil)
}

func (s *KafkaSink) OnBookingModified(ctx context.Context, old, updated *model.Booking) error {
	return s.publish(ctx, EventModified, updated, old)
}

func (s *KafkaSink) OnBookingReminder(ctx context.Context, b *model.Booking) error {
	return s.publish(ctx, EventReminder, b, nil)
}

func (s *KafkaSink) publish(ctx context.Context, event Event, b, previous *model.Booking) error {
	occurredAt := s.now()
	requestID := middleware.RequestID(ctx)

	msg, err := kafka.NewMessage().
		WithKey(strconv.FormatInt(b.ID, 10)).
		WithValue(BookingEvent{
			Type:       event,
			Booking:    b,
			Previous:   previous,
			OccurredAt: occurredAt,
		}).
		WithTimestamp(occurredAt).
		WithEventType(string(event)).
		WithCorrelationID(requestID).
		WithSchemaVersion(eventSchemaVersion).
		WithSource(s.source).
		WithHeader(HeaderCourtID, strconv.FormatInt(b.CourtID, 10)).
		Build()
	if err != nil {
		return err
	}
	return s.publisher.Publish(ctx, msg)
}
