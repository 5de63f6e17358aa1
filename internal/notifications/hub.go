package notifications

import (
	"context"
	"fmt"
	"sync"
	"time"

	"courtbook/pkg/logger"
	"courtbook/pkg/model"
)

const DefaultObserverTimeout = 2 * time.Second

type Event string

const (
	EventCreated   Event = "booking.created"
	EventCancelled Event = "booking.cancelled"
	EventModified  Event = "booking.modified"
	EventReminder  Event = "booking.reminder"
)

// Observer receives booking lifecycle events. Implementations get their own
// copy of each booking and must not block past the context deadline.
type Observer interface {
	OnBookingCreated(ctx context.Context, booking *model.Booking) error
	OnBookingCancelled(ctx context.Context, booking *model.Booking) error
	OnBookingModified(ctx context.Context, old, updated *model.Booking) error
	OnBookingReminder(ctx context.Context, booking *model.Booking) error
}

// Hub fans events out to its observers one at a time, in subscription order.
type Hub struct {
	mu        sync.RWMutex
	observers []Observer
	timeout   time.Duration
	log       *logger.Logger
}

func NewHub(log *logger.Logger, timeout time.Duration) *Hub {
	if timeout <= 0 {
		timeout = DefaultObserverTimeout
	}
	return &Hub{
		timeout: timeout,
		log:     log,
	}
}

// Subscribe registers o. Registering the same observer twice is a no-op.
func (h *Hub) Subscribe(o Observer) {
	if o == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, existing := range h.observers {
		if existing == o {
			return
		}
	}
	h.observers = append(h.observers, o)
}

func (h *Hub) Unsubscribe(o Observer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, existing := range h.observers {
		if existing == o {
			h.observers = append(h.observers[:i:i], h.observers[i+1:]...)
			return
		}
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.observers)
}

// Publish delivers event to every observer. A failing, panicking or slow
// observer is logged and skipped; delivery to the rest continues. old is only
// read for EventModified.
func (h *Hub) Publish(ctx context.Context, event Event, booking, old *model.Booking) {
	h.mu.RLock()
	observers := make([]Observer, len(h.observers))
	copy(observers, h.observers)
	h.mu.RUnlock()

	for _, o := range observers {
		if err := h.deliver(ctx, o, event, booking.Clone(), old.Clone()); err != nil {
			h.log.Warn("Notification observer failed",
				"observer", observerName(o),
				"event", string(event),
				"booking_id", booking.ID,
				"error", err,
			)
		}
	}
}

func (h *Hub) deliver(ctx context.Context, o Observer, event Event, booking, old *model.Booking) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("observer panicked: %v", r)
			}
		}()
		done <- dispatch(ctx, o, event, booking, old)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("observer did not finish: %w", ctx.Err())
	}
}

func dispatch(ctx context.Context, o Observer, event Event, booking, old *model.Booking) error {
	switch event {
	case EventCreated:
		return o.OnBookingCreated(ctx, booking)
	case EventCancelled:
		return o.OnBookingCancelled(ctx, booking)
	case EventModified:
		return o.OnBookingModified(ctx, old, booking)
	case EventReminder:
		return o.OnBookingReminder(ctx, booking)
	default:
		return fmt.Errorf("unknown event %q", event)
	}
}

type named interface {
	Name() string
}

func observerName(o Observer) string {
	if n, ok := o.(named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", o)
}
