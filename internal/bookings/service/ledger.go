package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"sync"
	"time"

	"courtbook/internal/bookings/availability"
	bookingserrors "courtbook/internal/bookings/errors"
	"courtbook/internal/bookings/repository"
	"courtbook/internal/notifications"
	"courtbook/pkg/config"
	apperrors "courtbook/pkg/errors"
	"courtbook/pkg/logger"
	"courtbook/pkg/model"
	"courtbook/pkg/sanitizer"
)

// Ledger is the authoritative collection of bookings. Every booking handed
// out is a copy; changes go through the mutating methods only.
type Ledger interface {
	Create(ctx context.Context, candidate *model.Booking) (*model.Booking, error)
	Cancel(ctx context.Context, id int64) error
	Confirm(ctx context.Context, id int64) (*model.Booking, error)
	Complete(ctx context.Context, id int64) (*model.Booking, error)
	Modify(ctx context.Context, id int64, changes Changes) (*model.Booking, error)

	GetByID(id int64) (*model.Booking, error)
	All() []*model.Booking
	ByUser(userID int64) []*model.Booking
	ByCourt(courtID int64) []*model.Booking
	ByDate(day time.Time) []*model.Booking
	ByDateRange(from, to time.Time) []*model.Booking

	IsAvailable(courtID int64, start, end time.Time) bool
	FreeSlots(courtID int64, day time.Time, slotMinutes int) iter.Seq[availability.Slot]
	Quote(ctx context.Context, courtID int64, start, end time.Time) (float64, error)

	TotalRevenue(from, to time.Time) float64
	BookingCount(from, to time.Time) int

	SendReminders(ctx context.Context, now time.Time, lead time.Duration) int
	RunReminders(ctx context.Context, interval, lead time.Duration)

	Flush(ctx context.Context) error
	Close(ctx context.Context) error
}

// Changes describes a reschedule. A nil Notes keeps the current notes.
type Changes struct {
	StartTime time.Time
	EndTime   time.Time
	Notes     *string
}

type Notifier interface {
	Publish(ctx context.Context, event notifications.Event, booking, old *model.Booking)
}

type Pricer interface {
	Price(ctx context.Context, courtID int64, start, end time.Time) (float64, error)
}

type Validator interface {
	Validate(booking *model.Booking) error
}

type Option func(*ledger)

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *ledger) { l.now = now }
}

// storedPrecision is the finest time resolution every backend keeps; BSON
// dates hold milliseconds.
const storedPrecision = time.Millisecond

type ledger struct {
	mu       sync.RWMutex
	bookings []*model.Booking
	lastID   int64
	dirty    bool
	reminded map[int64]struct{}

	repo      repository.Repository
	notifier  Notifier
	engine    *availability.Engine
	pricer    Pricer
	validator Validator
	cfg       *config.Config
	log       *logger.Logger
	now       func() time.Time

	stopFlush chan struct{}
	flushDone chan struct{}
	closeOnce sync.Once
}

// NewLedger loads the stored bookings and returns a ready ledger. A failed
// load is logged and the ledger starts empty. With the batched flush policy
// a background goroutine saves pending changes every FlushInterval until
// Close.
func NewLedger(
	ctx context.Context,
	cfg *config.Config,
	repo repository.Repository,
	notifier Notifier,
	engine *availability.Engine,
	pricer Pricer,
	validator Validator,
	opts ...Option,
) Ledger {
	l := &ledger{
		reminded:  make(map[int64]struct{}),
		repo:      repo,
		notifier:  notifier,
		engine:    engine,
		pricer:    pricer,
		validator: validator,
		cfg:       cfg,
		log:       cfg.Log.Component("ledger"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}

	l.load(ctx)

	if cfg.FlushPolicy == config.FlushBatched {
		l.stopFlush = make(chan struct{})
		l.flushDone = make(chan struct{})
		go l.flushLoop(cfg.FlushInterval)
	}

	return l
}

func (l *ledger) load(ctx context.Context) {
	loaded, err := l.repo.Load(ctx)
	if err != nil {
		l.log.Error("Failed to load bookings, starting with an empty ledger", "error", err)
		return
	}

	for _, b := range loaded {
		if b == nil {
			continue
		}
		b.InLocation(l.cfg.Location)
		l.bookings = append(l.bookings, b)
		l.lastID = max(l.lastID, b.ID)
	}
	l.sortLocked()

	l.log.Info("Bookings loaded", "count", len(l.bookings), "last_id", l.lastID)
}

func (l *ledger) Create(ctx context.Context, candidate *model.Booking) (*model.Booking, error) {
	if candidate == nil {
		return nil, apperrors.InvalidBooking("Booking is required", bookingserrors.ErrInvalidBooking)
	}

	booking := candidate.Clone()
	l.applyDefaults(booking)
	booking.Notes = sanitizer.NormalizeNotes(booking.Notes)
	if err := l.validate(booking); err != nil {
		return nil, err
	}
	if !model.SameDay(booking.BookingDate, booking.StartTime) {
		return nil, apperrors.InvalidBooking(
			fmt.Sprintf("Booking date %s does not match the start time %s",
				booking.BookingDate.Format(time.DateOnly), booking.StartTime.Format(time.DateTime)),
			bookingserrors.ErrInvalidBooking,
		).WithDetails(map[string]any{"booking_date": booking.BookingDate.Format(time.DateOnly)})
	}
	if booking.Status != model.StatusPending && booking.Status != model.StatusConfirmed {
		return nil, apperrors.InvalidBooking(
			fmt.Sprintf("A new booking must be pending or confirmed, got %s", booking.Status),
			bookingserrors.ErrInvalidBooking,
		)
	}

	l.mu.Lock()
	if conflict := l.findConflictLocked(booking, 0); conflict != nil {
		l.mu.Unlock()
		return nil, slotConflict(conflict)
	}

	l.lastID++
	booking.ID = l.lastID
	l.bookings = append(l.bookings, booking)
	l.sortLocked()

	if err := l.persistLocked(ctx); err != nil {
		l.removeLocked(booking.ID)
		l.mu.Unlock()
		return nil, err
	}
	created := booking.Clone()
	l.mu.Unlock()

	l.log.Info("Booking created successfully",
		"id", created.ID,
		"user_id", created.UserID,
		"court_id", created.CourtID,
		"start_time", created.StartTime,
		"end_time", created.EndTime,
		"status", created.Status,
	)
	l.notifier.Publish(ctx, notifications.EventCreated, created, nil)
	return created, nil
}

// Cancel moves a pending or confirmed booking to cancelled. Cancelling an
// already cancelled booking succeeds without persisting or notifying.
func (l *ledger) Cancel(ctx context.Context, id int64) error {
	l.mu.Lock()
	b := l.findLocked(id)
	if b == nil {
		l.mu.Unlock()
		return notFound(id)
	}
	if b.Status == model.StatusCancelled {
		l.mu.Unlock()
		return nil
	}

	old := b.Clone()
	if err := b.SetStatus(model.StatusCancelled, l.stamp()); err != nil {
		l.mu.Unlock()
		return invalidTransition(id, err)
	}
	if err := l.persistLocked(ctx); err != nil {
		*b = *old
		l.mu.Unlock()
		return err
	}
	delete(l.reminded, id)
	cancelled := b.Clone()
	l.mu.Unlock()

	l.log.Info("Booking cancelled", "id", id, "previous_status", old.Status)
	l.notifier.Publish(ctx, notifications.EventCancelled, cancelled, nil)
	return nil
}

func (l *ledger) Confirm(ctx context.Context, id int64) (*model.Booking, error) {
	return l.transition(ctx, id, model.StatusConfirmed)
}

func (l *ledger) Complete(ctx context.Context, id int64) (*model.Booking, error) {
	return l.transition(ctx, id, model.StatusCompleted)
}

func (l *ledger) transition(ctx context.Context, id int64, next model.BookingStatus) (*model.Booking, error) {
	l.mu.Lock()
	b := l.findLocked(id)
	if b == nil {
		l.mu.Unlock()
		return nil, notFound(id)
	}

	old := b.Clone()
	if err := b.SetStatus(next, l.stamp()); err != nil {
		l.mu.Unlock()
		return nil, invalidTransition(id, err)
	}
	if err := l.persistLocked(ctx); err != nil {
		*b = *old
		l.mu.Unlock()
		return nil, err
	}
	updated := b.Clone()
	l.mu.Unlock()

	l.log.Info("Booking status changed", "id", id, "from", old.Status, "to", next)
	l.notifier.Publish(ctx, notifications.EventModified, updated, old)
	return updated, nil
}

// Modify reschedules an active booking and reprices it. On any failure the
// stored booking is left exactly as it was.
func (l *ledger) Modify(ctx context.Context, id int64, changes Changes) (*model.Booking, error) {
	current, err := l.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !current.IsActive() {
		return nil, invalidTransition(id, fmt.Errorf("%w: cannot modify a %s booking", model.ErrInvalidTransition, current.Status))
	}
	if !changes.StartTime.Before(changes.EndTime) {
		return nil, apperrors.InvalidBooking("Start time must be before end time", bookingserrors.ErrInvalidBooking)
	}

	price, err := l.pricer.Price(ctx, current.CourtID, changes.StartTime, changes.EndTime)
	if err != nil {
		return nil, apperrors.InvalidBooking("Failed to price the new interval", errors.Join(bookingserrors.ErrInvalidBooking, err))
	}

	l.mu.Lock()
	b := l.findLocked(id)
	if b == nil {
		l.mu.Unlock()
		return nil, notFound(id)
	}
	if !b.IsActive() {
		l.mu.Unlock()
		return nil, invalidTransition(id, fmt.Errorf("%w: cannot modify a %s booking", model.ErrInvalidTransition, b.Status))
	}

	tentative := b.Clone()
	tentative.StartTime = changes.StartTime.In(l.cfg.Location).Truncate(storedPrecision)
	tentative.EndTime = changes.EndTime.In(l.cfg.Location).Truncate(storedPrecision)
	tentative.BookingDate = model.StartOfDay(tentative.StartTime)
	tentative.TotalAmount = price
	if changes.Notes != nil {
		tentative.Notes = sanitizer.NormalizeNotes(*changes.Notes)
	}
	tentative.UpdatedAt = l.stamp()

	if err := l.validate(tentative); err != nil {
		l.mu.Unlock()
		return nil, err
	}
	if conflict := l.findConflictLocked(tentative, id); conflict != nil {
		l.mu.Unlock()
		return nil, slotConflict(conflict)
	}

	old := b.Clone()
	*b = *tentative
	l.sortLocked()
	if err := l.persistLocked(ctx); err != nil {
		*b = *old
		l.sortLocked()
		l.mu.Unlock()
		return nil, err
	}
	delete(l.reminded, id)
	updated := b.Clone()
	l.mu.Unlock()

	l.log.Info("Booking modified",
		"id", id,
		"old_start", old.StartTime,
		"new_start", updated.StartTime,
		"new_end", updated.EndTime,
		"total_amount", updated.TotalAmount,
	)
	l.notifier.Publish(ctx, notifications.EventModified, updated, old)
	return updated, nil
}

func (l *ledger) GetByID(id int64) (*model.Booking, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	b := l.findLocked(id)
	if b == nil {
		return nil, notFound(id)
	}
	return b.Clone(), nil
}

func (l *ledger) All() []*model.Booking {
	return l.filter(func(*model.Booking) bool { return true })
}

func (l *ledger) ByUser(userID int64) []*model.Booking {
	return l.filter(func(b *model.Booking) bool { return b.UserID == userID })
}

func (l *ledger) ByCourt(courtID int64) []*model.Booking {
	return l.filter(func(b *model.Booking) bool { return b.CourtID == courtID })
}

func (l *ledger) ByDate(day time.Time) []*model.Booking {
	return l.ByDateRange(day, day)
}

// ByDateRange returns bookings whose booking date lies in [from, to], by
// calendar day.
func (l *ledger) ByDateRange(from, to time.Time) []*model.Booking {
	return l.filter(func(b *model.Booking) bool { return model.WithinDays(b.BookingDate, from, to) })
}

func (l *ledger) filter(keep func(*model.Booking) bool) []*model.Booking {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*model.Booking, 0)
	for _, b := range l.bookings {
		if keep(b) {
			out = append(out, b.Clone())
		}
	}
	return out
}

func (l *ledger) IsAvailable(courtID int64, start, end time.Time) bool {
	return availability.IsAvailable(courtID, start, end, l.activeOnCourt(courtID))
}

// FreeSlots is computed over a snapshot taken now; later changes to the
// ledger do not affect an already returned sequence.
func (l *ledger) FreeSlots(courtID int64, day time.Time, slotMinutes int) iter.Seq[availability.Slot] {
	return l.engine.FreeSlots(courtID, day.In(l.cfg.Location), slotMinutes, l.activeOnCourt(courtID))
}

func (l *ledger) activeOnCourt(courtID int64) []*model.Booking {
	return l.filter(func(b *model.Booking) bool { return b.CourtID == courtID && b.IsActive() })
}

func (l *ledger) Quote(ctx context.Context, courtID int64, start, end time.Time) (float64, error) {
	price, err := l.pricer.Price(ctx, courtID, start, end)
	if err != nil {
		return 0, apperrors.InvalidBooking("Failed to price the interval", errors.Join(bookingserrors.ErrInvalidBooking, err))
	}
	return price, nil
}

// TotalRevenue sums confirmed and completed bookings dated within [from, to].
func (l *ledger) TotalRevenue(from, to time.Time) float64 {
	var total float64
	for _, b := range l.revenueBookings(from, to) {
		total += b.TotalAmount
	}
	return total
}

func (l *ledger) BookingCount(from, to time.Time) int {
	return len(l.revenueBookings(from, to))
}

func (l *ledger) revenueBookings(from, to time.Time) []*model.Booking {
	return l.filter(func(b *model.Booking) bool {
		return b.Status.EarnsRevenue() && model.WithinDays(b.BookingDate, from, to)
	})
}

// SendReminders notifies once per active booking that starts within
// (now, now+lead]. It returns how many reminders went out.
func (l *ledger) SendReminders(ctx context.Context, now time.Time, lead time.Duration) int {
	horizon := now.Add(lead)

	l.mu.Lock()
	var due []*model.Booking
	for _, b := range l.bookings {
		if !b.IsActive() || !b.StartTime.After(now) || b.StartTime.After(horizon) {
			continue
		}
		if _, sent := l.reminded[b.ID]; sent {
			continue
		}
		l.reminded[b.ID] = struct{}{}
		due = append(due, b.Clone())
	}
	l.mu.Unlock()

	for _, b := range due {
		l.notifier.Publish(ctx, notifications.EventReminder, b, nil)
	}
	if len(due) > 0 {
		l.log.Info("Booking reminders sent", "count", len(due))
	}
	return len(due)
}

func (l *ledger) RunReminders(ctx context.Context, interval, lead time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.SendReminders(ctx, l.now(), lead)
		}
	}
}

// Flush saves pending changes. It is a no-op when nothing changed since the
// last successful save.
func (l *ledger) Flush(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.dirty {
		return nil
	}
	if err := l.saveLocked(ctx); err != nil {
		return err
	}
	l.dirty = false
	return nil
}

// Close stops the batched flush loop and saves whatever is pending.
func (l *ledger) Close(ctx context.Context) error {
	l.closeOnce.Do(func() {
		if l.stopFlush != nil {
			close(l.stopFlush)
			<-l.flushDone
		}
	})
	return l.Flush(ctx)
}

func (l *ledger) flushLoop(interval time.Duration) {
	defer close(l.flushDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopFlush:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			if err := l.Flush(ctx); err != nil {
				l.log.Error("Batched flush failed, will retry", "error", err)
			}
			cancel()
		}
	}
}

// persistLocked applies the flush policy after a mutation: immediate saves
// now, batched marks the ledger dirty for the next flush.
func (l *ledger) persistLocked(ctx context.Context) error {
	if l.cfg.FlushPolicy == config.FlushBatched {
		l.dirty = true
		return nil
	}
	return l.saveLocked(ctx)
}

func (l *ledger) saveLocked(ctx context.Context) error {
	if err := l.repo.Save(ctx, l.bookings); err != nil {
		l.log.Error("Failed to persist bookings", "error", err, "count", len(l.bookings))
		return apperrors.Persistence("Failed to persist bookings", errors.Join(bookingserrors.ErrPersistence, err))
	}
	return nil
}

// stamp is the ledger clock at the precision the repositories keep, so a
// booking reads back from any backend exactly as it was handed out.
func (l *ledger) stamp() time.Time {
	return l.now().Truncate(storedPrecision)
}

func (l *ledger) applyDefaults(b *model.Booking) {
	now := l.stamp()
	b.ID = 0
	if b.Status == "" {
		b.Status = model.StatusPending
	}
	b.StartTime = b.StartTime.In(l.cfg.Location).Truncate(storedPrecision)
	b.EndTime = b.EndTime.In(l.cfg.Location).Truncate(storedPrecision)
	if b.BookingDate.IsZero() {
		b.BookingDate = model.StartOfDay(b.StartTime)
	} else {
		b.BookingDate = model.StartOfDay(b.BookingDate.In(l.cfg.Location))
	}
	b.CreatedAt = now
	b.UpdatedAt = now
}

func (l *ledger) validate(b *model.Booking) error {
	if err := l.validator.Validate(b); err != nil {
		l.log.Warn("Booking validation failed", "error", err)
		return apperrors.InvalidBooking("Booking validation failed", errors.Join(bookingserrors.ErrInvalidBooking, err)).
			WithDetails(map[string]any{"error": err.Error()})
	}
	return nil
}

// findConflictLocked returns the first active booking that conflicts with b,
// ignoring the booking with id skip.
func (l *ledger) findConflictLocked(b *model.Booking, skip int64) *model.Booking {
	for _, existing := range l.bookings {
		if existing.ID == skip || !existing.IsActive() {
			continue
		}
		if existing.ConflictsWith(b) {
			return existing
		}
	}
	return nil
}

func (l *ledger) findLocked(id int64) *model.Booking {
	for _, b := range l.bookings {
		if b.ID == id {
			return b
		}
	}
	return nil
}

func (l *ledger) removeLocked(id int64) {
	l.bookings = slices.DeleteFunc(l.bookings, func(b *model.Booking) bool { return b.ID == id })
}

func (l *ledger) sortLocked() {
	slices.SortStableFunc(l.bookings, func(a, b *model.Booking) int {
		if c := a.StartTime.Compare(b.StartTime); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func notFound(id int64) error {
	return apperrors.NotFoundWithID("Booking", id, bookingserrors.ErrNotFound)
}

func invalidTransition(id int64, err error) error {
	return apperrors.InvalidTransition(fmt.Sprintf("Booking %d cannot change status", id), err).
		WithDetails(map[string]any{"id": id, "error": err.Error()})
}

func slotConflict(existing *model.Booking) error {
	return apperrors.SlotConflict(fmt.Sprintf(
		"Booking time overlaps with existing booking (%s - %s)",
		existing.StartTime.Format(time.RFC3339),
		existing.EndTime.Format(time.RFC3339),
	), bookingserrors.ErrSlotConflict).WithDetails(map[string]any{
		"conflicting_id": existing.ID,
		"court_id":       existing.CourtID,
	})
}
