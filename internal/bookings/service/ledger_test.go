package service

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"courtbook/internal/bookings/availability"
	bookingserrors "courtbook/internal/bookings/errors"
	"courtbook/internal/bookings/pricing"
	"courtbook/internal/bookings/repository"
	"courtbook/internal/bookings/validator"
	"courtbook/internal/notifications"
	"courtbook/pkg/config"
	apperrors "courtbook/pkg/errors"
	"courtbook/pkg/logger"
	"courtbook/pkg/model"
)

var day = time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)

func at(hour int) time.Time {
	return day.Add(time.Duration(hour) * time.Hour)
}

type published struct {
	event notifications.Event
	id    int64
	oldID int64
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []published
}

func (n *recordingNotifier) Publish(_ context.Context, event notifications.Event, booking, old *model.Booking) {
	n.mu.Lock()
	defer n.mu.Unlock()
	p := published{event: event, id: booking.ID}
	if old != nil {
		p.oldID = old.ID
	}
	n.events = append(n.events, p)
}

func (n *recordingNotifier) snapshot() []published {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]published(nil), n.events...)
}

type failingRepository struct {
	repository.Repository
	failSaves bool
}

func (r *failingRepository) Save(ctx context.Context, bookings []*model.Booking) error {
	if r.failSaves {
		return errors.New("disk full")
	}
	return r.Repository.Save(ctx, bookings)
}

type brokenLoadRepository struct {
	repository.Repository
}

func (r *brokenLoadRepository) Load(context.Context) ([]*model.Booking, error) {
	return nil, errors.New("corrupt store")
}

func testConfig(policy string) *config.Config {
	return &config.Config{
		Log:           logger.Discard(),
		Location:      time.UTC,
		FlushPolicy:   policy,
		FlushInterval: time.Hour,
	}
}

type fixture struct {
	ledger   Ledger
	repo     repository.MemoryRepository
	notifier *recordingNotifier
}

func newFixture(t *testing.T, seed ...*model.Booking) *fixture {
	t.Helper()
	repo := repository.NewMemoryRepository(seed...)
	notifier := &recordingNotifier{}
	return &fixture{
		ledger:   newTestLedger(t, testConfig(config.FlushImmediate), repo, notifier),
		repo:     repo,
		notifier: notifier,
	}
}

func newTestLedger(t *testing.T, cfg *config.Config, repo repository.Repository, notifier Notifier) Ledger {
	t.Helper()
	l := NewLedger(
		context.Background(),
		cfg,
		repo,
		notifier,
		availability.NewEngine(availability.DefaultBusinessHours()),
		pricing.NewCalculator(pricing.RateTable{Default: 50000}),
		validator.NewBookingValidator(logger.Discard(), validator.DefaultWindowPolicy()),
		WithClock(func() time.Time { return at(6) }),
	)
	t.Cleanup(func() { _ = l.Close(context.Background()) })
	return l
}

func candidate(courtID int64, startHour, endHour int) *model.Booking {
	hours := float64(endHour - startHour)
	return model.NewBooking(7, courtID, day, at(startHour), at(endHour), hours*50000)
}

func mustCreate(t *testing.T, l Ledger, b *model.Booking) *model.Booking {
	t.Helper()
	created, err := l.Create(context.Background(), b)
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	return created
}

func TestLedger_BookingDayWalkthrough(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := mustCreate(t, f.ledger, candidate(1, 9, 11))
	if a.ID != 1 || a.Status != model.StatusPending {
		t.Fatalf("first booking = id %d status %s, want id 1 pending", a.ID, a.Status)
	}
	if _, err := f.ledger.Confirm(ctx, a.ID); err != nil {
		t.Fatalf("Confirm() failed: %v", err)
	}

	_, err := f.ledger.Create(ctx, candidate(1, 10, 12))
	if !errors.Is(err, bookingserrors.ErrSlotConflict) {
		t.Fatalf("overlapping create error = %v, want slot conflict", err)
	}

	c := mustCreate(t, f.ledger, candidate(1, 11, 13))
	if c.ID != 2 {
		t.Fatalf("back-to-back booking id = %d, want 2", c.ID)
	}
	if _, err := f.ledger.Confirm(ctx, c.ID); err != nil {
		t.Fatalf("Confirm() failed: %v", err)
	}

	slots := slices.Collect(f.ledger.FreeSlots(1, day, 60))
	for _, s := range slots {
		if s.Start.Before(at(13)) && s.End.After(at(9)) {
			t.Errorf("free slot %v-%v overlaps a booked window", s.Start.Format("15:04"), s.End.Format("15:04"))
		}
	}

	if err := f.ledger.Cancel(ctx, a.ID); err != nil {
		t.Fatalf("Cancel() failed: %v", err)
	}
	got, _ := f.ledger.GetByID(a.ID)
	if got.Status != model.StatusCancelled {
		t.Errorf("cancelled booking status = %s", got.Status)
	}

	slots = slices.Collect(f.ledger.FreeSlots(1, day, 60))
	if !slices.ContainsFunc(slots, func(s availability.Slot) bool { return s.Start.Equal(at(9)) }) {
		t.Errorf("09:00 should be free after cancelling A")
	}
	if slices.ContainsFunc(slots, func(s availability.Slot) bool { return s.Start.Equal(at(12)) }) {
		t.Errorf("12:00 should stay booked by C")
	}

	if revenue := f.ledger.TotalRevenue(day, day); revenue != 100000 {
		t.Errorf("TotalRevenue() = %v, want 100000", revenue)
	}
	if count := f.ledger.BookingCount(day, day); count != 1 {
		t.Errorf("BookingCount() = %d, want 1", count)
	}

	again := mustCreate(t, f.ledger, candidate(1, 9, 11))
	if again.ID != 3 {
		t.Errorf("rebooked slot id = %d, want 3", again.ID)
	}
}

func TestLedger_CreateRejectsMalformed(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		mutate func(b *model.Booking)
	}{
		{"zero user", func(b *model.Booking) { b.UserID = 0 }},
		{"zero court", func(b *model.Booking) { b.CourtID = 0 }},
		{"negative amount", func(b *model.Booking) { b.TotalAmount = -10 }},
		{"inverted interval", func(b *model.Booking) { b.EndTime = at(8) }},
		{"zero length", func(b *model.Booking) { b.EndTime = b.StartTime }},
		{"born completed", func(b *model.Booking) { b.Status = model.StatusCompleted }},
		{"date off the start day", func(b *model.Booking) { b.BookingDate = day.AddDate(0, 0, 1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := candidate(1, 9, 11)
			tt.mutate(b)
			_, err := f.ledger.Create(context.Background(), b)
			if !errors.Is(err, bookingserrors.ErrInvalidBooking) {
				t.Errorf("Create() error = %v, want invalid booking", err)
			}
		})
	}

	if len(f.ledger.All()) != 0 {
		t.Errorf("rejected bookings must not be stored")
	}
	if len(f.notifier.snapshot()) != 0 {
		t.Errorf("rejected bookings must not notify")
	}
}

func TestLedger_ConflictsAreCourtAndStatusScoped(t *testing.T) {
	f := newFixture(t)
	mustCreate(t, f.ledger, candidate(1, 9, 11))

	if _, err := f.ledger.Create(context.Background(), candidate(2, 9, 11)); err != nil {
		t.Errorf("same window on another court should succeed: %v", err)
	}

	other := candidate(1, 9, 11)
	other.BookingDate = day.AddDate(0, 0, 1)
	other.StartTime = other.StartTime.AddDate(0, 0, 1)
	other.EndTime = other.EndTime.AddDate(0, 0, 1)
	if _, err := f.ledger.Create(context.Background(), other); err != nil {
		t.Errorf("same window on another day should succeed: %v", err)
	}
}

func TestLedger_BookingDateCannotDodgeConflicts(t *testing.T) {
	f := newFixture(t)
	first := mustCreate(t, f.ledger, candidate(1, 9, 11))

	shifted := candidate(1, 9, 11)
	shifted.BookingDate = day.AddDate(0, 0, 1)
	_, err := f.ledger.Create(context.Background(), shifted)
	if !errors.Is(err, bookingserrors.ErrInvalidBooking) {
		t.Fatalf("Create() with a date off the start day error = %v, want invalid booking", err)
	}

	all := f.ledger.All()
	if len(all) != 1 || all[0].ID != first.ID {
		t.Fatalf("ledger holds %v, want only booking %d", all, first.ID)
	}
	if f.ledger.IsAvailable(1, at(9), at(10)) {
		t.Error("window reported free while booked")
	}

	defaulted := candidate(2, 9, 11)
	defaulted.BookingDate = time.Time{}
	created := mustCreate(t, f.ledger, defaulted)
	if !created.BookingDate.Equal(day) {
		t.Errorf("derived BookingDate = %v, want %v", created.BookingDate, day)
	}
}

func TestLedger_TimestampsKeepStoredPrecision(t *testing.T) {
	repo := repository.NewFileRepository(t.TempDir() + "/bookings.json")
	clock := at(6).Add(123456789 * time.Nanosecond)
	l := NewLedger(
		context.Background(),
		testConfig(config.FlushImmediate),
		repo,
		&recordingNotifier{},
		availability.NewEngine(availability.DefaultBusinessHours()),
		pricing.NewCalculator(pricing.RateTable{Default: 50000}),
		validator.NewBookingValidator(logger.Discard(), validator.DefaultWindowPolicy()),
		WithClock(func() time.Time { return clock }),
	)
	t.Cleanup(func() { _ = l.Close(context.Background()) })

	b := candidate(1, 9, 11)
	b.StartTime = b.StartTime.Add(500 * time.Microsecond)
	created := mustCreate(t, l, b)

	want := at(6).Add(123 * time.Millisecond)
	if !created.CreatedAt.Equal(want) || !created.UpdatedAt.Equal(want) {
		t.Errorf("timestamps = %v / %v, want %v", created.CreatedAt, created.UpdatedAt, want)
	}
	if !created.StartTime.Equal(at(9)) {
		t.Errorf("StartTime = %v, want %v", created.StartTime, at(9))
	}

	stored, err := repo.Load(context.Background())
	if err != nil || len(stored) != 1 {
		t.Fatalf("Load() = %v, %v", stored, err)
	}
	if !stored[0].CreatedAt.Equal(created.CreatedAt) || !stored[0].StartTime.Equal(created.StartTime) {
		t.Errorf("stored %+v differs from created %+v", stored[0], created)
	}
}

func TestLedger_ConcurrentCreatesAdmitOne(t *testing.T) {
	f := newFixture(t)

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ledger.Create(context.Background(), candidate(1, 15, 17))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, bookingserrors.ErrSlotConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 || conflicts != workers-1 {
		t.Errorf("successes = %d conflicts = %d, want 1 and %d", successes, conflicts, workers-1)
	}
}

func TestLedger_IDsNeverReused(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := mustCreate(t, f.ledger, candidate(1, 7, 8))
	second := mustCreate(t, f.ledger, candidate(1, 8, 9))
	if err := f.ledger.Cancel(ctx, second.ID); err != nil {
		t.Fatalf("Cancel() failed: %v", err)
	}
	third := mustCreate(t, f.ledger, candidate(1, 8, 9))

	if !(first.ID < second.ID && second.ID < third.ID) {
		t.Errorf("ids not strictly increasing: %d %d %d", first.ID, second.ID, third.ID)
	}
}

func TestLedger_IDsContinueFromStore(t *testing.T) {
	seeded := candidate(1, 9, 10)
	seeded.ID = 41
	f := newFixture(t, seeded)

	created := mustCreate(t, f.ledger, candidate(1, 10, 11))
	if created.ID != 42 {
		t.Errorf("id after reload = %d, want 42", created.ID)
	}
}

func TestLedger_LoadFailureStartsEmpty(t *testing.T) {
	repo := &brokenLoadRepository{Repository: repository.NewMemoryRepository()}
	l := newTestLedger(t, testConfig(config.FlushImmediate), repo, &recordingNotifier{})

	if n := len(l.All()); n != 0 {
		t.Fatalf("expected empty ledger, got %d bookings", n)
	}
	if created := mustCreate(t, l, candidate(1, 9, 10)); created.ID != 1 {
		t.Errorf("first id = %d, want 1", created.ID)
	}
}

func TestLedger_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("idempotent", func(t *testing.T) {
		f := newFixture(t)
		b := mustCreate(t, f.ledger, candidate(1, 9, 11))
		if err := f.ledger.Cancel(ctx, b.ID); err != nil {
			t.Fatalf("Cancel() failed: %v", err)
		}
		saves := f.repo.Saves()
		events := len(f.notifier.snapshot())

		if err := f.ledger.Cancel(ctx, b.ID); err != nil {
			t.Errorf("second Cancel() = %v, want nil", err)
		}
		if f.repo.Saves() != saves || len(f.notifier.snapshot()) != events {
			t.Errorf("second cancel must neither persist nor notify")
		}
	})

	t.Run("completed is rejected", func(t *testing.T) {
		f := newFixture(t)
		b := mustCreate(t, f.ledger, candidate(1, 9, 11))
		if _, err := f.ledger.Confirm(ctx, b.ID); err != nil {
			t.Fatal(err)
		}
		if _, err := f.ledger.Complete(ctx, b.ID); err != nil {
			t.Fatal(err)
		}

		err := f.ledger.Cancel(ctx, b.ID)
		if !errors.Is(err, bookingserrors.ErrInvalidTransition) {
			t.Errorf("Cancel() on completed = %v, want invalid transition", err)
		}
		got, _ := f.ledger.GetByID(b.ID)
		if got.Status != model.StatusCompleted {
			t.Errorf("status changed to %s", got.Status)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		f := newFixture(t)
		err := f.ledger.Cancel(ctx, 99)
		if !errors.Is(err, bookingserrors.ErrNotFound) {
			t.Errorf("Cancel() = %v, want not found", err)
		}
		appErr := apperrors.AsAppError(err)
		if appErr == nil || appErr.Code != apperrors.CodeNotFound {
			t.Errorf("expected NOT_FOUND app error, got %v", err)
		}
	})
}

func TestLedger_TransitionsFollowLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := mustCreate(t, f.ledger, candidate(1, 9, 11))

	if _, err := f.ledger.Complete(ctx, b.ID); !errors.Is(err, bookingserrors.ErrInvalidTransition) {
		t.Errorf("pending -> completed = %v, want invalid transition", err)
	}
	if _, err := f.ledger.Confirm(ctx, b.ID); err != nil {
		t.Fatalf("Confirm() failed: %v", err)
	}
	if _, err := f.ledger.Confirm(ctx, b.ID); !errors.Is(err, bookingserrors.ErrInvalidTransition) {
		t.Errorf("confirmed -> confirmed = %v, want invalid transition", err)
	}
}

func TestLedger_Modify(t *testing.T) {
	ctx := context.Background()

	t.Run("reschedules and reprices", func(t *testing.T) {
		f := newFixture(t)
		b := mustCreate(t, f.ledger, candidate(1, 9, 11))
		notes := "bring shuttles"

		updated, err := f.ledger.Modify(ctx, b.ID, Changes{StartTime: at(14), EndTime: at(17), Notes: &notes})
		if err != nil {
			t.Fatalf("Modify() failed: %v", err)
		}
		if updated.TotalAmount != 150000 {
			t.Errorf("TotalAmount = %v, want 150000", updated.TotalAmount)
		}
		if updated.Notes != notes {
			t.Errorf("Notes = %q", updated.Notes)
		}
		if !f.ledger.IsAvailable(1, at(9), at(11)) {
			t.Errorf("old window should be free after reschedule")
		}
		if f.ledger.IsAvailable(1, at(15), at(16)) {
			t.Errorf("new window should be taken")
		}
	})

	t.Run("conflict leaves booking untouched", func(t *testing.T) {
		f := newFixture(t)
		b := mustCreate(t, f.ledger, candidate(1, 9, 11))
		mustCreate(t, f.ledger, candidate(1, 13, 15))
		before, _ := f.ledger.GetByID(b.ID)
		saves := f.repo.Saves()

		_, err := f.ledger.Modify(ctx, b.ID, Changes{StartTime: at(12), EndTime: at(14)})
		if !errors.Is(err, bookingserrors.ErrSlotConflict) {
			t.Fatalf("Modify() = %v, want slot conflict", err)
		}
		after, _ := f.ledger.GetByID(b.ID)
		if *after != *before {
			t.Errorf("booking changed on conflict:\nbefore %+v\nafter  %+v", before, after)
		}
		if f.repo.Saves() != saves {
			t.Errorf("conflicting modify must not persist")
		}
	})

	t.Run("may overlap its own window", func(t *testing.T) {
		f := newFixture(t)
		b := mustCreate(t, f.ledger, candidate(1, 9, 11))
		if _, err := f.ledger.Modify(ctx, b.ID, Changes{StartTime: at(10), EndTime: at(12)}); err != nil {
			t.Errorf("shifting into its own window failed: %v", err)
		}
	})

	t.Run("rejects inverted interval", func(t *testing.T) {
		f := newFixture(t)
		b := mustCreate(t, f.ledger, candidate(1, 9, 11))
		_, err := f.ledger.Modify(ctx, b.ID, Changes{StartTime: at(12), EndTime: at(12)})
		if !errors.Is(err, bookingserrors.ErrInvalidBooking) {
			t.Errorf("Modify() = %v, want invalid booking", err)
		}
	})

	t.Run("rejects cancelled booking", func(t *testing.T) {
		f := newFixture(t)
		b := mustCreate(t, f.ledger, candidate(1, 9, 11))
		_ = f.ledger.Cancel(ctx, b.ID)
		_, err := f.ledger.Modify(ctx, b.ID, Changes{StartTime: at(12), EndTime: at(13)})
		if !errors.Is(err, bookingserrors.ErrInvalidTransition) {
			t.Errorf("Modify() = %v, want invalid transition", err)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.ledger.Modify(ctx, 5, Changes{StartTime: at(12), EndTime: at(13)})
		if !errors.Is(err, bookingserrors.ErrNotFound) {
			t.Errorf("Modify() = %v, want not found", err)
		}
	})
}

func TestLedger_SaveFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := &failingRepository{Repository: repository.NewMemoryRepository()}
	notifier := &recordingNotifier{}
	l := newTestLedger(t, testConfig(config.FlushImmediate), repo, notifier)

	b := mustCreate(t, l, candidate(1, 9, 11))
	repo.failSaves = true

	if _, err := l.Create(ctx, candidate(1, 12, 13)); !errors.Is(err, bookingserrors.ErrPersistence) {
		t.Errorf("Create() = %v, want persistence error", err)
	}
	if len(l.All()) != 1 {
		t.Errorf("failed create must not stay in the ledger")
	}

	if err := l.Cancel(ctx, b.ID); !errors.Is(err, bookingserrors.ErrPersistence) {
		t.Errorf("Cancel() = %v, want persistence error", err)
	}
	if got, _ := l.GetByID(b.ID); got.Status != model.StatusPending {
		t.Errorf("status after failed cancel = %s, want pending", got.Status)
	}

	if _, err := l.Modify(ctx, b.ID, Changes{StartTime: at(15), EndTime: at(16)}); !errors.Is(err, bookingserrors.ErrPersistence) {
		t.Errorf("Modify() = %v, want persistence error", err)
	}
	if got, _ := l.GetByID(b.ID); !got.StartTime.Equal(at(9)) {
		t.Errorf("start after failed modify = %v, want 09:00", got.StartTime)
	}

	if n := len(notifier.snapshot()); n != 1 {
		t.Errorf("only the first create should notify, got %d events", n)
	}
}

func TestLedger_BatchedFlush(t *testing.T) {
	repo := repository.NewMemoryRepository()
	l := newTestLedger(t, testConfig(config.FlushBatched), repo, &recordingNotifier{})

	mustCreate(t, l, candidate(1, 9, 11))
	mustCreate(t, l, candidate(2, 9, 11))
	if repo.Saves() != 0 {
		t.Fatalf("batched policy saved eagerly: %d saves", repo.Saves())
	}

	if err := l.Close(context.Background()); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if repo.Saves() != 1 {
		t.Errorf("saves after close = %d, want 1", repo.Saves())
	}
	stored, _ := repo.Load(context.Background())
	if len(stored) != 2 {
		t.Errorf("stored %d bookings, want 2", len(stored))
	}

	if err := l.Flush(context.Background()); err != nil || repo.Saves() != 1 {
		t.Errorf("clean flush should be a no-op: err=%v saves=%d", err, repo.Saves())
	}
}

func TestLedger_NotifiesAfterMutations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b := mustCreate(t, f.ledger, candidate(1, 9, 11))
	_, _ = f.ledger.Modify(ctx, b.ID, Changes{StartTime: at(10), EndTime: at(12)})
	_ = f.ledger.Cancel(ctx, b.ID)

	want := []published{
		{event: notifications.EventCreated, id: b.ID},
		{event: notifications.EventModified, id: b.ID, oldID: b.ID},
		{event: notifications.EventCancelled, id: b.ID},
	}
	if got := f.notifier.snapshot(); !slices.Equal(got, want) {
		t.Errorf("events = %+v, want %+v", got, want)
	}
}

func TestLedger_WithHubAndInAppSink(t *testing.T) {
	hub := notifications.NewHub(logger.Discard(), time.Second)
	inapp := notifications.NewInAppSink(10, time.UTC)
	hub.Subscribe(inapp)
	l := newTestLedger(t, testConfig(config.FlushImmediate), repository.NewMemoryRepository(), hub)

	b := mustCreate(t, l, candidate(3, 9, 11))
	_ = l.Cancel(context.Background(), b.ID)

	messages := inapp.Messages()
	if len(messages) != 2 {
		t.Fatalf("expected 2 in-app messages, got %v", messages)
	}
}

func TestLedger_Queries(t *testing.T) {
	f := newFixture(t)
	a := mustCreate(t, f.ledger, candidate(1, 9, 11))
	other := candidate(2, 9, 11)
	other.UserID = 8
	mustCreate(t, f.ledger, other)
	tomorrow := candidate(1, 9, 11)
	tomorrow.BookingDate = day.AddDate(0, 0, 1)
	tomorrow.StartTime = tomorrow.StartTime.AddDate(0, 0, 1)
	tomorrow.EndTime = tomorrow.EndTime.AddDate(0, 0, 1)
	mustCreate(t, f.ledger, tomorrow)

	if n := len(f.ledger.ByUser(7)); n != 2 {
		t.Errorf("ByUser(7) = %d bookings, want 2", n)
	}
	if n := len(f.ledger.ByCourt(1)); n != 2 {
		t.Errorf("ByCourt(1) = %d bookings, want 2", n)
	}
	if n := len(f.ledger.ByDate(day)); n != 2 {
		t.Errorf("ByDate() = %d bookings, want 2", n)
	}
	if n := len(f.ledger.ByDateRange(day, day.AddDate(0, 0, 1))); n != 3 {
		t.Errorf("ByDateRange() = %d bookings, want 3", n)
	}

	got, _ := f.ledger.GetByID(a.ID)
	got.CourtID = 99
	again, _ := f.ledger.GetByID(a.ID)
	if again.CourtID != 1 {
		t.Errorf("mutating a returned booking leaked into the ledger")
	}
}

func TestLedger_RevenueExcludesPendingAndCancelled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending := mustCreate(t, f.ledger, candidate(1, 7, 8))
	cancelled := mustCreate(t, f.ledger, candidate(1, 8, 9))
	confirmed := mustCreate(t, f.ledger, candidate(1, 9, 11))
	completed := mustCreate(t, f.ledger, candidate(1, 11, 14))

	_ = f.ledger.Cancel(ctx, cancelled.ID)
	_, _ = f.ledger.Confirm(ctx, confirmed.ID)
	_, _ = f.ledger.Confirm(ctx, completed.ID)
	_, _ = f.ledger.Complete(ctx, completed.ID)

	want := confirmed.TotalAmount + completed.TotalAmount
	if got := f.ledger.TotalRevenue(day, day); got != want {
		t.Errorf("TotalRevenue() = %v, want %v (pending %d excluded)", got, want, pending.ID)
	}
	if got := f.ledger.TotalRevenue(day.AddDate(0, 0, 1), day.AddDate(0, 0, 2)); got != 0 {
		t.Errorf("revenue outside range = %v, want 0", got)
	}
}

func TestLedger_RemindersFireOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	soon := mustCreate(t, f.ledger, candidate(1, 9, 10))
	mustCreate(t, f.ledger, candidate(1, 15, 16))
	cancelled := mustCreate(t, f.ledger, candidate(2, 9, 10))
	_ = f.ledger.Cancel(ctx, cancelled.ID)

	now := at(8)
	if n := f.ledger.SendReminders(ctx, now, time.Hour); n != 1 {
		t.Fatalf("first pass sent %d reminders, want 1", n)
	}
	if n := f.ledger.SendReminders(ctx, now.Add(10*time.Minute), time.Hour); n != 0 {
		t.Errorf("second pass sent %d reminders, want 0", n)
	}

	var reminders []int64
	for _, e := range f.notifier.snapshot() {
		if e.event == notifications.EventReminder {
			reminders = append(reminders, e.id)
		}
	}
	if !slices.Equal(reminders, []int64{soon.ID}) {
		t.Errorf("reminded ids = %v, want [%d]", reminders, soon.ID)
	}
}

func TestLedger_Quote(t *testing.T) {
	f := newFixture(t)
	price, err := f.ledger.Quote(context.Background(), 1, at(9), at(10).Add(30*time.Minute))
	if err != nil {
		t.Fatalf("Quote() failed: %v", err)
	}
	if price != 75000 {
		t.Errorf("Quote() = %v, want 75000", price)
	}
}
