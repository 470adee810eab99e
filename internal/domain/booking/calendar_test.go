package booking

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mediarent/storefront-api/internal/pkg/kvstore"
)

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

func day(s string) fixedClock {
	t, _ := time.Parse(DateLayout, s)
	return fixedClock(t.Add(10 * time.Hour))
}

type stubRepo struct {
	ranges []DateRange
	err    error
	// gate, when set, blocks the call until closed; entered is closed first.
	gate    chan struct{}
	entered chan struct{}
	mu      sync.Mutex
}

func (s *stubRepo) ListActiveRanges(context.Context) ([]DateRange, error) {
	s.mu.Lock()
	gate, entered := s.gate, s.entered
	s.gate, s.entered = nil, nil
	ranges, err := s.ranges, s.err
	s.mu.Unlock()

	if gate != nil {
		close(entered)
		<-gate
	}
	return ranges, err
}

func juneBookings() *stubRepo {
	return &stubRepo{ranges: []DateRange{
		{StartDate: "2025-06-01", EndDate: "2025-06-03"},
		{StartDate: "2025-06-10", EndDate: "2025-06-10"},
	}}
}

func newTestCalendar(repo Repository, today string) (*Calendar, *kvstore.MemoryStore) {
	store := kvstore.NewMemoryStore()
	cal := NewCalendar(repo, store).WithClock(day(today))
	cal.LoadBookings(context.Background())
	return cal, store
}

func withCartSelection(t *testing.T, store kvstore.Store, userID uuid.UUID) {
	t.Helper()
	err := kvstore.SetJSON(context.Background(), store, kvstore.UserKey(userID, kvstore.KeySelectedItems),
		[]map[string]interface{}{{"id": "pmw-200", "quantity": 1}})
	if err != nil {
		t.Fatalf("seed selection: %v", err)
	}
}

func TestLoadBookingsExpandsRanges(t *testing.T) {
	cal, _ := newTestCalendar(juneBookings(), "2025-05-01")

	want := []string{"2025-06-01", "2025-06-02", "2025-06-03", "2025-06-10"}
	if got := cal.BookedDates().Sorted(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestLoadBookingsFailureIsEmpty(t *testing.T) {
	cal, _ := newTestCalendar(&stubRepo{err: errors.New("db down")}, "2025-05-01")

	if n := len(cal.BookedDates()); n != 0 {
		t.Fatalf("expected no booked dates, got %d", n)
	}
}

func TestLoadBookingsDiscardsStaleLoad(t *testing.T) {
	repo := &stubRepo{
		ranges:  []DateRange{{StartDate: "2025-06-01", EndDate: "2025-06-01"}},
		gate:    make(chan struct{}),
		entered: make(chan struct{}),
	}
	entered, gate := repo.entered, repo.gate
	cal := NewCalendar(repo, kvstore.NewMemoryStore())

	done := make(chan bool, 1)
	go func() {
		_, applied := cal.LoadBookings(context.Background())
		done <- applied
	}()
	<-entered

	repo.mu.Lock()
	repo.ranges = []DateRange{{StartDate: "2025-07-01", EndDate: "2025-07-01"}}
	repo.mu.Unlock()
	if _, applied := cal.LoadBookings(context.Background()); !applied {
		t.Fatal("expected newer load to apply")
	}

	close(gate)
	if <-done {
		t.Fatal("expected stale load to be discarded")
	}
	if !cal.BookedDates().Has("2025-07-01") || cal.BookedDates().Has("2025-06-01") {
		t.Fatalf("unexpected booked dates %v", cal.BookedDates().Sorted())
	}
}

func TestHandleDateClickSwapsEarlierEnd(t *testing.T) {
	cal, _ := newTestCalendar(juneBookings(), "2025-05-01")
	ctx := context.Background()
	userID := uuid.New()

	sel, err := cal.HandleDateClick(ctx, userID, "2025-06-05")
	if err != nil {
		t.Fatalf("first click: %v", err)
	}
	if sel.StartDate != "2025-06-05" || sel.EndDate != "" || sel.Mode != ModeEnd {
		t.Fatalf("unexpected selection after first click %+v", sel)
	}

	sel, err = cal.HandleDateClick(ctx, userID, "2025-06-04")
	if err != nil {
		t.Fatalf("second click: %v", err)
	}
	if sel.StartDate != "2025-06-04" || sel.EndDate != "2025-06-05" || sel.Mode != ModeStart {
		t.Fatalf("expected swap, got %+v", sel)
	}
}

func TestHandleDateClickSwapScenario(t *testing.T) {
	// No bookings so 06-02 is clickable.
	cal, _ := newTestCalendar(&stubRepo{}, "2025-05-01")
	ctx := context.Background()
	userID := uuid.New()

	cal.HandleDateClick(ctx, userID, "2025-06-05")
	sel, err := cal.HandleDateClick(ctx, userID, "2025-06-02")
	if err != nil {
		t.Fatalf("click: %v", err)
	}
	if sel.StartDate != "2025-06-02" || sel.EndDate != "2025-06-05" {
		t.Fatalf("expected 06-02..06-05, got %+v", sel)
	}

	// A third click starts over.
	sel, _ = cal.HandleDateClick(ctx, userID, "2025-06-20")
	if sel.StartDate != "2025-06-20" || sel.EndDate != "" || sel.Mode != ModeEnd {
		t.Fatalf("expected new start, got %+v", sel)
	}
}

func TestHandleDateClickRejections(t *testing.T) {
	cal, _ := newTestCalendar(juneBookings(), "2025-05-15")
	ctx := context.Background()
	userID := uuid.New()
	cal.HandleDateClick(ctx, userID, "2025-05-20")

	tests := []struct {
		name    string
		user    uuid.UUID
		date    string
		wantErr error
	}{
		{"anonymous", uuid.Nil, "2025-05-20", ErrUnauthenticated},
		{"past", userID, "2025-05-14", ErrPastDate},
		{"booked", userID, "2025-06-02", ErrDateBooked},
		{"malformed", userID, "20-05-2025", ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := cal.HandleDateClick(ctx, tt.user, tt.date); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	sel, _ := cal.Selection(ctx, userID)
	if sel.StartDate != "2025-05-20" || sel.Mode != ModeEnd {
		t.Fatalf("rejected clicks changed the selection: %+v", sel)
	}
}

func TestTodayIsSelectable(t *testing.T) {
	cal, _ := newTestCalendar(&stubRepo{}, "2025-05-15")

	if _, err := cal.HandleDateClick(context.Background(), uuid.New(), "2025-05-15"); err != nil {
		t.Fatalf("today should be selectable: %v", err)
	}
}

func TestHandleNext(t *testing.T) {
	ctx := context.Background()

	t.Run("start in the past", func(t *testing.T) {
		cal, store := newTestCalendar(&stubRepo{}, "2025-05-15")
		userID := uuid.New()
		withCartSelection(t, store, userID)
		kvstore.SetJSON(ctx, store, kvstore.UserKey(userID, kvstore.KeySchedule),
			Selection{StartDate: "2025-01-01", EndDate: "2025-01-03", Mode: ModeStart})

		_, err := cal.HandleNext(ctx, userID)
		if !errors.Is(err, ErrStartInPast) {
			t.Fatalf("expected ErrStartInPast, got %v", err)
		}
		if err.Error() != "Start date cannot be in the past" {
			t.Fatalf("unexpected message %q", err.Error())
		}
		if _, err := store.Get(ctx, kvstore.UserKey(userID, kvstore.KeyBookingFormData)); !errors.Is(err, kvstore.ErrNotFound) {
			t.Fatal("rejected next must not persist form data")
		}
	})

	t.Run("reports first conflicting date", func(t *testing.T) {
		cal, store := newTestCalendar(juneBookings(), "2025-05-15")
		userID := uuid.New()
		withCartSelection(t, store, userID)
		// Selection written directly: clicks would refuse a booked end date,
		// but a range can still straddle one.
		kvstore.SetJSON(ctx, store, kvstore.UserKey(userID, kvstore.KeySchedule),
			Selection{StartDate: "2025-06-05", EndDate: "2025-06-12", Mode: ModeStart})

		_, err := cal.HandleNext(ctx, userID)
		var conflict *ConflictError
		if !errors.As(err, &conflict) || conflict.Date != "2025-06-10" {
			t.Fatalf("expected conflict on 2025-06-10, got %v", err)
		}
	})

	t.Run("requires upstream selection", func(t *testing.T) {
		cal, _ := newTestCalendar(&stubRepo{}, "2025-05-15")
		if _, err := cal.HandleNext(ctx, uuid.New()); !errors.Is(err, ErrNoSelection) {
			t.Fatalf("expected ErrNoSelection, got %v", err)
		}
	})

	t.Run("requires both dates", func(t *testing.T) {
		cal, store := newTestCalendar(&stubRepo{}, "2025-05-15")
		userID := uuid.New()
		kvstore.SetJSON(ctx, store, kvstore.UserKey(userID, kvstore.KeySelectedPackage), map[string]string{"id": "kit"})
		cal.HandleDateClick(ctx, userID, "2025-05-20")

		if _, err := cal.HandleNext(ctx, userID); !errors.Is(err, ErrIncompleteRange) {
			t.Fatalf("expected ErrIncompleteRange, got %v", err)
		}
	})

	t.Run("persists form data", func(t *testing.T) {
		cal, store := newTestCalendar(juneBookings(), "2025-05-15")
		userID := uuid.New()
		withCartSelection(t, store, userID)
		cal.HandleDateClick(ctx, userID, "2025-06-04")
		cal.HandleDateClick(ctx, userID, "2025-06-09")

		res, err := cal.HandleNext(ctx, userID)
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if res.NextStep != NextStepConfirm {
			t.Fatalf("unexpected next step %q", res.NextStep)
		}

		var form FormData
		kvstore.GetJSON(ctx, store, kvstore.UserKey(userID, kvstore.KeyBookingFormData), &form)
		if form != (FormData{StartDate: "2025-06-04", EndDate: "2025-06-09"}) {
			t.Fatalf("unexpected form data %+v", form)
		}
	})
}

func TestBookingsConfirmedAfterStartupBlockSelection(t *testing.T) {
	repo := juneBookings()
	cal, store := newTestCalendar(repo, "2025-05-15")
	ctx := context.Background()
	userID := uuid.New()
	withCartSelection(t, store, userID)

	if _, err := cal.HandleDateClick(ctx, userID, "2025-06-19"); err != nil {
		t.Fatalf("start click: %v", err)
	}
	if _, err := cal.HandleDateClick(ctx, userID, "2025-06-23"); err != nil {
		t.Fatalf("end click: %v", err)
	}

	repo.mu.Lock()
	repo.ranges = append(repo.ranges, DateRange{StartDate: "2025-06-20", EndDate: "2025-06-22"})
	repo.mu.Unlock()

	_, err := cal.HandleNext(ctx, userID)
	var conflict *ConflictError
	if !errors.As(err, &conflict) || conflict.Date != "2025-06-20" {
		t.Fatalf("expected conflict on 2025-06-20, got %v", err)
	}

	if _, err := cal.HandleDateClick(ctx, uuid.New(), "2025-06-21"); !errors.Is(err, ErrDateBooked) {
		t.Fatalf("expected ErrDateBooked for a newly booked day, got %v", err)
	}

	view, err := cal.Month(ctx, userID, 2025, time.June)
	if err != nil {
		t.Fatalf("month: %v", err)
	}
	if !view.Days[21].Booked {
		t.Fatalf("expected 2025-06-22 to show as booked, got %+v", view.Days[21])
	}
}

func TestHandleNextFarFutureRange(t *testing.T) {
	cal, store := newTestCalendar(juneBookings(), "2025-05-15")
	ctx := context.Background()
	userID := uuid.New()
	withCartSelection(t, store, userID)

	kvstore.SetJSON(ctx, store, kvstore.UserKey(userID, kvstore.KeySchedule),
		Selection{StartDate: "2025-07-01", EndDate: "9999-12-31", Mode: ModeStart})
	if _, err := cal.HandleNext(ctx, userID); err != nil {
		t.Fatalf("expected open range to pass, got %v", err)
	}

	kvstore.SetJSON(ctx, store, kvstore.UserKey(userID, kvstore.KeySchedule),
		Selection{StartDate: "2025-05-20", EndDate: "9999-12-31", Mode: ModeStart})
	_, err := cal.HandleNext(ctx, userID)
	var conflict *ConflictError
	if !errors.As(err, &conflict) || conflict.Date != "2025-06-01" {
		t.Fatalf("expected conflict on 2025-06-01, got %v", err)
	}
}

func TestBookedDatesFirstIn(t *testing.T) {
	booked := BookedDates{"2025-06-10": {}, "2025-06-03": {}, "2025-07-01": {}}

	if d, ok := booked.FirstIn("2025-06-01", "2025-06-30"); !ok || d != "2025-06-03" {
		t.Fatalf("expected 2025-06-03, got %q %v", d, ok)
	}
	if _, ok := booked.FirstIn("2025-06-11", "2025-06-30"); ok {
		t.Fatal("expected no booked day in range")
	}
	if d, ok := booked.FirstIn("2025-07-01", "2025-07-01"); !ok || d != "2025-07-01" {
		t.Fatalf("expected single-day hit, got %q %v", d, ok)
	}
}

func TestResetSelection(t *testing.T) {
	cal, store := newTestCalendar(&stubRepo{}, "2025-05-15")
	ctx := context.Background()
	userID := uuid.New()
	cal.HandleDateClick(ctx, userID, "2025-05-20")

	sel, err := cal.ResetSelection(ctx, userID)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if sel.StartDate != "" || sel.Mode != ModeStart {
		t.Fatalf("unexpected selection %+v", sel)
	}
	if _, err := store.Get(ctx, kvstore.UserKey(userID, kvstore.KeySchedule)); !errors.Is(err, kvstore.ErrNotFound) {
		t.Fatal("schedule should be deleted")
	}
}

func TestMonthDayStates(t *testing.T) {
	cal, _ := newTestCalendar(juneBookings(), "2025-06-02")
	ctx := context.Background()
	userID := uuid.New()
	cal.HandleDateClick(ctx, userID, "2025-06-05")
	cal.HandleDateClick(ctx, userID, "2025-06-07")

	view, err := cal.Month(ctx, userID, 2025, time.June)
	if err != nil {
		t.Fatalf("month: %v", err)
	}
	if len(view.Days) != 30 {
		t.Fatalf("expected 30 days, got %d", len(view.Days))
	}

	byDate := make(map[string]DayState, len(view.Days))
	for _, d := range view.Days {
		byDate[d.Date] = d
	}

	checks := []struct {
		date string
		want DayState
	}{
		{"2025-06-01", DayState{Date: "2025-06-01", Past: true, Booked: true}},
		{"2025-06-02", DayState{Date: "2025-06-02", Booked: true, Today: true}},
		{"2025-06-05", DayState{Date: "2025-06-05", InRange: true, Boundary: true, Selectable: true}},
		{"2025-06-06", DayState{Date: "2025-06-06", InRange: true, Selectable: true}},
		{"2025-06-07", DayState{Date: "2025-06-07", InRange: true, Boundary: true, Selectable: true}},
		{"2025-06-10", DayState{Date: "2025-06-10", Booked: true}},
		{"2025-06-11", DayState{Date: "2025-06-11", Selectable: true}},
	}
	for _, c := range checks {
		if got := byDate[c.date]; got != c.want {
			t.Errorf("%s: expected %+v, got %+v", c.date, c.want, got)
		}
	}
}

func TestExpandRange(t *testing.T) {
	if got := ExpandRange("2024-02-28", "2024-03-01"); !reflect.DeepEqual(got, []string{"2024-02-28", "2024-02-29", "2024-03-01"}) {
		t.Fatalf("leap year expansion wrong: %v", got)
	}
	if got := ExpandRange("2025-06-03", "2025-06-01"); got != nil {
		t.Fatalf("expected nil for inverted range, got %v", got)
	}
	if got := ExpandRange("bad", "2025-06-01"); got != nil {
		t.Fatalf("expected nil for malformed range, got %v", got)
	}
}
