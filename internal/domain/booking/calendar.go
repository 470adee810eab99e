package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mediarent/storefront-api/internal/pkg/errorhandler"
	"github.com/mediarent/storefront-api/internal/pkg/events"
	"github.com/mediarent/storefront-api/internal/pkg/kvstore"
)

const NextStepConfirm = "confirm"

// Clock supplies the current time, so "today" can be pinned in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Calendar owns the booked-date set and the per-user date selections.
type Calendar struct {
	repo  Repository
	store kvstore.Store
	clock Clock

	// seq is the last issued load token.
	seq atomic.Uint64

	mu     sync.RWMutex
	booked BookedDates
}

// NewCalendar creates the calendar. repo may be nil when no booking database is
// configured; every day is then free.
func NewCalendar(repo Repository, store kvstore.Store) *Calendar {
	return &Calendar{
		repo:   repo,
		store:  store,
		clock:  systemClock{},
		booked: BookedDates{},
	}
}

// WithClock replaces the clock.
func (c *Calendar) WithClock(clock Clock) *Calendar {
	c.clock = clock
	return c
}

// LoadBookings rebuilds the booked-date set. A load overtaken by a newer one is
// discarded. Failures are logged and treated as no bookings.
func (c *Calendar) LoadBookings(ctx context.Context) (BookedDates, bool) {
	token := c.seq.Add(1)

	var ranges []DateRange
	if c.repo != nil {
		var err error
		ranges, err = c.repo.ListActiveRanges(ctx)
		if err != nil {
			errorhandler.LogLoadFailure(ctx, "bookings", err)
			ranges = nil
		}
	}

	booked := BookedDates{}
	for _, r := range ranges {
		days := ExpandRange(r.StartDate, r.EndDate)
		if days == nil {
			log.Warn().Str("start", r.StartDate).Str("end", r.EndDate).Msg("Skipping malformed booking range")
			continue
		}
		for _, d := range days {
			booked[d] = struct{}{}
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if token != c.seq.Load() {
		log.Debug().Uint64("token", token).Msg("Discarding stale bookings load")
		return c.booked, false
	}
	c.booked = booked

	log.Info().Int("ranges", len(ranges)).Int("booked_days", len(booked)).Msg("Bookings loaded")
	return booked, true
}

// Watch reloads bookings whenever inventory reservations change. Clicks, the
// month view and HandleNext also reload on their own.
func (c *Calendar) Watch(bus events.Bus) (stop func()) {
	reload := func(ctx context.Context, e events.Event) {
		c.LoadBookings(context.WithoutCancel(ctx))
	}
	unsubs := []func(){
		bus.Subscribe(events.TopicInventoryUpdated, reload),
		bus.Subscribe(events.TopicInventoryChanged, reload),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// BookedDates returns the current set. Callers must not modify it.
func (c *Calendar) BookedDates() BookedDates {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.booked
}

func (c *Calendar) today() string {
	return c.clock.Now().Format(DateLayout)
}

// Selection returns the user's persisted selection, or an empty one.
func (c *Calendar) Selection(ctx context.Context, userID uuid.UUID) (*Selection, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	return c.loadSelection(ctx, userID)
}

// HandleDateClick applies a click on date to the user's selection. Past and
// booked days are rejected without touching the selection.
func (c *Calendar) HandleDateClick(ctx context.Context, userID uuid.UUID, date string) (*Selection, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return nil, &DateError{Date: date, Err: ErrInvalidDate}
	}
	if date < c.today() {
		return nil, &DateError{Date: date, Err: ErrPastDate}
	}
	if booked, _ := c.LoadBookings(ctx); booked.Has(date) {
		return nil, &DateError{Date: date, Err: ErrDateBooked}
	}

	sel, err := c.loadSelection(ctx, userID)
	if err != nil {
		return nil, err
	}
	sel.Click(date)

	if err := kvstore.SetJSON(ctx, c.store, kvstore.UserKey(userID, kvstore.KeySchedule), sel); err != nil {
		return nil, fmt.Errorf("persist schedule: %w", err)
	}
	return sel, nil
}

// DayState derives the drawing flags of one day from the selection, the booked
// set and today's date.
func (c *Calendar) DayState(sel *Selection, date string) DayState {
	today := c.today()
	booked := c.BookedDates().Has(date)
	past := date < today
	return DayState{
		Date:       date,
		Past:       past,
		Booked:     booked,
		InRange:    sel.Contains(date),
		Boundary:   sel.IsBoundary(date),
		Today:      date == today,
		Selectable: !past && !booked,
	}
}

// Month returns the day states of one calendar month for the user. Bookings are
// reloaded first.
func (c *Calendar) Month(ctx context.Context, userID uuid.UUID, year int, month time.Month) (*MonthView, error) {
	c.LoadBookings(ctx)

	sel := newSelection()
	if userID != uuid.Nil {
		var err error
		if sel, err = c.loadSelection(ctx, userID); err != nil {
			return nil, err
		}
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	view := &MonthView{
		Year:      year,
		Month:     int(month),
		Selection: *sel,
		Days:      make([]DayState, 0, 31),
	}
	for d := first; d.Month() == month; d = d.AddDate(0, 0, 1) {
		view.Days = append(view.Days, c.DayState(sel, d.Format(DateLayout)))
	}
	return view, nil
}

// HandleNext validates the selection and hands it to the confirmation step.
func (c *Calendar) HandleNext(ctx context.Context, userID uuid.UUID) (*NextResult, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthenticated
	}

	hasUpstream, err := c.hasUpstreamSelection(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !hasUpstream {
		return nil, ErrNoSelection
	}

	sel, err := c.loadSelection(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sel.StartDate == "" || sel.EndDate == "" {
		return nil, ErrIncompleteRange
	}
	if sel.StartDate > sel.EndDate {
		return nil, ErrInvalidRange
	}
	if sel.StartDate < c.today() {
		return nil, ErrStartInPast
	}

	// Bookings confirmed elsewhere since the last load must block the range.
	booked, _ := c.LoadBookings(ctx)
	if d, ok := booked.FirstIn(sel.StartDate, sel.EndDate); ok {
		return nil, &ConflictError{Date: d}
	}

	form := FormData{StartDate: sel.StartDate, EndDate: sel.EndDate}
	if err := kvstore.SetJSON(ctx, c.store, kvstore.UserKey(userID, kvstore.KeyBookingFormData), form); err != nil {
		return nil, fmt.Errorf("persist booking form: %w", err)
	}
	return &NextResult{FormData: form, NextStep: NextStepConfirm}, nil
}

// ResetSelection clears the user's dates and deletes the persisted schedule.
func (c *Calendar) ResetSelection(ctx context.Context, userID uuid.UUID) (*Selection, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	if err := c.store.Delete(ctx, kvstore.UserKey(userID, kvstore.KeySchedule)); err != nil {
		return nil, fmt.Errorf("reset schedule: %w", err)
	}
	return newSelection(), nil
}

func (c *Calendar) loadSelection(ctx context.Context, userID uuid.UUID) (*Selection, error) {
	sel := newSelection()
	if _, err := kvstore.GetJSON(ctx, c.store, kvstore.UserKey(userID, kvstore.KeySchedule), sel); err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}
	if sel.Mode != ModeEnd {
		sel.Mode = ModeStart
	}
	return sel, nil
}

// hasUpstreamSelection reports whether the user has a non-empty item selection
// or an active package.
func (c *Calendar) hasUpstreamSelection(ctx context.Context, userID uuid.UUID) (bool, error) {
	var items []json.RawMessage
	ok, err := kvstore.GetJSON(ctx, c.store, kvstore.UserKey(userID, kvstore.KeySelectedItems), &items)
	if err != nil {
		return false, fmt.Errorf("load selected items: %w", err)
	}
	if ok && len(items) > 0 {
		return true, nil
	}

	var pkg json.RawMessage
	ok, err = kvstore.GetJSON(ctx, c.store, kvstore.UserKey(userID, kvstore.KeySelectedPackage), &pkg)
	if err != nil {
		return false, fmt.Errorf("load selected package: %w", err)
	}
	return ok && len(pkg) > 0 && string(pkg) != "null", nil
}
