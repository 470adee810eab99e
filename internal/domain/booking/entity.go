package booking

import (
	"sort"
	"time"
)

// DateLayout is the calendar day format used everywhere in scheduling.
const DateLayout = "2006-01-02"

// DateRange is an existing booking, both ends inclusive.
type DateRange struct {
	StartDate string `json:"startDate" db:"start_date"`
	EndDate   string `json:"endDate" db:"end_date"`
}

// SelectionMode says which end of the range the next click sets.
type SelectionMode string

const (
	ModeStart SelectionMode = "start"
	ModeEnd   SelectionMode = "end"
)

// Selection is a user's in-progress date range.
type Selection struct {
	StartDate string        `json:"startDate"`
	EndDate   string        `json:"endDate"`
	Mode      SelectionMode `json:"selectionMode"`
}

func newSelection() *Selection {
	return &Selection{Mode: ModeStart}
}

// Click applies one calendar click. In start mode the date becomes the start and
// the end is cleared. In end mode the date becomes the end, or, if it precedes
// the start, the two are swapped.
func (s *Selection) Click(date string) {
	if s.Mode != ModeEnd || s.StartDate == "" {
		s.StartDate = date
		s.EndDate = ""
		s.Mode = ModeEnd
		return
	}

	if date < s.StartDate {
		s.StartDate, s.EndDate = date, s.StartDate
	} else {
		s.EndDate = date
	}
	s.Mode = ModeStart
}

// Contains reports whether date lies within the selected range, both ends included.
func (s *Selection) Contains(date string) bool {
	if s.StartDate == "" || s.EndDate == "" {
		return false
	}
	return date >= s.StartDate && date <= s.EndDate
}

// IsBoundary reports whether date is the selected start or end.
func (s *Selection) IsBoundary(date string) bool {
	return date != "" && (date == s.StartDate || date == s.EndDate)
}

// FormData is handed to the confirmation step.
type FormData struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// BookedDates is the set of days covered by at least one booking.
type BookedDates map[string]struct{}

func (b BookedDates) Has(date string) bool {
	_, ok := b[date]
	return ok
}

// FirstIn returns the earliest booked day within start..end inclusive. Both
// bounds are YYYY-MM-DD, which orders the same as the calendar.
func (b BookedDates) FirstIn(start, end string) (string, bool) {
	first := ""
	for d := range b {
		if d < start || d > end {
			continue
		}
		if first == "" || d < first {
			first = d
		}
	}
	return first, first != ""
}

// Sorted returns the days in calendar order.
func (b BookedDates) Sorted() []string {
	out := make([]string, 0, len(b))
	for d := range b {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// ExpandRange lists every day from start to end inclusive. It returns nil when
// either bound is malformed or end precedes start.
func ExpandRange(start, end string) []string {
	from, err := time.Parse(DateLayout, start)
	if err != nil {
		return nil
	}
	to, err := time.Parse(DateLayout, end)
	if err != nil {
		return nil
	}

	var days []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(DateLayout))
	}
	return days
}

// DayState is everything the calendar grid needs to draw one day.
type DayState struct {
	Date       string `json:"date"`
	Past       bool   `json:"past"`
	Booked     bool   `json:"booked"`
	InRange    bool   `json:"inRange"`
	Boundary   bool   `json:"boundary"`
	Today      bool   `json:"today"`
	Selectable bool   `json:"selectable"`
}
