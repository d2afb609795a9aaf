package schedule

import (
	"fmt"
	"time"
)

// BusinessHours describes the organizer's daily working window and the
// weekdays on which meetings may be scheduled. The window is the same on
// every allowed day and never spans midnight.
type BusinessHours struct {
	startHour int
	endHour   int
	days      [7]bool
	loc       *time.Location
}

// NewBusinessHours validates and builds a BusinessHours policy.
// startHour and endHour are whole hours in the organizer's timezone.
func NewBusinessHours(startHour, endHour int, days []time.Weekday, loc *time.Location) (BusinessHours, error) {
	if startHour < 0 || startHour > 23 || endHour < 1 || endHour > 24 {
		return BusinessHours{}, fmt.Errorf("business hours out of range: start=%d end=%d", startHour, endHour)
	}
	if startHour >= endHour {
		return BusinessHours{}, fmt.Errorf("business hours start (%d) must be before end (%d)", startHour, endHour)
	}
	if len(days) == 0 {
		return BusinessHours{}, fmt.Errorf("business hours need at least one allowed weekday")
	}
	if loc == nil {
		loc = time.UTC
	}
	h := BusinessHours{startHour: startHour, endHour: endHour, loc: loc}
	for _, d := range days {
		h.days[d] = true
	}
	return h, nil
}

// Location returns the organizer timezone the policy operates in.
func (h BusinessHours) Location() *time.Location {
	return h.loc
}

// windowFor returns the allowed window on t's calendar day, regardless of
// whether that weekday is allowed.
func (h BusinessHours) windowFor(t time.Time) Interval {
	y, m, d := t.In(h.loc).Date()
	return Interval{
		Start: time.Date(y, m, d, h.startHour, 0, 0, 0, h.loc),
		End:   time.Date(y, m, d, h.endHour, 0, 0, 0, h.loc),
	}
}

// Allows reports whether the entire interval lies inside one allowed day's
// working window. An interval that starts or ends outside the window, spans
// midnight, or falls on a disallowed weekday is rejected, never clipped.
func (h BusinessHours) Allows(iv Interval) bool {
	start := iv.Start.In(h.loc)
	if !h.days[start.Weekday()] {
		return false
	}
	w := h.windowFor(start)
	return !start.Before(w.Start) && !iv.End.After(w.End)
}

// NextAllowedStart returns the earliest instant at or after from that falls
// inside an allowed window. An instant already inside a window is returned
// unchanged; otherwise the policy advances to the start of the next allowed
// window, skipping disallowed weekdays.
func (h BusinessHours) NextAllowedStart(from time.Time) time.Time {
	t := from.In(h.loc)
	// The weekday set is non-empty, so at most a week of days is skipped.
	for i := 0; i < 8; i++ {
		w := h.windowFor(t)
		if h.days[t.Weekday()] {
			if t.Before(w.Start) {
				return w.Start
			}
			if t.Before(w.End) {
				return t
			}
		}
		y, m, d := t.Date()
		t = time.Date(y, m, d+1, 0, 0, 0, 0, h.loc)
	}
	// Unreachable with a validated policy.
	return h.windowFor(t).Start
}
