// Package schedule decides whether a requested meeting can be booked against
// the organizer's calendar, and which alternative slots to offer when it
// cannot. All times are interpreted in the organizer's configured timezone.
package schedule

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidInterval is returned when an interval's end does not come
	// strictly after its start.
	ErrInvalidInterval = errors.New("schedule: interval end must be after start")

	// ErrInvalidDuration is returned when a requested meeting duration is
	// zero or negative.
	ErrInvalidDuration = errors.New("schedule: meeting duration must be positive")
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval constructs an Interval, enforcing End > Start.
func NewInterval(start, end time.Time) (Interval, error) {
	if !end.After(start) {
		return Interval{}, fmt.Errorf("%w: [%s, %s)", ErrInvalidInterval, start, end)
	}
	return Interval{Start: start, End: end}, nil
}

// Duration returns the interval's length.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Overlaps reports whether the two half-open intervals share any instant.
// Intervals that merely touch (one ends where the other starts) do not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Shift returns a new interval advanced by the given amount.
func (iv Interval) Shift(by time.Duration) Interval {
	return Interval{Start: iv.Start.Add(by), End: iv.End.Add(by)}
}
