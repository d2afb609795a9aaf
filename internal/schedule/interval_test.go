package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/nalgeon/be"
)

func TestNewIntervalRejectsNonPositiveDuration(t *testing.T) {
	at := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)

	_, err := NewInterval(at, at)
	be.True(t, errors.Is(err, ErrInvalidInterval))

	_, err = NewInterval(at, at.Add(-time.Minute))
	be.True(t, errors.Is(err, ErrInvalidInterval))

	iv, err := NewInterval(at, at.Add(30*time.Minute))
	be.Err(t, err, nil)
	be.Equal(t, iv.Duration(), 30*time.Minute)
}

func TestOverlapsIsSymmetric(t *testing.T) {
	base := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	mk := func(startMin, endMin int) Interval {
		return Interval{Start: base.Add(time.Duration(startMin) * time.Minute), End: base.Add(time.Duration(endMin) * time.Minute)}
	}

	cases := []struct {
		a, b Interval
		want bool
	}{
		{mk(0, 60), mk(30, 90), true},    // partial overlap
		{mk(0, 60), mk(0, 60), true},     // identical
		{mk(0, 60), mk(10, 20), true},    // contained
		{mk(0, 60), mk(60, 90), false},   // touching, half-open
		{mk(0, 60), mk(120, 180), false}, // disjoint
	}
	for _, c := range cases {
		be.Equal(t, c.a.Overlaps(c.b), c.want)
		be.Equal(t, c.b.Overlaps(c.a), c.want)
	}
}

func TestShiftPreservesDuration(t *testing.T) {
	start := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	iv := Interval{Start: start, End: start.Add(45 * time.Minute)}

	shifted := iv.Shift(2 * time.Hour)
	be.Equal(t, shifted.Start, start.Add(2*time.Hour))
	be.Equal(t, shifted.Duration(), iv.Duration())
}
