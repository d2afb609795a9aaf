package schedule

import (
	"testing"
	"time"

	"github.com/nalgeon/be"
)

func at(hour, min int) time.Time {
	return time.Date(2025, 1, 6, hour, min, 0, 0, time.UTC)
}

func slot(startHour, startMin, endHour, endMin int) Interval {
	return Interval{Start: at(startHour, startMin), End: at(endHour, endMin)}
}

func TestNewBusyIndexSortsAndCoalesces(t *testing.T) {
	idx := NewBusyIndex([]Interval{
		slot(14, 0, 15, 0),
		slot(10, 0, 11, 0),
		slot(10, 30, 11, 30), // overlaps the 10:00 entry
		slot(11, 30, 12, 0),  // touches it
	})

	got := idx.Intervals()
	be.Equal(t, len(got), 2)
	be.Equal(t, got[0], slot(10, 0, 12, 0))
	be.Equal(t, got[1], slot(14, 0, 15, 0))
}

func TestOverlapsAny(t *testing.T) {
	idx := NewBusyIndex([]Interval{
		slot(10, 0, 11, 0),
		slot(14, 0, 15, 0),
	})

	be.True(t, idx.OverlapsAny(slot(10, 30, 11, 0)))
	be.True(t, idx.OverlapsAny(slot(9, 30, 10, 15)))
	be.True(t, idx.OverlapsAny(slot(9, 0, 16, 0)))
	be.True(t, !idx.OverlapsAny(slot(11, 0, 12, 0))) // touching is not overlapping
	be.True(t, !idx.OverlapsAny(slot(12, 0, 13, 0)))
	be.True(t, !idx.OverlapsAny(slot(15, 0, 16, 0)))
}

func TestInsertIsIdempotent(t *testing.T) {
	a := NewBusyIndex(nil)
	a.Insert(slot(10, 0, 11, 0))

	b := NewBusyIndex(nil)
	b.Insert(slot(10, 0, 11, 0))
	b.Insert(slot(10, 0, 11, 0))

	be.Equal(t, a.Intervals(), b.Intervals())
	be.Equal(t, b.Len(), 1)
}

func TestInsertMergesNeighbors(t *testing.T) {
	idx := NewBusyIndex([]Interval{
		slot(9, 0, 10, 0),
		slot(11, 0, 12, 0),
		slot(13, 0, 14, 0),
	})

	// Bridges the first two entries and touches the third.
	idx.Insert(slot(10, 0, 13, 0))

	got := idx.Intervals()
	be.Equal(t, len(got), 1)
	be.Equal(t, got[0], slot(9, 0, 14, 0))
}

func TestInsertKeepsDisjointEntriesSorted(t *testing.T) {
	idx := NewBusyIndex(nil)
	idx.Insert(slot(14, 0, 15, 0))
	idx.Insert(slot(9, 0, 10, 0))
	idx.Insert(slot(11, 0, 12, 0))

	got := idx.Intervals()
	be.Equal(t, len(got), 3)
	be.True(t, got[0].End.Before(got[1].Start) || got[0].End.Equal(got[1].Start))
	be.True(t, got[1].End.Before(got[2].Start) || got[1].End.Equal(got[2].Start))
	be.Equal(t, got[0], slot(9, 0, 10, 0))
}

func TestQueriesDoNotMutateIndex(t *testing.T) {
	idx := NewBusyIndex([]Interval{slot(10, 0, 11, 0)})
	before := idx.Intervals()

	idx.OverlapsAny(slot(10, 0, 12, 0))
	idx.OverlapsAny(slot(8, 0, 9, 0))
	_, _ = idx.conflictEnd(slot(10, 30, 11, 30))

	be.Equal(t, idx.Intervals(), before)
}
