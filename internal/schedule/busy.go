package schedule

import (
	"sort"
	"time"
)

// BusyIndex is an ordered, non-overlapping set of busy intervals for the
// organizer. It is rebuilt from live calendar state at the start of each run
// and mutated only by Insert after a booking is confirmed; queries never
// modify it.
type BusyIndex struct {
	intervals []Interval
}

// NewBusyIndex builds an index from an arbitrary set of busy intervals,
// sorting them and coalescing any that overlap or touch. Degenerate
// zero-length inputs are dropped.
func NewBusyIndex(intervals []Interval) *BusyIndex {
	idx := &BusyIndex{}
	for _, iv := range intervals {
		if iv.End.After(iv.Start) {
			idx.Insert(iv)
		}
	}
	return idx
}

// Len returns the number of distinct busy intervals.
func (b *BusyIndex) Len() int {
	return len(b.intervals)
}

// Intervals returns a copy of the busy list in chronological order.
func (b *BusyIndex) Intervals() []Interval {
	out := make([]Interval, len(b.intervals))
	copy(out, b.intervals)
	return out
}

// OverlapsAny reports whether iv overlaps any busy interval. The busy list is
// sorted and non-overlapping, so a binary search on end times finds the only
// candidate that could conflict.
func (b *BusyIndex) OverlapsAny(iv Interval) bool {
	i := sort.Search(len(b.intervals), func(n int) bool {
		return b.intervals[n].End.After(iv.Start)
	})
	return i < len(b.intervals) && b.intervals[i].Start.Before(iv.End)
}

// conflictEnd returns the end of the busy time covering iv: the latest end
// among busy intervals overlapping it. ok is false when iv is free.
func (b *BusyIndex) conflictEnd(iv Interval) (time.Time, bool) {
	i := sort.Search(len(b.intervals), func(n int) bool {
		return b.intervals[n].End.After(iv.Start)
	})
	var end time.Time
	ok := false
	for ; i < len(b.intervals) && b.intervals[i].Start.Before(iv.End); i++ {
		end = b.intervals[i].End
		ok = true
	}
	return end, ok
}

// Insert adds a busy interval, merging it with any neighbors it overlaps or
// touches so the index stays sorted and non-overlapping. Inserting an
// interval already covered by the index is a no-op.
func (b *BusyIndex) Insert(iv Interval) {
	if !iv.End.After(iv.Start) {
		return
	}
	// First interval that could merge with iv: ends at or after iv.Start.
	lo := sort.Search(len(b.intervals), func(n int) bool {
		return !b.intervals[n].End.Before(iv.Start)
	})
	// First interval strictly after iv that cannot touch it.
	hi := lo
	for hi < len(b.intervals) && !b.intervals[hi].Start.After(iv.End) {
		hi++
	}

	merged := iv
	if lo < hi {
		if b.intervals[lo].Start.Before(merged.Start) {
			merged.Start = b.intervals[lo].Start
		}
		if b.intervals[hi-1].End.After(merged.End) {
			merged.End = b.intervals[hi-1].End
		}
	}

	out := make([]Interval, 0, len(b.intervals)-(hi-lo)+1)
	out = append(out, b.intervals[:lo]...)
	out = append(out, merged)
	out = append(out, b.intervals[hi:]...)
	b.intervals = out
}
