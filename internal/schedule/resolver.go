package schedule

import (
	"time"
)

const (
	// DefaultMaxAlternatives is how many alternative slots a conflict
	// outcome offers.
	DefaultMaxAlternatives = 2

	// DefaultHorizonWindows bounds the forward search to this many allowed
	// working-day windows before the resolver gives up with whatever
	// alternatives it found.
	DefaultHorizonWindows = 14
)

// Reason classifies why a requested slot could not be booked. It is an
// outcome tag, not an error: an unavailable slot is an expected state.
type Reason string

const (
	ReasonNone                 Reason = ""
	ReasonOutsideBusinessHours Reason = "outside_business_hours"
	ReasonCalendarConflict     Reason = "calendar_conflict"
)

// Request is a meeting request as the resolver sees it: the extraction and
// parsing of free text happened upstream. End may be zero, in which case
// Duration determines the slot length.
type Request struct {
	Purpose   string
	Start     time.Time
	End       time.Time
	Duration  time.Duration
	Attendees []string // Opaque to the resolver, passed through on outcomes
}

// Outcome is the resolver's decision. Exactly one of the two shapes holds:
// a confirmed booking of Slot, or a conflict carrying the reason and up to
// two alternative slots in chronological order.
type Outcome struct {
	Confirmed    bool
	Slot         Interval // Confirmed slot, or the normalized requested slot on conflict
	Reason       Reason
	Alternatives []Interval
}

// Resolver decides scheduling outcomes against a business-hours policy.
// It is a pure decision function: it never mutates the busy index it is
// given, and identical inputs always produce identical outcomes.
type Resolver struct {
	hours BusinessHours

	// MaxAlternatives and HorizonWindows are policy tunables; the defaults
	// match the original two-alternatives, duration-step behavior.
	MaxAlternatives int
	HorizonWindows  int
}

// NewResolver builds a resolver with default search policy.
func NewResolver(hours BusinessHours) *Resolver {
	return &Resolver{
		hours:           hours,
		MaxAlternatives: DefaultMaxAlternatives,
		HorizonWindows:  DefaultHorizonWindows,
	}
}

// Resolve decides whether the requested slot can be booked. On conflict it
// searches forward for alternative slots of the same duration. The caller is
// responsible for inserting a confirmed slot into the busy index if later
// requests in the same run should see it.
func (r *Resolver) Resolve(req Request, busy *BusyIndex) (Outcome, error) {
	iv, err := r.normalize(req)
	if err != nil {
		return Outcome{}, err
	}

	var reason Reason
	switch {
	case !r.hours.Allows(iv):
		reason = ReasonOutsideBusinessHours
	case busy.OverlapsAny(iv):
		reason = ReasonCalendarConflict
	default:
		return Outcome{Confirmed: true, Slot: iv}, nil
	}

	return Outcome{
		Slot:         iv,
		Reason:       reason,
		Alternatives: r.findAlternatives(iv, busy),
	}, nil
}

// normalize turns the request into a concrete interval, deriving the end
// from the desired duration when the request carries only a start.
func (r *Resolver) normalize(req Request) (Interval, error) {
	if req.End.IsZero() {
		if req.Duration <= 0 {
			return Interval{}, ErrInvalidDuration
		}
		return NewInterval(req.Start, req.Start.Add(req.Duration))
	}
	return NewInterval(req.Start, req.End)
}

// findAlternatives searches forward from the conflict for up to
// MaxAlternatives free, allowed slots of the requested duration. Candidates
// advance in fixed steps of that duration; when a candidate no longer fits
// in its working-day window the search jumps to the next allowed window.
// The search stops after HorizonWindows window jumps and returns whatever
// partial list it has.
func (r *Resolver) findAlternatives(requested Interval, busy *BusyIndex) []Interval {
	dur := requested.Duration()

	start := r.hours.NextAllowedStart(requested.Start)
	if end, ok := busy.conflictEnd(requested); ok && end.After(start) {
		start = end
	}

	var alts []Interval
	for windows := 0; windows < r.HorizonWindows; {
		cand := Interval{Start: start, End: start.Add(dur)}

		if !r.hours.Allows(cand) {
			windows++
			start = r.nextWindowStart(cand.Start)
			continue
		}
		if busy.OverlapsAny(cand) {
			start = start.Add(dur)
			continue
		}

		alts = append(alts, cand)
		if len(alts) == r.MaxAlternatives {
			break
		}
		start = start.Add(dur)
	}
	return alts
}

// nextWindowStart returns the start of the first allowed window strictly
// after t's current window (or after t itself when t is outside any window).
func (r *Resolver) nextWindowStart(t time.Time) time.Time {
	if next := r.hours.NextAllowedStart(t); next.After(t) {
		return next
	}
	// t sits inside a window whose remainder is too short; skip past it.
	return r.hours.NextAllowedStart(r.hours.windowFor(t).End)
}
