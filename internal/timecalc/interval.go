// Package timecalc holds the duration arithmetic and the fixed break/rest rules used by
// the day aggregator. All durations are counted in whole seconds; minutes are derived by
// truncation exactly once, after summing.
package timecalc

import (
	"time"

	"github.com/jw6ventures/timeclock/internal/clock"
)

// Kind tags a derived interval.
type Kind string

const (
	Work  Kind = "WORK"
	Break Kind = "BREAK"
)

// Interval is a derived, never persisted [Start, End) span.
type Interval struct {
	Start time.Time
	End   time.Time
	Kind  Kind
}

// Seconds is the clamped length of the interval.
func (iv Interval) Seconds() int64 {
	return SecondsBetween(iv.Start, iv.End)
}

// SecondsBetween returns whole seconds from a to b, or 0 when b is not after a.
func SecondsBetween(a, b time.Time) int64 {
	if !b.After(a) {
		return 0
	}
	return int64(b.Sub(a) / time.Second)
}

// Minutes truncates seconds to whole minutes.
func Minutes(seconds int64) int {
	if seconds <= 0 {
		return 0
	}
	return int(seconds / 60)
}

// CloseOpenInterval ends an interval that is still running at min(now, dayEnd). A zero
// length interval at start is returned when that bound is not after start.
func CloseOpenInterval(start, now, dayEnd time.Time) (time.Time, time.Time) {
	end := now
	if dayEnd.Before(end) {
		end = dayEnd
	}
	if !end.After(start) {
		return start, start
	}
	return start, end
}

// GapsBetweenSessions returns, for every adjacent GO -> COME pair, the span between them
// clamped to [dayStart, dayEnd]. That time counts as break for compliance.
func GapsBetweenSessions(events []clock.Event, dayStart, dayEnd time.Time) []Interval {
	var gaps []Interval
	for i := 0; i+1 < len(events); i++ {
		if events[i].Type != clock.Go || events[i+1].Type != clock.Come {
			continue
		}
		s := events[i].Timestamp
		if dayStart.After(s) {
			s = dayStart
		}
		e := events[i+1].Timestamp
		if dayEnd.Before(e) {
			e = dayEnd
		}
		if e.After(s) {
			gaps = append(gaps, Interval{Start: s, End: e, Kind: Break})
		}
	}
	return gaps
}

// BumpAfter returns now, or the smallest representable instant after last when now does
// not move past it. Server-assigned timestamps use it to keep a user's events strictly
// increasing.
func BumpAfter(last, now time.Time) time.Time {
	if now.After(last) {
		return now
	}
	return last.Add(time.Microsecond)
}
