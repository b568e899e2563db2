package store

import (
	"sort"
	"time"

	"github.com/jw6ventures/timeclock/internal/clock"
	"github.com/jw6ventures/timeclock/internal/timecalc"
)

const (
	maxFutureSkew     = 5 * time.Minute
	maxCreateBackfill = 7 * 24 * time.Hour
	maxUpdateBackfill = 365 * 24 * time.Hour
)

// storedTime rounds t down to the microsecond precision of timestamptz so ordering
// checks see the value that will be persisted.
func storedTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// checkClientTimestamp bounds a client-supplied timestamp to a window around now.
func checkClientTimestamp(ts, now time.Time, maxAge time.Duration) error {
	if ts.After(now.Add(maxFutureSkew)) {
		return clock.InvalidField("ts_utc cannot be in the future")
	}
	if ts.Before(now.Add(-maxAge)) {
		return clock.InvalidField("ts_utc too old")
	}
	return nil
}

// proposeCreate validates a new punch against the user's last committed event and
// resolves its timestamp.
func proposeCreate(last *clock.Event, in NewClockEvent, now time.Time) (clock.Event, error) {
	if err := clock.ValidateFields(in.Type, in.Location); err != nil {
		return clock.Event{}, err
	}
	if in.Geo != nil && in.Type != clock.Come {
		return clock.Event{}, clock.InvalidField("geo only allowed for COME")
	}
	if err := clock.ValidateTransition(last, in.Type); err != nil {
		return clock.Event{}, err
	}

	now = storedTime(now)
	ts := now
	if in.Timestamp != nil {
		candidate := storedTime(*in.Timestamp)
		if err := checkClientTimestamp(candidate, now, maxCreateBackfill); err != nil {
			return clock.Event{}, err
		}
		if last != nil && !candidate.After(last.Timestamp) {
			return clock.Event{}, clock.NonMonotonic("event timestamp must be after last event")
		}
		ts = candidate
	} else if last != nil {
		ts = timecalc.BumpAfter(storedTime(last.Timestamp), ts)
	}

	return clock.Event{
		Timestamp:     ts,
		Type:          in.Type,
		Location:      in.Location,
		Geo:           in.Geo,
		ClientEventID: in.ClientEventID,
	}, nil
}

// proposeUpdate applies patch to the event with the given id and returns the full
// resulting sequence, re-sorted and validated, plus the updated event.
func proposeUpdate(events []clock.Event, id int64, patch ClockEventPatch, now time.Time) ([]clock.Event, clock.Event, error) {
	idx := indexOf(events, id)
	if idx < 0 {
		return nil, clock.Event{}, ErrNotFound
	}
	updated := events[idx]

	newType := updated.Type
	if patch.Type != nil {
		newType = *patch.Type
	}
	newLoc := updated.Location
	switch {
	case patch.Location != nil:
		newLoc = patch.Location
	case patch.Type != nil && newType != clock.Come:
		newLoc = nil
	}
	if err := clock.ValidateFields(newType, newLoc); err != nil {
		return nil, clock.Event{}, err
	}
	if newType != clock.Come {
		updated.Geo = nil
	}

	if patch.Timestamp != nil {
		candidate := storedTime(*patch.Timestamp)
		if err := checkClientTimestamp(candidate, now, maxUpdateBackfill); err != nil {
			return nil, clock.Event{}, err
		}
		updated.Timestamp = candidate
	}
	updated.Type = newType
	updated.Location = newLoc

	proposed := make([]clock.Event, len(events))
	copy(proposed, events)
	proposed[idx] = updated
	sortEvents(proposed)

	if err := clock.ValidateSequence(proposed); err != nil {
		return nil, clock.Event{}, err
	}
	return proposed, updated, nil
}

// proposeDelete removes the event and validates what is left.
func proposeDelete(events []clock.Event, id int64) ([]clock.Event, error) {
	idx := indexOf(events, id)
	if idx < 0 {
		return nil, ErrNotFound
	}
	remaining := make([]clock.Event, 0, len(events)-1)
	remaining = append(remaining, events[:idx]...)
	remaining = append(remaining, events[idx+1:]...)
	if err := clock.ValidateSequence(remaining); err != nil {
		return nil, err
	}
	return remaining, nil
}

func indexOf(events []clock.Event, id int64) int {
	for i := range events {
		if events[i].ID == id {
			return i
		}
	}
	return -1
}

func sortEvents(events []clock.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
}
