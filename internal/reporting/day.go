// Package reporting turns a user's punch events into day summaries and rolls those up
// into week and month reports.
package reporting

import (
	"time"

	"github.com/jw6ventures/timeclock/internal/clock"
	"github.com/jw6ventures/timeclock/internal/timecalc"
)

// DayInput is everything the aggregator needs for one local day. Events must be ordered
// by timestamp; they are trusted, not re-validated.
type DayInput struct {
	Day      Date
	Location *time.Location
	Events   []clock.Event
	Now      time.Time

	// Rest data is computed by the caller and passed through unchanged.
	RestPeriodMinutes   *int
	RestPeriodViolation bool
}

// Segment is one derived work or break interval of the day. Work segments carry the
// location of the COME that opened them; segments resumed after a break carry none.
type Segment struct {
	timecalc.Interval
	Location *clock.Location
	Gap      bool
	Open     bool
}

// DaySummary is the derived view of one local day.
type DaySummary struct {
	Date                           Date
	WorkedMinutes                  int
	BreakMinutes                   int
	RequiredBreakMinutes           int
	RequiredContinuousBreakMinutes int
	MaxContinuousBreakMinutes      int
	BreakCompliantTotal            bool
	BreakCompliantContinuous       bool
	HasOpenInterval                bool
	HomeMinutes                    int
	OfficeMinutes                  int
	MaxDailyWorkExceeded           bool
	RestPeriodMinutes              *int
	RestPeriodViolation            bool

	// State is the state machine position after the day's last event.
	State    clock.State
	Segments []Segment
}

type aggregator struct {
	openKind  timecalc.Kind
	openStart time.Time
	openLoc   *clock.Location

	workedSeconds int64
	breakSeconds  int64
	homeSeconds   int64
	officeSeconds int64
	breaks        []timecalc.Interval
	segments      []Segment
}

func (a *aggregator) closeOpen(end time.Time, open bool) {
	if a.openKind == "" {
		return
	}
	seg := Segment{
		Interval: timecalc.Interval{Start: a.openStart, End: end, Kind: a.openKind},
		Open:     open,
	}
	secs := seg.Seconds()

	switch a.openKind {
	case timecalc.Work:
		seg.Location = a.openLoc
		a.workedSeconds += secs
		if a.openLoc != nil {
			switch *a.openLoc {
			case clock.Home:
				a.homeSeconds += secs
			case clock.Office:
				a.officeSeconds += secs
			}
		}
	case timecalc.Break:
		a.breakSeconds += secs
		if !open || end.After(a.openStart) {
			a.breaks = append(a.breaks, seg.Interval)
		}
	}
	a.segments = append(a.segments, seg)
	a.openKind = ""
}

func (a *aggregator) open(kind timecalc.Kind, at time.Time, loc *clock.Location) {
	a.openKind = kind
	a.openStart = at
	a.openLoc = loc
}

// ComputeDaySummary replays the day's events and derives worked/break totals and the
// compliance flags. It is a pure function of its input.
func ComputeDaySummary(in DayInput) DaySummary {
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}
	dayStart, dayEnd := in.Day.Bounds(loc)
	a := &aggregator{}

	last := clock.Type("")
	for _, e := range in.Events {
		ts := e.Timestamp.UTC()
		last = e.Type
		switch e.Type {
		case clock.Come:
			// Only unvalidated data has COME with an interval open; that interval is dropped.
			a.open(timecalc.Work, ts, e.Location)
		case clock.BreakStart:
			if a.openKind == timecalc.Work {
				a.closeOpen(ts, false)
			}
			a.open(timecalc.Break, ts, nil)
		case clock.BreakEnd:
			if a.openKind == timecalc.Break {
				a.closeOpen(ts, false)
			}
			a.open(timecalc.Work, ts, nil)
		case clock.Go:
			a.closeOpen(ts, false)
		}
	}

	hasOpen := a.openKind != ""
	if hasOpen {
		_, end := timecalc.CloseOpenInterval(a.openStart, in.Now, dayEnd)
		a.closeOpen(end, true)
	}

	for _, gap := range timecalc.GapsBetweenSessions(in.Events, dayStart, dayEnd) {
		a.breakSeconds += gap.Seconds()
		a.breaks = append(a.breaks, gap)
		a.segments = append(a.segments, Segment{Interval: gap, Gap: true})
	}

	worked := timecalc.Minutes(a.workedSeconds)
	brk := timecalc.Minutes(a.breakSeconds)
	required := timecalc.RequiredBreakTotalMinutes(worked)
	requiredCont := timecalc.RequiredContinuousBreakMinutes(worked)
	maxCont := timecalc.MaxContinuousBreakMinutes(a.breaks)

	return DaySummary{
		Date:                           in.Day,
		WorkedMinutes:                  worked,
		BreakMinutes:                   brk,
		RequiredBreakMinutes:           required,
		RequiredContinuousBreakMinutes: requiredCont,
		MaxContinuousBreakMinutes:      maxCont,
		BreakCompliantTotal:            brk >= required,
		BreakCompliantContinuous:       maxCont >= requiredCont,
		HasOpenInterval:                hasOpen,
		HomeMinutes:                    timecalc.Minutes(a.homeSeconds),
		OfficeMinutes:                  timecalc.Minutes(a.officeSeconds),
		MaxDailyWorkExceeded:           timecalc.MaxDailyWorkExceeded(worked),
		RestPeriodMinutes:              in.RestPeriodMinutes,
		RestPeriodViolation:            in.RestPeriodViolation,
		State:                          clock.StateAfter(last),
		Segments:                       a.segments,
	}
}
