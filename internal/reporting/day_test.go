package reporting

import (
	"testing"
	"time"

	"github.com/jw6ventures/timeclock/internal/clock"
	"github.com/jw6ventures/timeclock/internal/timecalc"
)

func berlin(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

func localAt(loc *time.Location, d Date, h, m int) time.Time {
	return time.Date(d.Year, d.Month, d.Day, h, m, 0, 0, loc).UTC()
}

func punch(loc *time.Location, d Date, typ clock.Type, h, m int, where ...clock.Location) clock.Event {
	e := clock.Event{Type: typ, Timestamp: localAt(loc, d, h, m)}
	if len(where) > 0 {
		e.Location = clock.LocationPtr(where[0])
	}
	return e
}

var monday = Date{Year: 2024, Month: time.March, Day: 4}

func TestComputeDaySummaryFullDay(t *testing.T) {
	loc := berlin(t)
	events := []clock.Event{
		punch(loc, monday, clock.Come, 8, 0, clock.Office),
		punch(loc, monday, clock.BreakStart, 12, 0),
		punch(loc, monday, clock.BreakEnd, 12, 30),
		punch(loc, monday, clock.Go, 17, 0),
	}

	s := ComputeDaySummary(DayInput{Day: monday, Location: loc, Events: events, Now: localAt(loc, monday, 23, 0)})

	if s.WorkedMinutes != 510 {
		t.Errorf("WorkedMinutes = %d, want 510", s.WorkedMinutes)
	}
	if s.BreakMinutes != 30 {
		t.Errorf("BreakMinutes = %d, want 30", s.BreakMinutes)
	}
	if s.RequiredBreakMinutes != 30 || !s.BreakCompliantTotal {
		t.Errorf("required = %d compliant = %v, want 30 true", s.RequiredBreakMinutes, s.BreakCompliantTotal)
	}
	if s.MaxContinuousBreakMinutes != 30 || !s.BreakCompliantContinuous {
		t.Errorf("max continuous = %d compliant = %v, want 30 true", s.MaxContinuousBreakMinutes, s.BreakCompliantContinuous)
	}
	if s.HasOpenInterval {
		t.Error("HasOpenInterval = true, want false")
	}
	if s.State != clock.StateNone {
		t.Errorf("State = %q, want %q", s.State, clock.StateNone)
	}
}

// Work resumed after BREAK_END has no location and stays out of the home/office split.
func TestComputeDaySummaryPostBreakWorkHasNoLocation(t *testing.T) {
	loc := berlin(t)
	events := []clock.Event{
		punch(loc, monday, clock.Come, 8, 0, clock.Office),
		punch(loc, monday, clock.BreakStart, 12, 0),
		punch(loc, monday, clock.BreakEnd, 12, 30),
		punch(loc, monday, clock.Go, 17, 0),
	}

	s := ComputeDaySummary(DayInput{Day: monday, Location: loc, Events: events, Now: localAt(loc, monday, 23, 0)})

	if s.OfficeMinutes != 240 {
		t.Errorf("OfficeMinutes = %d, want 240", s.OfficeMinutes)
	}
	if s.HomeMinutes != 0 {
		t.Errorf("HomeMinutes = %d, want 0", s.HomeMinutes)
	}
	if s.OfficeMinutes+s.HomeMinutes == s.WorkedMinutes {
		t.Error("post-break work was attributed to a location")
	}
}

func TestComputeDaySummaryOpenInterval(t *testing.T) {
	loc := berlin(t)
	events := []clock.Event{punch(loc, monday, clock.Come, 8, 0, clock.Home)}

	s := ComputeDaySummary(DayInput{Day: monday, Location: loc, Events: events, Now: localAt(loc, monday, 10, 0)})

	if s.WorkedMinutes != 120 {
		t.Errorf("WorkedMinutes = %d, want 120", s.WorkedMinutes)
	}
	if !s.HasOpenInterval {
		t.Error("HasOpenInterval = false, want true")
	}
	if s.HomeMinutes != 120 {
		t.Errorf("HomeMinutes = %d, want 120", s.HomeMinutes)
	}
	if s.State != clock.StateWorking {
		t.Errorf("State = %q, want %q", s.State, clock.StateWorking)
	}
}

func TestComputeDaySummaryOpenIntervalClosedAtDayEnd(t *testing.T) {
	loc := berlin(t)
	events := []clock.Event{punch(loc, monday, clock.Come, 22, 0, clock.Office)}
	nextMorning := localAt(loc, monday.AddDays(1), 6, 0)

	s := ComputeDaySummary(DayInput{Day: monday, Location: loc, Events: events, Now: nextMorning})

	if s.WorkedMinutes != 120 {
		t.Errorf("WorkedMinutes = %d, want 120 (capped at midnight)", s.WorkedMinutes)
	}
}

func TestComputeDaySummaryOpenBreak(t *testing.T) {
	loc := berlin(t)
	events := []clock.Event{
		punch(loc, monday, clock.Come, 8, 0, clock.Office),
		punch(loc, monday, clock.BreakStart, 12, 0),
	}

	s := ComputeDaySummary(DayInput{Day: monday, Location: loc, Events: events, Now: localAt(loc, monday, 12, 20)})

	if s.BreakMinutes != 20 || s.MaxContinuousBreakMinutes != 20 {
		t.Errorf("break = %d max = %d, want 20 20", s.BreakMinutes, s.MaxContinuousBreakMinutes)
	}
	if s.State != clock.StateOnBreak || !s.HasOpenInterval {
		t.Errorf("State = %q open = %v", s.State, s.HasOpenInterval)
	}
}

func TestComputeDaySummaryGapCountsAsBreak(t *testing.T) {
	loc := berlin(t)
	events := []clock.Event{
		punch(loc, monday, clock.Come, 8, 0, clock.Office),
		punch(loc, monday, clock.Go, 10, 0),
		punch(loc, monday, clock.Come, 13, 0, clock.Home),
		punch(loc, monday, clock.Go, 17, 0),
	}

	s := ComputeDaySummary(DayInput{Day: monday, Location: loc, Events: events, Now: localAt(loc, monday, 23, 0)})

	if s.BreakMinutes != 180 {
		t.Errorf("BreakMinutes = %d, want 180", s.BreakMinutes)
	}
	if s.MaxContinuousBreakMinutes != 180 {
		t.Errorf("MaxContinuousBreakMinutes = %d, want 180", s.MaxContinuousBreakMinutes)
	}
	if s.WorkedMinutes != 360 || s.RequiredBreakMinutes != 0 {
		t.Errorf("worked = %d required = %d, want 360 0", s.WorkedMinutes, s.RequiredBreakMinutes)
	}
	if s.HomeMinutes != 240 || s.OfficeMinutes != 120 {
		t.Errorf("home = %d office = %d, want 240 120", s.HomeMinutes, s.OfficeMinutes)
	}
}

func TestComputeDaySummaryMaxDailyWork(t *testing.T) {
	loc := berlin(t)
	events := []clock.Event{
		punch(loc, monday, clock.Come, 6, 0, clock.Office),
		punch(loc, monday, clock.Go, 18, 1),
	}

	s := ComputeDaySummary(DayInput{Day: monday, Location: loc, Events: events, Now: localAt(loc, monday, 23, 0)})

	if s.WorkedMinutes != 721 {
		t.Fatalf("WorkedMinutes = %d, want 721", s.WorkedMinutes)
	}
	if !s.MaxDailyWorkExceeded {
		t.Error("MaxDailyWorkExceeded = false, want true")
	}
	if s.RequiredBreakMinutes != 45 || s.BreakCompliantTotal || s.BreakCompliantContinuous {
		t.Errorf("required = %d compliant = %v/%v", s.RequiredBreakMinutes, s.BreakCompliantTotal, s.BreakCompliantContinuous)
	}
}

func TestComputeDaySummaryTruncatesOnce(t *testing.T) {
	loc := berlin(t)
	start := localAt(loc, monday, 8, 0)
	// Three work segments of 10m40s each: 32 minutes in total, while truncating each
	// segment first would give 30.
	events := []clock.Event{
		{Type: clock.Come, Timestamp: start, Location: clock.LocationPtr(clock.Office)},
		{Type: clock.BreakStart, Timestamp: start.Add(10*time.Minute + 40*time.Second)},
		{Type: clock.BreakEnd, Timestamp: start.Add(20 * time.Minute)},
		{Type: clock.BreakStart, Timestamp: start.Add(30*time.Minute + 40*time.Second)},
		{Type: clock.BreakEnd, Timestamp: start.Add(40 * time.Minute)},
		{Type: clock.Go, Timestamp: start.Add(50*time.Minute + 40*time.Second)},
	}

	s := ComputeDaySummary(DayInput{Day: monday, Location: loc, Events: events, Now: localAt(loc, monday, 23, 0)})

	var workSeconds, breakSeconds int64
	truncatedPerSegment := 0
	for _, seg := range s.Segments {
		switch seg.Kind {
		case timecalc.Work:
			workSeconds += seg.Seconds()
			truncatedPerSegment += timecalc.Minutes(seg.Seconds())
		case timecalc.Break:
			breakSeconds += seg.Seconds()
		}
	}

	if got := timecalc.Minutes(workSeconds); got != s.WorkedMinutes {
		t.Errorf("segment seconds give %d minutes, summary has %d", got, s.WorkedMinutes)
	}
	if got := timecalc.Minutes(breakSeconds); got != s.BreakMinutes {
		t.Errorf("segment break seconds give %d minutes, summary has %d", got, s.BreakMinutes)
	}
	if s.WorkedMinutes != 32 {
		t.Errorf("WorkedMinutes = %d, want 32", s.WorkedMinutes)
	}
	if truncatedPerSegment != 30 {
		t.Errorf("per-segment truncation = %d, want 30", truncatedPerSegment)
	}
}

func TestComputeDaySummaryIsPure(t *testing.T) {
	loc := berlin(t)
	rest := 700
	in := DayInput{
		Day:      monday,
		Location: loc,
		Events: []clock.Event{
			punch(loc, monday, clock.Come, 8, 0, clock.Office),
			punch(loc, monday, clock.BreakStart, 11, 0),
		},
		Now:               localAt(loc, monday, 11, 45),
		RestPeriodMinutes: &rest,
	}

	first := ComputeDaySummary(in)
	second := ComputeDaySummary(in)

	if first.WorkedMinutes != second.WorkedMinutes || first.BreakMinutes != second.BreakMinutes ||
		first.MaxContinuousBreakMinutes != second.MaxContinuousBreakMinutes || len(first.Segments) != len(second.Segments) {
		t.Errorf("summaries differ: %+v vs %+v", first, second)
	}
	if first.RestPeriodMinutes == nil || *first.RestPeriodMinutes != 700 || first.RestPeriodViolation {
		t.Errorf("rest data not passed through: %v %v", first.RestPeriodMinutes, first.RestPeriodViolation)
	}
}

func TestComputeDaySummaryDSTDay(t *testing.T) {
	loc := berlin(t)
	// Clocks go forward at 02:00 on 2024-03-31; the local day lasts 23 hours.
	day := Date{Year: 2024, Month: time.March, Day: 31}
	start, end := day.Bounds(loc)
	if got := end.Sub(start); got != 23*time.Hour {
		t.Fatalf("day length = %v, want 23h", got)
	}

	events := []clock.Event{punch(loc, day, clock.Come, 1, 0, clock.Home), punch(loc, day, clock.Go, 4, 0)}
	s := ComputeDaySummary(DayInput{Day: day, Location: loc, Events: events, Now: end})
	if s.WorkedMinutes != 120 {
		t.Errorf("WorkedMinutes = %d, want 120 across the DST gap", s.WorkedMinutes)
	}
}

func TestComputeDaySummaryAcceptedSequencesAggregate(t *testing.T) {
	loc := berlin(t)
	sequences := [][]clock.Event{
		nil,
		{punch(loc, monday, clock.Come, 9, 0, clock.Home)},
		{punch(loc, monday, clock.Come, 9, 0, clock.Home), punch(loc, monday, clock.BreakStart, 10, 0), punch(loc, monday, clock.Go, 11, 0)},
		{punch(loc, monday, clock.Come, 9, 0, clock.Home), punch(loc, monday, clock.BreakStart, 10, 0), punch(loc, monday, clock.BreakEnd, 10, 5), punch(loc, monday, clock.BreakStart, 10, 10)},
	}
	for i, events := range sequences {
		if err := clock.ValidateSequence(events); err != nil {
			t.Fatalf("sequence %d rejected: %v", i, err)
		}
		s := ComputeDaySummary(DayInput{Day: monday, Location: loc, Events: events, Now: localAt(loc, monday, 12, 0)})
		if s.WorkedMinutes < 0 || s.BreakMinutes < 0 {
			t.Errorf("sequence %d produced negative totals: %+v", i, s)
		}
	}
}
