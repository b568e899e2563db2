package reporting

import (
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/jw6ventures/timeclock/internal/clock"
	"github.com/jw6ventures/timeclock/internal/timecalc"
)

// Period is a contiguous run of local days, End exclusive.
type Period struct {
	Start Date
	End   Date
}

// WeekOf returns the Monday-aligned week containing d.
func WeekOf(d Date) Period {
	offset := (int(d.Weekday()) + 6) % 7
	start := d.AddDays(-offset)
	return Period{Start: start, End: start.AddDays(7)}
}

// MonthPeriod returns the calendar month.
func MonthPeriod(year int, month time.Month) (Period, error) {
	if month < time.January || month > time.December {
		return Period{}, clock.InvalidRange("invalid month %d", int(month))
	}
	if year < 1 || year > 9999 {
		return Period{}, clock.InvalidRange("invalid year %d", year)
	}
	start := Date{Year: year, Month: month, Day: 1}
	return Period{Start: start, End: NewDate(year, month+1, 1)}, nil
}

var monthPattern = regexp.MustCompile(`^(\d{4})-(\d{1,2})$`)

// ParseMonth parses "YYYY-MM".
func ParseMonth(s string) (Period, error) {
	m := monthPattern.FindStringSubmatch(s)
	if m == nil {
		return Period{}, clock.InvalidRange("invalid month %q; expected YYYY-MM", s)
	}
	year, _ := strconv.Atoi(m[1])
	mon, _ := strconv.Atoi(m[2])
	return MonthPeriod(year, time.Month(mon))
}

// NewPeriod validates an explicit [start, end) range.
func NewPeriod(start, end Date) (Period, error) {
	if !start.Before(end) {
		return Period{}, clock.InvalidRange("end %s must be after start %s", end, start)
	}
	return Period{Start: start, End: end}, nil
}

// Days lists every local day of the period in order.
func (p Period) Days() []Date {
	var out []Date
	for d := p.Start; d.Before(p.End); d = d.AddDays(1) {
		out = append(out, d)
	}
	return out
}

// Bounds maps the period to its UTC instant range.
func (p Period) Bounds(loc *time.Location) (time.Time, time.Time) {
	start, _ := p.Start.Bounds(loc)
	end, _ := p.End.Bounds(loc)
	return start, end
}

// PeriodInput carries the events of a period. Events may start up to one day before the
// period so the first day's rest period can be computed; only days inside the period are
// summarized.
type PeriodInput struct {
	Period   Period
	Location *time.Location
	Events   []clock.Event
	Now      time.Time
}

// PeriodReport is the rollup of a week or month.
type PeriodReport struct {
	Period             Period
	Days               []DaySummary
	TotalWorkedMinutes int
	TotalBreakMinutes  int
	WorkedDays         int
	HomeOfficeDays     int
	HomeOfficeRatio    float64
}

// dayIndex buckets events by local date once for the whole period.
type dayIndex struct {
	byDay     map[Date][]clock.Event
	firstCome map[Date]time.Time
	lastGo    map[Date]time.Time
}

func buildDayIndex(events []clock.Event, loc *time.Location) dayIndex {
	idx := dayIndex{
		byDay:     make(map[Date][]clock.Event),
		firstCome: make(map[Date]time.Time),
		lastGo:    make(map[Date]time.Time),
	}
	sorted := append([]clock.Event(nil), events...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	for _, e := range sorted {
		ts := e.Timestamp.UTC()
		d := DateOf(ts, loc)
		idx.byDay[d] = append(idx.byDay[d], e)
		switch e.Type {
		case clock.Come:
			if cur, ok := idx.firstCome[d]; !ok || ts.Before(cur) {
				idx.firstCome[d] = ts
			}
		case clock.Go:
			if cur, ok := idx.lastGo[d]; !ok || ts.After(cur) {
				idx.lastGo[d] = ts
			}
		}
	}
	return idx
}

// restFor returns the rest data for d: first COME of d against last GO of the day before.
func (idx dayIndex) restFor(d Date) (*int, bool) {
	lastGo, ok := idx.lastGo[d.AddDays(-1)]
	if !ok {
		return nil, false
	}
	firstCome, ok := idx.firstCome[d]
	if !ok {
		return nil, false
	}
	minutes, violation := timecalc.RestPeriod(lastGo, firstCome)
	return &minutes, violation
}

// BuildPeriodReport summarizes each day of the period and accumulates the totals.
func BuildPeriodReport(in PeriodInput) PeriodReport {
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}
	idx := buildDayIndex(in.Events, loc)

	report := PeriodReport{Period: in.Period}
	for _, d := range in.Period.Days() {
		rest, violation := idx.restFor(d)
		summary := ComputeDaySummary(DayInput{
			Day:                 d,
			Location:            loc,
			Events:              idx.byDay[d],
			Now:                 in.Now,
			RestPeriodMinutes:   rest,
			RestPeriodViolation: violation,
		})
		report.Days = append(report.Days, summary)
		report.TotalWorkedMinutes += summary.WorkedMinutes
		report.TotalBreakMinutes += summary.BreakMinutes
		if summary.WorkedMinutes > 0 {
			report.WorkedDays++
			if summary.HomeMinutes > summary.OfficeMinutes {
				report.HomeOfficeDays++
			}
		}
	}
	if report.WorkedDays > 0 {
		report.HomeOfficeRatio = float64(report.HomeOfficeDays) / float64(report.WorkedDays)
	}
	return report
}
