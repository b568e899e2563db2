package api

import (
	"net/http"

	"github.com/jw6ventures/timeclock/internal/clock"
	httperrors "github.com/jw6ventures/timeclock/internal/http/errors"
	"github.com/jw6ventures/timeclock/internal/reporting"
	"github.com/jw6ventures/timeclock/internal/timecalc"
)

type todayResponse struct {
	DateLocal string `json:"date_local"`
	Timezone  string `json:"timezone"`

	State                string `json:"state"`
	WorkedMinutes        int    `json:"worked_minutes"`
	TargetMinutes        int    `json:"target_minutes"`
	RemainingWorkMinutes int    `json:"remaining_work_minutes"`

	BreakMinutes          int `json:"break_minutes"`
	RequiredBreakMinutes  int `json:"required_break_minutes"`
	RemainingBreakMinutes int `json:"remaining_break_minutes"`

	RequiredContinuousBreakMinutes  int `json:"required_continuous_break_minutes"`
	MaxContinuousBreakMinutes       int `json:"max_continuous_break_minutes"`
	RemainingContinuousBreakMinutes int `json:"remaining_continuous_break_minutes"`

	LastEventType  *string `json:"last_event_type"`
	LastEventTSUTC *string `json:"last_event_ts_utc"`

	MaxDailyWorkExceeded bool `json:"max_daily_work_exceeded"`
	RestPeriodMinutes    *int `json:"rest_period_minutes"`
	RestPeriodViolation  bool `json:"rest_period_violation"`

	Absence           *absenceJSON `json:"absence"`
	OvertimeStartDate *string      `json:"overtime_start_date"`
}

func remaining(target, done int) int {
	if done >= target {
		return 0
	}
	return target - done
}

// Today returns the live status of the user's current local day.
func (h *Handler) Today(w http.ResponseWriter, r *http.Request) {
	user, loc, ok := currentUser(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	now := h.now()
	today := reporting.DateOf(now, loc)
	start, end := today.Bounds(loc)

	events, err := h.events.ListRange(ctx, user.ID, start, end)
	if err != nil {
		httperrors.InternalError(w, r, err, "list clock events")
		return
	}
	settings, err := h.settings.Get(ctx, user.ID)
	if err != nil {
		httperrors.InternalError(w, r, err, "load settings")
		return
	}

	in := reporting.DayInput{Day: today, Location: loc, Events: events, Now: now}
	// rest is measured against the last GO on any earlier day, not only yesterday
	for _, e := range events {
		if e.Type != clock.Come {
			continue
		}
		lastGo, err := h.events.LastGoBefore(ctx, user.ID, e.Timestamp)
		if err != nil {
			httperrors.InternalError(w, r, err, "load last GO")
			return
		}
		if lastGo != nil {
			minutes, violation := timecalc.RestPeriod(lastGo.Timestamp, e.Timestamp)
			in.RestPeriodMinutes = &minutes
			in.RestPeriodViolation = violation
		}
		break
	}
	summary := reporting.ComputeDaySummary(in)

	period, _ := reporting.NewPeriod(today, today.AddDays(1))
	absences, err := h.loadAbsences(ctx, user.ID, period)
	if err != nil {
		httperrors.InternalError(w, r, err, "load absences")
		return
	}

	out := todayResponse{
		DateLocal:                       today.String(),
		Timezone:                        user.Timezone,
		State:                           string(summary.State),
		WorkedMinutes:                   summary.WorkedMinutes,
		TargetMinutes:                   settings.DailyTargetMinutes,
		RemainingWorkMinutes:            remaining(settings.DailyTargetMinutes, summary.WorkedMinutes),
		BreakMinutes:                    summary.BreakMinutes,
		RequiredBreakMinutes:            summary.RequiredBreakMinutes,
		RemainingBreakMinutes:           remaining(summary.RequiredBreakMinutes, summary.BreakMinutes),
		RequiredContinuousBreakMinutes:  summary.RequiredContinuousBreakMinutes,
		MaxContinuousBreakMinutes:       summary.MaxContinuousBreakMinutes,
		RemainingContinuousBreakMinutes: remaining(summary.RequiredContinuousBreakMinutes, summary.MaxContinuousBreakMinutes),
		MaxDailyWorkExceeded:            summary.MaxDailyWorkExceeded,
		RestPeriodMinutes:               summary.RestPeriodMinutes,
		RestPeriodViolation:             summary.RestPeriodViolation,
		Absence:                         absences.on(today),
	}
	if n := len(events); n > 0 {
		last := events[n-1]
		typ, ts := string(last.Type), formatUTC(last.Timestamp)
		out.LastEventType, out.LastEventTSUTC = &typ, &ts
	}
	if settings.OvertimeStartDate != nil {
		d := dateString(*settings.OvertimeStartDate)
		out.OvertimeStartDate = &d
	}
	httperrors.WriteJSON(w, http.StatusOK, out)
}
