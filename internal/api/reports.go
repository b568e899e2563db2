package api

import (
	"context"
	"net/http"
	"time"

	httperrors "github.com/jw6ventures/timeclock/internal/http/errors"
	"github.com/jw6ventures/timeclock/internal/reporting"
)

type reportDayJSON struct {
	DateLocal                      string       `json:"date_local"`
	WorkedMinutes                  int          `json:"worked_minutes"`
	BreakMinutes                   int          `json:"break_minutes"`
	RequiredBreakMinutes           int          `json:"required_break_minutes"`
	BreakCompliantTotal            bool         `json:"break_compliant_total"`
	RequiredContinuousBreakMinutes int          `json:"required_continuous_break_minutes"`
	MaxContinuousBreakMinutes      int          `json:"max_continuous_break_minutes"`
	BreakCompliantContinuous       bool         `json:"break_compliant_continuous"`
	HasOpenInterval                bool         `json:"has_open_interval"`
	HomeMinutes                    int          `json:"home_minutes"`
	OfficeMinutes                  int          `json:"office_minutes"`
	MaxDailyWorkExceeded           bool         `json:"max_daily_work_exceeded"`
	RestPeriodMinutes              *int         `json:"rest_period_minutes"`
	RestPeriodViolation            bool         `json:"rest_period_violation"`
	Absence                        *absenceJSON `json:"absence"`
	HasNote                        bool         `json:"has_note"`
}

type weekReportResponse struct {
	WeekStartLocal        string          `json:"week_start_local"`
	WeekEndLocalExclusive string          `json:"week_end_local_exclusive"`
	Timezone              string          `json:"timezone"`
	TotalWorkedMinutes    int             `json:"total_worked_minutes"`
	TotalBreakMinutes     int             `json:"total_break_minutes"`
	Days                  []reportDayJSON `json:"days"`
}

type monthReportResponse struct {
	MonthStartLocal        string          `json:"month_start_local"`
	MonthEndLocalExclusive string          `json:"month_end_local_exclusive"`
	Timezone               string          `json:"timezone"`
	TotalWorkedMinutes     int             `json:"total_worked_minutes"`
	TotalBreakMinutes      int             `json:"total_break_minutes"`
	WorkedDays             int             `json:"worked_days"`
	HomeOfficeDays         int             `json:"home_office_days"`
	HomeOfficeRatio        float64         `json:"home_office_ratio"`
	HomeOfficeTargetRatio  float64         `json:"home_office_target_ratio"`
	Days                   []reportDayJSON `json:"days"`
}

// buildReport loads everything a period report needs. Events start one day early so the
// first day's rest period can be computed.
func (h *Handler) buildReport(ctx context.Context, userID int64, loc *time.Location, period reporting.Period) (reporting.PeriodReport, []reportDayJSON, error) {
	start, _ := period.Start.AddDays(-1).Bounds(loc)
	_, end := period.Bounds(loc)
	events, err := h.events.ListRange(ctx, userID, start, end)
	if err != nil {
		return reporting.PeriodReport{}, nil, err
	}
	absences, err := h.loadAbsences(ctx, userID, period)
	if err != nil {
		return reporting.PeriodReport{}, nil, err
	}
	noteDays, err := h.notes.ListDays(ctx, userID, period)
	if err != nil {
		return reporting.PeriodReport{}, nil, err
	}
	hasNote := make(map[reporting.Date]bool, len(noteDays))
	for _, d := range noteDays {
		hasNote[d] = true
	}

	report := reporting.BuildPeriodReport(reporting.PeriodInput{Period: period, Location: loc, Events: events, Now: h.now()})
	days := make([]reportDayJSON, 0, len(report.Days))
	for _, s := range report.Days {
		days = append(days, reportDayJSON{
			DateLocal:                      s.Date.String(),
			WorkedMinutes:                  s.WorkedMinutes,
			BreakMinutes:                   s.BreakMinutes,
			RequiredBreakMinutes:           s.RequiredBreakMinutes,
			BreakCompliantTotal:            s.BreakCompliantTotal,
			RequiredContinuousBreakMinutes: s.RequiredContinuousBreakMinutes,
			MaxContinuousBreakMinutes:      s.MaxContinuousBreakMinutes,
			BreakCompliantContinuous:       s.BreakCompliantContinuous,
			HasOpenInterval:                s.HasOpenInterval,
			HomeMinutes:                    s.HomeMinutes,
			OfficeMinutes:                  s.OfficeMinutes,
			MaxDailyWorkExceeded:           s.MaxDailyWorkExceeded,
			RestPeriodMinutes:              s.RestPeriodMinutes,
			RestPeriodViolation:            s.RestPeriodViolation,
			Absence:                        absences.on(s.Date),
			HasNote:                        hasNote[s.Date],
		})
	}
	return report, days, nil
}

// WeekReport serves the Monday-aligned week containing ?start (default today).
func (h *Handler) WeekReport(w http.ResponseWriter, r *http.Request) {
	user, loc, ok := currentUser(w, r)
	if !ok {
		return
	}
	day := reporting.DateOf(h.now(), loc)
	if raw := r.URL.Query().Get("start"); raw != "" {
		var err error
		if day, err = reporting.ParseDate(raw); err != nil {
			httperrors.Respond(w, r, err)
			return
		}
	}
	period := reporting.WeekOf(day)

	report, days, err := h.buildReport(r.Context(), user.ID, loc, period)
	if err != nil {
		httperrors.InternalError(w, r, err, "build week report")
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, weekReportResponse{
		WeekStartLocal:        period.Start.String(),
		WeekEndLocalExclusive: period.End.String(),
		Timezone:              user.Timezone,
		TotalWorkedMinutes:    report.TotalWorkedMinutes,
		TotalBreakMinutes:     report.TotalBreakMinutes,
		Days:                  days,
	})
}

// MonthReport serves the calendar month ?month=YYYY-MM (default the current month).
func (h *Handler) MonthReport(w http.ResponseWriter, r *http.Request) {
	user, loc, ok := currentUser(w, r)
	if !ok {
		return
	}
	today := reporting.DateOf(h.now(), loc)
	period, err := reporting.MonthPeriod(today.Year, today.Month)
	if raw := r.URL.Query().Get("month"); raw != "" {
		period, err = reporting.ParseMonth(raw)
	}
	if err != nil {
		httperrors.Respond(w, r, err)
		return
	}

	settings, err := h.settings.Get(r.Context(), user.ID)
	if err != nil {
		httperrors.InternalError(w, r, err, "load settings")
		return
	}
	report, days, err := h.buildReport(r.Context(), user.ID, loc, period)
	if err != nil {
		httperrors.InternalError(w, r, err, "build month report")
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, monthReportResponse{
		MonthStartLocal:        period.Start.String(),
		MonthEndLocalExclusive: period.End.String(),
		Timezone:               user.Timezone,
		TotalWorkedMinutes:     report.TotalWorkedMinutes,
		TotalBreakMinutes:      report.TotalBreakMinutes,
		WorkedDays:             report.WorkedDays,
		HomeOfficeDays:         report.HomeOfficeDays,
		HomeOfficeRatio:        report.HomeOfficeRatio,
		HomeOfficeTargetRatio:  settings.HomeOfficeTargetRatio,
		Days:                   days,
	})
}
