package api

import (
	"net/http"
	"time"

	"github.com/jw6ventures/timeclock/internal/auth"
	"github.com/jw6ventures/timeclock/internal/clock"
	httperrors "github.com/jw6ventures/timeclock/internal/http/errors"
	"github.com/jw6ventures/timeclock/internal/push"
	"github.com/jw6ventures/timeclock/internal/reporting"
	"github.com/jw6ventures/timeclock/internal/store"
)

const maxThresholds = 24

type settingsResponse struct {
	DailyTargetMinutes    int     `json:"daily_target_minutes"`
	HomeOfficeTargetRatio float64 `json:"home_office_target_ratio"`
	OvertimeStartDate     *string `json:"overtime_start_date"`
	PushWorkMinutes       []int   `json:"push_work_minutes"`
	PushBreakMinutes      []int   `json:"push_break_minutes"`
}

// updateSettingsRequest only changes the fields that are present. An empty string
// clears overtime_start_date.
type updateSettingsRequest struct {
	DailyTargetMinutes    *int     `json:"daily_target_minutes"`
	HomeOfficeTargetRatio *float64 `json:"home_office_target_ratio"`
	OvertimeStartDate     *string  `json:"overtime_start_date"`
	PushWorkMinutes       *[]int   `json:"push_work_minutes"`
	PushBreakMinutes      *[]int   `json:"push_break_minutes"`
}

// dateString formats a DATE column value, which pgx scans as midnight UTC.
func dateString(t time.Time) string {
	return reporting.DateOf(t, time.UTC).String()
}

func toSettingsResponse(s *store.Settings) settingsResponse {
	out := settingsResponse{
		DailyTargetMinutes:    s.DailyTargetMinutes,
		HomeOfficeTargetRatio: s.HomeOfficeTargetRatio,
		PushWorkMinutes:       push.Thresholds(s.PushWorkMinutes),
		PushBreakMinutes:      push.Thresholds(s.PushBreakMinutes),
	}
	if s.OvertimeStartDate != nil {
		d := dateString(*s.OvertimeStartDate)
		out.OvertimeStartDate = &d
	}
	return out
}

func (req updateSettingsRequest) apply(s *store.Settings) error {
	if req.DailyTargetMinutes != nil {
		if *req.DailyTargetMinutes < 0 || *req.DailyTargetMinutes > 24*60 {
			return clock.InvalidField("daily_target_minutes must be between 0 and 1440")
		}
		s.DailyTargetMinutes = *req.DailyTargetMinutes
	}
	if req.HomeOfficeTargetRatio != nil {
		if *req.HomeOfficeTargetRatio < 0 || *req.HomeOfficeTargetRatio > 1 {
			return clock.InvalidField("home_office_target_ratio must be between 0 and 1")
		}
		s.HomeOfficeTargetRatio = *req.HomeOfficeTargetRatio
	}
	if req.OvertimeStartDate != nil {
		if *req.OvertimeStartDate == "" {
			s.OvertimeStartDate = nil
		} else {
			d, err := reporting.ParseDate(*req.OvertimeStartDate)
			if err != nil {
				return clock.InvalidField("overtime_start_date must be YYYY-MM-DD")
			}
			start, _ := d.Bounds(time.UTC)
			s.OvertimeStartDate = &start
		}
	}
	if req.PushWorkMinutes != nil {
		if len(*req.PushWorkMinutes) > maxThresholds {
			return clock.InvalidField("at most %d work thresholds", maxThresholds)
		}
		s.PushWorkMinutes = push.Thresholds(*req.PushWorkMinutes)
	}
	if req.PushBreakMinutes != nil {
		if len(*req.PushBreakMinutes) > maxThresholds {
			return clock.InvalidField("at most %d break thresholds", maxThresholds)
		}
		s.PushBreakMinutes = push.Thresholds(*req.PushBreakMinutes)
	}
	return nil
}

// GetSettings returns the user's settings, creating the defaults on first access.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		httperrors.Unauthorized(w)
		return
	}
	settings, err := h.settings.Get(r.Context(), user.ID)
	if err != nil {
		httperrors.InternalError(w, r, err, "load settings")
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, toSettingsResponse(settings))
}

// UpdateSettings applies a partial update.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		httperrors.Unauthorized(w)
		return
	}
	var req updateSettingsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	settings, err := h.settings.Get(r.Context(), user.ID)
	if err != nil {
		httperrors.InternalError(w, r, err, "load settings")
		return
	}
	if err := req.apply(settings); err != nil {
		httperrors.Respond(w, r, err)
		return
	}
	saved, err := h.settings.Save(r.Context(), *settings)
	if err != nil {
		httperrors.InternalError(w, r, err, "save settings")
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, toSettingsResponse(saved))
}
