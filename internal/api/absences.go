package api

import (
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/jw6ventures/timeclock/internal/auth"
	"github.com/jw6ventures/timeclock/internal/clock"
	httperrors "github.com/jw6ventures/timeclock/internal/http/errors"
	"github.com/jw6ventures/timeclock/internal/reporting"
	"github.com/jw6ventures/timeclock/internal/store"
)

const (
	maxReasonNameLength = 64
	defaultAbsenceDays  = 366
)

type createReasonRequest struct {
	Name string `json:"name"`
}

type createAbsenceRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	ReasonID  int64  `json:"reason_id"`
}

// ListAbsenceReasons returns the user's reasons ordered by name.
func (h *Handler) ListAbsenceReasons(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		httperrors.Unauthorized(w)
		return
	}
	reasons, err := h.reasons.ListByUser(r.Context(), user.ID)
	if err != nil {
		httperrors.InternalError(w, r, err, "list absence reasons")
		return
	}
	out := make([]reasonJSON, 0, len(reasons))
	for _, reason := range reasons {
		out = append(out, reasonJSON{ID: reason.ID, Name: reason.Name})
	}
	httperrors.WriteJSON(w, http.StatusOK, out)
}

// CreateAbsenceReason adds a reason; names are unique per user.
func (h *Handler) CreateAbsenceReason(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		httperrors.Unauthorized(w)
		return
	}
	var req createReasonRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" || utf8.RuneCountInString(name) > maxReasonNameLength {
		httperrors.Respond(w, r, clock.InvalidField("name must be 1 to %d characters", maxReasonNameLength))
		return
	}
	reason, err := h.reasons.Create(r.Context(), user.ID, name)
	if err != nil {
		httperrors.Respond(w, r, err)
		return
	}
	httperrors.WriteJSON(w, http.StatusCreated, reasonJSON{ID: reason.ID, Name: reason.Name})
}

// DeleteAbsenceReason removes an unused reason. A reason still referenced by an absence
// is a conflict.
func (h *Handler) DeleteAbsenceReason(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		httperrors.Unauthorized(w)
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.reasons.Delete(r.Context(), user.ID, id); err != nil {
		httperrors.Respond(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parsePeriodQuery reads ?start=&end_exclusive=. Both or neither must be given; when
// neither is, fallback is used.
func parsePeriodQuery(r *http.Request, fallback reporting.Period) (reporting.Period, error) {
	q := r.URL.Query()
	rawStart, rawEnd := q.Get("start"), q.Get("end_exclusive")
	if rawStart == "" && rawEnd == "" {
		return fallback, nil
	}
	if rawStart == "" || rawEnd == "" {
		return reporting.Period{}, clock.InvalidRange("start and end_exclusive must be provided together")
	}
	start, err := reporting.ParseDate(rawStart)
	if err != nil {
		return reporting.Period{}, err
	}
	end, err := reporting.ParseDate(rawEnd)
	if err != nil {
		return reporting.Period{}, err
	}
	return reporting.NewPeriod(start, end)
}

// ListAbsences returns absences overlapping ?start..end_exclusive, by default the year
// around today.
func (h *Handler) ListAbsences(w http.ResponseWriter, r *http.Request) {
	user, loc, ok := currentUser(w, r)
	if !ok {
		return
	}
	today := reporting.DateOf(h.now(), loc)
	period, err := parsePeriodQuery(r, reporting.Period{Start: today.AddDays(-defaultAbsenceDays), End: today.AddDays(defaultAbsenceDays)})
	if err != nil {
		httperrors.Respond(w, r, err)
		return
	}
	idx, err := h.loadAbsences(r.Context(), user.ID, period)
	if err != nil {
		httperrors.InternalError(w, r, err, "list absences")
		return
	}
	out := make([]absenceJSON, 0, len(idx.absences))
	for _, a := range idx.absences {
		if item, ok := idx.toJSON(a); ok {
			out = append(out, *item)
		}
	}
	httperrors.WriteJSON(w, http.StatusOK, out)
}

// CreateAbsence records an absence. It may not overlap another absence and its days
// must not carry clock events.
func (h *Handler) CreateAbsence(w http.ResponseWriter, r *http.Request) {
	user, loc, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req createAbsenceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	start, err := reporting.ParseDate(req.StartDate)
	if err != nil {
		httperrors.Respond(w, r, err)
		return
	}
	end, err := reporting.ParseDate(req.EndDate)
	if err != nil {
		httperrors.Respond(w, r, err)
		return
	}
	period, err := reporting.NewPeriod(start, end.AddDays(1))
	if err != nil {
		httperrors.Respond(w, r, clock.InvalidRange("end_date must not be before start_date"))
		return
	}

	ctx := r.Context()
	overlapping, err := h.absences.ListOverlapping(ctx, user.ID, period)
	if err != nil {
		httperrors.InternalError(w, r, err, "check absence overlap")
		return
	}
	if len(overlapping) > 0 {
		httperrors.Respond(w, r, fmt.Errorf("absence overlaps an existing absence: %w", store.ErrConflict))
		return
	}
	from, to := period.Bounds(loc)
	events, err := h.events.ListRange(ctx, user.ID, from, to)
	if err != nil {
		httperrors.InternalError(w, r, err, "check clock events")
		return
	}
	if len(events) > 0 {
		httperrors.Respond(w, r, fmt.Errorf("clock events exist in range: %w", store.ErrConflict))
		return
	}

	absence, err := h.absences.Create(ctx, store.Absence{UserID: user.ID, ReasonID: req.ReasonID, StartDate: start, EndDate: end})
	if err != nil {
		httperrors.Respond(w, r, err)
		return
	}
	idx, err := h.reasonIndex(ctx, user.ID)
	if err != nil {
		httperrors.InternalError(w, r, err, "load absence reason")
		return
	}
	item, ok := idx.toJSON(*absence)
	if !ok {
		httperrors.Respond(w, r, store.ErrNotFound)
		return
	}
	httperrors.WriteJSON(w, http.StatusCreated, item)
}

// DeleteAbsence removes one absence.
func (h *Handler) DeleteAbsence(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		httperrors.Unauthorized(w)
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.absences.Delete(r.Context(), user.ID, id); err != nil {
		httperrors.Respond(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
