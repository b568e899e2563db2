package api

import (
	"errors"
	"net/http"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/jw6ventures/timeclock/internal/auth"
	"github.com/jw6ventures/timeclock/internal/clock"
	httperrors "github.com/jw6ventures/timeclock/internal/http/errors"
	"github.com/jw6ventures/timeclock/internal/reporting"
	"github.com/jw6ventures/timeclock/internal/store"
)

const maxNoteLength = 4000

type noteJSON struct {
	ID        int64  `json:"id"`
	DateLocal string `json:"date_local"`
	Content   string `json:"content"`
	UpdatedAt string `json:"updated_at"`
}

type putNoteRequest struct {
	Content string `json:"content"`
}

func toNoteJSON(n *store.DayNote) noteJSON {
	return noteJSON{ID: n.ID, DateLocal: n.Date.String(), Content: n.Content, UpdatedAt: formatUTC(n.UpdatedAt)}
}

// GetNote returns the note of a local day, or null when there is none.
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		httperrors.Unauthorized(w)
		return
	}
	day, err := reporting.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		httperrors.Respond(w, r, err)
		return
	}
	note, err := h.notes.Get(r.Context(), user.ID, day)
	if errors.Is(err, store.ErrNotFound) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("null\n"))
		return
	}
	if err != nil {
		httperrors.InternalError(w, r, err, "load note")
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, toNoteJSON(note))
}

// PutNote creates or replaces the note of a local day.
func (h *Handler) PutNote(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		httperrors.Unauthorized(w)
		return
	}
	day, err := reporting.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		httperrors.Respond(w, r, err)
		return
	}
	var req putNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if utf8.RuneCountInString(req.Content) > maxNoteLength {
		httperrors.Respond(w, r, clock.InvalidField("note longer than %d characters", maxNoteLength))
		return
	}
	note, err := h.notes.Upsert(r.Context(), user.ID, day, req.Content)
	if err != nil {
		httperrors.InternalError(w, r, err, "save note")
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, toNoteJSON(note))
}

// ListNoteDays returns the days with a note in ?start..end_exclusive, by default the
// current month.
func (h *Handler) ListNoteDays(w http.ResponseWriter, r *http.Request) {
	user, loc, ok := currentUser(w, r)
	if !ok {
		return
	}
	today := reporting.DateOf(h.now(), loc)
	month, _ := reporting.MonthPeriod(today.Year, today.Month)
	period, err := parsePeriodQuery(r, month)
	if err != nil {
		httperrors.Respond(w, r, err)
		return
	}
	days, err := h.notes.ListDays(r.Context(), user.ID, period)
	if err != nil {
		httperrors.InternalError(w, r, err, "list note days")
		return
	}
	out := make([]string, 0, len(days))
	for _, d := range days {
		out = append(out, d.String())
	}
	httperrors.WriteJSON(w, http.StatusOK, out)
}
