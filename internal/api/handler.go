// Package api serves the JSON endpoints used by the browser app: punches, the dashboard,
// reports, settings, absences, notes and push subscriptions.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jw6ventures/timeclock/internal/auth"
	"github.com/jw6ventures/timeclock/internal/config"
	httperrors "github.com/jw6ventures/timeclock/internal/http/errors"
	"github.com/jw6ventures/timeclock/internal/push"
	"github.com/jw6ventures/timeclock/internal/store"
)

const maxBodyBytes = 1 << 16

// Handler serves the authenticated API. Every handler expects auth.RequireSession to
// have put the user in the request context.
type Handler struct {
	events   store.ClockEventRepository
	settings store.SettingsRepository
	reasons  store.AbsenceReasonRepository
	absences store.AbsenceRepository
	notes    store.DayNoteRepository
	pushSubs store.PushSubscriptionRepository

	// sender is nil when no VAPID keys are configured.
	sender         push.Sender
	vapidPublicKey string

	now func() time.Time
}

func NewHandler(cfg *config.Config, st *store.Store, sender push.Sender) *Handler {
	return &Handler{
		events:         st.ClockEvents,
		settings:       st.Settings,
		reasons:        st.AbsenceReasons,
		absences:       st.Absences,
		notes:          st.Notes,
		pushSubs:       st.PushSubscriptions,
		sender:         sender,
		vapidPublicKey: cfg.Push.VAPIDPublicKey,
		now:            time.Now,
	}
}

// Routes registers the API endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/clock-events", h.ListClockEvents)
	r.Post("/clock-events", h.CreateClockEvent)
	r.Patch("/clock-events/{id}", h.UpdateClockEvent)
	r.Delete("/clock-events/{id}", h.DeleteClockEvent)

	r.Get("/dashboard/today", h.Today)
	r.Get("/reports/week", h.WeekReport)
	r.Get("/reports/month", h.MonthReport)

	r.Get("/settings", h.GetSettings)
	r.Put("/settings", h.UpdateSettings)

	r.Get("/absence-reasons", h.ListAbsenceReasons)
	r.Post("/absence-reasons", h.CreateAbsenceReason)
	r.Delete("/absence-reasons/{id}", h.DeleteAbsenceReason)

	r.Get("/absences", h.ListAbsences)
	r.Post("/absences", h.CreateAbsence)
	r.Delete("/absences/{id}", h.DeleteAbsence)

	r.Get("/notes", h.ListNoteDays)
	r.Get("/notes/{date}", h.GetNote)
	r.Put("/notes/{date}", h.PutNote)

	r.Get("/push/vapid-public-key", h.VAPIDPublicKey)
	r.Post("/push/subscriptions", h.Subscribe)
	r.Delete("/push/subscriptions", h.Unsubscribe)
	r.Post("/push/test", h.TestPush)
}

// currentUser returns the signed-in user and their zone, answering the request itself
// when either is unavailable.
func currentUser(w http.ResponseWriter, r *http.Request) (*store.User, *time.Location, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		httperrors.Unauthorized(w)
		return nil, nil, false
	}
	loc, err := user.Location()
	if err != nil {
		httperrors.InternalError(w, r, err, "load user timezone")
		return nil, nil, false
	}
	return user, loc, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		httperrors.BadRequestError(w, r, err, "invalid JSON body")
		return false
	}
	return true
}

func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httperrors.BadRequestError(w, r, err, "invalid id")
		return 0, false
	}
	return id, true
}
