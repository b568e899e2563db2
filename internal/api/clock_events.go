package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jw6ventures/timeclock/internal/auth"
	"github.com/jw6ventures/timeclock/internal/clock"
	httperrors "github.com/jw6ventures/timeclock/internal/http/errors"
	"github.com/jw6ventures/timeclock/internal/metrics"
	"github.com/jw6ventures/timeclock/internal/reporting"
	"github.com/jw6ventures/timeclock/internal/store"
)

const maxClientEventIDLength = 64

type geoJSON struct {
	Lat       float64  `json:"lat"`
	Lng       float64  `json:"lng"`
	AccuracyM *float64 `json:"accuracy_m,omitempty"`
}

type createClockEventRequest struct {
	Type          string   `json:"type"`
	Location      *string  `json:"location"`
	Geo           *geoJSON `json:"geo"`
	TSUTC         *string  `json:"ts_utc"`
	ClientEventID *string  `json:"client_event_id"`
}

type updateClockEventRequest struct {
	Type     *string `json:"type"`
	Location *string `json:"location"`
	TSUTC    *string `json:"ts_utc"`
}

type clockEventResponse struct {
	ID            int64    `json:"id"`
	TSUTC         string   `json:"ts_utc"`
	Type          string   `json:"type"`
	Location      *string  `json:"location"`
	Geo           *geoJSON `json:"geo"`
	ClientEventID *string  `json:"client_event_id"`
}

func toClockEventResponse(e clock.Event) clockEventResponse {
	out := clockEventResponse{
		ID:            e.ID,
		TSUTC:         formatUTC(e.Timestamp),
		Type:          string(e.Type),
		ClientEventID: e.ClientEventID,
	}
	if e.Location != nil {
		loc := string(*e.Location)
		out.Location = &loc
	}
	if e.Geo != nil {
		out.Geo = &geoJSON{Lat: e.Geo.Lat, Lng: e.Geo.Lng, AccuracyM: e.Geo.AccuracyM}
	}
	return out
}

func formatUTC(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTimestamp requires an explicit offset; naive local times are rejected.
func parseTimestamp(raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	ts, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(*raw))
	if err != nil {
		return nil, clock.InvalidField("ts_utc must be an RFC 3339 timestamp with offset")
	}
	ts = ts.UTC().Truncate(time.Microsecond)
	return &ts, nil
}

func parseLocation(raw *string) (*clock.Location, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	loc := clock.Location(strings.ToUpper(strings.TrimSpace(*raw)))
	if !loc.Valid() {
		return nil, clock.InvalidField("invalid location %q", *raw)
	}
	return &loc, nil
}

func parseGeo(g *geoJSON) (*clock.Geo, error) {
	if g == nil {
		return nil, nil
	}
	if g.Lat < -90 || g.Lat > 90 || g.Lng < -180 || g.Lng > 180 {
		return nil, clock.InvalidField("geo coordinates out of range")
	}
	if g.AccuracyM != nil && *g.AccuracyM < 0 {
		return nil, clock.InvalidField("geo accuracy must not be negative")
	}
	return &clock.Geo{Lat: g.Lat, Lng: g.Lng, AccuracyM: g.AccuracyM}, nil
}

func (req createClockEventRequest) toNewClockEvent() (store.NewClockEvent, error) {
	in := store.NewClockEvent{Type: clock.Type(strings.ToUpper(strings.TrimSpace(req.Type)))}
	var err error
	if in.Location, err = parseLocation(req.Location); err != nil {
		return in, err
	}
	if in.Timestamp, err = parseTimestamp(req.TSUTC); err != nil {
		return in, err
	}
	if in.Geo, err = parseGeo(req.Geo); err != nil {
		return in, err
	}
	if req.ClientEventID != nil {
		id := strings.TrimSpace(*req.ClientEventID)
		if len(id) > maxClientEventIDLength {
			return in, clock.InvalidField("client_event_id longer than %d characters", maxClientEventIDLength)
		}
		if id != "" {
			in.ClientEventID = &id
		}
	}
	return in, nil
}

func (req updateClockEventRequest) toPatch() (store.ClockEventPatch, error) {
	var patch store.ClockEventPatch
	if req.Type != nil {
		t := clock.Type(strings.ToUpper(strings.TrimSpace(*req.Type)))
		patch.Type = &t
	}
	var err error
	if patch.Location, err = parseLocation(req.Location); err != nil {
		return patch, err
	}
	if patch.Timestamp, err = parseTimestamp(req.TSUTC); err != nil {
		return patch, err
	}
	return patch, nil
}

// respondClockError records sequence rejections before writing the error response.
func respondClockError(w http.ResponseWriter, r *http.Request, err error) {
	if kind, ok := clock.KindOf(err); ok {
		metrics.RecordSequenceRejection(string(kind))
	}
	httperrors.Respond(w, r, err)
}

// CreateClockEvent appends a punch to the signed-in user's log.
func (h *Handler) CreateClockEvent(w http.ResponseWriter, r *http.Request) {
	user, loc, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req createClockEventRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, err := req.toNewClockEvent()
	if err != nil {
		respondClockError(w, r, err)
		return
	}

	event, err := h.events.Create(r.Context(), user.ID, loc, in, h.now())
	if err != nil {
		respondClockError(w, r, err)
		return
	}
	metrics.RecordClockEvent(string(event.Type))
	httperrors.WriteJSON(w, http.StatusCreated, toClockEventResponse(*event))
}

// ListClockEvents returns the punches of one local day (?date=YYYY-MM-DD) in ascending
// order, or the most recent ones (?limit=N, default 50) newest first.
func (h *Handler) ListClockEvents(w http.ResponseWriter, r *http.Request) {
	user, loc, ok := currentUser(w, r)
	if !ok {
		return
	}

	var (
		events []clock.Event
		err    error
	)
	if raw := r.URL.Query().Get("date"); raw != "" {
		day, perr := reporting.ParseDate(raw)
		if perr != nil {
			httperrors.Respond(w, r, perr)
			return
		}
		start, end := day.Bounds(loc)
		events, err = h.events.ListRange(r.Context(), user.ID, start, end)
	} else {
		limit := 50
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if limit, err = strconv.Atoi(raw); err != nil {
				httperrors.BadRequestError(w, r, err, "invalid limit")
				return
			}
		}
		events, err = h.events.ListRecent(r.Context(), user.ID, limit)
	}
	if err != nil {
		httperrors.InternalError(w, r, err, "list clock events")
		return
	}

	out := make([]clockEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, toClockEventResponse(e))
	}
	httperrors.WriteJSON(w, http.StatusOK, out)
}

// UpdateClockEvent edits a punch; the whole resulting sequence must stay valid.
func (h *Handler) UpdateClockEvent(w http.ResponseWriter, r *http.Request) {
	user, loc, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req updateClockEventRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		respondClockError(w, r, err)
		return
	}

	event, err := h.events.Update(r.Context(), user.ID, loc, id, patch, h.now())
	if err != nil {
		respondClockError(w, r, err)
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, toClockEventResponse(*event))
}

// DeleteClockEvent removes a punch if the remaining sequence stays valid.
func (h *Handler) DeleteClockEvent(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		httperrors.Unauthorized(w)
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.events.Delete(r.Context(), user.ID, id); err != nil {
		respondClockError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
