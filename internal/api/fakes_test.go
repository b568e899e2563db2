package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jw6ventures/timeclock/internal/auth"
	"github.com/jw6ventures/timeclock/internal/clock"
	"github.com/jw6ventures/timeclock/internal/push"
	"github.com/jw6ventures/timeclock/internal/reporting"
	"github.com/jw6ventures/timeclock/internal/store"
)

type memEvents struct {
	events    []clock.Event
	nextID    int64
	createErr error
	deleted   []int64
}

func (m *memEvents) Create(ctx context.Context, userID int64, loc *time.Location, in store.NewClockEvent, now time.Time) (*clock.Event, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	if err := clock.ValidateFields(in.Type, in.Location); err != nil {
		return nil, err
	}
	var last *clock.Event
	if n := len(m.events); n > 0 {
		last = &m.events[n-1]
	}
	if err := clock.ValidateTransition(last, in.Type); err != nil {
		return nil, err
	}
	ts := now.UTC()
	if in.Timestamp != nil {
		ts = *in.Timestamp
	}
	m.nextID++
	e := clock.Event{ID: m.nextID, UserID: userID, Timestamp: ts, Type: in.Type, Location: in.Location, Geo: in.Geo, ClientEventID: in.ClientEventID}
	m.events = append(m.events, e)
	return &e, nil
}

func (m *memEvents) Update(ctx context.Context, userID int64, loc *time.Location, id int64, patch store.ClockEventPatch, now time.Time) (*clock.Event, error) {
	for i := range m.events {
		if m.events[i].ID != id {
			continue
		}
		if patch.Timestamp != nil {
			m.events[i].Timestamp = *patch.Timestamp
		}
		if patch.Type != nil {
			m.events[i].Type = *patch.Type
		}
		if patch.Location != nil {
			m.events[i].Location = patch.Location
		}
		if err := clock.ValidateSequence(m.events); err != nil {
			return nil, err
		}
		e := m.events[i]
		return &e, nil
	}
	return nil, store.ErrNotFound
}

func (m *memEvents) Delete(ctx context.Context, userID, id int64) error {
	for i := range m.events {
		if m.events[i].ID == id {
			m.events = append(m.events[:i], m.events[i+1:]...)
			m.deleted = append(m.deleted, id)
			return nil
		}
	}
	return store.ErrNotFound
}

func (m *memEvents) ListRange(ctx context.Context, userID int64, start, end time.Time) ([]clock.Event, error) {
	var out []clock.Event
	for _, e := range m.events {
		if !e.Timestamp.Before(start) && e.Timestamp.Before(end) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memEvents) ListRecent(ctx context.Context, userID int64, limit int) ([]clock.Event, error) {
	out := append([]clock.Event(nil), m.events...)
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *memEvents) LastGoBefore(ctx context.Context, userID int64, ts time.Time) (*clock.Event, error) {
	var found *clock.Event
	for i := range m.events {
		e := m.events[i]
		if e.Type == clock.Go && e.Timestamp.Before(ts) {
			found = &e
		}
	}
	return found, nil
}

type memSettings struct {
	settings *store.Settings
}

func (m *memSettings) Get(ctx context.Context, userID int64) (*store.Settings, error) {
	if m.settings == nil {
		s := store.DefaultSettings(userID)
		m.settings = &s
	}
	s := *m.settings
	return &s, nil
}

func (m *memSettings) Save(ctx context.Context, s store.Settings) (*store.Settings, error) {
	m.settings = &s
	return &s, nil
}

type memReasons struct {
	reasons []store.AbsenceReason
}

func (m *memReasons) Create(ctx context.Context, userID int64, name string) (*store.AbsenceReason, error) {
	for _, r := range m.reasons {
		if r.Name == name {
			return nil, store.ErrConflict
		}
	}
	r := store.AbsenceReason{ID: int64(len(m.reasons) + 1), UserID: userID, Name: name}
	m.reasons = append(m.reasons, r)
	return &r, nil
}

func (m *memReasons) ListByUser(ctx context.Context, userID int64) ([]store.AbsenceReason, error) {
	return m.reasons, nil
}

func (m *memReasons) Delete(ctx context.Context, userID, id int64) error {
	return store.ErrNotFound
}

type memAbsences struct {
	absences []store.Absence
}

func (m *memAbsences) Create(ctx context.Context, a store.Absence) (*store.Absence, error) {
	a.ID = int64(len(m.absences) + 1)
	m.absences = append(m.absences, a)
	return &a, nil
}

func (m *memAbsences) ListOverlapping(ctx context.Context, userID int64, p reporting.Period) ([]store.Absence, error) {
	var out []store.Absence
	for _, a := range m.absences {
		if a.StartDate.Before(p.End) && !a.EndDate.Before(p.Start) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memAbsences) Delete(ctx context.Context, userID, id int64) error {
	return store.ErrNotFound
}

type memNotes struct {
	notes map[reporting.Date]store.DayNote
}

func (m *memNotes) Get(ctx context.Context, userID int64, day reporting.Date) (*store.DayNote, error) {
	n, ok := m.notes[day]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &n, nil
}

func (m *memNotes) Upsert(ctx context.Context, userID int64, day reporting.Date, content string) (*store.DayNote, error) {
	n := store.DayNote{ID: 1, UserID: userID, Date: day, Content: content, UpdatedAt: time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)}
	m.notes[day] = n
	return &n, nil
}

func (m *memNotes) ListDays(ctx context.Context, userID int64, p reporting.Period) ([]reporting.Date, error) {
	var out []reporting.Date
	for d := range m.notes {
		if !d.Before(p.Start) && d.Before(p.End) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

type memPushSubs struct {
	subs    []store.PushSubscription
	deleted []int64
}

func (m *memPushSubs) Upsert(ctx context.Context, sub store.PushSubscription) (*store.PushSubscription, error) {
	sub.ID = int64(len(m.subs) + 1)
	m.subs = append(m.subs, sub)
	return &sub, nil
}

func (m *memPushSubs) ListByUser(ctx context.Context, userID int64) ([]store.PushSubscription, error) {
	return m.subs, nil
}

func (m *memPushSubs) Delete(ctx context.Context, id int64) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *memPushSubs) DeleteByEndpoint(ctx context.Context, userID int64, endpoint string) error {
	return store.ErrNotFound
}

type stubSender struct {
	err  error
	sent []push.Message
}

func (s *stubSender) Send(ctx context.Context, sub store.PushSubscription, msg push.Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

type apiFixture struct {
	handler  *Handler
	events   *memEvents
	settings *memSettings
	reasons  *memReasons
	absences *memAbsences
	notes    *memNotes
	subs     *memPushSubs
	sender   *stubSender
	router   http.Handler
}

// fixtureNow is Tuesday 2024-03-05 14:00 in Berlin.
var fixtureNow = time.Date(2024, 3, 5, 13, 0, 0, 0, time.UTC)

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	f := &apiFixture{
		events:   &memEvents{},
		settings: &memSettings{},
		reasons:  &memReasons{},
		absences: &memAbsences{},
		notes:    &memNotes{notes: map[reporting.Date]store.DayNote{}},
		subs:     &memPushSubs{},
		sender:   &stubSender{},
	}
	f.handler = &Handler{
		events:         f.events,
		settings:       f.settings,
		reasons:        f.reasons,
		absences:       f.absences,
		notes:          f.notes,
		pushSubs:       f.subs,
		sender:         f.sender,
		vapidPublicKey: "BPublicKey",
		now:            func() time.Time { return fixtureNow },
	}

	user := &store.User{ID: 1, Email: "ada@example.com", Timezone: "Europe/Berlin"}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.WithUser(req.Context(), user)))
		})
	})
	f.handler.Routes(r)
	f.router = r
	return f
}

func (f *apiFixture) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func (f *apiFixture) addEvent(typ clock.Type, loc *clock.Location, ts time.Time) {
	f.events.nextID++
	f.events.events = append(f.events.events, clock.Event{ID: f.events.nextID, UserID: 1, Type: typ, Location: loc, Timestamp: ts})
}
