package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/jw6ventures/timeclock/internal/clock"
)

func TestCreateClockEvent(t *testing.T) {
	f := newAPIFixture(t)

	rr := f.do(http.MethodPost, "/clock-events", `{"type":"come","location":"home","geo":{"lat":52.5,"lng":13.4},"client_event_id":"abc"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var got clockEventResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Type != "COME" || got.Location == nil || *got.Location != "HOME" {
		t.Fatalf("unexpected event %+v", got)
	}
	if got.Geo == nil || got.Geo.Lat != 52.5 {
		t.Fatalf("expected geo in response, got %+v", got.Geo)
	}
	if got.TSUTC != "2024-03-05T13:00:00Z" {
		t.Fatalf("expected server timestamp, got %s", got.TSUTC)
	}
}

func TestCreateClockEventRejections(t *testing.T) {
	cases := []struct {
		name string
		body string
		want int
		kind string
	}{
		{"bad json", `{"type":`, http.StatusBadRequest, "bad_request"},
		{"unknown location", `{"type":"COME","location":"MOON"}`, http.StatusUnprocessableEntity, string(clock.KindInvalidField)},
		{"missing location", `{"type":"COME"}`, http.StatusUnprocessableEntity, string(clock.KindInvalidField)},
		{"naive timestamp", `{"type":"COME","location":"HOME","ts_utc":"2024-03-05T08:00:00"}`, http.StatusUnprocessableEntity, string(clock.KindInvalidField)},
		{"geo out of range", `{"type":"COME","location":"HOME","geo":{"lat":91,"lng":0}}`, http.StatusUnprocessableEntity, string(clock.KindInvalidField)},
		{"long client id", `{"type":"COME","location":"HOME","client_event_id":"` + strings.Repeat("x", 65) + `"}`, http.StatusUnprocessableEntity, string(clock.KindInvalidField)},
		{"illegal first event", `{"type":"GO"}`, http.StatusConflict, string(clock.KindIllegalTransition)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newAPIFixture(t)
			rr := f.do(http.MethodPost, "/clock-events", tc.body)
			if rr.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rr.Code, rr.Body.String())
			}
			if !strings.Contains(rr.Body.String(), tc.kind) {
				t.Fatalf("expected %q in body %s", tc.kind, rr.Body.String())
			}
			if len(f.events.events) != 0 {
				t.Fatalf("no event should be stored")
			}
		})
	}
}

func TestListClockEventsByDate(t *testing.T) {
	f := newAPIFixture(t)
	f.addEvent(clock.Come, clock.LocationPtr(clock.Office), time.Date(2024, 3, 4, 7, 0, 0, 0, time.UTC))
	f.addEvent(clock.Go, nil, time.Date(2024, 3, 4, 15, 0, 0, 0, time.UTC))
	// 23:30 UTC on the 4th is already the 5th in Berlin
	f.addEvent(clock.Come, clock.LocationPtr(clock.Home), time.Date(2024, 3, 4, 23, 30, 0, 0, time.UTC))

	rr := f.do(http.MethodGet, "/clock-events?date=2024-03-05", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var got []clockEventResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].ID != 3 {
		t.Fatalf("expected only the late COME, got %+v", got)
	}

	rr = f.do(http.MethodGet, "/clock-events?limit=2", "")
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 || got[0].ID != 3 {
		t.Fatalf("expected newest two events first, got %+v", got)
	}

	if rr := f.do(http.MethodGet, "/clock-events?date=05.03.2024", ""); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for malformed date, got %d", rr.Code)
	}
	if rr := f.do(http.MethodGet, "/clock-events?limit=many", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed limit, got %d", rr.Code)
	}
}

func TestUpdateAndDeleteClockEvent(t *testing.T) {
	f := newAPIFixture(t)
	f.addEvent(clock.Come, clock.LocationPtr(clock.Office), time.Date(2024, 3, 5, 7, 0, 0, 0, time.UTC))
	f.addEvent(clock.Go, nil, time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC))

	rr := f.do(http.MethodPatch, "/clock-events/2", `{"ts_utc":"2024-03-05T13:30:00+01:00"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), `"ts_utc":"2024-03-05T12:30:00Z"`) {
		t.Fatalf("expected timestamp normalized to UTC, got %s", rr.Body.String())
	}

	rr = f.do(http.MethodPatch, "/clock-events/2", `{"ts_utc":"2024-03-05T06:00:00Z"}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 for reordering, got %d", rr.Code)
	}

	if rr := f.do(http.MethodPatch, "/clock-events/99", `{}`); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if rr := f.do(http.MethodPatch, "/clock-events/abc", `{}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", rr.Code)
	}

	if rr := f.do(http.MethodDelete, "/clock-events/2", ""); rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if len(f.events.deleted) != 1 || f.events.deleted[0] != 2 {
		t.Fatalf("expected event 2 deleted, got %v", f.events.deleted)
	}
}

func TestParseTimestampKeepsMicroseconds(t *testing.T) {
	raw := "2024-03-05T10:00:00.123456789+01:00"
	ts, err := parseTimestamp(&raw)
	if err != nil {
		t.Fatalf("parseTimestamp: %v", err)
	}
	want := time.Date(2024, time.March, 5, 9, 0, 0, 123456000, time.UTC)
	if !ts.Equal(want) || ts.Location() != time.UTC {
		t.Fatalf("parseTimestamp = %v, want %v", ts, want)
	}

	naive := "2024-03-05T10:00:00"
	_, err = parseTimestamp(&naive)
	if kind, _ := clock.KindOf(err); kind != clock.KindInvalidField {
		t.Fatalf("expected invalid field for naive time, got %v", err)
	}
}
