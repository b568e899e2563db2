package clock

import (
	"testing"
	"time"
)

func at(hhmm string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", "2024-03-04 "+hhmm)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

func ev(t Type, hhmm string) Event {
	e := Event{Type: t, Timestamp: at(hhmm)}
	if t == Come {
		e.Location = LocationPtr(Office)
	}
	return e
}

func TestValidateFields(t *testing.T) {
	home := LocationPtr(Home)
	bogus := Location("GARDEN")

	testCases := []struct {
		name    string
		typ     Type
		loc     *Location
		wantErr bool
	}{
		{name: "come with location", typ: Come, loc: home},
		{name: "come without location", typ: Come, loc: nil, wantErr: true},
		{name: "go without location", typ: Go},
		{name: "break start with location", typ: BreakStart, loc: home, wantErr: true},
		{name: "unknown type", typ: Type("LUNCH"), wantErr: true},
		{name: "unknown location", typ: Come, loc: &bogus, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateFields(tc.typ, tc.loc)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ValidateFields() = nil, want error")
				}
				if kind, _ := KindOf(err); kind != KindInvalidField {
					t.Errorf("kind = %q, want %q", kind, KindInvalidField)
				}
				return
			}
			if err != nil {
				t.Errorf("ValidateFields() = %v, want nil", err)
			}
		})
	}
}

func TestValidateTransitionTable(t *testing.T) {
	all := []Type{Come, Go, BreakStart, BreakEnd}
	allowed := map[Type]map[Type]bool{
		Come:       {Go: true, BreakStart: true},
		BreakStart: {BreakEnd: true, Go: true},
		BreakEnd:   {Go: true, BreakStart: true},
		Go:         {Come: true},
	}

	for _, last := range all {
		for _, next := range all {
			err := ValidateTransition(&Event{Type: last}, next)
			want := allowed[last][next]
			if want && err != nil {
				t.Errorf("%s -> %s rejected: %v", last, next, err)
			}
			if !want {
				if err == nil {
					t.Errorf("%s -> %s accepted, want rejection", last, next)
					continue
				}
				if kind, _ := KindOf(err); kind != KindIllegalTransition {
					t.Errorf("%s -> %s kind = %q, want %q", last, next, kind, KindIllegalTransition)
				}
			}
		}
	}
}

func TestValidateTransitionFirstEvent(t *testing.T) {
	if err := ValidateTransition(nil, Come); err != nil {
		t.Fatalf("first COME rejected: %v", err)
	}
	err := ValidateTransition(nil, Go)
	if err == nil {
		t.Fatal("first GO accepted")
	}
	if err.Error() != "first event must be COME" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestValidateTransitionAlreadyWorking(t *testing.T) {
	err := ValidateTransition(&Event{Type: BreakEnd}, Come)
	if err == nil || err.Error() != "already working" {
		t.Fatalf("BREAK_END -> COME = %v, want already working", err)
	}
}

func TestValidateSequence(t *testing.T) {
	testCases := []struct {
		name     string
		events   []Event
		wantKind Kind
	}{
		{name: "empty", events: nil},
		{
			name:   "full day",
			events: []Event{ev(Come, "08:00"), ev(BreakStart, "12:00"), ev(BreakEnd, "12:30"), ev(Go, "17:00")},
		},
		{
			name:   "two sessions",
			events: []Event{ev(Come, "08:00"), ev(Go, "10:00"), ev(Come, "13:00"), ev(Go, "17:00")},
		},
		{
			name:     "first event GO",
			events:   []Event{ev(Go, "09:00")},
			wantKind: KindIllegalTransition,
		},
		{
			name:     "equal timestamps",
			events:   []Event{ev(Come, "08:00"), ev(Go, "08:00")},
			wantKind: KindNonMonotonicTimestamp,
		},
		{
			name:     "decreasing timestamps",
			events:   []Event{ev(Come, "08:00"), ev(Go, "07:59")},
			wantKind: KindNonMonotonicTimestamp,
		},
		{
			name:     "double come",
			events:   []Event{ev(Come, "08:00"), ev(Come, "09:00")},
			wantKind: KindIllegalTransition,
		},
		{
			name:     "break end without start",
			events:   []Event{ev(Come, "08:00"), ev(BreakEnd, "09:00")},
			wantKind: KindIllegalTransition,
		},
		{
			name:     "go carrying location",
			events:   []Event{ev(Come, "08:00"), {Type: Go, Timestamp: at("09:00"), Location: LocationPtr(Home)}},
			wantKind: KindInvalidField,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateSequence(tc.events)
			if tc.wantKind == "" {
				if err != nil {
					t.Fatalf("ValidateSequence() = %v, want nil", err)
				}
				return
			}
			kind, ok := KindOf(err)
			if !ok {
				t.Fatalf("ValidateSequence() = %v, want kind %q", err, tc.wantKind)
			}
			if kind != tc.wantKind {
				t.Errorf("kind = %q, want %q", kind, tc.wantKind)
			}
		})
	}
}

func TestValidateSequenceDeleteBreaksNeighbours(t *testing.T) {
	events := []Event{ev(Come, "08:00"), ev(BreakStart, "12:00"), ev(BreakEnd, "12:30"), ev(Go, "17:00")}

	// Removing BREAK_START leaves COME -> BREAK_END, which is illegal.
	remaining := append([]Event{}, events[0])
	remaining = append(remaining, events[2:]...)
	if err := ValidateSequence(remaining); err == nil {
		t.Fatal("expected rejection after removing BREAK_START")
	}

	// Removing the whole break pair keeps the sequence legal.
	remaining = []Event{events[0], events[3]}
	if err := ValidateSequence(remaining); err != nil {
		t.Fatalf("unexpected rejection: %v", err)
	}
}

func TestStateAfter(t *testing.T) {
	cases := map[Type]State{
		"":         StateNone,
		Come:       StateWorking,
		BreakStart: StateOnBreak,
		BreakEnd:   StateWorking,
		Go:         StateNone,
	}
	for last, want := range cases {
		if got := StateAfter(last); got != want {
			t.Errorf("StateAfter(%q) = %q, want %q", last, got, want)
		}
	}
}
