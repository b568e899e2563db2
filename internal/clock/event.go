package clock

import "time"

// Type is the kind of a punch.
type Type string

const (
	Come       Type = "COME"
	Go         Type = "GO"
	BreakStart Type = "BREAK_START"
	BreakEnd   Type = "BREAK_END"
)

// Valid reports whether t is one of the four punch kinds.
func (t Type) Valid() bool {
	switch t {
	case Come, Go, BreakStart, BreakEnd:
		return true
	}
	return false
}

// Location is where a work session takes place. Only COME carries one.
type Location string

const (
	Home   Location = "HOME"
	Office Location = "OFFICE"
)

func (l Location) Valid() bool {
	return l == Home || l == Office
}

// Geo is an optional position fix attached to a COME.
type Geo struct {
	Lat       float64
	Lng       float64
	AccuracyM *float64
}

// Event is one persisted punch. Timestamp is always stored in UTC.
type Event struct {
	ID            int64
	UserID        int64
	Timestamp     time.Time
	Type          Type
	Location      *Location
	Geo           *Geo
	ClientEventID *string
}

// LocationPtr is a small helper for building events in code and tests.
func LocationPtr(l Location) *Location {
	return &l
}
