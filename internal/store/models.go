package store

import (
	"time"

	"github.com/jw6ventures/timeclock/internal/clock"
	"github.com/jw6ventures/timeclock/internal/reporting"
)

// User is an account that owns a clock event log.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Timezone     string
	CreatedAt    time.Time
}

// Location resolves the user's IANA zone.
func (u *User) Location() (*time.Location, error) {
	return time.LoadLocation(u.Timezone)
}

const (
	DefaultDailyTargetMinutes    = 468
	DefaultHomeOfficeTargetRatio = 0.4
)

// Settings holds the per-user targets read by dashboards, reports and the push notifier.
type Settings struct {
	UserID                int64
	DailyTargetMinutes    int
	HomeOfficeTargetRatio float64
	OvertimeStartDate     *time.Time
	PushWorkMinutes       []int
	PushBreakMinutes      []int
}

func DefaultSettings(userID int64) Settings {
	return Settings{
		UserID:                userID,
		DailyTargetMinutes:    DefaultDailyTargetMinutes,
		HomeOfficeTargetRatio: DefaultHomeOfficeTargetRatio,
	}
}

// Session is a server-side login session referenced by the session cookie.
type Session struct {
	ID         string
	UserID     int64
	CreatedAt  time.Time
	LastUsedAt *time.Time
	ExpiresAt  time.Time
	RevokedAt  *time.Time
}

// Active reports whether the session may still authenticate requests.
func (s *Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

// NewClockEvent is a punch submitted by a client. Timestamp is optional; the server
// clock is used when it is absent.
type NewClockEvent struct {
	Type          clock.Type
	Location      *clock.Location
	Timestamp     *time.Time
	Geo           *clock.Geo
	ClientEventID *string
}

// ClockEventPatch changes an existing punch. Nil fields are left unchanged.
type ClockEventPatch struct {
	Type      *clock.Type
	Location  *clock.Location
	Timestamp *time.Time
}

// AbsenceReason is a user-defined label such as vacation or sick leave.
type AbsenceReason struct {
	ID        int64
	UserID    int64
	Name      string
	CreatedAt time.Time
}

// Absence blocks clock events on every local day from StartDate to EndDate inclusive.
type Absence struct {
	ID        int64
	UserID    int64
	ReasonID  int64
	StartDate reporting.Date
	EndDate   reporting.Date
	CreatedAt time.Time
}

// Covers reports whether d falls inside the absence.
func (a *Absence) Covers(d reporting.Date) bool {
	return !d.Before(a.StartDate) && !a.EndDate.Before(d)
}

// DayNote is free text attached to a local day.
type DayNote struct {
	ID        int64
	UserID    int64
	Date      reporting.Date
	Content   string
	UpdatedAt time.Time
}

// PushSubscription is a browser push endpoint registered by a user.
type PushSubscription struct {
	ID        int64
	UserID    int64
	Endpoint  string
	P256dh    string
	Auth      string
	Lang      string
	CreatedAt time.Time
}
