package store

import (
	"context"
	"time"

	"github.com/jw6ventures/timeclock/internal/clock"
	"github.com/jw6ventures/timeclock/internal/reporting"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, email, passwordHash, timezone string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]User, error)
}

// SessionRepository stores login sessions.
type SessionRepository interface {
	Create(ctx context.Context, userID int64, expiresAt time.Time) (*Session, error)
	GetByID(ctx context.Context, id string) (*Session, error)
	TouchLastUsed(ctx context.Context, id string) error
	Revoke(ctx context.Context, id string) error
}

// SettingsRepository reads and writes per-user settings.
type SettingsRepository interface {
	// Get returns the stored settings, creating the defaults on first access.
	Get(ctx context.Context, userID int64) (*Settings, error)
	Save(ctx context.Context, settings Settings) (*Settings, error)
}

// ClockEventRepository owns the per-user event log. Every mutation validates the
// resulting sequence inside the same transaction that writes it.
type ClockEventRepository interface {
	Create(ctx context.Context, userID int64, loc *time.Location, in NewClockEvent, now time.Time) (*clock.Event, error)
	Update(ctx context.Context, userID int64, loc *time.Location, id int64, patch ClockEventPatch, now time.Time) (*clock.Event, error)
	Delete(ctx context.Context, userID, id int64) error
	ListRange(ctx context.Context, userID int64, start, end time.Time) ([]clock.Event, error)
	ListRecent(ctx context.Context, userID int64, limit int) ([]clock.Event, error)
	// LastGoBefore returns nil without error when no GO precedes ts.
	LastGoBefore(ctx context.Context, userID int64, ts time.Time) (*clock.Event, error)
}

// AbsenceReasonRepository manages absence labels.
type AbsenceReasonRepository interface {
	Create(ctx context.Context, userID int64, name string) (*AbsenceReason, error)
	ListByUser(ctx context.Context, userID int64) ([]AbsenceReason, error)
	Delete(ctx context.Context, userID, id int64) error
}

// AbsenceRepository manages absence ranges.
type AbsenceRepository interface {
	Create(ctx context.Context, absence Absence) (*Absence, error)
	ListOverlapping(ctx context.Context, userID int64, period reporting.Period) ([]Absence, error)
	Delete(ctx context.Context, userID, id int64) error
}

// DayNoteRepository manages one note per user and local day.
type DayNoteRepository interface {
	Get(ctx context.Context, userID int64, day reporting.Date) (*DayNote, error)
	Upsert(ctx context.Context, userID int64, day reporting.Date, content string) (*DayNote, error)
	ListDays(ctx context.Context, userID int64, period reporting.Period) ([]reporting.Date, error)
}

// PushSubscriptionRepository manages browser push endpoints.
type PushSubscriptionRepository interface {
	Upsert(ctx context.Context, sub PushSubscription) (*PushSubscription, error)
	ListByUser(ctx context.Context, userID int64) ([]PushSubscription, error)
	Delete(ctx context.Context, id int64) error
	DeleteByEndpoint(ctx context.Context, userID int64, endpoint string) error
}

// PushLogRepository records which threshold notifications have been sent.
type PushLogRepository interface {
	// Record returns false when the notification was already logged for that day.
	Record(ctx context.Context, subscriptionID int64, day reporting.Date, kind string, thresholdMinutes int) (bool, error)
}
