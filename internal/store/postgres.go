package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jw6ventures/timeclock/internal/clock"
	"github.com/jw6ventures/timeclock/internal/reporting"
)

// userRepo implements UserRepository.
type userRepo struct {
	pool dbPool
}

const userColumns = `id, email, password_hash, timezone, created_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Timezone, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) Create(ctx context.Context, email, passwordHash, timezone string) (*User, error) {
	defer observeDB(ctx, "users.create")()
	const q = `INSERT INTO users (email, password_hash, timezone) VALUES ($1, $2, $3)
RETURNING ` + userColumns
	u, err := scanUser(r.pool.QueryRow(ctx, q, strings.ToLower(strings.TrimSpace(email)), passwordHash, timezone))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*User, error) {
	defer observeDB(ctx, "users.get_by_id")()
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	defer observeDB(ctx, "users.get_by_email")()
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, strings.ToLower(strings.TrimSpace(email))))
}

func (r *userRepo) List(ctx context.Context) ([]User, error) {
	defer observeDB(ctx, "users.list")()
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// sessionRepo implements SessionRepository.
type sessionRepo struct {
	pool dbPool
}

func (r *sessionRepo) Create(ctx context.Context, userID int64, expiresAt time.Time) (*Session, error) {
	defer observeDB(ctx, "sessions.create")()
	s := Session{ID: uuid.NewString(), UserID: userID, ExpiresAt: expiresAt}
	const q = `INSERT INTO auth_sessions (id, user_id, expires_at) VALUES ($1, $2, $3) RETURNING created_at`
	if err := r.pool.QueryRow(ctx, q, s.ID, userID, expiresAt).Scan(&s.CreatedAt); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &s, nil
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*Session, error) {
	defer observeDB(ctx, "sessions.get")()
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	var s Session
	const q = `SELECT id::text, user_id, created_at, last_used_at, expires_at, revoked_at FROM auth_sessions WHERE id=$1`
	err := r.pool.QueryRow(ctx, q, id).Scan(&s.ID, &s.UserID, &s.CreatedAt, &s.LastUsedAt, &s.ExpiresAt, &s.RevokedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &s, nil
}

func (r *sessionRepo) TouchLastUsed(ctx context.Context, id string) error {
	defer observeDB(ctx, "sessions.touch")()
	_, err := r.pool.Exec(ctx, `UPDATE auth_sessions SET last_used_at=NOW() WHERE id=$1`, id)
	return err
}

func (r *sessionRepo) Revoke(ctx context.Context, id string) error {
	defer observeDB(ctx, "sessions.revoke")()
	_, err := r.pool.Exec(ctx, `UPDATE auth_sessions SET revoked_at=NOW() WHERE id=$1 AND revoked_at IS NULL`, id)
	return err
}

// settingsRepo implements SettingsRepository.
type settingsRepo struct {
	pool dbPool
}

func (r *settingsRepo) Get(ctx context.Context, userID int64) (*Settings, error) {
	defer observeDB(ctx, "settings.get")()
	if _, err := r.pool.Exec(ctx, `INSERT INTO user_settings (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID); err != nil {
		return nil, fmt.Errorf("ensure settings: %w", err)
	}
	s := Settings{UserID: userID}
	const q = `SELECT daily_target_minutes, home_office_target_ratio, overtime_start_date, push_work_minutes, push_break_minutes
FROM user_settings WHERE user_id=$1`
	err := r.pool.QueryRow(ctx, q, userID).Scan(&s.DailyTargetMinutes, &s.HomeOfficeTargetRatio, &s.OvertimeStartDate, &s.PushWorkMinutes, &s.PushBreakMinutes)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return &s, nil
}

func (r *settingsRepo) Save(ctx context.Context, s Settings) (*Settings, error) {
	defer observeDB(ctx, "settings.save")()
	if s.PushWorkMinutes == nil {
		s.PushWorkMinutes = []int{}
	}
	if s.PushBreakMinutes == nil {
		s.PushBreakMinutes = []int{}
	}
	const q = `INSERT INTO user_settings (user_id, daily_target_minutes, home_office_target_ratio, overtime_start_date, push_work_minutes, push_break_minutes)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (user_id) DO UPDATE SET
    daily_target_minutes=EXCLUDED.daily_target_minutes,
    home_office_target_ratio=EXCLUDED.home_office_target_ratio,
    overtime_start_date=EXCLUDED.overtime_start_date,
    push_work_minutes=EXCLUDED.push_work_minutes,
    push_break_minutes=EXCLUDED.push_break_minutes`
	if _, err := r.pool.Exec(ctx, q, s.UserID, s.DailyTargetMinutes, s.HomeOfficeTargetRatio, s.OvertimeStartDate, s.PushWorkMinutes, s.PushBreakMinutes); err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}
	return &s, nil
}

// clockEventRepo implements ClockEventRepository.
type clockEventRepo struct {
	pool dbPool
}

const clockEventColumns = `id, user_id, ts_utc, type::text, location::text, geo_lat, geo_lng, geo_accuracy_m, client_event_id`

func scanClockEvent(row pgx.Row) (clock.Event, error) {
	var (
		e             clock.Event
		typ           string
		loc           *string
		lat, lng, acc *float64
	)
	if err := row.Scan(&e.ID, &e.UserID, &e.Timestamp, &typ, &loc, &lat, &lng, &acc, &e.ClientEventID); err != nil {
		return clock.Event{}, err
	}
	e.Timestamp = e.Timestamp.UTC()
	e.Type = clock.Type(typ)
	if loc != nil {
		e.Location = clock.LocationPtr(clock.Location(*loc))
	}
	if lat != nil && lng != nil {
		e.Geo = &clock.Geo{Lat: *lat, Lng: *lng, AccuracyM: acc}
	}
	return e, nil
}

func collectClockEvents(rows pgx.Rows) ([]clock.Event, error) {
	defer rows.Close()
	var out []clock.Event
	for rows.Next() {
		e, err := scanClockEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan clock event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func locationParam(loc *clock.Location) *string {
	if loc == nil {
		return nil
	}
	s := string(*loc)
	return &s
}

func geoParams(g *clock.Geo) (lat, lng, acc *float64) {
	if g == nil {
		return nil, nil, nil
	}
	la, ln := g.Lat, g.Lng
	return &la, &ln, g.AccuracyM
}

func (r *clockEventRepo) Create(ctx context.Context, userID int64, loc *time.Location, in NewClockEvent, now time.Time) (*clock.Event, error) {
	defer observeDB(ctx, "clock_events.create")()
	var created clock.Event
	err := withUserLock(ctx, r.pool, userID, func(tx pgx.Tx) error {
		if in.ClientEventID != nil {
			existing, err := scanClockEvent(tx.QueryRow(ctx,
				`SELECT `+clockEventColumns+` FROM clock_events WHERE user_id=$1 AND client_event_id=$2`,
				userID, *in.ClientEventID))
			if err == nil {
				created = existing
				return nil
			}
			if !errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("lookup client event: %w", err)
			}
		}

		last, err := lastEvent(ctx, tx, userID)
		if err != nil {
			return err
		}
		e, err := proposeCreate(last, in, now)
		if err != nil {
			return err
		}
		if err := ensureNotAbsent(ctx, tx, userID, reporting.DateOf(e.Timestamp, loc)); err != nil {
			return err
		}

		e.UserID = userID
		lat, lng, acc := geoParams(e.Geo)
		const q = `INSERT INTO clock_events (user_id, ts_utc, type, location, geo_lat, geo_lng, geo_accuracy_m, client_event_id)
VALUES ($1, $2, $3::clock_event_type, $4::work_location, $5, $6, $7, $8) RETURNING id`
		if err := tx.QueryRow(ctx, q, userID, e.Timestamp, string(e.Type), locationParam(e.Location), lat, lng, acc, e.ClientEventID).Scan(&e.ID); err != nil {
			if isTimestampCollision(err) {
				return clock.NonMonotonic("another event already exists at %s", e.Timestamp.Format(time.RFC3339Nano))
			}
			return fmt.Errorf("insert clock event: %w", err)
		}
		created = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *clockEventRepo) Update(ctx context.Context, userID int64, loc *time.Location, id int64, patch ClockEventPatch, now time.Time) (*clock.Event, error) {
	defer observeDB(ctx, "clock_events.update")()
	var updated clock.Event
	err := withUserLock(ctx, r.pool, userID, func(tx pgx.Tx) error {
		events, err := listAll(ctx, tx, userID)
		if err != nil {
			return err
		}
		_, e, err := proposeUpdate(events, id, patch, now)
		if err != nil {
			return err
		}
		if err := ensureNotAbsent(ctx, tx, userID, reporting.DateOf(e.Timestamp, loc)); err != nil {
			return err
		}

		lat, lng, acc := geoParams(e.Geo)
		const q = `UPDATE clock_events SET ts_utc=$1, type=$2::clock_event_type, location=$3::work_location,
    geo_lat=$4, geo_lng=$5, geo_accuracy_m=$6
WHERE id=$7 AND user_id=$8`
		tag, err := tx.Exec(ctx, q, e.Timestamp, string(e.Type), locationParam(e.Location), lat, lng, acc, id, userID)
		if err != nil {
			if isTimestampCollision(err) {
				return clock.NonMonotonic("another event already exists at %s", e.Timestamp.Format(time.RFC3339Nano))
			}
			return fmt.Errorf("update clock event: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		updated = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *clockEventRepo) Delete(ctx context.Context, userID, id int64) error {
	defer observeDB(ctx, "clock_events.delete")()
	return withUserLock(ctx, r.pool, userID, func(tx pgx.Tx) error {
		events, err := listAll(ctx, tx, userID)
		if err != nil {
			return err
		}
		if _, err := proposeDelete(events, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM clock_events WHERE id=$1 AND user_id=$2`, id, userID)
		if err != nil {
			return fmt.Errorf("delete clock event: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *clockEventRepo) ListRange(ctx context.Context, userID int64, start, end time.Time) ([]clock.Event, error) {
	defer observeDB(ctx, "clock_events.list_range")()
	rows, err := r.pool.Query(ctx,
		`SELECT `+clockEventColumns+` FROM clock_events WHERE user_id=$1 AND ts_utc >= $2 AND ts_utc < $3 ORDER BY ts_utc ASC`,
		userID, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("list clock events: %w", err)
	}
	return collectClockEvents(rows)
}

func (r *clockEventRepo) ListRecent(ctx context.Context, userID int64, limit int) ([]clock.Event, error) {
	defer observeDB(ctx, "clock_events.list_recent")()
	if limit < 1 {
		limit = 1
	}
	if limit > 200 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+clockEventColumns+` FROM clock_events WHERE user_id=$1 ORDER BY ts_utc DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent clock events: %w", err)
	}
	return collectClockEvents(rows)
}

func (r *clockEventRepo) LastGoBefore(ctx context.Context, userID int64, ts time.Time) (*clock.Event, error) {
	defer observeDB(ctx, "clock_events.last_go_before")()
	e, err := scanClockEvent(r.pool.QueryRow(ctx,
		`SELECT `+clockEventColumns+` FROM clock_events WHERE user_id=$1 AND type='GO' AND ts_utc < $2 ORDER BY ts_utc DESC LIMIT 1`,
		userID, ts.UTC()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last go: %w", err)
	}
	return &e, nil
}

func lastEvent(ctx context.Context, q querier, userID int64) (*clock.Event, error) {
	e, err := scanClockEvent(q.QueryRow(ctx,
		`SELECT `+clockEventColumns+` FROM clock_events WHERE user_id=$1 ORDER BY ts_utc DESC LIMIT 1`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last event: %w", err)
	}
	return &e, nil
}

func listAll(ctx context.Context, q querier, userID int64) ([]clock.Event, error) {
	rows, err := q.Query(ctx, `SELECT `+clockEventColumns+` FROM clock_events WHERE user_id=$1 ORDER BY ts_utc ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("load sequence: %w", err)
	}
	return collectClockEvents(rows)
}

func ensureNotAbsent(ctx context.Context, q querier, userID int64, day reporting.Date) error {
	const sql = `SELECT EXISTS (SELECT 1 FROM absences WHERE user_id=$1 AND start_date <= $2::date AND end_date >= $2::date)`
	var absent bool
	if err := q.QueryRow(ctx, sql, userID, day.String()).Scan(&absent); err != nil {
		return fmt.Errorf("check absence: %w", err)
	}
	if absent {
		return ErrAbsenceDay
	}
	return nil
}

// absenceReasonRepo implements AbsenceReasonRepository.
type absenceReasonRepo struct {
	pool dbPool
}

func (r *absenceReasonRepo) Create(ctx context.Context, userID int64, name string) (*AbsenceReason, error) {
	defer observeDB(ctx, "absence_reasons.create")()
	reason := AbsenceReason{UserID: userID, Name: name}
	const q = `INSERT INTO absence_reasons (user_id, name) VALUES ($1, $2) RETURNING id, created_at`
	if err := r.pool.QueryRow(ctx, q, userID, name).Scan(&reason.ID, &reason.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("create absence reason: %w", err)
	}
	return &reason, nil
}

func (r *absenceReasonRepo) ListByUser(ctx context.Context, userID int64) ([]AbsenceReason, error) {
	defer observeDB(ctx, "absence_reasons.list")()
	rows, err := r.pool.Query(ctx, `SELECT id, user_id, name, created_at FROM absence_reasons WHERE user_id=$1 ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list absence reasons: %w", err)
	}
	defer rows.Close()

	var out []AbsenceReason
	for rows.Next() {
		var reason AbsenceReason
		if err := rows.Scan(&reason.ID, &reason.UserID, &reason.Name, &reason.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, reason)
	}
	return out, rows.Err()
}

func (r *absenceReasonRepo) Delete(ctx context.Context, userID, id int64) error {
	defer observeDB(ctx, "absence_reasons.delete")()
	tag, err := r.pool.Exec(ctx, `DELETE FROM absence_reasons WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrConflict
		}
		return fmt.Errorf("delete absence reason: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// absenceRepo implements AbsenceRepository.
type absenceRepo struct {
	pool dbPool
}

func dateFromTime(t time.Time) reporting.Date {
	return reporting.Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

func (r *absenceRepo) Create(ctx context.Context, a Absence) (*Absence, error) {
	defer observeDB(ctx, "absences.create")()
	if a.EndDate.Before(a.StartDate) {
		return nil, clock.InvalidRange("end_date must not be before start_date")
	}
	const q = `INSERT INTO absences (user_id, reason_id, start_date, end_date)
SELECT $1, id, $3::date, $4::date FROM absence_reasons WHERE id=$2 AND user_id=$1
RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, q, a.UserID, a.ReasonID, a.StartDate.String(), a.EndDate.String()).Scan(&a.ID, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("create absence: %w", err)
	}
	return &a, nil
}

func (r *absenceRepo) ListOverlapping(ctx context.Context, userID int64, period reporting.Period) ([]Absence, error) {
	defer observeDB(ctx, "absences.list")()
	const q = `SELECT id, user_id, reason_id, start_date, end_date, created_at FROM absences
WHERE user_id=$1 AND start_date < $3::date AND end_date >= $2::date ORDER BY start_date`
	rows, err := r.pool.Query(ctx, q, userID, period.Start.String(), period.End.String())
	if err != nil {
		return nil, fmt.Errorf("list absences: %w", err)
	}
	defer rows.Close()

	var out []Absence
	for rows.Next() {
		var (
			a          Absence
			start, end time.Time
		)
		if err := rows.Scan(&a.ID, &a.UserID, &a.ReasonID, &start, &end, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.StartDate = dateFromTime(start)
		a.EndDate = dateFromTime(end)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *absenceRepo) Delete(ctx context.Context, userID, id int64) error {
	defer observeDB(ctx, "absences.delete")()
	tag, err := r.pool.Exec(ctx, `DELETE FROM absences WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete absence: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// dayNoteRepo implements DayNoteRepository.
type dayNoteRepo struct {
	pool dbPool
}

func (r *dayNoteRepo) Get(ctx context.Context, userID int64, day reporting.Date) (*DayNote, error) {
	defer observeDB(ctx, "day_notes.get")()
	n := DayNote{UserID: userID, Date: day}
	err := r.pool.QueryRow(ctx, `SELECT id, content, updated_at FROM day_notes WHERE user_id=$1 AND date_local=$2::date`,
		userID, day.String()).Scan(&n.ID, &n.Content, &n.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get day note: %w", err)
	}
	return &n, nil
}

func (r *dayNoteRepo) Upsert(ctx context.Context, userID int64, day reporting.Date, content string) (*DayNote, error) {
	defer observeDB(ctx, "day_notes.upsert")()
	n := DayNote{UserID: userID, Date: day, Content: content}
	const q = `INSERT INTO day_notes (user_id, date_local, content) VALUES ($1, $2::date, $3)
ON CONFLICT (user_id, date_local) DO UPDATE SET content=EXCLUDED.content, updated_at=NOW()
RETURNING id, updated_at`
	if err := r.pool.QueryRow(ctx, q, userID, day.String(), content).Scan(&n.ID, &n.UpdatedAt); err != nil {
		return nil, fmt.Errorf("upsert day note: %w", err)
	}
	return &n, nil
}

func (r *dayNoteRepo) ListDays(ctx context.Context, userID int64, period reporting.Period) ([]reporting.Date, error) {
	defer observeDB(ctx, "day_notes.list_days")()
	rows, err := r.pool.Query(ctx,
		`SELECT date_local FROM day_notes WHERE user_id=$1 AND date_local >= $2::date AND date_local < $3::date ORDER BY date_local`,
		userID, period.Start.String(), period.End.String())
	if err != nil {
		return nil, fmt.Errorf("list note days: %w", err)
	}
	defer rows.Close()

	var out []reporting.Date
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out = append(out, dateFromTime(d))
	}
	return out, rows.Err()
}

// pushSubscriptionRepo implements PushSubscriptionRepository.
type pushSubscriptionRepo struct {
	pool dbPool
}

func (r *pushSubscriptionRepo) Upsert(ctx context.Context, sub PushSubscription) (*PushSubscription, error) {
	defer observeDB(ctx, "push_subscriptions.upsert")()
	const q = `INSERT INTO push_subscriptions (user_id, endpoint, p256dh, auth, lang) VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (endpoint) DO UPDATE SET user_id=EXCLUDED.user_id, p256dh=EXCLUDED.p256dh, auth=EXCLUDED.auth, lang=EXCLUDED.lang
RETURNING id, created_at`
	if err := r.pool.QueryRow(ctx, q, sub.UserID, sub.Endpoint, sub.P256dh, sub.Auth, sub.Lang).Scan(&sub.ID, &sub.CreatedAt); err != nil {
		return nil, fmt.Errorf("upsert push subscription: %w", err)
	}
	return &sub, nil
}

func (r *pushSubscriptionRepo) ListByUser(ctx context.Context, userID int64) ([]PushSubscription, error) {
	defer observeDB(ctx, "push_subscriptions.list")()
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, endpoint, p256dh, auth, lang, created_at FROM push_subscriptions WHERE user_id=$1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list push subscriptions: %w", err)
	}
	defer rows.Close()

	var out []PushSubscription
	for rows.Next() {
		var s PushSubscription
		if err := rows.Scan(&s.ID, &s.UserID, &s.Endpoint, &s.P256dh, &s.Auth, &s.Lang, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *pushSubscriptionRepo) Delete(ctx context.Context, id int64) error {
	defer observeDB(ctx, "push_subscriptions.delete")()
	_, err := r.pool.Exec(ctx, `DELETE FROM push_subscriptions WHERE id=$1`, id)
	return err
}

func (r *pushSubscriptionRepo) DeleteByEndpoint(ctx context.Context, userID int64, endpoint string) error {
	defer observeDB(ctx, "push_subscriptions.delete_by_endpoint")()
	tag, err := r.pool.Exec(ctx, `DELETE FROM push_subscriptions WHERE user_id=$1 AND endpoint=$2`, userID, endpoint)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// pushLogRepo implements PushLogRepository.
type pushLogRepo struct {
	pool dbPool
}

func (r *pushLogRepo) Record(ctx context.Context, subscriptionID int64, day reporting.Date, kind string, thresholdMinutes int) (bool, error) {
	defer observeDB(ctx, "push_log.record")()
	const q = `INSERT INTO push_notification_log (subscription_id, date_local, kind, threshold_minutes)
VALUES ($1, $2::date, $3, $4) ON CONFLICT DO NOTHING`
	tag, err := r.pool.Exec(ctx, q, subscriptionID, day.String(), kind, thresholdMinutes)
	if err != nil {
		return false, fmt.Errorf("record push notification: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
