package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// querier is the part of pgx shared by the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type dbPool interface {
	querier
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

// Store aggregates repositories backed by PostgreSQL.
type Store struct {
	pool dbPool

	Users             UserRepository
	Sessions          SessionRepository
	Settings          SettingsRepository
	ClockEvents       ClockEventRepository
	AbsenceReasons    AbsenceReasonRepository
	Absences          AbsenceRepository
	Notes             DayNoteRepository
	PushSubscriptions PushSubscriptionRepository
	PushLog           PushLogRepository
}

// New wires concrete repository implementations with shared connection pool.
func New(pool dbPool) *Store {
	return &Store{
		pool:              pool,
		Users:             &userRepo{pool: pool},
		Sessions:          &sessionRepo{pool: pool},
		Settings:          &settingsRepo{pool: pool},
		ClockEvents:       &clockEventRepo{pool: pool},
		AbsenceReasons:    &absenceReasonRepo{pool: pool},
		Absences:          &absenceRepo{pool: pool},
		Notes:             &dayNoteRepo{pool: pool},
		PushSubscriptions: &pushSubscriptionRepo{pool: pool},
		PushLog:           &pushLogRepo{pool: pool},
	}
}

// HealthCheck verifies that the underlying database is reachable.
func (s *Store) HealthCheck(ctx context.Context) error {
	defer observeDB(ctx, "db.healthcheck")()
	return s.pool.Ping(ctx)
}

// withUserLock runs fn in a transaction holding the user's advisory lock, so that
// concurrent writers for one user see each other's committed events. Any error from fn
// rolls back every write made in the transaction.
func withUserLock(ctx context.Context, pool dbPool, userID int64, fn func(tx pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, userID); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("lock user %d: %w", userID, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// isTimestampCollision reports a second event at the same stored instant for a user.
func isTimestampCollision(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "uq_clock_events_user_ts"
}
