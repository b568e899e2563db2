package store

import (
	"context"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jw6ventures/timeclock/internal/migrations"
)

// migrationLockKey is negative so it never collides with a per-user lock.
const migrationLockKey int64 = -1

const insertVersion = `INSERT INTO schema_migrations (version) VALUES ($1) ON CONFLICT (version) DO NOTHING`

// PgxPool is what the migration runner needs from pgxpool.Pool.
type PgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// ApplyMigrations runs the embedded schema files in name order and returns the ones it
// applied. A database with tables but no schema_migrations is taken to hold the first
// file already. Concurrent runners (serve replicas, the migrate command) serialize on an
// advisory lock and skip files another runner committed first.
func ApplyMigrations(ctx context.Context, pool PgxPool) ([]string, error) {
	names, err := migrationNames()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, nil
	}

	if err := bootstrapTracking(ctx, pool, names[0]); err != nil {
		return nil, err
	}
	done, err := appliedVersions(ctx, pool)
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, name := range names {
		if done[name] {
			continue
		}
		ran, err := runMigration(ctx, pool, name)
		if err != nil {
			return applied, err
		}
		if ran {
			applied = append(applied, name)
		}
	}
	return applied, nil
}

func migrationNames() ([]string, error) {
	names, err := fs.Glob(migrations.Files, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

func bootstrapTracking(ctx context.Context, pool PgxPool, baseline string) error {
	const inspect = `SELECT
    to_regclass('public.schema_migrations') IS NOT NULL,
    EXISTS (SELECT 1 FROM information_schema.tables
            WHERE table_schema NOT IN ('pg_catalog', 'information_schema'))`
	var tracked, populated bool
	if err := pool.QueryRow(ctx, inspect).Scan(&tracked, &populated); err != nil {
		return fmt.Errorf("inspect schema: %w", err)
	}
	if tracked {
		return nil
	}

	const create = `CREATE TABLE IF NOT EXISTS schema_migrations (
    version TEXT PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
	if _, err := pool.Exec(ctx, create); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	if !populated {
		return nil
	}
	if _, err := pool.Exec(ctx, insertVersion, baseline); err != nil {
		return fmt.Errorf("record baseline %s: %w", baseline, err)
	}
	return nil
}

func appliedVersions(ctx context.Context, pool PgxPool) (map[string]bool, error) {
	rows, err := pool.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	defer rows.Close()

	done := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("scan migration version: %w", err)
		}
		done[version] = true
	}
	return done, rows.Err()
}

// runMigration reports false when another runner applied name while this one waited.
func runMigration(ctx context.Context, pool PgxPool, name string) (bool, error) {
	body, err := migrations.Files.ReadFile(name)
	if err != nil {
		return false, fmt.Errorf("read migration %s: %w", name, err)
	}

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, fmt.Errorf("begin migration %s: %w", name, err)
	}
	abort := func(err error) (bool, error) {
		_ = tx.Rollback(ctx)
		return false, err
	}

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, migrationLockKey); err != nil {
		return abort(fmt.Errorf("lock migrations: %w", err))
	}
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version=$1)`, name).Scan(&exists); err != nil {
		return abort(fmt.Errorf("check migration %s: %w", name, err))
	}
	if exists {
		return abort(nil)
	}
	if _, err := tx.Exec(ctx, string(body)); err != nil {
		return abort(fmt.Errorf("apply migration %s: %w", name, err))
	}
	if _, err := tx.Exec(ctx, insertVersion, name); err != nil {
		return abort(fmt.Errorf("record migration %s: %w", name, err))
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit migration %s: %w", name, err)
	}
	return true, nil
}
