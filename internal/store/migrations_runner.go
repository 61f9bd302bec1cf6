package store

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"gitea.jw6.us/james/calllog/internal/migrations"
)

// PgxPool is the part of pgxpool.Pool that schema migrations need.
type PgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// migrationLock is the pg_advisory_xact_lock key shared by every instance of
// the service, so replicas starting together apply each file once.
const migrationLock int64 = 0x63616c6c6c6f67

// baselineTable is created by the first migration. Its presence in a database
// without schema_migrations means that migration ran before tracking existed.
const baselineTable = "public.call_logs"

type migration struct {
	version string
	sql     string
}

// ApplyMigrations brings the database up to the newest embedded migration.
func ApplyMigrations(ctx context.Context, pool PgxPool) error {
	all, err := loadMigrations(migrations.Files)
	if err != nil {
		return err
	}
	if len(all) == 0 {
		return nil
	}
	if err := prepareTracking(ctx, pool, all[0].version); err != nil {
		return err
	}

	ran := 0
	for _, m := range all {
		applied, err := runMigration(ctx, pool, m)
		if err != nil {
			return err
		}
		if applied {
			ran++
			logrus.WithField("migration", m.version).Info("applied migration")
		}
	}
	logrus.WithFields(logrus.Fields{"applied": ran, "known": len(all)}).Debug("schema up to date")
	return nil
}

// loadMigrations reads the top-level .sql files of fsys in version order.
func loadMigrations(fsys fs.FS) ([]migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}

	var out []migration
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".sql" {
			continue
		}
		body, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		out = append(out, migration{version: entry.Name(), sql: string(body)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

// prepareTracking creates schema_migrations on first run. When the call log
// tables are already there, baseline is recorded instead of replayed.
func prepareTracking(ctx context.Context, pool PgxPool, baseline string) error {
	tracked, err := relationExists(ctx, pool, "public.schema_migrations")
	if err != nil {
		return err
	}
	if tracked {
		return nil
	}

	adopt, err := relationExists(ctx, pool, baselineTable)
	if err != nil {
		return err
	}

	const create = `CREATE TABLE IF NOT EXISTS schema_migrations (
        version TEXT PRIMARY KEY,
        applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
	if _, err := pool.Exec(ctx, create); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	if adopt {
		logrus.WithField("migration", baseline).Warn("existing schema found without tracking; marking baseline as applied")
		return markApplied(ctx, pool, baseline)
	}
	return nil
}

func relationExists(ctx context.Context, pool PgxPool, name string) (bool, error) {
	var exists bool
	if err := pool.QueryRow(ctx, `SELECT to_regclass($1::text) IS NOT NULL`, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("look up %s: %w", name, err)
	}
	return exists, nil
}

// runMigration applies m unless it is already recorded. The check, the
// migration and its record share one transaction under migrationLock.
func runMigration(ctx context.Context, pool PgxPool, m migration) (bool, error) {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, fmt.Errorf("begin migration %s: %w", m.version, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, migrationLock); err != nil {
		return false, fmt.Errorf("lock migrations: %w", err)
	}

	var done bool
	const recorded = `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version=$1)`
	if err := tx.QueryRow(ctx, recorded, m.version).Scan(&done); err != nil {
		return false, fmt.Errorf("check migration %s: %w", m.version, err)
	}
	if done {
		return false, nil
	}

	if _, err := tx.Exec(ctx, m.sql); err != nil {
		return false, fmt.Errorf("apply migration %s: %w", m.version, err)
	}
	if err := markApplied(ctx, tx, m.version); err != nil {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit migration %s: %w", m.version, err)
	}
	committed = true
	return true, nil
}

type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func markApplied(ctx context.Context, db execer, version string) error {
	const q = `INSERT INTO schema_migrations (version) VALUES ($1) ON CONFLICT (version) DO NOTHING`
	if _, err := db.Exec(ctx, q, version); err != nil {
		return fmt.Errorf("record migration %s: %w", version, err)
	}
	return nil
}
