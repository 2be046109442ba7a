package migration

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/burugo/fluent"
	"github.com/burugo/fluent/internal/ddl"
	"github.com/burugo/fluent/schema"
)

const (
	migrationsTableName = "schema_migrations"
	// DefaultLockKey is the key taken by the Migrator when a Locker is configured.
	DefaultLockKey = "fluent:migrations:lock"
)

var (
	// ErrLocked is returned when another runner holds the migration lock.
	ErrLocked = errors.New("migration: another migration run holds the lock")
	// ErrDuplicateVersion is returned when two migrations share a version.
	ErrDuplicateVersion = errors.New("migration: duplicate version")
	// ErrUnknownVersion is returned when rolling back a version with no known migration.
	ErrUnknownVersion = errors.New("migration: applied version has no migration")
)

// Status describes one known or applied migration.
type Status struct {
	Version   int64
	Name      string
	Applied   bool
	AppliedAt string
}

// Migrator applies and rolls back migrations against a database.
type Migrator struct {
	db         schema.DBAdapter
	migrations []Migration
	locker     Locker
	lockTTL    time.Duration
	logEnabled bool
}

// NewMigrator returns a Migrator for migrations, or for the registered migrations
// when none are given.
func NewMigrator(db schema.DBAdapter, migrations ...Migration) *Migrator {
	if len(migrations) == 0 {
		migrations = Registered()
	} else {
		migrations = append([]Migration(nil), migrations...)
		sortByVersion(migrations)
	}
	return &Migrator{
		db:         db,
		migrations: migrations,
		logEnabled: true,
	}
}

// WithLocker serializes Migrate and Rollback across processes through l.
func (m *Migrator) WithLocker(l Locker, ttl time.Duration) *Migrator {
	m.locker = l
	m.lockTTL = ttl
	return m
}

// EnableLog enables/disables logging
func (m *Migrator) EnableLog(enable bool) {
	m.logEnabled = enable
}

func (m *Migrator) logf(format string, args ...any) {
	if m.logEnabled {
		log.Printf("[Migrator] "+format, args...)
	}
}

func (m *Migrator) ensureMigrationsTable(ctx context.Context) error {
	stmt, err := ddl.MigrationsTable(m.db.Dialect().Name())
	if err != nil {
		return fmt.Errorf("failed to generate migrations table SQL: %w", err)
	}
	if _, err := m.db.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("failed to execute migrations table creation: %w\nSQL: %s", err, stmt)
	}
	return nil
}

type appliedRow struct {
	Version   string `db:"version"`
	AppliedAt string `db:"applied_at"`
}

// appliedVersions returns applied versions mapped to their applied_at value.
func (m *Migrator) appliedVersions(ctx context.Context) (map[int64]string, error) {
	var rows []appliedRow
	query := fmt.Sprintf("SELECT version, applied_at FROM %s", migrationsTableName)
	if err := m.db.Select(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to query applied versions: %w", err)
	}
	applied := make(map[int64]string, len(rows))
	for _, r := range rows {
		v, err := strconv.ParseInt(r.Version, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid version format '%s' found in %s table: %w", r.Version, migrationsTableName, err)
		}
		applied[v] = r.AppliedAt
	}
	return applied, nil
}

func (m *Migrator) checkVersions() error {
	for i := 1; i < len(m.migrations); i++ {
		if m.migrations[i].Version == m.migrations[i-1].Version {
			return fmt.Errorf("%w: %d", ErrDuplicateVersion, m.migrations[i].Version)
		}
	}
	return nil
}

// Migrate applies every pending migration in version order, in one transaction.
func (m *Migrator) Migrate(ctx context.Context) error {
	m.logf("Starting migration process...")
	if err := m.checkVersions(); err != nil {
		return err
	}
	return m.locked(ctx, func() error {
		if err := m.ensureMigrationsTable(ctx); err != nil {
			return err
		}
		applied, err := m.appliedVersions(ctx)
		if err != nil {
			return err
		}

		var pending []Migration
		for _, mig := range m.migrations {
			if _, ok := applied[mig.Version]; !ok {
				pending = append(pending, mig)
			}
		}
		if len(pending) == 0 {
			m.logf("No pending migrations to apply.")
			return nil
		}
		m.logf("Found %d pending migrations to apply.", len(pending))

		return m.inTx(ctx, func(tx schema.Tx) error {
			b := fluent.NewBuilder(tx)
			for _, mig := range pending {
				m.logf("Applying migration %d: %s...", mig.Version, mig.Name)
				if err := run(ctx, tx, b, mig.Up, mig.UpSQL); err != nil {
					return fmt.Errorf("failed to apply migration %d (%s): %w", mig.Version, mig.Name, err)
				}
				insert := fmt.Sprintf("INSERT INTO %s (version, description, applied_at) VALUES (?, ?, ?)", migrationsTableName)
				if _, err := tx.Exec(ctx, insert, strconv.FormatInt(mig.Version, 10), mig.Name, time.Now().UTC().Format(time.DateTime)); err != nil {
					return fmt.Errorf("failed to record applied version %d: %w", mig.Version, err)
				}
				m.logf("Successfully applied migration %d: %s", mig.Version, mig.Name)
			}
			return nil
		})
	})
}

// Rollback reverts the last steps applied migrations, newest first.
func (m *Migrator) Rollback(ctx context.Context, steps int) error {
	if steps <= 0 {
		return nil
	}
	m.logf("Rolling back %d migration(s)...", steps)
	return m.locked(ctx, func() error {
		if err := m.ensureMigrationsTable(ctx); err != nil {
			return err
		}
		applied, err := m.appliedVersions(ctx)
		if err != nil {
			return err
		}
		versions := make([]int64, 0, len(applied))
		for v := range applied {
			versions = append(versions, v)
		}
		sort.Slice(versions, func(i, j int) bool { return versions[i] > versions[j] })
		if steps < len(versions) {
			versions = versions[:steps]
		}
		if len(versions) == 0 {
			m.logf("No applied migrations to roll back.")
			return nil
		}

		known := make(map[int64]Migration, len(m.migrations))
		for _, mig := range m.migrations {
			known[mig.Version] = mig
		}

		return m.inTx(ctx, func(tx schema.Tx) error {
			b := fluent.NewBuilder(tx)
			for _, v := range versions {
				mig, ok := known[v]
				if !ok {
					return fmt.Errorf("%w: %d", ErrUnknownVersion, v)
				}
				m.logf("Rolling back migration %d: %s...", mig.Version, mig.Name)
				if err := run(ctx, tx, b, mig.Down, mig.DownSQL); err != nil {
					return fmt.Errorf("failed to roll back migration %d (%s): %w", mig.Version, mig.Name, err)
				}
				del := fmt.Sprintf("DELETE FROM %s WHERE version = ?", migrationsTableName)
				if _, err := tx.Exec(ctx, del, strconv.FormatInt(v, 10)); err != nil {
					return fmt.Errorf("failed to remove applied version %d: %w", v, err)
				}
			}
			return nil
		})
	})
}

// Status lists every known migration plus applied versions no migration knows about.
func (m *Migrator) Status(ctx context.Context) ([]Status, error) {
	if err := m.ensureMigrationsTable(ctx); err != nil {
		return nil, err
	}
	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Status, 0, len(m.migrations))
	seen := make(map[int64]bool, len(m.migrations))
	for _, mig := range m.migrations {
		at, ok := applied[mig.Version]
		out = append(out, Status{Version: mig.Version, Name: mig.Name, Applied: ok, AppliedAt: at})
		seen[mig.Version] = true
	}
	for v, at := range applied {
		if !seen[v] {
			out = append(out, Status{Version: v, Applied: true, AppliedAt: at})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func run(ctx context.Context, tx schema.Tx, b *fluent.Builder, fn Func, script string) error {
	if fn != nil {
		if err := fn(ctx, b); err != nil {
			return err
		}
	}
	if strings.TrimSpace(script) != "" {
		if _, err := tx.Exec(ctx, script); err != nil {
			return fmt.Errorf("%w\nSQL:\n%s", err, script)
		}
	}
	return nil
}

func (m *Migrator) inTx(ctx context.Context, fn func(tx schema.Tx) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		m.logf("Migration failed, rolling back transaction...")
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w; additionally, rollback failed: %v", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration transaction: %w", err)
	}
	m.logf("Migration process completed successfully.")
	return nil
}

func (m *Migrator) locked(ctx context.Context, fn func() error) error {
	if m.locker == nil {
		return fn()
	}
	ok, err := m.locker.Acquire(ctx, DefaultLockKey, m.lockTTL)
	if err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	if !ok {
		return ErrLocked
	}
	defer func() {
		if err := m.locker.Release(context.WithoutCancel(ctx), DefaultLockKey); err != nil {
			m.logf("Warning: failed to release migration lock: %v", err)
		}
	}()
	return fn()
}
