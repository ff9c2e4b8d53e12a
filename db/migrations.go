package db

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
)

// ErrIrreversible is returned when rolling back a migration without a Down step
var ErrIrreversible = errors.New("migration cannot be rolled back")

// Migration represents a database migration. An empty Down makes it irreversible.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// column types that differ between drivers
const (
	serialKey = "{{serial}}"
	bigint    = "{{bigint}}"
	double    = "{{double}}"
)

// migrations holds all database migrations in order
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_contents_table",
		Up: `
			CREATE TABLE IF NOT EXISTS contents (
				id {{serial}},
				title TEXT NOT NULL DEFAULT '',
				description TEXT,
				body TEXT,
				category TEXT,
				author TEXT,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			);
		`,
		Down: `
			DROP TABLE IF EXISTS contents;
		`,
	},
	{
		Version: 2,
		Name:    "create_schema_migrations_table",
		Up: `
			CREATE TABLE IF NOT EXISTS schema_migrations (
				version INTEGER PRIMARY KEY,
				name TEXT NOT NULL,
				applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			);
		`,
		// the tracking table holds the rollback record itself
		Down: "",
	},
	{
		Version: 3,
		Name:    "create_seo_results_table",
		Up: `
			CREATE TABLE IF NOT EXISTS seo_results (
				content_id {{bigint}} PRIMARY KEY,
				score INTEGER NOT NULL,
				grade TEXT NOT NULL,
				data TEXT NOT NULL,
				processed_at TIMESTAMP NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_seo_results_score ON seo_results(score);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_seo_results_score;
			DROP TABLE IF EXISTS seo_results;
		`,
	},
	{
		Version: 4,
		Name:    "create_batch_runs_table",
		Up: `
			CREATE TABLE IF NOT EXISTS batch_runs (
				id TEXT PRIMARY KEY,
				total INTEGER NOT NULL,
				processed INTEGER NOT NULL,
				failed INTEGER NOT NULL,
				average_score {{double}} NOT NULL,
				data TEXT NOT NULL,
				created_at TIMESTAMP NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_batch_runs_created_at ON batch_runs(created_at);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_batch_runs_created_at;
			DROP TABLE IF EXISTS batch_runs;
		`,
	},
}

// dialect fills the driver specific column types of a migration statement
func dialect(driver, stmt string) string {
	if driver == DriverPostgres {
		return strings.NewReplacer(
			serialKey, "BIGSERIAL PRIMARY KEY",
			bigint, "BIGINT",
			double, "DOUBLE PRECISION",
		).Replace(stmt)
	}
	return strings.NewReplacer(
		serialKey, "INTEGER PRIMARY KEY AUTOINCREMENT",
		bigint, "INTEGER",
		double, "REAL",
	).Replace(stmt)
}

// Migrate runs all pending migrations
func Migrate(db *sqlx.DB) error {
	// Ensure migrations table exists (run v2 first if needed)
	if err := ensureMigrationsTable(db); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	currentVersion, err := getCurrentVersion(db)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	sortedMigrations := make([]Migration, len(migrations))
	copy(sortedMigrations, migrations)
	sort.Slice(sortedMigrations, func(i, j int) bool {
		return sortedMigrations[i].Version < sortedMigrations[j].Version
	})

	for _, m := range sortedMigrations {
		if m.Version <= currentVersion {
			continue
		}

		if err := runMigration(db, m); err != nil {
			return fmt.Errorf("failed to run migration %d (%s): %w", m.Version, m.Name, err)
		}
	}

	return nil
}

// ensureMigrationsTable creates the schema_migrations table if it doesn't exist
func ensureMigrationsTable(db *sqlx.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	return err
}

// getCurrentVersion returns the current migration version
func getCurrentVersion(db *sqlx.DB) (int, error) {
	var version int
	if err := db.Get(&version, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations"); err != nil {
		return 0, err
	}
	return version, nil
}

// runMigration executes a single migration
func runMigration(db *sqlx.DB, m Migration) error {
	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(dialect(db.DriverName(), m.Up)); err != nil {
		return fmt.Errorf("failed to execute migration SQL: %w", err)
	}

	if _, err := tx.Exec(
		tx.Rebind("INSERT INTO schema_migrations (version, name) VALUES (?, ?)"),
		m.Version, m.Name,
	); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}

	return tx.Commit()
}

// Rollback rolls back the last migration
func Rollback(db *sqlx.DB) error {
	currentVersion, err := getCurrentVersion(db)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	if currentVersion == 0 {
		return fmt.Errorf("no migrations to rollback")
	}

	var targetMigration *Migration
	for i := range migrations {
		if migrations[i].Version == currentVersion {
			targetMigration = &migrations[i]
			break
		}
	}

	if targetMigration == nil {
		return fmt.Errorf("migration %d not found", currentVersion)
	}
	if strings.TrimSpace(targetMigration.Down) == "" {
		return fmt.Errorf("migration %d (%s): %w", targetMigration.Version, targetMigration.Name, ErrIrreversible)
	}

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(dialect(db.DriverName(), targetMigration.Down)); err != nil {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}

	if _, err := tx.Exec(tx.Rebind("DELETE FROM schema_migrations WHERE version = ?"), currentVersion); err != nil {
		return fmt.Errorf("failed to remove migration record: %w", err)
	}

	return tx.Commit()
}

// GetMigrationStatus returns the current migration status
func GetMigrationStatus(db *sqlx.DB) ([]MigrationStatus, error) {
	currentVersion, err := getCurrentVersion(db)
	if err != nil {
		return nil, err
	}

	var status []MigrationStatus
	for _, m := range migrations {
		status = append(status, MigrationStatus{
			Version: m.Version,
			Name:    m.Name,
			Applied: m.Version <= currentVersion,
		})
	}

	sort.Slice(status, func(i, j int) bool {
		return status[i].Version < status[j].Version
	})

	return status, nil
}

// MigrationStatus represents the status of a migration
type MigrationStatus struct {
	Version int
	Name    string
	Applied bool
}
