// Package db stores the content catalog, per-record results and batch runs.
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/zombar/seoaudit/models"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	DefaultQueryTimeout = 30 * time.Second
)

// DB wraps the database connection and provides data access methods
type DB struct {
	conn    *sqlx.DB
	timeout time.Duration
}

// Config contains database configuration
type Config struct {
	Driver       string        `yaml:"driver" env:"DATABASE_DRIVER"`
	DSN          string        `yaml:"dsn" env:"DATABASE_DSN"`
	QueryTimeout time.Duration `yaml:"query_timeout" env:"DATABASE_QUERY_TIMEOUT"`
}

// DefaultConfig returns a default SQLite configuration
func DefaultConfig() Config {
	return Config{
		Driver:       DriverSQLite,
		DSN:          "seoaudit.db",
		QueryTimeout: DefaultQueryTimeout,
	}
}

// New creates a new database connection and runs pending migrations
func New(config Config) (*DB, error) {
	if config.Driver != DriverSQLite && config.Driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported database driver: %q", config.Driver)
	}

	conn, err := sqlx.Open(config.Driver, config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if config.Driver == DriverSQLite {
		// sqlite allows a single writer
		conn.SetMaxOpenConns(1)
	} else {
		conn.SetMaxOpenConns(25)
		conn.SetMaxIdleConns(5)
	}
	conn.SetConnMaxLifetime(5 * time.Minute)

	if err := Migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DB{conn: conn, timeout: queryTimeout(config.QueryTimeout)}, nil
}

// NewWithConn wraps an open connection without running migrations
func NewWithConn(conn *sql.DB, driver string, timeout time.Duration) *DB {
	return &DB{conn: sqlx.NewDb(conn, driver), timeout: queryTimeout(timeout)}
}

func queryTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultQueryTimeout
	}
	return d
}

// Conn returns the underlying connection
func (db *DB) Conn() *sqlx.DB {
	return db.conn
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, db.timeout)
}

// FetchAll returns every catalog record ordered by id. Missing text columns read as empty strings.
func (db *DB) FetchAll(ctx context.Context) ([]models.ContentRecord, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT id,
			COALESCE(title, '') AS title,
			COALESCE(description, '') AS description,
			COALESCE(body, '') AS body,
			COALESCE(category, '') AS category,
			COALESCE(author, '') AS author
		FROM contents
		ORDER BY id
	`

	records := []models.ContentRecord{}
	if err := db.conn.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("failed to query contents: %w", err)
	}
	return records, nil
}

// CountContents returns the number of catalog records
func (db *DB) CountContents(ctx context.Context) (int, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	var count int
	if err := db.conn.GetContext(ctx, &count, "SELECT COUNT(*) FROM contents"); err != nil {
		return 0, fmt.Errorf("failed to count contents: %w", err)
	}
	return count, nil
}

const insertContent = `
	INSERT INTO contents (title, description, body, category, author)
	VALUES (:title, :description, :body, :category, :author)
	RETURNING id
`

// InsertContent adds a record to the catalog and returns its id
func (db *DB) InsertContent(ctx context.Context, rec models.ContentRecord) (int64, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	return insertRecord(ctx, db.conn, rec)
}

// ImportContents adds records to the catalog in one transaction
func (db *DB) ImportContents(ctx context.Context, records []models.ContentRecord) ([]int64, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ids := make([]int64, 0, len(records))
	for _, rec := range records {
		id, err := insertRecord(ctx, tx, rec)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit import: %w", err)
	}
	return ids, nil
}

func insertRecord(ctx context.Context, q sqlx.ExtContext, rec models.ContentRecord) (int64, error) {
	query, args, err := sqlx.Named(insertContent, rec)
	if err != nil {
		return 0, fmt.Errorf("failed to bind content: %w", err)
	}

	var id int64
	if err := sqlx.GetContext(ctx, q, &id, q.Rebind(query), args...); err != nil {
		return 0, fmt.Errorf("failed to insert content: %w", err)
	}
	return id, nil
}

// SaveResult stores the result of a record, replacing any previous result, in one transaction
func (db *DB) SaveResult(ctx context.Context, result models.ContentResult) error {
	jsonData, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := tx.Rebind(`
		INSERT INTO seo_results (content_id, score, grade, data, processed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(content_id) DO UPDATE SET
			score = excluded.score,
			grade = excluded.grade,
			data = excluded.data,
			processed_at = excluded.processed_at
	`)

	if _, err := tx.ExecContext(ctx, query,
		result.ContentID,
		result.SEOScore,
		result.Grade,
		string(jsonData),
		result.ProcessedAt.UTC(),
	); err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit result: %w", err)
	}
	return nil
}

// GetResult returns the stored result of a record, or nil when there is none
func (db *DB) GetResult(ctx context.Context, contentID int64) (*models.ContentResult, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	var jsonData string
	err := db.conn.GetContext(ctx, &jsonData, db.conn.Rebind("SELECT data FROM seo_results WHERE content_id = ?"), contentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query result: %w", err)
	}

	var result models.ContentResult
	if err := json.Unmarshal([]byte(jsonData), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return &result, nil
}

// ListResults returns stored results, best score first
func (db *DB) ListResults(ctx context.Context, limit, offset int) ([]models.ContentResult, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	query := db.conn.Rebind(`
		SELECT data FROM seo_results
		ORDER BY score DESC, content_id
		LIMIT ? OFFSET ?
	`)

	var rows []string
	if err := db.conn.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}

	results := make([]models.ContentResult, 0, len(rows))
	for _, jsonData := range rows {
		var result models.ContentResult
		if err := json.Unmarshal([]byte(jsonData), &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal result: %w", err)
		}
		results = append(results, result)
	}
	return results, nil
}

// CountResults returns the number of stored results
func (db *DB) CountResults(ctx context.Context) (int, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	var count int
	if err := db.conn.GetContext(ctx, &count, "SELECT COUNT(*) FROM seo_results"); err != nil {
		return 0, fmt.Errorf("failed to count results: %w", err)
	}
	return count, nil
}

// SaveRun stores a finalized batch report
func (db *DB) SaveRun(ctx context.Context, report *models.BatchReport) error {
	jsonData, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	query := db.conn.Rebind(`
		INSERT INTO batch_runs (id, total, processed, failed, average_score, data, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)

	if _, err := db.conn.ExecContext(ctx, query,
		report.RunID,
		report.TotalContent,
		report.Processed,
		report.Failed,
		report.AverageScore,
		string(jsonData),
		report.Timestamp.UTC(),
	); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// LatestRun returns the most recent batch report, or nil when no run was stored
func (db *DB) LatestRun(ctx context.Context) (*models.BatchReport, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	var jsonData string
	err := db.conn.GetContext(ctx, &jsonData, "SELECT data FROM batch_runs ORDER BY created_at DESC LIMIT 1")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest run: %w", err)
	}

	var report models.BatchReport
	if err := json.Unmarshal([]byte(jsonData), &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run: %w", err)
	}
	return &report, nil
}

// MigrationStatus reports which migrations have been applied
func (db *DB) MigrationStatus() ([]MigrationStatus, error) {
	return GetMigrationStatus(db.conn)
}

// Rollback reverts the most recent migration
func (db *DB) Rollback() error {
	return Rollback(db.conn)
}
