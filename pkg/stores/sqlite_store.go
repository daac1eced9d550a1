package stores

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// SQLite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
	cfg  Config
}

// Config holds SQLite store configuration.
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewSQLiteStore creates a new SQLite store instance.
func NewSQLiteStore(cfg Config) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 25
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 5
	}
	if cfg.ConnMaxLifetime == 0 {
		cfg.ConnMaxLifetime = 5 * time.Minute
	}

	return &SQLiteStore{
		path: cfg.Path,
		cfg:  cfg,
	}, nil
}

// Init initializes the database connection and enables WAL mode.
func (s *SQLiteStore) Init(ctx context.Context) error {
	dsn := fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_txlock=immediate", s.path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(s.cfg.MaxOpenConns)
	db.SetMaxIdleConns(s.cfg.MaxIdleConns)
	db.SetConnMaxLifetime(s.cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	// Foreign keys are a connection-level setting
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate runs database migrations.
func (s *SQLiteStore) Migrate(_ context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// HealthCheck verifies the database connection is alive.
func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}
	return s.db.PingContext(ctx)
}

// RecordResolution persists one resolution audit record.
func (s *SQLiteStore) RecordResolution(ctx context.Context, r *Resolution) error {
	query := `
		INSERT INTO resolutions (id, options_digest, requested_type, browser_type, target_os, outcome, reason, error, candidate_count, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		r.ID,
		r.OptionsDigest,
		r.RequestedType,
		r.BrowserType,
		r.TargetOS,
		r.Outcome,
		r.Reason,
		r.Error,
		r.CandidateCnt,
		r.Duration.Milliseconds(),
		r.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to record resolution: %w", err)
	}

	return nil
}

// GetResolution retrieves a resolution by ID.
func (s *SQLiteStore) GetResolution(ctx context.Context, id string) (*Resolution, error) {
	query := `
		SELECT id, options_digest, requested_type, browser_type, target_os, outcome, reason, error, candidate_count, duration_ms, created_at
		FROM resolutions
		WHERE id = ?
	`

	r := &Resolution{}
	var durationMS int64
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&r.ID,
		&r.OptionsDigest,
		&r.RequestedType,
		&r.BrowserType,
		&r.TargetOS,
		&r.Outcome,
		&r.Reason,
		&r.Error,
		&r.CandidateCnt,
		&durationMS,
		&r.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("resolution not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get resolution: %w", err)
	}

	r.Duration = time.Duration(durationMS) * time.Millisecond
	return r, nil
}

// ListResolutions returns the most recent resolutions, newest first.
func (s *SQLiteStore) ListResolutions(ctx context.Context, limit int) ([]*Resolution, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, options_digest, requested_type, browser_type, target_os, outcome, reason, error, candidate_count, duration_ms, created_at
		FROM resolutions
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list resolutions: %w", err)
	}
	defer rows.Close()

	var out []*Resolution
	for rows.Next() {
		r := &Resolution{}
		var durationMS int64
		if err := rows.Scan(
			&r.ID,
			&r.OptionsDigest,
			&r.RequestedType,
			&r.BrowserType,
			&r.TargetOS,
			&r.Outcome,
			&r.Reason,
			&r.Error,
			&r.CandidateCnt,
			&durationMS,
			&r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan resolution: %w", err)
		}
		r.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, r)
	}

	return out, rows.Err()
}

// RecordDiscoveryEvent persists one discovery event.
func (s *SQLiteStore) RecordDiscoveryEvent(ctx context.Context, e *DiscoveryEvent) error {
	query := `
		INSERT INTO discovery_events (id, resolution_id, finder, device_id, level, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		e.ID,
		e.ResolutionID,
		e.Finder,
		e.DeviceID,
		e.Level,
		e.Message,
		e.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to record discovery event: %w", err)
	}

	return nil
}

// ListDiscoveryEvents returns the events recorded for a resolution,
// oldest first.
func (s *SQLiteStore) ListDiscoveryEvents(ctx context.Context, resolutionID string) ([]*DiscoveryEvent, error) {
	query := `
		SELECT id, resolution_id, finder, device_id, level, message, created_at
		FROM discovery_events
		WHERE resolution_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, resolutionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list discovery events: %w", err)
	}
	defer rows.Close()

	var out []*DiscoveryEvent
	for rows.Next() {
		e := &DiscoveryEvent{}
		if err := rows.Scan(
			&e.ID,
			&e.ResolutionID,
			&e.Finder,
			&e.DeviceID,
			&e.Level,
			&e.Message,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan discovery event: %w", err)
		}
		out = append(out, e)
	}

	return out, rows.Err()
}
