package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/glebarez/go-sqlite"
	"golang.org/x/crypto/bcrypt"
)

// DB is the persistent store for notes and the settings record. It is the
// only shared state of the service; every operation touches one entity.
type DB struct {
	conn     *sql.DB
	logger   *slog.Logger
	now      func() time.Time
	hashCost int
}

type Option func(*DB)

// WithClock replaces the wall clock used for note and settings timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *DB) { d.now = now }
}

// WithHashCost sets the bcrypt cost used when storing a password.
func WithHashCost(cost int) Option {
	return func(d *DB) { d.hashCost = cost }
}

func New(path string, opts ...Option) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{
		conn:     conn,
		logger:   slog.Default().With("component", "db"),
		now:      time.Now,
		hashCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(db)
	}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	db.logger.Info("database ready", "path", path)
	return db, nil
}

func (d *DB) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS notes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			pinned BOOLEAN NOT NULL DEFAULT 0,
			is_trashed BOOLEAN NOT NULL DEFAULT 0,
			trashed_at INTEGER,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			CHECK ((is_trashed = 0 AND trashed_at IS NULL) OR (is_trashed = 1 AND trashed_at IS NOT NULL))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notes_active ON notes(is_trashed, updated_at)`,
		`CREATE INDEX IF NOT EXISTS idx_notes_trashed_at ON notes(is_trashed, trashed_at)`,
		`CREATE TABLE IF NOT EXISTS settings (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			theme TEXT NOT NULL CHECK (theme IN ('light', 'dark')),
			wallpaper TEXT NOT NULL DEFAULT '',
			wallpaper_presets TEXT NOT NULL DEFAULT '[]',
			is_locked BOOLEAN NOT NULL DEFAULT 0,
			dim_level REAL NOT NULL,
			password_hash TEXT,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
	}

	for _, q := range queries {
		if _, err := d.conn.Exec(q); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

// Ping reports whether the database is reachable.
func (d *DB) Ping(ctx context.Context) error {
	return d.conn.PingContext(ctx)
}

// Timestamps are stored as UTC unix nanoseconds so ordering and cutoff
// comparisons are plain integer comparisons.
func (d *DB) stamp() int64 {
	return d.now().UTC().UnixNano()
}

func fromStamp(v int64) time.Time {
	return time.Unix(0, v).UTC()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}
