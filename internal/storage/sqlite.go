// Package storage provides the SQLite metrics sink and daily rollups.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/Veraticus/loanbot/internal/service"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

var _ service.StatsStore = (*SQLiteStorage)(nil)

// psql builds every statement with ? placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// SQLiteStorage implements service.StatsStore using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	now    func() time.Time
	dbPath string
}

// Option configures a SQLiteStorage.
type Option func(*SQLiteStorage)

// WithClock overrides the time source used to timestamp and bucket records.
func WithClock(now func() time.Time) Option {
	return func(s *SQLiteStorage) {
		s.now = now
	}
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string, opts ...Option) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections, and :memory: needs exactly one.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteStorage{
		db:     db,
		dbPath: dbPath,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Path returns the database file path.
func (s *SQLiteStorage) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
