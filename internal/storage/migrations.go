package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Veraticus/loanbot/internal/common"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Conversation metrics log",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS conversation_metrics (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					session_id TEXT NOT NULL,
					logged_at TEXT NOT NULL,
					day TEXT NOT NULL,
					duration_seconds REAL NOT NULL DEFAULT 0,
					turn_count INTEGER NOT NULL DEFAULT 0,
					intent_recognized BOOLEAN NOT NULL DEFAULT 0,
					entities_extracted TEXT NOT NULL DEFAULT '[]',
					entity_extraction_count INTEGER NOT NULL DEFAULT 0,
					fallback_count INTEGER NOT NULL DEFAULT 0,
					error_count INTEGER NOT NULL DEFAULT 0,
					data_completeness REAL NOT NULL DEFAULT 0,
					errors TEXT NOT NULL DEFAULT '[]'
				)`,
				`CREATE INDEX idx_conversation_metrics_day ON conversation_metrics(day)`,
				`CREATE INDEX idx_conversation_metrics_session ON conversation_metrics(session_id)`,
			)
		},
	},
	{
		Version:     2,
		Description: "Per-session interaction events",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS interactions (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					session_id TEXT NOT NULL,
					kind TEXT NOT NULL,
					logged_at TEXT NOT NULL,
					data TEXT NOT NULL DEFAULT '{}'
				)`,
				`CREATE INDEX idx_interactions_session ON interactions(session_id)`,
			)
		},
	},
	{
		Version:     3,
		Description: "Daily statistics rollup",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS daily_stats (
					date TEXT PRIMARY KEY,
					generated_at TEXT NOT NULL,
					total_conversations INTEGER NOT NULL DEFAULT 0,
					total_turns INTEGER NOT NULL DEFAULT 0,
					total_errors INTEGER NOT NULL DEFAULT 0,
					avg_turns REAL NOT NULL DEFAULT 0,
					intent_recognition_rate REAL NOT NULL DEFAULT 0,
					avg_entities REAL NOT NULL DEFAULT 0,
					avg_completion_rate REAL NOT NULL DEFAULT 0,
					avg_duration REAL NOT NULL DEFAULT 0,
					error_rate REAL NOT NULL DEFAULT 0
				)`,
			)
		},
	},
}

func execAll(tx *sql.Tx, queries ...string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query '%s': %w", query, err)
		}
	}
	return nil
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("%w: database schema version mismatch: expected %d, got %d",
			common.ErrDatabaseCorrupted, ExpectedSchemaVersion, finalVersion)
	}

	return nil
}

// SchemaVersion reports the applied schema version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
