package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/loanbot/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the metrics database schema to the latest version.

This command ensures the local database has the tables and indexes used to
record conversation snapshots, interactions and daily statistics.`,
		RunE: runMigrate,
	}

	// Flags
	cmd.Flags().Bool("status", false, "Show current migration status without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	status, _ := cmd.Flags().GetBool("status")

	cfg, err := currentConfig()
	if err != nil {
		return err
	}

	slog.Info("Starting database migration",
		"database", cfg.DatabasePath,
		"status_only", status)

	// Create storage instance
	store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer closeStore(store)

	ctx := cmd.Context()

	if status {
		current, versionErr := store.SchemaVersion(ctx)
		if versionErr != nil {
			return versionErr
		}
		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "📊 Database Migration Status\n")
		_, _ = fmt.Fprintf(out, "Database:        %s\n", store.Path())
		_, _ = fmt.Fprintf(out, "Current version: %d\n", current)
		_, _ = fmt.Fprintf(out, "Latest version:  %d\n", storage.ExpectedSchemaVersion)
		if current < storage.ExpectedSchemaVersion {
			_, _ = fmt.Fprintf(out, "Pending:         %d migration(s)\n", storage.ExpectedSchemaVersion-current)
		}
		return nil
	}

	slog.Info("🗄️  Running database migrations...", "database", store.Path())

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("✅ Database migrations completed successfully!")

	return nil
}
