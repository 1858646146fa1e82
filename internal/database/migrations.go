package database

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

func newMigrationProvider(db *sql.DB, migrationsDir string) (*goose.Provider, error) {
	provider, err := goose.NewProvider(goose.DialectPostgres, db, os.DirFS(migrationsDir))
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations from %q: %w", migrationsDir, err)
	}
	return provider, nil
}

// RunMigrations applies every pending migration in migrationsDir.
func RunMigrations(db *sql.DB, migrationsDir string, logger *zap.Logger) error {
	ctx := context.Background()

	provider, err := newMigrationProvider(db, migrationsDir)
	if err != nil {
		return err
	}

	logger.Info("Checking for pending migrations", zap.String("dir", migrationsDir))

	results, err := provider.Up(ctx)
	if err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	for _, result := range results {
		logger.Info("Applied migration",
			zap.String("source", result.Source.Path),
			zap.Duration("duration", result.Duration),
		)
	}

	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	logger.Info("Migrations completed", zap.Int64("version", version))
	return nil
}

// MigrationStatus writes one line per migration: its state and file.
func MigrationStatus(db *sql.DB, migrationsDir string, out io.Writer) error {
	provider, err := newMigrationProvider(db, migrationsDir)
	if err != nil {
		return err
	}

	statuses, err := provider.Status(context.Background())
	if err != nil {
		return fmt.Errorf("failed to read migration status: %w", err)
	}

	for _, status := range statuses {
		applied := "-"
		if !status.AppliedAt.IsZero() {
			applied = status.AppliedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(out, "%-8s %-19s %s\n", status.State, applied, status.Source.Path)
	}
	return nil
}
