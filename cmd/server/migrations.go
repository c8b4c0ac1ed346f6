package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Rrock-k/interval-learn-bot/migrations"
	"github.com/pressly/goose/v3"
)

// runMigrations applies any pending embedded migrations. Goose tracks the
// applied set in its own table, so this is safe to run on every start.
func runMigrations(db *sql.DB, logger *slog.Logger) error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read migration version: %w", err)
	}

	logger.Info("migrations applied", "db_version", version)
	return nil
}
