package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrate applies pending migrations. It is safe to call on every start.
func Migrate(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	return withMigrator(ctx, db, logger, func(m *migrate.Migrate) error {
		err := m.Up()
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("No migrations to apply (database up-to-date)")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		version, _, _ := m.Version()
		logger.Info("Applied migrations successfully", zap.Uint("version", version))
		return nil
	})
}

// Rollback reverts the most recent migration.
func Rollback(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	return withMigrator(ctx, db, logger, func(m *migrate.Migrate) error {
		err := m.Steps(-1)
		if errors.Is(err, migrate.ErrNoChange) || errors.Is(err, migrate.ErrNilVersion) {
			logger.Info("No migrations to roll back")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
		version, _, verr := m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			logger.Info("Rolled back to an empty schema")
			return nil
		}
		logger.Info("Rolled back migration", zap.Uint("version", version))
		return nil
	})
}

func withMigrator(ctx context.Context, db *sql.DB, logger *zap.Logger, fn func(m *migrate.Migrate) error) error {
	if db == nil {
		return errors.New("database: nil db")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open migration source: %w", err)
	}
	// A dedicated connection keeps the driver from closing the shared pool.
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire migration connection: %w", err)
	}
	driver, err := postgres.WithConnection(ctx, conn, &postgres.Config{})
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		_ = driver.Close()
		return fmt.Errorf("failed to create migration instance: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			logger.Warn("Failed to close migration source", zap.Error(srcErr))
		}
		if dbErr != nil {
			logger.Warn("Failed to close migration database", zap.Error(dbErr))
		}
	}()
	return fn(m)
}
