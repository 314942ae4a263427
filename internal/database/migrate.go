package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"splitexpense/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrator returns a migrate instance bound to the manager's connection and
// the embedded migrations. Callers must Close it.
func (m *Manager) Migrator() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to create iofs source: %w", err)
	}

	var mig *migrate.Migrate
	switch m.cfg.Driver {
	case "postgres":
		// Postgres gets its own short-lived pool; closing it leaves the
		// manager's pool untouched.
		mig, err = migrate.NewWithSourceInstance("iofs", src, m.cfg.MigrationURL())
	case "sqlite":
		// An in-memory database only exists on the manager's connection.
		var sqlDB *sql.DB
		if sqlDB, err = m.db.DB(); err != nil {
			return nil, fmt.Errorf("failed to get underlying DB: %w", err)
		}
		var driver migratedb.Driver
		if driver, err = sqlite3.WithInstance(sqlDB, &sqlite3.Config{}); err != nil {
			return nil, fmt.Errorf("failed to create migrate driver: %w", err)
		}
		mig, err = migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	default:
		err = fmt.Errorf("unsupported database driver %q", m.cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return mig, nil
}

// RunMigrations applies all pending embedded migrations.
func (m *Manager) RunMigrations() error {
	logger.Get().Info("Running database migrations...")

	mig, err := m.Migrator()
	if err != nil {
		return err
	}
	defer m.CloseMigrator(mig)

	if err := mig.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	logger.Get().Info("Database migrations completed successfully")
	return nil
}

// CloseMigrator releases the migrate instance without closing the manager's
// pool. The sqlite3 driver closes the *sql.DB it was given, so it is left open.
func (m *Manager) CloseMigrator(mig *migrate.Migrate) {
	if m.cfg.Driver == "sqlite" {
		return
	}
	srcErr, dbErr := mig.Close()
	if srcErr != nil {
		logger.Get().Warnf("migrate source close error: %v", srcErr)
	}
	if dbErr != nil {
		logger.Get().Warnf("migrate database close error: %v", dbErr)
	}
}
