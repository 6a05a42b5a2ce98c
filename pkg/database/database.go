// Package database opens the Postgres connection pool and applies the
// embedded schema migrations.
package database

import (
	"embed"
	"errors"

	"github.com/Abraxas-365/portal/pkg/config"
	"github.com/Abraxas-365/portal/pkg/errx"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// NotifyChannel is the LISTEN channel the change-notification triggers publish on.
const NotifyChannel = "portal_events"

//go:embed migrations/*.sql
var migrationsFS embed.FS

var dbErrors = errx.NewRegistry("DATABASE")

var (
	ErrConnect = dbErrors.Register("CONNECT", errx.TypeInternal, "Failed to connect to database")
	ErrMigrate = dbErrors.Register("MIGRATE", errx.TypeInternal, "Failed to apply migrations")
)

// Connect opens a pool and applies the pool limits from cfg.
func Connect(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.URL)
	if err != nil {
		return nil, dbErrors.NewWithCause(ErrConnect, err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// NewMigrator builds a migrator over the embedded migrations.
func NewMigrator(databaseURL string) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, dbErrors.NewWithCause(ErrMigrate, err).WithDetail("stage", "source")
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return nil, dbErrors.NewWithCause(ErrMigrate, err).WithDetail("stage", "instance")
	}
	return m, nil
}

// Migrate applies every pending migration. An up-to-date schema is not an error.
func Migrate(databaseURL string) error {
	m, err := NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return dbErrors.NewWithCause(ErrMigrate, err).WithDetail("stage", "up")
	}
	return nil
}
