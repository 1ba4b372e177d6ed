package db

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// users and todos tables.
//
//go:embed migrations/*.sql
var migrationsFS embed.FS

// Run brings the schema at databaseURL (a postgres:// URL) up to date.
// A dirty schema from an interrupted run is reported, not forced.
func Run(databaseURL string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrations: open source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return fmt.Errorf("migrations: connect: %w", err)
	}
	defer m.Close()

	if _, dirty, err := m.Version(); err == nil && dirty {
		return errors.New("migrations: schema is dirty; fix it by hand and run `migrate force`")
	}

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		slog.Debug("migrations: schema up to date")
	case err != nil:
		return fmt.Errorf("migrations: up: %w", err)
	}

	if v, _, err := m.Version(); err == nil {
		slog.Info("migrations: schema ready", "version", v)
	}
	return nil
}
