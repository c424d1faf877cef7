package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/transportmanager/apiserver/config"
)

//go:embed migrations
var migrationsFS embed.FS

// Direction selects which way migrations are applied.
type Direction int

const (
	Up Direction = iota
	Down
)

// Migrate applies the embedded migrations for driver to conn.
// The migrator is not closed here: closing it would close conn as well.
func Migrate(conn *sql.DB, driver string, dir Direction) error {
	src, err := iofs.New(migrationsFS, "migrations/"+driver)
	if err != nil {
		return fmt.Errorf("load migrations for %s: %w", driver, err)
	}

	var target database.Driver
	switch driver {
	case config.DriverPostgres:
		target, err = postgres.WithInstance(conn, &postgres.Config{})
	case config.DriverSQLite:
		target, err = migratesqlite.WithInstance(conn, &migratesqlite.Config{})
	default:
		err = fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		_ = src.Close()
		return fmt.Errorf("init migrator failed: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", src, driver, target)
	if err != nil {
		_ = src.Close()
		return fmt.Errorf("init migrator failed: %w", err)
	}

	switch dir {
	case Down:
		err = migrator.Down()
	default:
		err = migrator.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate failed: %w", err)
	}
	return nil
}
