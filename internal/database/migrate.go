package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/MarianKovalyshyn/planetarium-api-service/internal/config"
)

//go:embed migrations/mysql/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// migrationURL returns the golang-migrate database URL for o.  The migrator
// owns its own connection so that closing it leaves the application pool
// untouched.
func migrationURL(o Options) (string, error) {
	switch o.Driver {
	case config.DriverMySQL:
		mc := mysqlConfig(o)
		mc.MultiStatements = true
		return "mysql://" + mc.FormatDSN(), nil
	case config.DriverSQLite:
		return "sqlite://" + o.SQLitePath, nil
	default:
		return "", fmt.Errorf("unsupported db driver %q", o.Driver)
	}
}

func newMigrator(o Options) (*migrate.Migrate, error) {
	url, err := migrationURL(o)
	if err != nil {
		return nil, err
	}
	src, err := iofs.New(migrationsFS, "migrations/"+o.Driver)
	if err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, url)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}

// Migrate applies all pending up migrations.  An up to date schema is not
// an error.
func Migrate(o Options) error {
	m, err := newMigrator(o)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// MigrateDown rolls back every applied migration.
func MigrateDown(o Options) error {
	m, err := newMigrator(o)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

// SchemaVersion reports the applied migration version and whether the
// last migration left the schema dirty.
func SchemaVersion(o Options) (uint, bool, error) {
	m, err := newMigrator(o)
	if err != nil {
		return 0, false, err
	}
	defer m.Close()

	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}
