// Package dbtest provisions migrated SQLite databases for tests.
package dbtest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MarianKovalyshyn/planetarium-api-service/internal/config"
	"github.com/MarianKovalyshyn/planetarium-api-service/internal/database"
)

// Options returns SQLite options pointing at a fresh file in t.TempDir().
func Options(t testing.TB) database.Options {
	t.Helper()
	return database.Options{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "planetarium.db"),
	}
}

// Open migrates a new database and returns a connection to it.  The
// connection is closed when the test finishes.
func Open(t testing.TB) *sql.DB {
	t.Helper()
	o := Options(t)
	require.NoError(t, database.Migrate(o))

	db, err := database.OpenSQLite(context.Background(), o.SQLitePath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}
