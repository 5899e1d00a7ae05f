// Package database opens the relational store and runs its migrations.
// MySQL is the production backend; SQLite serves local development and
// tests.  Both are reached through database/sql so the repositories stay
// driver agnostic.
package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"

	"github.com/MarianKovalyshyn/planetarium-api-service/internal/config"
)

// Options identifies the database to connect to.
type Options struct {
	Driver     string // config.DriverMySQL or config.DriverSQLite
	User       string
	Pass       string
	Host       string
	Port       string
	Name       string
	SQLitePath string
}

// OptionsFrom extracts the database settings from cfg.
func OptionsFrom(cfg config.Config) Options {
	return Options{
		Driver:     cfg.DBDriver,
		User:       cfg.DBUser,
		Pass:       cfg.DBPass,
		Host:       cfg.DBHost,
		Port:       cfg.DBPort,
		Name:       cfg.DBName,
		SQLitePath: cfg.SQLitePath,
	}
}

// Open connects to the configured backend and verifies the connection.
func Open(ctx context.Context, o Options) (*sql.DB, error) {
	switch o.Driver {
	case config.DriverMySQL:
		return OpenMySQL(ctx, o)
	case config.DriverSQLite:
		return OpenSQLite(ctx, o.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", o.Driver)
	}
}

// mysqlConfig builds the driver config.  parseTime maps DATETIME to
// time.Time and loc=UTC keeps stored times consistent.
func mysqlConfig(o Options) *mysql.Config {
	mc := mysql.NewConfig()
	mc.User = o.User
	mc.Passwd = o.Pass
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(o.Host, o.Port)
	mc.DBName = o.Name
	mc.ParseTime = true
	mc.Loc = time.UTC
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc
}

// OpenMySQL connects to MySQL with a pooled connection set.
func OpenMySQL(ctx context.Context, o Options) (*sql.DB, error) {
	db, err := sql.Open("mysql", mysqlConfig(o).FormatDSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := ping(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// sqliteDSN enables foreign keys (required for the cascades), waits on a
// locked database instead of failing, and stores times in a sortable
// text format.
func sqliteDSN(path string) string {
	return fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite", path)
}

var (
	lowerOnce sync.Once
	lowerErr  error
)

// registerUnicodeLower replaces SQLite's ASCII-only LOWER() on every new
// connection so that title filters fold case like MySQL's utf8mb4 does.
func registerUnicodeLower() error {
	lowerOnce.Do(func() {
		lowerErr = sqlite.RegisterDeterministicScalarFunction("lower", 1,
			func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
				switch v := args[0].(type) {
				case nil:
					return nil, nil
				case string:
					return strings.ToLower(v), nil
				case []byte:
					return strings.ToLower(string(v)), nil
				default:
					return v, nil
				}
			})
	})
	return lowerErr
}

// OpenSQLite opens a file backed SQLite database.  A single connection is
// used so that writers serialize instead of returning SQLITE_BUSY.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if err := registerUnicodeLower(); err != nil {
		return nil, fmt.Errorf("register lower(): %w", err)
	}
	db, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := ping(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}
