// Package database opens Bun connections for the SQL storage backends and
// applies the bundled goose migrations.
package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite"
)

//go:embed migrations
var migrations embed.FS

// Driver names a supported SQL backend.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

// Open opens and pings a database and wraps it in a Bun DB for the driver's
// dialect.
func Open(driver Driver, dsn string) (*bun.DB, error) {
	sqlDB, err := sql.Open(string(driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify connection
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	switch driver {
	case DriverSQLite:
		// A single writer connection keeps transactions from hitting SQLITE_BUSY
		sqlDB.SetMaxOpenConns(1)
	default:
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
	}

	return NewBunDB(sqlDB, driver)
}

// NewBunDB creates a new Bun DB instance from an existing sql.DB connection
func NewBunDB(sqlDB *sql.DB, driver Driver) (*bun.DB, error) {
	switch driver {
	case DriverPostgres:
		return bun.NewDB(sqlDB, pgdialect.New()), nil
	case DriverSQLite:
		return bun.NewDB(sqlDB, sqlitedialect.New()), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Migrate applies all pending migrations for the driver's dialect and returns
// the number applied.
func Migrate(ctx context.Context, db *bun.DB, driver Driver) (int, error) {
	var (
		dialect goose.Dialect
		dir     string
	)
	switch driver {
	case DriverPostgres:
		dialect, dir = goose.DialectPostgres, "migrations/postgres"
	case DriverSQLite:
		dialect, dir = goose.DialectSQLite3, "migrations/sqlite"
	default:
		return 0, fmt.Errorf("unsupported database driver %q", driver)
	}

	fsys, err := fs.Sub(migrations, dir)
	if err != nil {
		return 0, fmt.Errorf("failed to load migrations: %w", err)
	}

	provider, err := goose.NewProvider(dialect, db.DB, fsys)
	if err != nil {
		return 0, fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return len(results), nil
}
