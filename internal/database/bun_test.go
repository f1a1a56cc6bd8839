package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAndMigrate_SQLite(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "trailpass.db")

	db, err := Open(DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	applied, err := Migrate(context.Background(), db, DriverSQLite)
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	// Second run is a no-op
	applied, err = Migrate(context.Background(), db, DriverSQLite)
	require.NoError(t, err)
	assert.Equal(t, 0, applied)

	var count int
	err = db.NewSelect().TableExpr("kv_records").ColumnExpr("COUNT(*)").Scan(context.Background(), &count)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(Driver("oracle"), "whatever")
	assert.Error(t, err)
}
