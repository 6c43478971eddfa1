package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect_SQLiteCreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "finance.db")
	ctx := context.Background()

	db, err := Connect(ctx, DriverSQLite, "", "", "", "", "", path)
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{
		"users", "expenses", "investments", "credit_card_entries",
		"income_entries", "external_investment_buffer", "templates", "notes",
	} {
		var name string
		err := db.QueryRowContext(ctx,
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, table)
	}

	// running again is a no-op
	require.NoError(t, Migrate(ctx, db, DriverSQLite))
}

func TestConnect_UnknownDriver(t *testing.T) {
	_, err := Connect(context.Background(), "postgres", "", "", "", "", "", "")
	assert.Error(t, err)
}

func TestOpenSQLite_ForeignKeysOn(t *testing.T) {
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()

	var on int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&on))
	assert.Equal(t, 1, on)
}
