package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/twinq/internal/fieldmap"
)

var registry = fieldmap.New(map[string]fieldmap.Entity{
	"User":  {},
	"Order": {},
})

// createTestStore opens a SQLite store seeded with users and orders.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(DriverSQLite, path, WithTables(registry))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	for _, stmt := range []string{
		`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT, status TEXT, age INTEGER, deletedAt TEXT)`,
		`CREATE TABLE orders (id INTEGER PRIMARY KEY, customerId INTEGER, total REAL, status TEXT)`,
		`INSERT INTO users VALUES (1, 'Ada Lovelace', 'active', 36, NULL)`,
		`INSERT INTO users VALUES (2, 'Alan Turing', 'active', 41, NULL)`,
		`INSERT INTO users VALUES (3, 'Grace Hopper', 'inactive', 85, '2020-01-01')`,
		`INSERT INTO users VALUES (4, '100% Bob_', 'pending', NULL, NULL)`,
		`INSERT INTO orders VALUES (10, 1, 99.5, 'open')`,
		`INSERT INTO orders VALUES (11, 1, 12.0, 'closed')`,
		`INSERT INTO orders VALUES (12, 3, 40.0, 'open')`,
	} {
		require.NoError(t, s.Exec(ctx, stmt))
	}
	return s
}

func rowIDs(rows []Row) []int64 {
	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r["id"].(int64)
	}
	return ids
}
