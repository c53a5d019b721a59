package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSQLiteDB_Paths(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"plain memory", ":memory:"},
		{"uri with query", "file:dsn-shared?mode=memory&cache=shared"},
		{"file", filepath.Join(t.TempDir(), "plain.db")},
		{"file with query", filepath.Join(t.TempDir(), "query.db") + "?cache=shared"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := NewSQLiteDB(tt.path)
			require.NoError(t, err)
			t.Cleanup(func() { db.Close() })

			ctx := context.Background()
			_, err = db.ExecContext(ctx, `CREATE TABLE t (id INTEGER PRIMARY KEY)`)
			require.NoError(t, err)

			var fk int
			require.NoError(t, db.QueryRowContext(ctx, `PRAGMA foreign_keys`).Scan(&fk))
			assert.Equal(t, 1, fk)
		})
	}
}
