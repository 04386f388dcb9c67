package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/leapmigrate/internal/testutil"
	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixture writes a small database and returns its connection config.
func fixture(t *testing.T) core.ConnectionConfig {
	t.Helper()
	dir := t.TempDir()

	db, err := sql.Open("sqlite", filepath.Join(dir, "shop.db"))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	for _, stmt := range []string{
		`CREATE TABLE users (id INTEGER PRIMARY KEY, name VARCHAR(40) NOT NULL, score NUMERIC, joined TIMESTAMP)`,
		`CREATE TABLE notes (body TEXT)`,
		`INSERT INTO users (id, name, score, joined) VALUES (1, 'Alice', 3.5, '2024-01-02T03:04:05Z')`,
		`INSERT INTO users (id, name, score, joined) VALUES (2, 'Bob', NULL, NULL)`,
	} {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}

	return core.ConnectionConfig{Adapter: "sqlite", Host: dir, Database: "shop"}
}

func connected(t *testing.T) *Reader {
	t.Helper()
	r := New(testutil.NewTestLogger(t))
	require.NoError(t, r.Connect(context.Background(), fixture(t)))
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestPath(t *testing.T) {
	assert.Equal(t, filepath.Join("data", "shop.db"), Path(core.ConnectionConfig{Host: "data", Database: "shop"}))
	assert.Equal(t, filepath.Join("data", "shop.sqlite"), Path(core.ConnectionConfig{Host: "data", Database: "shop.sqlite"}))
}

func TestReader_ConnectMissingFile(t *testing.T) {
	r := New(nil)
	err := r.Connect(context.Background(), core.ConnectionConfig{Host: t.TempDir(), Database: "absent"})
	assert.ErrorContains(t, err, "failed to open sqlite database")
	assert.False(t, r.IsConnected())
}

func TestReader_Tables(t *testing.T) {
	r := connected(t)

	tables, err := r.Tables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"notes", "users"}, tables)
}

func TestReader_Describe(t *testing.T) {
	r := connected(t)

	table, err := r.Describe(context.Background(), "users")
	require.NoError(t, err)
	assert.Equal(t, int64(2), table.RowCount)
	require.Len(t, table.Columns, 4)
	assert.Equal(t, []string{"id"}, table.PrimaryKey())
	assert.False(t, table.Columns[1].Nullable)
	assert.True(t, table.Columns[2].Nullable)

	def := table.Definition()
	assert.Equal(t, []core.ColumnDefinition{
		{Name: "id", Type: core.Key},
		{Name: "name", Type: core.String},
		{Name: "score", Type: core.Numeric("numeric")},
		{Name: "joined", Type: core.DateTime},
	}, def.Columns)

	_, err = r.Describe(context.Background(), "ghosts")
	assert.ErrorContains(t, err, "table ghosts not found")

	_, err = r.Describe(context.Background(), "users)")
	assert.ErrorContains(t, err, "invalid table")
}

func TestReader_Stream(t *testing.T) {
	r := connected(t)

	var names []any
	err := r.Stream(context.Background(), "users", func(row core.Row) error {
		v, _ := row.Get("name")
		names = append(names, v)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []any{"Alice", "Bob"}, names)
}

func TestReader_ReadOnly(t *testing.T) {
	r := connected(t)

	_, err := r.DB.ExecContext(context.Background(), "DELETE FROM users")
	assert.Error(t, err)
}

func TestRegistered(t *testing.T) {
	assert.True(t, source.IsRegistered("sqlite"))
	assert.True(t, source.IsRegistered("sqlite3"))
}
