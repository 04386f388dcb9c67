package source

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dollar(n int) string {
	return "$" + string(rune('0'+n))
}

func TestBaseSQLReader_Close(t *testing.T) {
	tests := []struct {
		name    string
		setupDB bool
	}{
		{name: "close with nil DB", setupDB: false},
		{name: "close with open DB", setupDB: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := &BaseSQLReader{}

			if tt.setupDB {
				db, mock, err := sqlmock.New()
				require.NoError(t, err)
				mock.ExpectClose()
				base.DB = db
			}

			assert.NoError(t, base.Close())
		})
	}
}

func TestBaseSQLReader_NotConnected(t *testing.T) {
	base := &BaseSQLReader{}
	ctx := context.Background()

	assert.False(t, base.IsConnected())

	_, err := base.Tables(ctx)
	assert.ErrorContains(t, err, "database connection not established")

	_, err = base.Describe(ctx, "users")
	assert.ErrorContains(t, err, "database connection not established")

	err = base.Stream(ctx, "users", func(core.Row) error { return nil })
	assert.ErrorContains(t, err, "database connection not established")
}

func TestBaseSQLReader_ParseQualifiedName(t *testing.T) {
	base := &BaseSQLReader{DefaultSchema: "public"}

	schema, name := base.ParseQualifiedName("users")
	assert.Equal(t, "public", schema)
	assert.Equal(t, "users", name)

	schema, name = base.ParseQualifiedName("sales.orders")
	assert.Equal(t, "sales", schema)
	assert.Equal(t, "orders", name)
}

func TestBaseSQLReader_Tables(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	base := &BaseSQLReader{DB: db, DefaultSchema: "public", Placeholder: dollar}
	mock.ExpectQuery(`FROM information_schema.tables\s+WHERE table_schema = \$1`).
		WithArgs("public").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("orders").AddRow("users"))

	tables, err := base.Tables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "users"}, tables)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBaseSQLReader_Describe(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	base := &BaseSQLReader{DB: db, DefaultSchema: "main"}

	mock.ExpectQuery(`FROM information_schema.columns`).
		WithArgs("main", "users").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable", "ordinal_position"}).
			AddRow("id", "INTEGER", "NO", 1).
			AddRow("name", "VARCHAR", "YES", 2).
			AddRow("created_at", "TIMESTAMP", "YES", 3))
	mock.ExpectQuery(`constraint_type = 'PRIMARY KEY'`).
		WithArgs("main", "users").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}).AddRow("id"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM main.users")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(42)))

	table, err := base.Describe(context.Background(), "users")
	require.NoError(t, err)

	assert.Equal(t, "main", table.Schema)
	assert.Equal(t, "users", table.Name)
	assert.Equal(t, int64(42), table.RowCount)
	require.Len(t, table.Columns, 3)
	assert.True(t, table.Columns[0].PrimaryKey)
	assert.False(t, table.Columns[0].Nullable)
	assert.True(t, table.Columns[1].Nullable)
	assert.Equal(t, []string{"id"}, table.PrimaryKey())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBaseSQLReader_DescribeMissingTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	base := &BaseSQLReader{DB: db, DefaultSchema: "main"}
	mock.ExpectQuery(`FROM information_schema.columns`).
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable", "ordinal_position"}))

	_, err = base.Describe(context.Background(), "ghosts")
	assert.ErrorContains(t, err, "table ghosts not found")
}

func TestBaseSQLReader_Stream(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	base := &BaseSQLReader{
		DB:            db,
		DefaultSchema: "public",
		Normalize: func(v any) any {
			if s, ok := v.(string); ok && s == "shout" {
				return "SHOUT"
			}
			return v
		},
	}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM public.users")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(1), []byte("Alice")).
			AddRow(int64(2), "shout"))

	var got []core.Row
	err = base.Stream(context.Background(), "users", func(r core.Row) error {
		got = append(got, r)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, core.NewRow("id", int64(1), "name", "Alice"), got[0])
	assert.Equal(t, core.NewRow("id", int64(2), "name", "SHOUT"), got[1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBaseSQLReader_StreamStopsOnCallbackError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	base := &BaseSQLReader{DB: db}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM users")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))

	stop := errors.New("stop")
	calls := 0
	err = base.Stream(context.Background(), "users", func(core.Row) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestBaseSQLReader_StreamRejectsBadIdentifiers(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	base := &BaseSQLReader{DB: db}
	err = base.Stream(context.Background(), "users; DROP TABLE x", func(core.Row) error { return nil })
	assert.ErrorContains(t, err, "invalid table")
}
