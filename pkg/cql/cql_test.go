package cql

import (
	"testing"
	"time"

	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeLiteral(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		value    any
		expected string
	}{
		{"int", 42, "42"},
		{"int64", int64(-7), "-7"},
		{"uint8", uint8(3), "3"},
		{"float", 1.5, "1.5"},
		{"float without fraction", 2.0, "2"},
		{"string", "foo", "'foo'"},
		{"bytes", []byte("bar"), "'bar'"},
		{"timestamp", ts, "'2024-03-01T12:30:00Z'"},
		{"bool", true, "'true'"},
		{"nil", nil, "NULL"},
		{"embedded quote is not escaped", "O'Brien", "'O'Brien'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EncodeLiteral(tt.value))
		})
	}
}

func TestEncodeLiteral_TimestampKeepsOffset(t *testing.T) {
	zone := time.FixedZone("CET", 3600)
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, zone)
	assert.Equal(t, "'2024-03-01T12:30:00+01:00'", EncodeLiteral(ts))
}

func TestBuildPredicate(t *testing.T) {
	tests := []struct {
		name      string
		fields    core.Row
		delimiter string
		expected  string
	}{
		{
			name:      "where clause quotes numbers",
			fields:    core.NewRow("id", 5, "status", "active"),
			delimiter: "AND",
			expected:  "id = '5' AND status = 'active'",
		},
		{
			name:      "assignment list",
			fields:    core.NewRow("name", "Alicia", "age", 30),
			delimiter: ",",
			expected:  "name = 'Alicia', age = '30'",
		},
		{
			name:      "single field",
			fields:    core.NewRow("pre_mongified_id", 7),
			delimiter: "AND",
			expected:  "pre_mongified_id = '7'",
		},
		{
			name:      "padded delimiter is normalised",
			fields:    core.NewRow("a", "x", "b", "y"),
			delimiter: " AND ",
			expected:  "a = 'x' AND b = 'y'",
		},
		{
			name:      "empty",
			fields:    nil,
			delimiter: "AND",
			expected:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BuildPredicate(tt.fields, tt.delimiter))
		})
	}
}

func TestBuildPredicate_FollowsRowOrder(t *testing.T) {
	row := core.NewRow("z", 1, "a", 2, "m", 3)
	assert.Equal(t, "z = '1' AND a = '2' AND m = '3'", BuildPredicate(row, DelimAnd))
}

func TestCreateTable(t *testing.T) {
	stmt := CreateTable("users",
		[]ColumnDecl{{"id", "UUID"}, {"name", "TEXT"}, {"created_at", "TIMESTAMP"}},
		[]string{"id"})

	assert.Equal(t, "CREATE TABLE users (id UUID, name TEXT, created_at TIMESTAMP, PRIMARY KEY(id))", stmt.Text)
	assert.Empty(t, stmt.Args)
	assert.Equal(t, stmt.Text, stmt.Literal())
}

func TestCreateTable_CompositeKey(t *testing.T) {
	stmt := CreateTable("events",
		[]ColumnDecl{{"tenant", "UUID"}, {"id", "UUID"}, {"payload", "BLOB"}},
		[]string{"tenant", "id"})

	assert.Equal(t, "CREATE TABLE events (tenant UUID, id UUID, payload BLOB, PRIMARY KEY(tenant, id))", stmt.Text)
}

func TestInsert(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	stmt := Insert("users", core.NewRow("pre_mongified_id", 7, "name", "Alice", "created_at", ts))

	assert.Equal(t, "INSERT INTO users (pre_mongified_id,name,created_at) VALUES (?,?,?)", stmt.Text)
	assert.Equal(t, []any{7, "Alice", ts}, stmt.Args)
	assert.Equal(t,
		"INSERT INTO users (pre_mongified_id,name,created_at) VALUES (7,'Alice','2024-01-02T03:04:05Z')",
		stmt.Literal())
}

func TestUpdate(t *testing.T) {
	stmt := Update("users",
		core.NewRow("name", "Alicia", "pre_mongified_id", 7),
		core.NewRow("id", "5b1f"))

	assert.Equal(t, "UPDATE users SET name = ?, pre_mongified_id = ? WHERE id = ?", stmt.Text)
	assert.Equal(t, []any{"Alicia", 7, "5b1f"}, stmt.Args)
	assert.Equal(t, "UPDATE users SET name = 'Alicia', pre_mongified_id = '7' WHERE id = '5b1f'", stmt.Literal())
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name    string
		where   core.Row
		limit   int
		text    string
		literal string
	}{
		{
			name:    "by origin id",
			where:   core.NewRow("pre_mongified_id", 7),
			limit:   1,
			text:    "SELECT * FROM users WHERE pre_mongified_id = ? LIMIT 1",
			literal: "SELECT * FROM users WHERE pre_mongified_id = '7' LIMIT 1",
		},
		{
			name:    "all rows",
			text:    "SELECT * FROM users",
			literal: "SELECT * FROM users",
		},
		{
			name:    "two fields",
			where:   core.NewRow("id", 5, "status", "active"),
			text:    "SELECT * FROM users WHERE id = ? AND status = ?",
			literal: "SELECT * FROM users WHERE id = '5' AND status = 'active'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt := Select("users", tt.where, tt.limit)
			assert.Equal(t, tt.text, stmt.Text)
			assert.Equal(t, tt.literal, stmt.Literal())
		})
	}
}

func TestCreateIndex(t *testing.T) {
	stmt := CreateIndex("users_pre_mongified_id_idx", "users", "pre_mongified_id")
	assert.Equal(t, "CREATE INDEX IF NOT EXISTS users_pre_mongified_id_idx ON users (pre_mongified_id)", stmt.Text)
}

func TestBind(t *testing.T) {
	stmt := Bind("SELECT table_name FROM system_schema.tables WHERE keyspace_name = ?", "shop")
	assert.Equal(t, []any{"shop"}, stmt.Args)
	assert.Equal(t, "SELECT table_name FROM system_schema.tables WHERE keyspace_name = 'shop'", stmt.Literal())
}

func TestCheckIdentifier(t *testing.T) {
	for _, ok := range []string{"users", "_tmp", "Order_Items2"} {
		require.NoError(t, CheckIdentifier(ok), ok)
	}
	for _, bad := range []string{"", "1abc", "users; DROP TABLE x", "a-b", "na me"} {
		require.Error(t, CheckIdentifier(bad), bad)
	}
}

func TestCheckRow(t *testing.T) {
	require.NoError(t, CheckRow(core.NewRow("a", 1, "b", 2)))
	require.Error(t, CheckRow(core.NewRow("a", 1, "b)--", 2)))
}

func TestUpdateAndSelect_LiteralUsesBuildPredicate(t *testing.T) {
	set := core.NewRow("name", "O'Brien", "score", 4.5)
	key := core.NewRow("id", "5b1f", "region", "eu")

	update := Update("users", set, key)
	assert.Equal(t,
		"UPDATE users SET "+BuildPredicate(set, DelimAssign)+" WHERE "+BuildPredicate(key, DelimAnd),
		update.Literal())

	sel := Select("users", key, 1)
	assert.Equal(t, "SELECT * FROM users WHERE "+BuildPredicate(key, DelimAnd)+" LIMIT 1", sel.Literal())
}
