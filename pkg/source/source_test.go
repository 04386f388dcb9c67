package source

import (
	"context"
	"log/slog"
	"testing"

	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnTypeFor(t *testing.T) {
	tests := []struct {
		input    string
		expected core.ColumnType
	}{
		{"VARCHAR", core.String},
		{"character varying", core.String},
		{"varchar(255)", core.String},
		{"text", core.String},
		{"uuid", core.String},
		{"jsonb", core.String},
		{"", core.String},
		{"timestamp with time zone", core.DateTime},
		{"TIMESTAMP", core.DateTime},
		{"date", core.DateTime},
		{"time without time zone", core.DateTime},
		{"INTEGER", core.Numeric("integer")},
		{"bigint", core.Numeric("bigint")},
		{"int8", core.Numeric("bigint")},
		{"serial", core.Numeric("integer")},
		{"numeric(10,2)", core.Numeric("numeric")},
		{"DOUBLE", core.Numeric("double")},
		{"float8", core.Numeric("double precision")},
		{"UBIGINT", core.Numeric("hugeint")},
		{"bytea", core.Other("blob")},
		{"bool", core.Other("boolean")},
		{"BOOLEAN", core.Other("BOOLEAN")},
		{"inet", core.Other("inet")},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ColumnTypeFor(tt.input))
		})
	}
}

func TestTable_PrimaryKey(t *testing.T) {
	tests := []struct {
		name     string
		columns  []Column
		expected []string
	}{
		{
			name:     "declared composite key",
			columns:  []Column{{Name: "tenant", PrimaryKey: true}, {Name: "id", PrimaryKey: true}, {Name: "x"}},
			expected: []string{"tenant", "id"},
		},
		{
			name:     "falls back to id",
			columns:  []Column{{Name: "name"}, {Name: "ID"}},
			expected: []string{"ID"},
		},
		{
			name:    "no key",
			columns: []Column{{Name: "name"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := &Table{Name: "t", Columns: tt.columns}
			assert.Equal(t, tt.expected, table.PrimaryKey())
		})
	}
}

func TestTable_Definition(t *testing.T) {
	table := &Table{
		Name: "users",
		Columns: []Column{
			{Name: "id", Type: "integer", PrimaryKey: true},
			{Name: "name", Type: "character varying"},
			{Name: "created_at", Type: "timestamp without time zone"},
			{Name: "score", Type: "numeric"},
		},
	}

	def := table.Definition()
	assert.Equal(t, core.TableDefinition{
		Name: "users",
		Columns: []core.ColumnDefinition{
			{Name: "id", Type: core.Key},
			{Name: "name", Type: core.String},
			{Name: "created_at", Type: core.DateTime},
			{Name: "score", Type: core.Numeric("numeric")},
		},
	}, def)
	assert.NoError(t, def.Validate())
}

type nopReader struct{}

func (nopReader) Connect(context.Context, core.ConnectionConfig) error { return nil }
func (nopReader) Close() error                                        { return nil }
func (nopReader) Tables(context.Context) ([]string, error)            { return nil, nil }
func (nopReader) Describe(context.Context, string) (*Table, error)    { return nil, nil }
func (nopReader) Stream(context.Context, string, func(core.Row) error) error {
	return nil
}

func TestRegistry(t *testing.T) {
	Register("test_reader", func(*slog.Logger) Reader { return nopReader{} })

	assert.True(t, IsRegistered("test_reader"))
	assert.True(t, IsRegistered(" TEST_READER "))
	assert.Contains(t, ListAdapters(), "test_reader")

	r, err := NewReader(core.ConnectionConfig{Adapter: "test_reader"}, nil)
	require.NoError(t, err)
	assert.NotNil(t, r)
}

func TestNewReader_EmptyAdapter(t *testing.T) {
	_, err := NewReader(core.ConnectionConfig{}, nil)
	require.Error(t, err)
	assert.Equal(t, "source adapter not specified", err.Error())
}

func TestNewReader_UnknownAdapter(t *testing.T) {
	_, err := NewReader(core.ConnectionConfig{Adapter: "oracle"}, nil)

	var unknownErr *UnknownAdapterError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "oracle", unknownErr.Type)
	assert.Contains(t, err.Error(), "sql_connection.adapter")
	assert.Contains(t, err.Error(), "leapmigrate.yaml")
}
