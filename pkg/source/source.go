// Package source provides the relational reader contract of leapmigrate:
// listing tables, describing their columns and primary keys, and streaming
// their rows.
//
// Concrete readers are in pkg/sources/ subdirectories and register
// themselves in init(). Import them with a blank identifier.
package source

import (
	"context"
	"strings"

	"github.com/leapstack-labs/leapmigrate/pkg/core"
)

// Reader reads structure and rows from a relational database.
type Reader interface {
	// Connect establishes a connection using the provided config.
	Connect(ctx context.Context, cfg core.ConnectionConfig) error

	// Close closes the connection and releases resources.
	Close() error

	// Tables lists the base tables of the configured schema, sorted by name.
	Tables(ctx context.Context) ([]string, error)

	// Describe returns the columns and primary key of a table.
	Describe(ctx context.Context, table string) (*Table, error)

	// Stream calls fn for every row of table, in result column order.
	// It stops at the first error fn returns.
	Stream(ctx context.Context, table string, fn func(core.Row) error) error
}

// Column describes one source column.
type Column struct {
	Name       string
	Type       string
	Nullable   bool
	Position   int
	PrimaryKey bool
}

// Table describes one source table.
type Table struct {
	Schema   string
	Name     string
	Columns  []Column
	RowCount int64
}

// PrimaryKey returns the primary key column names in column order.
// A table without a declared key falls back to an "id" column.
func (t *Table) PrimaryKey() []string {
	var keys []string
	for _, c := range t.Columns {
		if c.PrimaryKey {
			keys = append(keys, c.Name)
		}
	}
	if len(keys) > 0 {
		return keys
	}
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, "id") {
			return []string{c.Name}
		}
	}
	return nil
}

// Definition translates the table into a target table definition. Primary
// key columns become Key columns; every other type goes through
// ColumnTypeFor.
func (t *Table) Definition() core.TableDefinition {
	keys := make(map[string]bool)
	for _, k := range t.PrimaryKey() {
		keys[k] = true
	}

	def := core.TableDefinition{Name: t.Name, Columns: make([]core.ColumnDefinition, 0, len(t.Columns))}
	for _, c := range t.Columns {
		ct := ColumnTypeFor(c.Type)
		if keys[c.Name] {
			ct = core.Key
		}
		def.Columns = append(def.Columns, core.ColumnDefinition{Name: c.Name, Type: ct})
	}
	return def
}

// ColumnTypeFor classifies a relational type name.
//
//	char, varchar, text, uuid, json...   -> String
//	date, time, timestamp...             -> DateTime
//	int, bigint, numeric, real, double.. -> Numeric(lower(name))
//	anything else                        -> Other(name)
func ColumnTypeFor(sqlType string) core.ColumnType {
	name := strings.ToLower(strings.TrimSpace(sqlType))
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = strings.TrimSpace(name[:i])
	}

	switch {
	case name == "":
		return core.String
	case strings.Contains(name, "char"), strings.Contains(name, "text"),
		name == "string", name == "uuid", name == "json", name == "jsonb", name == "clob":
		return core.String
	case strings.HasPrefix(name, "timestamp"), strings.HasPrefix(name, "date"), strings.HasPrefix(name, "time"):
		return core.DateTime
	}

	if alias, ok := numericAliases[name]; ok {
		name = alias
	}
	switch name {
	case "smallint", "integer", "int", "bigint", "tinyint", "hugeint",
		"numeric", "decimal", "real", "float", "double", "double precision":
		return core.Numeric(name)
	case "bytea", "blob", "varbinary":
		return core.Other("blob")
	case "bool":
		return core.Other("boolean")
	}
	return core.Other(sqlType)
}

// numericAliases folds driver-specific spellings into standard names.
// Unsigned types widen to the next signed type.
var numericAliases = map[string]string{
	"int2":        "smallint",
	"int4":        "integer",
	"int8":        "bigint",
	"float4":      "real",
	"float8":      "double precision",
	"smallserial": "smallint",
	"serial":      "integer",
	"bigserial":   "bigint",
	"utinyint":    "smallint",
	"usmallint":   "integer",
	"uinteger":    "bigint",
	"ubigint":     "hugeint",
}
