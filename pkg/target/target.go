// Package target provides the store connection contract shared by every
// non-relational target of leapmigrate, the adapter registry, and the
// statement-based store implementation used by CQL-speaking targets.
//
// Concrete targets live in pkg/targets/ subdirectories and register
// themselves in init(). Import them with a blank identifier.
package target

import (
	"context"
	"strings"

	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/cql"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Session executes statements against a connected store.
type Session interface {
	// Exec executes a statement that returns no rows.
	Exec(ctx context.Context, stmt cql.Statement) error

	// Query executes a statement and returns every row, columns in result order.
	Query(ctx context.Context, stmt cql.Statement) ([]core.Row, error)

	// Close releases the session.
	Close() error
}

// Dialect captures the per-store differences of statement-based targets.
type Dialect struct {
	// Name is the canonical adapter name.
	Name string

	// KeyType is the column type of Key columns.
	KeyType string

	// NumericType is used for Numeric columns without a source type name.
	NumericType string

	// NumericAliases renames source numeric type names the store lacks
	// (upper-case keys and values).
	NumericAliases map[string]string

	// IsAlreadyExists reports whether a DDL error means the object exists.
	IsAlreadyExists func(err error) bool

	// NewKey returns a fresh target identifier for a Key column.
	NewKey func() any

	// Coerce converts a non-nil value bound to a column of the given store
	// type (as returned by TargetType) into a value the driver can encode.
	// Nil binds values as read from the source.
	Coerce func(columnType string, v any) (any, error)
}

var upper = cases.Upper(language.Und)

// TargetType maps a column type to the store's column type.
//
//	Key          -> KeyType (primary key)
//	DateTime     -> TIMESTAMP
//	String       -> TEXT
//	Numeric(raw) -> RAW, or NumericType when raw is empty
//	Other(raw)   -> RAW
func (d Dialect) TargetType(t core.ColumnType) string {
	switch t.Kind {
	case core.KindKey:
		return d.KeyType
	case core.KindDateTime:
		return "TIMESTAMP"
	case core.KindString:
		return "TEXT"
	case core.KindNumeric:
		if strings.TrimSpace(t.Raw) == "" {
			return d.NumericType
		}
		name := upper.String(strings.TrimSpace(t.Raw))
		if alias, ok := d.NumericAliases[name]; ok {
			return alias
		}
		return name
	default:
		return upper.String(strings.TrimSpace(t.Raw))
	}
}

// CreateTableStatement translates a table definition into one CREATE TABLE
// statement with a composite primary key over its Key columns.
func (d Dialect) CreateTableStatement(def core.TableDefinition) (cql.Statement, error) {
	if err := def.Validate(); err != nil {
		return cql.Statement{}, err
	}
	if err := cql.CheckIdentifier(def.Name); err != nil {
		return cql.Statement{}, &core.ConfigurationError{Table: def.Name, Reason: err.Error()}
	}

	cols := make([]cql.ColumnDecl, len(def.Columns))
	for i, c := range def.Columns {
		if err := cql.CheckIdentifier(c.Name); err != nil {
			return cql.Statement{}, &core.ConfigurationError{Table: def.Name, Reason: err.Error()}
		}
		cols[i] = cql.ColumnDecl{Name: c.Name, Type: d.TargetType(c.Type)}
	}
	return cql.CreateTable(def.Name, cols, def.KeyColumns()), nil
}

// OriginIndexName names the secondary index over the origin id column.
func OriginIndexName(table string) string {
	return table + "_" + core.OriginIDField + "_idx"
}
