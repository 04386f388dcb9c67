package core

import (
	"fmt"
	"strings"
)

// ColumnKind classifies a relational column for translation.
type ColumnKind int

// Column kinds understood by the schema translator.
const (
	KindOther ColumnKind = iota
	KindKey
	KindString
	KindDateTime
	KindNumeric
)

// String returns the translation-file spelling of the kind.
func (k ColumnKind) String() string {
	switch k {
	case KindKey:
		return "key"
	case KindString:
		return "string"
	case KindDateTime:
		return "datetime"
	case KindNumeric:
		return "numeric"
	default:
		return "other"
	}
}

// ColumnType is the type of a column as declared in a translation.
// Raw carries the source type name for Numeric (optional) and Other (required).
type ColumnType struct {
	Kind ColumnKind
	Raw  string
}

// Convenience constructors.
var (
	Key      = ColumnType{Kind: KindKey}
	String   = ColumnType{Kind: KindString}
	DateTime = ColumnType{Kind: KindDateTime}
)

// Numeric returns a numeric column type, optionally carrying its source type name.
func Numeric(raw string) ColumnType {
	return ColumnType{Kind: KindNumeric, Raw: raw}
}

// Other returns a pass-through column type.
func Other(raw string) ColumnType {
	return ColumnType{Kind: KindOther, Raw: raw}
}

// numericNames are source type names parsed as Numeric.
var numericNames = map[string]bool{
	"numeric": true, "integer": true, "int": true, "smallint": true, "bigint": true,
	"tinyint": true, "decimal": true, "float": true, "double": true, "real": true,
	"varint": true, "counter": true, "hugeint": true, "double precision": true,
}

// ParseColumnType parses the translation-file spelling of a column type.
// Unknown names become Other(name).
func ParseColumnType(s string) ColumnType {
	n := strings.ToLower(strings.TrimSpace(s))
	switch n {
	case "key":
		return Key
	case "string", "text", "varchar", "char":
		return String
	case "datetime", "timestamp", "date", "time":
		return DateTime
	}
	if numericNames[n] {
		if n == "numeric" {
			return Numeric("")
		}
		return Numeric(n)
	}
	return Other(s)
}

// String returns the translation-file spelling of the type.
func (t ColumnType) String() string {
	switch t.Kind {
	case KindNumeric:
		if t.Raw != "" {
			return t.Raw
		}
		return "numeric"
	case KindOther:
		return t.Raw
	default:
		return t.Kind.String()
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t ColumnType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *ColumnType) UnmarshalText(b []byte) error {
	*t = ParseColumnType(string(b))
	if t.Kind == KindOther && t.Raw == "" {
		return fmt.Errorf("column type is empty")
	}
	return nil
}

// ColumnDefinition is one column of a TableDefinition.
type ColumnDefinition struct {
	Name string     `yaml:"name"`
	Type ColumnType `yaml:"type"`
}

// TableDefinition describes a source table to be created in the target.
type TableDefinition struct {
	Name    string             `yaml:"name"`
	Columns []ColumnDefinition `yaml:"columns"`
}

// KeyColumns returns the names of Key-typed columns in declaration order.
func (d TableDefinition) KeyColumns() []string {
	var keys []string
	for _, c := range d.Columns {
		if c.Type.Kind == KindKey {
			keys = append(keys, c.Name)
		}
	}
	return keys
}

// Column returns the named column.
func (d TableDefinition) Column(name string) (ColumnDefinition, bool) {
	for _, c := range d.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnDefinition{}, false
}

// Validate checks the definition can be translated.
func (d TableDefinition) Validate() error {
	if d.Name == "" {
		return &ConfigurationError{Missing: []string{"table name"}}
	}
	if len(d.KeyColumns()) == 0 {
		return &ConfigurationError{Table: d.Name, Reason: "table has no key column"}
	}
	for _, c := range d.Columns {
		if c.Name == "" {
			return &ConfigurationError{Table: d.Name, Reason: "column without a name"}
		}
		if c.Type.Kind == KindOther && c.Type.Raw == "" {
			return &ConfigurationError{Table: d.Name, Reason: fmt.Sprintf("column %s has no type", c.Name)}
		}
	}
	return nil
}

// WithOriginID returns a copy of d that also declares the origin id column,
// unless d already has one.
func (d TableDefinition) WithOriginID(t ColumnType) TableDefinition {
	if _, ok := d.Column(OriginIDField); ok {
		return d
	}
	out := TableDefinition{Name: d.Name, Columns: make([]ColumnDefinition, 0, len(d.Columns)+1)}
	out.Columns = append(out.Columns, d.Columns...)
	out.Columns = append(out.Columns, ColumnDefinition{Name: OriginIDField, Type: t})
	return out
}
