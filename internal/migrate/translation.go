// Package migrate drives a migration: it owns the translation file that
// lists the tables to create and runs the row transfer from a relational
// source into a target store.
package migrate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/source"
)

// DefaultKeyColumn is added to tables that have no primary key.
const DefaultKeyColumn = "id"

// Translation lists the table definitions to create in the target.
type Translation struct {
	Tables []core.TableDefinition `yaml:"tables"`
}

// LoadTranslation reads and validates a translation file.
func LoadTranslation(path string) (*Translation, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read translation %s: %w", path, err)
	}
	t, err := ParseTranslation(data)
	if err != nil {
		return nil, fmt.Errorf("invalid translation %s: %w", path, err)
	}
	return t, nil
}

// ParseTranslation decodes and validates translation YAML.
func ParseTranslation(data []byte) (*Translation, error) {
	var t Translation
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate checks every table and rejects duplicate table names.
func (t *Translation) Validate() error {
	seen := make(map[string]bool, len(t.Tables))
	for _, def := range t.Tables {
		if err := def.Validate(); err != nil {
			return err
		}
		if seen[def.Name] {
			return &core.ConfigurationError{Table: def.Name, Reason: "table is declared twice"}
		}
		seen[def.Name] = true
	}
	return nil
}

// Table returns the named table definition.
func (t *Translation) Table(name string) (core.TableDefinition, bool) {
	for _, def := range t.Tables {
		if def.Name == name {
			return def, true
		}
	}
	return core.TableDefinition{}, false
}

// Select returns the named tables in the given order, or every table when
// names is empty.
func (t *Translation) Select(names ...string) ([]core.TableDefinition, error) {
	if len(names) == 0 {
		return t.Tables, nil
	}
	defs := make([]core.TableDefinition, 0, len(names))
	var missing []string
	for _, name := range names {
		def, ok := t.Table(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		defs = append(defs, def)
	}
	if len(missing) > 0 {
		return nil, &core.ConfigurationError{
			Reason: "tables not in translation: " + strings.Join(missing, ", "),
		}
	}
	return defs, nil
}

// Write encodes the translation as YAML.
func (t *Translation) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("failed to encode translation: %w", err)
	}
	return enc.Close()
}

// Save writes the translation file.
func (t *Translation) Save(path string) error {
	var buf bytes.Buffer
	if err := t.Write(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write translation %s: %w", path, err)
	}
	return nil
}

// Generate builds a translation from the tables of a connected source.
// Primary key columns become key columns; a table without a primary key or
// an "id" column gets an "id" key that the target fills in.
func Generate(ctx context.Context, r source.Reader, logger *slog.Logger) (*Translation, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	names, err := r.Tables(ctx)
	if err != nil {
		return nil, err
	}

	t := &Translation{Tables: make([]core.TableDefinition, 0, len(names))}
	for _, name := range names {
		table, err := r.Describe(ctx, name)
		if err != nil {
			return nil, err
		}
		def := table.Definition()
		if len(def.KeyColumns()) == 0 {
			logger.Warn("table has no primary key, adding one",
				slog.String("table", name), slog.String("column", DefaultKeyColumn))
			def.Columns = append([]core.ColumnDefinition{{Name: DefaultKeyColumn, Type: core.Key}}, def.Columns...)
		}
		t.Tables = append(t.Tables, def)
	}
	return t, nil
}
