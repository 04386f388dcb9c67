package source

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/cql"
)

// BaseSQLReader provides common database/sql functionality for readers.
// Embed this struct in concrete reader implementations to get standard
// Close, Tables, Describe and Stream implementations over
// information_schema.
type BaseSQLReader struct {
	DB     *sql.DB
	Cfg    core.ConnectionConfig
	Logger *slog.Logger

	// DefaultSchema is used for unqualified table names.
	DefaultSchema string

	// Placeholder formats the n-th (1-based) bind placeholder.
	Placeholder func(n int) string

	// Normalize converts driver values before they reach a Row.
	// Byte slices are always converted to strings first.
	Normalize func(v any) any
}

// Close closes the database connection.
func (b *BaseSQLReader) Close() error {
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing database connection")
		}
		return b.DB.Close()
	}
	return nil
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLReader) IsConnected() bool {
	return b.DB != nil
}

func (b *BaseSQLReader) placeholder(n int) string {
	if b.Placeholder == nil {
		return "?"
	}
	return b.Placeholder(n)
}

// ParseQualifiedName splits a table reference into schema and name.
// Uses the reader's default schema if not specified.
func (b *BaseSQLReader) ParseQualifiedName(table string) (schema, name string) {
	if parts := strings.Split(table, "."); len(parts) == 2 {
		return parts[0], parts[1]
	}
	return b.DefaultSchema, table
}

// Tables lists the base tables of the default schema.
func (b *BaseSQLReader) Tables(ctx context.Context) ([]string, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	//nolint:gosec // Placeholders are safe - they come from the reader
	query := fmt.Sprintf(`
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = %s AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`, b.placeholder(1))

	rows, err := b.DB.QueryContext(ctx, query, b.DefaultSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}
	return names, nil
}

// Describe retrieves columns, primary key and row count of a table.
func (b *BaseSQLReader) Describe(ctx context.Context, table string) (*Table, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	schema, tableName := b.ParseQualifiedName(table)

	//nolint:gosec // Placeholders are safe - they come from the reader
	query := fmt.Sprintf(`
		SELECT
			column_name,
			data_type,
			is_nullable,
			ordinal_position
		FROM information_schema.columns
		WHERE table_schema = %s AND table_name = %s
		ORDER BY ordinal_position
	`, b.placeholder(1), b.placeholder(2))

	rows, err := b.DB.QueryContext(ctx, query, schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []Column
	for rows.Next() {
		var col Column
		var nullable string
		if err := rows.Scan(&col.Name, &col.Type, &nullable, &col.Position); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Nullable = nullable == "YES"
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}

	keys, err := b.primaryKey(ctx, schema, tableName)
	if err != nil {
		return nil, err
	}
	for i := range columns {
		columns[i].PrimaryKey = keys[columns[i].Name]
	}

	return &Table{
		Schema:   schema,
		Name:     tableName,
		Columns:  columns,
		RowCount: b.rowCount(ctx, schema, tableName),
	}, nil
}

func (b *BaseSQLReader) primaryKey(ctx context.Context, schema, table string) (map[string]bool, error) {
	//nolint:gosec // Placeholders are safe - they come from the reader
	query := fmt.Sprintf(`
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
			AND tc.table_name = kcu.table_name
		WHERE tc.constraint_type = 'PRIMARY KEY'
			AND tc.table_schema = %s AND tc.table_name = %s
		ORDER BY kcu.ordinal_position
	`, b.placeholder(1), b.placeholder(2))

	rows, err := b.DB.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query primary key: %w", err)
	}
	defer func() { _ = rows.Close() }()

	keys := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan primary key: %w", err)
		}
		keys[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating primary key: %w", err)
	}
	return keys, nil
}

func (b *BaseSQLReader) rowCount(ctx context.Context, schema, table string) int64 {
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", qualified(schema, table)) //nolint:gosec // Table names are from metadata
	var n int64
	if err := b.DB.QueryRowContext(ctx, countQuery).Scan(&n); err != nil {
		// Non-fatal error, just report 0
		return 0
	}
	return n
}

func qualified(schema, table string) string {
	if schema == "" {
		return table
	}
	return schema + "." + table
}

// Stream calls fn for every row of table.
func (b *BaseSQLReader) Stream(ctx context.Context, table string, fn func(core.Row) error) error {
	if b.DB == nil {
		return fmt.Errorf("database connection not established")
	}

	schema, tableName := b.ParseQualifiedName(table)
	for _, ident := range []string{schema, tableName} {
		if ident == "" {
			continue
		}
		if err := cql.CheckIdentifier(ident); err != nil {
			return fmt.Errorf("invalid table %s: %w", table, err)
		}
	}

	query := "SELECT * FROM " + qualified(schema, tableName) //nolint:gosec // Identifiers are validated above
	if b.Logger != nil {
		b.Logger.Debug("streaming rows", slog.String("table", table))
	}

	rows, err := b.DB.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("failed to read columns: %w", err)
	}

	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("failed to scan row of %s: %w", table, err)
		}
		row := make(core.Row, len(cols))
		for i, name := range cols {
			row[i] = core.Field{Name: name, Value: b.normalize(values[i])}
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating rows of %s: %w", table, err)
	}
	return nil
}

func (b *BaseSQLReader) normalize(v any) any {
	if bs, ok := v.([]byte); ok {
		v = string(bs)
	}
	if b.Normalize != nil {
		return b.Normalize(v)
	}
	return v
}
