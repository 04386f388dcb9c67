package target

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/cql"
)

// SQLSession runs statements through database/sql. Used by targets whose
// driver speaks the same statement forms as CQL.
type SQLSession struct {
	DB *sql.DB
}

// Exec executes a statement that doesn't return rows.
func (s *SQLSession) Exec(ctx context.Context, stmt cql.Statement) error {
	if s.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	if _, err := s.DB.ExecContext(ctx, stmt.Text, stmt.Args...); err != nil {
		return fmt.Errorf("failed to execute statement: %w", err)
	}
	return nil
}

// Query executes a statement and scans every row.
func (s *SQLSession) Query(ctx context.Context, stmt cql.Statement) ([]core.Row, error) {
	if s.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	rows, err := s.DB.QueryContext(ctx, stmt.Text, stmt.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return ScanRows(rows)
}

// Close closes the database connection.
func (s *SQLSession) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// ScanRows reads all remaining rows, keeping result column order.
// Byte slices are returned as strings.
func ScanRows(rows *sql.Rows) ([]core.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var out []core.Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(core.Row, len(cols))
		for i, name := range cols {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[i] = core.Field{Name: name, Value: v}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}
