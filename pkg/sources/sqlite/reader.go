// Package sqlite provides a SQLite source reader for leapmigrate.
//
// Host names the directory holding the database file and Database names the
// file (".db" is appended when it has no extension). The file must exist.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/cql"
	"github.com/leapstack-labs/leapmigrate/pkg/source"

	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

// Reader implements source.Reader for SQLite. SQLite has no
// information_schema, so Tables and Describe read sqlite_master and
// PRAGMA table_info instead.
type Reader struct {
	source.BaseSQLReader
}

// New creates a new SQLite reader instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Reader{BaseSQLReader: source.BaseSQLReader{Logger: logger}}
}

// Path returns the database file path for cfg.
func Path(cfg core.ConnectionConfig) string {
	name := cfg.Database
	if filepath.Ext(name) == "" {
		name += ".db"
	}
	return filepath.Join(cfg.Host, name)
}

// Connect opens the database file read-only.
func (r *Reader) Connect(ctx context.Context, cfg core.ConnectionConfig) error {
	path := Path(cfg)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}

	r.Logger.Debug("connecting to sqlite", slog.String("path", path))

	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	r.DB = db
	r.Cfg = cfg
	return nil
}

// Tables lists the user tables of the database.
func (r *Reader) Tables(ctx context.Context) ([]string, error) {
	if r.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	rows, err := r.DB.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
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

// Describe reads the columns and primary key of table.
func (r *Reader) Describe(ctx context.Context, table string) (*source.Table, error) {
	if r.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	if err := cql.CheckIdentifier(table); err != nil {
		return nil, fmt.Errorf("invalid table %s: %w", table, err)
	}

	rows, err := r.DB.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []source.Column
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, typ        string
			dflt             any
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		columns = append(columns, source.Column{
			Name:       name,
			Type:       typ,
			Nullable:   notNull == 0,
			Position:   cid + 1,
			PrimaryKey: pk > 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}

	var count int64
	//nolint:gosec // Identifier is validated above
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
		count = 0
	}

	return &source.Table{Name: table, Columns: columns, RowCount: count}, nil
}

// Ensure Reader implements source.Reader interface
var _ source.Reader = (*Reader)(nil)
