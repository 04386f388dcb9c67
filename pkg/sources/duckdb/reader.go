// Package duckdb provides a DuckDB source reader for leapmigrate.
//
// Host names the directory holding the database file and Database names the
// file; a host of ":memory:" opens an empty in-memory database, which is
// mostly useful together with extensions that attach remote data.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math/big"
	"path/filepath"

	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/source"
	"github.com/marcboeker/go-duckdb"
)

// MemoryHost selects an in-memory database.
const MemoryHost = ":memory:"

// Reader implements source.Reader for DuckDB.
type Reader struct {
	source.BaseSQLReader
}

// New creates a new DuckDB reader instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Reader{
		BaseSQLReader: source.BaseSQLReader{
			Logger:        logger,
			DefaultSchema: "main",
			Normalize:     normalize,
		},
	}
}

// normalize flattens DuckDB-specific values into plain Go values.
func normalize(v any) any {
	switch t := v.(type) {
	case duckdb.Decimal:
		return t.Float64()
	case *big.Int:
		if t.IsInt64() {
			return t.Int64()
		}
		return t.String()
	case duckdb.Interval:
		return fmt.Sprintf("%d months %d days %d micros", t.Months, t.Days, t.Micros)
	}
	return v
}

// path returns the database path handed to the driver. The empty string is
// DuckDB's in-memory database.
func path(cfg core.ConnectionConfig) string {
	if cfg.Host == MemoryHost || cfg.Database == "" {
		return ""
	}
	return filepath.Join(cfg.Host, cfg.Database)
}

// Connect opens the DuckDB database, then applies extensions, settings and
// secrets from the params.
func (r *Reader) Connect(ctx context.Context, cfg core.ConnectionConfig) error {
	params, err := parseParams(cfg.Params)
	if err != nil {
		return err
	}

	r.Logger.Debug("connecting to duckdb", slog.String("path", path(cfg)))

	db, err := sql.Open("duckdb", path(cfg))
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	// Settings and secrets are session scoped.
	db.SetMaxOpenConns(1)

	if err := applyParams(ctx, db, params); err != nil {
		_ = db.Close()
		return err
	}

	r.DB = db
	r.Cfg = cfg
	return nil
}

func applyParams(ctx context.Context, db *sql.DB, p *Params) error {
	for _, ext := range p.Extensions {
		for _, stmt := range []string{"INSTALL " + ext, "LOAD " + ext} {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to load extension %s: %w", ext, err)
			}
		}
	}
	for name, value := range p.Settings {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("SET %s = '%s'", name, value)); err != nil {
			return fmt.Errorf("failed to apply setting %s: %w", name, err)
		}
	}
	for _, secret := range p.Secrets {
		if _, err := db.ExecContext(ctx, buildCreateSecretSQL(secret)); err != nil {
			return fmt.Errorf("failed to create %s secret: %w", secret.Type, err)
		}
	}
	return nil
}

// Ensure Reader implements source.Reader interface
var _ source.Reader = (*Reader)(nil)
