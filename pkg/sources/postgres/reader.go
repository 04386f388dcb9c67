// Package postgres provides a PostgreSQL source reader for leapmigrate.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jackc/pgx/v5/pgtype"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/source"
)

// Reader implements source.Reader for PostgreSQL.
type Reader struct {
	source.BaseSQLReader
}

// New creates a new PostgreSQL reader instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Reader{
		BaseSQLReader: source.BaseSQLReader{
			Logger:        logger,
			DefaultSchema: "public",
			Placeholder:   placeholder,
			Normalize:     normalize,
		},
	}
}

func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

// normalize flattens pgx values that have no natural literal form.
func normalize(v any) any {
	switch t := v.(type) {
	case pgtype.Numeric:
		f, err := t.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case [16]byte:
		// uuid columns scanned into any
		return fmt.Sprintf("%x-%x-%x-%x-%x", t[0:4], t[4:6], t[6:8], t[8:10], t[10:16])
	}
	return v
}

// Connect establishes a connection to PostgreSQL.
func (r *Reader) Connect(ctx context.Context, cfg core.ConnectionConfig) error {
	dsn := buildPostgresDSN(cfg)

	r.Logger.Debug("connecting to postgres", slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	r.DB = db
	r.Cfg = cfg
	return nil
}

// buildPostgresDSN constructs a PostgreSQL connection string.
func buildPostgresDSN(cfg core.ConnectionConfig) string {
	// Build key=value format: host=localhost port=5432 user=postgres ...
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	sslmode := cfg.Option("sslmode", "disable")

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s",
		host, port, cfg.Database, sslmode)

	if cfg.Username != "" {
		dsn += fmt.Sprintf(" user=%s", cfg.Username)
	}
	if cfg.Password != "" {
		dsn += fmt.Sprintf(" password=%s", cfg.Password)
	}

	return dsn
}

// Ensure Reader implements source.Reader interface
var _ source.Reader = (*Reader)(nil)
