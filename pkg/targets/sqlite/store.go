// Package sqlite provides a local SQLite target for leapmigrate.
//
// It speaks the same statements as the Cassandra target, so it doubles as an
// embedded target for dry runs and tests. Host names the directory holding the
// database file and Database names the file; a host of ":memory:" keeps the
// store in memory.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/cql"
	"github.com/leapstack-labs/leapmigrate/pkg/target"

	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

// MemoryHost selects an in-memory database.
const MemoryHost = ":memory:"

// Dialect is the statement dialect of the SQLite target.
var Dialect = target.Dialect{
	Name:            core.AdapterSQLite,
	KeyType:         "TEXT",
	NumericType:     "NUMERIC",
	IsAlreadyExists: isAlreadyExists,
	NewKey:          func() any { return uuid.NewString() },
}

func isAlreadyExists(err error) bool {
	return err != nil && strings.Contains(err.Error(), "already exists")
}

// Store implements core.Store on a SQLite database file.
type Store struct {
	target.StatementStore

	openSession func(ctx context.Context) (target.Session, error)
}

// New creates an unconnected SQLite store.
// If logger is nil, a discard logger is used.
func New(cfg core.ConnectionConfig, logger *slog.Logger) *Store {
	s := &Store{StatementStore: target.NewStatementStore(cfg, Dialect, logger)}
	s.openSession = s.open
	return s
}

// Path returns the database file path, or ":memory:".
func (s *Store) Path() string {
	if s.Cfg.Host == MemoryHost {
		return MemoryHost
	}
	name := s.Cfg.Database
	if filepath.Ext(name) == "" {
		name += ".db"
	}
	return filepath.Join(s.Cfg.Host, name)
}

// Connect opens the database file, creating its directory if needed, and
// seeds the existence cache from sqlite_master.
func (s *Store) Connect(ctx context.Context) error {
	already, err := s.BeginConnect()
	if err != nil || already {
		return err
	}
	sess, err := s.openSession(ctx)
	if err := s.FinishConnect(sess, err); err != nil {
		return err
	}
	if err := s.seed(ctx); err != nil {
		_ = s.Close()
		return &core.ConnectionError{Adapter: core.AdapterSQLite, Target: s.Cfg.ConnectionString(), Err: err}
	}
	return nil
}

func (s *Store) open(ctx context.Context) (target.Session, error) {
	path := s.Path()
	if path != MemoryHost {
		if err := os.MkdirAll(s.Cfg.Host, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// A single connection keeps an in-memory database alive and ordered.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	return &target.SQLSession{DB: db}, nil
}

func (s *Store) seed(ctx context.Context) error {
	names, err := s.tableNames(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		s.Remember(name, nil)
	}
	return nil
}

func (s *Store) tableNames(ctx context.Context) ([]string, error) {
	rows, err := s.Query(ctx, cql.Raw(
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name"))
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		if v, ok := r.Get("name"); ok {
			names = append(names, fmt.Sprint(v))
		}
	}
	return names, nil
}

// DropDatabase drops every table after confirmation. The database file is
// removed when the store is file-backed.
func (s *Store) DropDatabase(ctx context.Context, confirm core.Confirmer) error {
	if err := s.Confirmed(ctx, confirm); err != nil {
		return err
	}

	names, err := s.tableNames(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := s.Exec(ctx, cql.Raw("DROP TABLE IF EXISTS "+name)); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", name, err)
		}
	}

	s.MarkDropped()
	s.Logger.Info("database dropped", slog.String("database", s.Cfg.Database))

	path := s.Path()
	if path == MemoryHost {
		return nil
	}
	if err := s.Close(); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove database file: %w", err)
	}
	return nil
}

var (
	_ core.Store         = (*Store)(nil)
	_ core.OriginIndexer = (*Store)(nil)
)
