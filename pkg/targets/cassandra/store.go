// Package cassandra provides the Cassandra target for leapmigrate.
package cassandra

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/cql"
	"github.com/leapstack-labs/leapmigrate/pkg/target"
)

// Dialect is the CQL dialect of the Cassandra target.
var Dialect = target.Dialect{
	Name:        core.AdapterCassandra,
	KeyType:     "UUID",
	NumericType: "DECIMAL",
	NumericAliases: map[string]string{
		"INTEGER":          "INT",
		"NUMERIC":          "DECIMAL",
		"REAL":             "FLOAT",
		"DOUBLE PRECISION": "DOUBLE",
		"HUGEINT":          "VARINT",
	},
	IsAlreadyExists: isAlreadyExists,
	NewKey:          func() any { return uuid.NewString() },
	Coerce:          coerce,
}

func isAlreadyExists(err error) bool {
	var exists *gocql.RequestErrAlreadyExists
	return errors.As(err, &exists)
}

// Store implements core.Store on a Cassandra keyspace.
type Store struct {
	target.StatementStore
	Params Params
	dial   Dialer
}

// New creates an unconnected Cassandra store.
// If logger is nil, a discard logger is used.
func New(cfg core.ConnectionConfig, logger *slog.Logger) (*Store, error) {
	return NewWithDialer(cfg, logger, Dial)
}

// NewWithDialer creates an unconnected store that opens sessions with dial.
func NewWithDialer(cfg core.ConnectionConfig, logger *slog.Logger, dial Dialer) (*Store, error) {
	if err := cql.CheckIdentifier(cfg.Database); err != nil {
		return nil, &core.ConfigurationError{Adapter: core.AdapterCassandra, Reason: "keyspace: " + err.Error()}
	}
	p, err := ParseParams(cfg.Params)
	if err != nil {
		return nil, &core.ConfigurationError{Adapter: core.AdapterCassandra, Reason: err.Error()}
	}
	return &Store{
		StatementStore: target.NewStatementStore(cfg, Dialect, logger),
		Params:         p,
		dial:           dial,
	}, nil
}

// CreateKeyspaceStatement returns the statement that creates the keyspace
// when it does not exist.
func CreateKeyspaceStatement(keyspace string, replicationFactor int) cql.Statement {
	return cql.Raw(fmt.Sprintf(
		"CREATE KEYSPACE IF NOT EXISTS %s WITH replication = {'class': 'SimpleStrategy', 'replication_factor': %d}",
		keyspace, replicationFactor))
}

// Connect opens a session, creates the keyspace if absent, seeds the
// existence cache from system_schema and binds the session to the keyspace.
func (s *Store) Connect(ctx context.Context) error {
	already, err := s.BeginConnect()
	if err != nil || already {
		return err
	}

	tables, err := s.prepareKeyspace(ctx)
	if err != nil {
		connErr := s.FinishConnect(nil, err)
		var ddlErr *core.DDLError
		if errors.As(err, &ddlErr) {
			return err
		}
		return connErr
	}

	sess, err := s.dial(ctx, s.Cfg, s.Params, s.Cfg.Database)
	if err := s.FinishConnect(sess, err); err != nil {
		return err
	}
	for _, t := range tables {
		s.Remember(t, nil)
	}
	s.Logger.Info("connected to keyspace",
		slog.String("keyspace", s.Cfg.Database),
		slog.Int("existing_tables", len(tables)))
	return nil
}

// prepareKeyspace creates the keyspace and lists its tables using a session
// that is not bound to it.
func (s *Store) prepareKeyspace(ctx context.Context) ([]string, error) {
	sys, err := s.dial(ctx, s.Cfg, s.Params, "")
	if err != nil {
		return nil, err
	}
	defer func() { _ = sys.Close() }()

	stmt := CreateKeyspaceStatement(s.Cfg.Database, s.Params.ReplicationFactor)
	s.Logger.Debug("executing statement", slog.String("statement", stmt.Literal()))
	if err := sys.Exec(ctx, stmt); err != nil && !isAlreadyExists(err) {
		return nil, &core.DDLError{Object: s.Cfg.Database, Statement: stmt.Literal(), Err: err}
	}

	rows, err := sys.Query(ctx, cql.Bind(
		"SELECT table_name FROM system_schema.tables WHERE keyspace_name = ?", s.Cfg.Database))
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	tables := make([]string, 0, len(rows))
	for _, r := range rows {
		if v, ok := r.Get("table_name"); ok {
			tables = append(tables, fmt.Sprint(v))
		}
	}
	return tables, nil
}

// DropDatabase drops the keyspace after confirmation.
func (s *Store) DropDatabase(ctx context.Context, confirm core.Confirmer) error {
	if err := s.Confirmed(ctx, confirm); err != nil {
		return err
	}
	if err := s.Exec(ctx, cql.Raw("DROP KEYSPACE IF EXISTS "+s.Cfg.Database)); err != nil {
		return fmt.Errorf("failed to drop keyspace %s: %w", s.Cfg.Database, err)
	}
	s.MarkDropped()
	s.Logger.Info("keyspace dropped", slog.String("keyspace", s.Cfg.Database))
	return nil
}

var (
	_ core.Store         = (*Store)(nil)
	_ core.OriginIndexer = (*Store)(nil)
)
