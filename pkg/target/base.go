package target

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/cql"
)

// StatementStore provides the common core.Store behaviour of statement-based
// targets. Embed it in concrete stores, which add Connect and DropDatabase.
//
// The existence cache maps table names to their key columns (nil when the
// table was discovered but never ensured this run). It only grows, and it is
// owned by this instance: parallel runs rely on the store's own "already
// exists" handling instead.
type StatementStore struct {
	Session Session
	Dialect Dialect
	Cfg     core.ConnectionConfig
	Logger  *slog.Logger

	state   core.State
	tables  map[string][]string
	columns map[string]map[string]string
}

// NewStatementStore creates an unconnected statement store.
// If logger is nil, a discard logger is used.
func NewStatementStore(cfg core.ConnectionConfig, d Dialect, logger *slog.Logger) StatementStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return StatementStore{
		Dialect: d,
		Cfg:     cfg,
		Logger:  logger,
		tables:  make(map[string][]string),
		columns: make(map[string]map[string]string),
	}
}

// State returns the lifecycle state.
func (s *StatementStore) State() core.State {
	return s.state
}

// HasConnection reports whether the store is connected. It never connects.
func (s *StatementStore) HasConnection() bool {
	return s.state == core.StateConnected && s.Session != nil
}

// BeginConnect moves the store to Connecting. It reports true when the store
// is already connected and nothing needs to be done.
func (s *StatementStore) BeginConnect() (bool, error) {
	switch s.state {
	case core.StateConnected:
		return true, nil
	case core.StateDropped:
		return false, core.ErrStoreDropped
	}
	s.state = core.StateConnecting
	return false, nil
}

// FinishConnect completes a connection attempt started by BeginConnect.
func (s *StatementStore) FinishConnect(sess Session, err error) error {
	if err != nil {
		s.state = core.StateNotConnected
		return &core.ConnectionError{Adapter: s.Dialect.Name, Target: s.Cfg.ConnectionString(), Err: err}
	}
	s.Session = sess
	s.state = core.StateConnected
	s.Logger.Debug("connected", slog.String("target", s.Cfg.ConnectionString()), slog.String("database", s.Cfg.Database))
	return nil
}

// MarkDropped moves the store to the terminal Dropped state.
func (s *StatementStore) MarkDropped() {
	s.state = core.StateDropped
}

// Remember records a table as existing. Key columns are kept when known.
func (s *StatementStore) Remember(table string, keys []string) {
	if existing, ok := s.tables[table]; ok && len(existing) > 0 {
		return
	}
	s.tables[table] = keys
}

// Known reports whether the table is in the existence cache.
func (s *StatementStore) Known(table string) bool {
	_, ok := s.tables[table]
	return ok
}

func (s *StatementStore) ready() error {
	switch s.state {
	case core.StateConnected:
		return nil
	case core.StateDropped:
		return core.ErrStoreDropped
	default:
		return core.ErrNotConnected
	}
}

// Exec runs a statement, logging its literal rendering.
func (s *StatementStore) Exec(ctx context.Context, stmt cql.Statement) error {
	if err := s.ready(); err != nil {
		return err
	}
	s.Logger.Debug("executing statement", slog.String("statement", stmt.Literal()))
	return s.Session.Exec(ctx, stmt)
}

// Query runs a statement that returns rows.
func (s *StatementStore) Query(ctx context.Context, stmt cql.Statement) ([]core.Row, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	s.Logger.Debug("executing query", slog.String("statement", stmt.Literal()))
	return s.Session.Query(ctx, stmt)
}

// EnsureTable creates the table unless it is already in the existence cache.
// An "already exists" failure counts as success; any other failure is a
// *core.DDLError.
func (s *StatementStore) EnsureTable(ctx context.Context, def core.TableDefinition) error {
	if err := s.ready(); err != nil {
		return err
	}
	if s.Known(def.Name) {
		s.Remember(def.Name, def.KeyColumns())
		s.rememberColumns(def)
		return nil
	}

	stmt, err := s.Dialect.CreateTableStatement(def)
	if err != nil {
		return err
	}

	if err := s.Exec(ctx, stmt); err != nil {
		if !s.Dialect.IsAlreadyExists(err) {
			return &core.DDLError{Object: def.Name, Statement: stmt.Literal(), Err: err}
		}
		s.Logger.Debug("table already exists", slog.String("table", def.Name))
	}

	s.Remember(def.Name, def.KeyColumns())
	s.rememberColumns(def)
	return nil
}

// rememberColumns records the store type of every column of def, so bound
// values can be coerced to what the driver accepts for that type.
func (s *StatementStore) rememberColumns(def core.TableDefinition) {
	cols := make(map[string]string, len(def.Columns))
	for _, c := range def.Columns {
		cols[c.Name] = s.Dialect.TargetType(c.Type)
	}
	s.columns[def.Name] = cols
}

// ColumnType returns the store type recorded for a column by EnsureTable.
func (s *StatementStore) ColumnType(table, column string) (string, bool) {
	t, ok := s.columns[table][column]
	return t, ok
}

// coerce converts every value of row whose column type is known with the
// dialect's Coerce. The row is returned unchanged when there is nothing to do.
func (s *StatementStore) coerce(table string, row core.Row) (core.Row, error) {
	cols := s.columns[table]
	if s.Dialect.Coerce == nil || len(cols) == 0 {
		return row, nil
	}
	out := row.Clone()
	for i, f := range out {
		typ, ok := cols[f.Name]
		if !ok || f.Value == nil {
			continue
		}
		v, err := s.Dialect.Coerce(typ, f.Value)
		if err != nil {
			return nil, fmt.Errorf("column %s (%s): %w", f.Name, typ, err)
		}
		out[i].Value = v
	}
	return out, nil
}

// EnsureOriginIndex creates the secondary index over the origin id column.
func (s *StatementStore) EnsureOriginIndex(ctx context.Context, table string) error {
	if err := cql.CheckIdentifier(table); err != nil {
		return &core.ConfigurationError{Table: table, Reason: err.Error()}
	}
	name := OriginIndexName(table)
	stmt := cql.CreateIndex(name, table, core.OriginIDField)
	if err := s.Exec(ctx, stmt); err != nil {
		if s.Dialect.IsAlreadyExists(err) {
			return nil
		}
		return &core.DDLError{Object: name, Statement: stmt.Literal(), Err: err}
	}
	return nil
}

// InsertInto inserts each row independently. Key columns the row does not
// carry are assigned fresh identifiers.
func (s *StatementStore) InsertInto(ctx context.Context, table string, rows ...core.Row) error {
	if err := cql.CheckIdentifier(table); err != nil {
		return &core.RowOperationError{Table: table, Op: "insert", Err: err}
	}
	for _, row := range rows {
		if err := cql.CheckRow(row); err != nil {
			return &core.RowOperationError{Table: table, Op: "insert", Err: err}
		}
		row, err := s.coerce(table, s.withKeys(table, row))
		if err != nil {
			return &core.RowOperationError{Table: table, Op: "insert", Err: err}
		}
		if err := s.Exec(ctx, cql.Insert(table, row)); err != nil {
			return &core.RowOperationError{Table: table, Op: "insert", Err: err}
		}
	}
	return nil
}

// withKeys returns row with a generated value for each missing key column.
func (s *StatementStore) withKeys(table string, row core.Row) core.Row {
	keys := s.tables[table]
	if len(keys) == 0 || s.Dialect.NewKey == nil {
		return row
	}
	var missing []string
	for _, k := range keys {
		if !row.Has(k) {
			missing = append(missing, k)
		}
	}
	if len(missing) == 0 {
		return row
	}
	out := make(core.Row, 0, len(row)+len(missing))
	for _, k := range missing {
		out = append(out, core.Field{Name: k, Value: s.Dialect.NewKey()})
	}
	return append(out, row...)
}

// Update overwrites every field of row on the record identified by key.
// Key columns are never part of the SET list.
func (s *StatementStore) Update(ctx context.Context, table string, key core.Row, row core.Row) error {
	if len(key) == 0 {
		return &core.RowOperationError{Table: table, Op: "update", Err: fmt.Errorf("empty record key")}
	}
	if err := checkNames(table, key, row); err != nil {
		return &core.RowOperationError{Table: table, Op: "update", Err: err}
	}

	set, err := s.coerce(table, row.Without(key.Names()...))
	if err != nil {
		return &core.RowOperationError{Table: table, Op: "update", Err: err}
	}
	if len(set) == 0 {
		return nil
	}
	if key, err = s.coerce(table, key); err != nil {
		return &core.RowOperationError{Table: table, Op: "update", Err: err}
	}
	if err := s.Exec(ctx, cql.Update(table, set, key)); err != nil {
		return &core.RowOperationError{Table: table, Op: "update", Err: err}
	}
	return nil
}

// FindOne returns the first record matching query, or nil when none does.
func (s *StatementStore) FindOne(ctx context.Context, table string, query core.Row) (*core.Record, error) {
	if err := checkNames(table, query); err != nil {
		return nil, &core.RowOperationError{Table: table, Op: "find", Err: err}
	}

	query, err := s.coerce(table, query)
	if err != nil {
		return nil, &core.RowOperationError{Table: table, Op: "find", Err: err}
	}
	rows, err := s.Query(ctx, cql.Select(table, query, 1))
	if err != nil {
		return nil, &core.RowOperationError{Table: table, Op: "find", Err: err}
	}
	if len(rows) == 0 {
		return nil, nil
	}

	key, err := s.keyOf(table, rows[0])
	if err != nil {
		return nil, &core.RowOperationError{Table: table, Op: "find", Err: err}
	}
	return &core.Record{Key: key, Fields: rows[0]}, nil
}

// keyOf extracts the identifying columns of a stored record. Tables never
// ensured this run fall back to an "id" column.
func (s *StatementStore) keyOf(table string, fields core.Row) (core.Row, error) {
	keys := s.tables[table]
	if len(keys) == 0 {
		keys = []string{"id"}
	}
	key := make(core.Row, 0, len(keys))
	for _, k := range keys {
		v, ok := fields.Get(k)
		if !ok {
			return nil, fmt.Errorf("record has no key column %s", k)
		}
		key = append(key, core.Field{Name: k, Value: v})
	}
	return key, nil
}

// Close closes the session.
func (s *StatementStore) Close() error {
	if s.Session == nil {
		return nil
	}
	s.Logger.Debug("closing store session")
	err := s.Session.Close()
	s.Session = nil
	if s.state != core.StateDropped {
		s.state = core.StateNotConnected
	}
	return err
}

// Confirmed asks confirm whether the database may be dropped.
func (s *StatementStore) Confirmed(ctx context.Context, confirm core.Confirmer) error {
	if err := s.ready(); err != nil {
		return err
	}
	return ConfirmDrop(ctx, confirm, s.Cfg.Database)
}

// ConfirmDrop asks confirm whether database may be dropped. A nil confirmer
// or a refusal yields core.ErrDropDeclined. Every target asks through it.
func ConfirmDrop(ctx context.Context, confirm core.Confirmer, database string) error {
	if confirm == nil {
		return core.ErrDropDeclined
	}
	ok, err := confirm.Confirm(ctx, fmt.Sprintf("Are you sure you want to drop %s database?", database))
	if err != nil {
		return fmt.Errorf("failed to confirm drop: %w", err)
	}
	if !ok {
		return core.ErrDropDeclined
	}
	return nil
}

func checkNames(table string, rows ...core.Row) error {
	if err := cql.CheckIdentifier(table); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cql.CheckRow(r); err != nil {
			return err
		}
	}
	return nil
}
