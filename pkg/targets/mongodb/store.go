// Package mongodb provides the MongoDB target for leapmigrate.
//
// Tables map to collections and rows to documents. Documents are keyed by
// the server-assigned _id; key columns of a table definition are not stored.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/leapstack-labs/leapmigrate/pkg/cql"
	"github.com/leapstack-labs/leapmigrate/pkg/target"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IDField is the document identifier field.
const IDField = "_id"

// Store implements core.Store on a MongoDB database.
type Store struct {
	Cfg    core.ConnectionConfig
	Params Params
	Logger *slog.Logger

	connect Connector
	client  Client
	db      Database
	state   core.State
	known   map[string]bool
}

// New creates an unconnected MongoDB store.
// If logger is nil, a discard logger is used.
func New(cfg core.ConnectionConfig, logger *slog.Logger) (*Store, error) {
	return NewWithConnector(cfg, logger, Connect)
}

// NewWithConnector creates an unconnected store that opens clients with connect.
func NewWithConnector(cfg core.ConnectionConfig, logger *slog.Logger, connect Connector) (*Store, error) {
	p, err := ParseParams(cfg.Params)
	if err != nil {
		return nil, &core.ConfigurationError{Adapter: core.AdapterMongoDB, Reason: err.Error()}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		Cfg:     cfg,
		Params:  p,
		Logger:  logger,
		connect: connect,
		known:   make(map[string]bool),
	}, nil
}

// State returns the lifecycle state.
func (s *Store) State() core.State {
	return s.state
}

// HasConnection reports whether the store is connected. It never connects.
func (s *Store) HasConnection() bool {
	return s.state == core.StateConnected && s.db != nil
}

// Connect opens the client and seeds the existence cache from the
// database's collections. The database itself is created on first write.
func (s *Store) Connect(ctx context.Context) error {
	switch s.state {
	case core.StateConnected:
		return nil
	case core.StateDropped:
		return core.ErrStoreDropped
	}
	s.state = core.StateConnecting

	client, err := s.connect(ctx, s.Cfg, s.Params)
	if err != nil {
		s.state = core.StateNotConnected
		return &core.ConnectionError{Adapter: core.AdapterMongoDB, Target: s.Cfg.ConnectionString(), Err: err}
	}
	db := client.Database(s.Cfg.Database)

	names, err := db.ListCollectionNames(ctx)
	if err != nil {
		_ = client.Disconnect(ctx)
		s.state = core.StateNotConnected
		return &core.ConnectionError{Adapter: core.AdapterMongoDB, Target: s.Cfg.ConnectionString(), Err: err}
	}
	for _, n := range names {
		s.known[n] = true
	}

	s.client = client
	s.db = db
	s.state = core.StateConnected
	s.Logger.Info("connected to database",
		slog.String("database", s.Cfg.Database),
		slog.Int("existing_collections", len(names)))
	return nil
}

func (s *Store) ready() error {
	switch s.state {
	case core.StateConnected:
		return nil
	case core.StateDropped:
		return core.ErrStoreDropped
	default:
		return core.ErrNotConnected
	}
}

// EnsureTable creates the collection unless it is known to exist.
func (s *Store) EnsureTable(ctx context.Context, def core.TableDefinition) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := def.Validate(); err != nil {
		return err
	}
	if s.known[def.Name] {
		return nil
	}

	s.Logger.Debug("creating collection", slog.String("collection", def.Name))
	if err := s.db.CreateCollection(ctx, def.Name); err != nil && !isNamespaceExists(err) {
		return &core.DDLError{Object: def.Name, Statement: "createCollection " + def.Name, Err: err}
	}
	s.known[def.Name] = true
	return nil
}

// EnsureOriginIndex indexes the origin id field of a collection.
func (s *Store) EnsureOriginIndex(ctx context.Context, table string) error {
	if err := s.ready(); err != nil {
		return err
	}
	name := target.OriginIndexName(table)
	if err := s.db.Collection(table).CreateIndex(ctx, name, bson.D{{Key: core.OriginIDField, Value: 1}}); err != nil {
		return &core.DDLError{Object: name, Statement: "createIndex " + name, Err: err}
	}
	return nil
}

// InsertInto inserts each row as one document.
func (s *Store) InsertInto(ctx context.Context, table string, rows ...core.Row) error {
	if err := s.ready(); err != nil {
		return err
	}
	coll := s.db.Collection(table)
	for _, row := range rows {
		if err := cql.CheckRow(row); err != nil {
			return &core.RowOperationError{Table: table, Op: "insert", Err: err}
		}
		s.Logger.Debug("inserting document", slog.String("collection", table), slog.Int("fields", len(row)))
		if err := coll.InsertOne(ctx, toDoc(row)); err != nil {
			return &core.RowOperationError{Table: table, Op: "insert", Err: err}
		}
	}
	return nil
}

// Update sets every field of row on the document identified by key.
func (s *Store) Update(ctx context.Context, table string, key core.Row, row core.Row) error {
	if err := s.ready(); err != nil {
		return err
	}
	if len(key) == 0 {
		return &core.RowOperationError{Table: table, Op: "update", Err: errors.New("empty record key")}
	}
	set := row.Without(append(key.Names(), IDField)...)
	if len(set) == 0 {
		return nil
	}
	update := bson.D{{Key: "$set", Value: toDoc(set)}}
	if err := s.db.Collection(table).UpdateOne(ctx, toDoc(key), update); err != nil {
		return &core.RowOperationError{Table: table, Op: "update", Err: err}
	}
	return nil
}

// FindOne returns the first document matching every field of query.
func (s *Store) FindOne(ctx context.Context, table string, query core.Row) (*core.Record, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	doc, err := s.db.Collection(table).FindOne(ctx, toDoc(query))
	if err != nil {
		return nil, &core.RowOperationError{Table: table, Op: "find", Err: err}
	}
	if doc == nil {
		return nil, nil
	}

	fields := fromDoc(doc)
	id, ok := fields.Get(IDField)
	if !ok {
		return nil, &core.RowOperationError{Table: table, Op: "find", Err: fmt.Errorf("document has no %s", IDField)}
	}
	return &core.Record{Key: core.Row{{Name: IDField, Value: id}}, Fields: fields}, nil
}

// DropDatabase drops the database after confirmation.
func (s *Store) DropDatabase(ctx context.Context, confirm core.Confirmer) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := target.ConfirmDrop(ctx, confirm, s.Cfg.Database); err != nil {
		return err
	}

	if err := s.db.Drop(ctx); err != nil {
		return fmt.Errorf("failed to drop database %s: %w", s.Cfg.Database, err)
	}
	s.state = core.StateDropped
	s.Logger.Info("database dropped", slog.String("database", s.Cfg.Database))
	return nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	s.Logger.Debug("disconnecting client")
	err := s.client.Disconnect(context.Background())
	s.client = nil
	s.db = nil
	if s.state != core.StateDropped {
		s.state = core.StateNotConnected
	}
	return err
}

func toDoc(row core.Row) bson.D {
	doc := make(bson.D, len(row))
	for i, f := range row {
		doc[i] = bson.E{Key: f.Name, Value: f.Value}
	}
	return doc
}

func fromDoc(doc bson.D) core.Row {
	row := make(core.Row, len(doc))
	for i, e := range doc {
		v := e.Value
		if dt, ok := v.(primitive.DateTime); ok {
			v = dt.Time().UTC()
		}
		row[i] = core.Field{Name: e.Key, Value: v}
	}
	return row
}

var (
	_ core.Store         = (*Store)(nil)
	_ core.OriginIndexer = (*Store)(nil)
)
