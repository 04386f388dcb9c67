package mongodb

import (
	"context"
	"errors"

	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// codeNamespaceExists is the server error code for an existing collection.
const codeNamespaceExists = 48

// Client is the subset of the driver client used by Store.
type Client interface {
	Database(name string) Database
	Disconnect(ctx context.Context) error
}

// Database is the subset of a driver database used by Store.
type Database interface {
	CreateCollection(ctx context.Context, name string) error
	ListCollectionNames(ctx context.Context) ([]string, error)
	Collection(name string) Collection
	Drop(ctx context.Context) error
}

// Collection is the subset of a driver collection used by Store.
type Collection interface {
	InsertOne(ctx context.Context, doc bson.D) error
	// FindOne returns nil when no document matches.
	FindOne(ctx context.Context, filter bson.D) (bson.D, error)
	UpdateOne(ctx context.Context, filter bson.D, update bson.D) error
	CreateIndex(ctx context.Context, name string, keys bson.D) error
}

// Connector opens a client for a configuration.
type Connector func(ctx context.Context, cfg core.ConnectionConfig, p Params) (Client, error)

// Connect opens and pings a driver client.
func Connect(ctx context.Context, cfg core.ConnectionConfig, p Params) (Client, error) {
	opts := options.Client().ApplyURI(cfg.ConnectionString())
	if cfg.Username != "" {
		opts.SetAuth(options.Credential{
			Username:   cfg.Username,
			Password:   cfg.Password,
			AuthSource: p.AuthSource,
		})
	}
	if p.Timeout > 0 {
		opts.SetTimeout(p.Timeout)
	}
	if p.ReplicaSet != "" {
		opts.SetReplicaSet(p.ReplicaSet)
	}
	if p.AppName != "" {
		opts.SetAppName(p.AppName)
	}

	c, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := c.Ping(ctx, readpref.Primary()); err != nil {
		_ = c.Disconnect(ctx)
		return nil, err
	}
	return &driverClient{c: c}, nil
}

func isNamespaceExists(err error) bool {
	var cmdErr mongo.CommandError
	return errors.As(err, &cmdErr) && cmdErr.Code == codeNamespaceExists
}

type driverClient struct {
	c *mongo.Client
}

func (d *driverClient) Database(name string) Database {
	return &driverDatabase{db: d.c.Database(name)}
}

func (d *driverClient) Disconnect(ctx context.Context) error {
	return d.c.Disconnect(ctx)
}

type driverDatabase struct {
	db *mongo.Database
}

func (d *driverDatabase) CreateCollection(ctx context.Context, name string) error {
	return d.db.CreateCollection(ctx, name)
}

func (d *driverDatabase) ListCollectionNames(ctx context.Context) ([]string, error) {
	return d.db.ListCollectionNames(ctx, bson.D{})
}

func (d *driverDatabase) Collection(name string) Collection {
	return &driverCollection{c: d.db.Collection(name)}
}

func (d *driverDatabase) Drop(ctx context.Context) error {
	return d.db.Drop(ctx)
}

type driverCollection struct {
	c *mongo.Collection
}

func (d *driverCollection) InsertOne(ctx context.Context, doc bson.D) error {
	_, err := d.c.InsertOne(ctx, doc)
	return err
}

func (d *driverCollection) FindOne(ctx context.Context, filter bson.D) (bson.D, error) {
	var doc bson.D
	err := d.c.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (d *driverCollection) UpdateOne(ctx context.Context, filter bson.D, update bson.D) error {
	_, err := d.c.UpdateOne(ctx, filter, update)
	return err
}

func (d *driverCollection) CreateIndex(ctx context.Context, name string, keys bson.D) error {
	_, err := d.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    keys,
		Options: options.Index().SetName(name),
	})
	return err
}
