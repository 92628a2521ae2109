package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lightlink-network/ll-bridge-validator/database/models"
)

const (
	lastIndexedBlockCollection = "last_indexed_block"
	dispatchesCollection       = "dispatches"

	defaultTimeout = 10 * time.Second
)

type Database struct {
	client       *mongo.Client
	databaseName string
	logger       *slog.Logger
}

type DatabaseOpts struct {
	URI          string
	DatabaseName string
	Logger       *slog.Logger
}

func NewDatabase(opts DatabaseOpts) (*Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(opts.URI).
		SetMaxPoolSize(100).
		SetMinPoolSize(10).
		SetMaxConnecting(10).
		SetServerSelectionTimeout(5 * time.Second).
		SetRetryWrites(true)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewDatabaseFromClient(client, opts.DatabaseName, opts.Logger), nil
}

// NewDatabaseFromClient wraps an already connected client.
func NewDatabaseFromClient(client *mongo.Client, databaseName string, logger *slog.Logger) *Database {
	if logger == nil {
		logger = slog.Default()
	}

	return &Database{
		client:       client,
		databaseName: databaseName,
		logger:       logger.With("component", "database"),
	}
}

func (db *Database) collection(name string) *mongo.Collection {
	return db.client.Database(db.databaseName).Collection(name)
}

func (db *Database) CreateIndexes(ctx context.Context) error {
	_, err := db.collection(lastIndexedBlockCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "chain", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create last_indexed_block index: %w", err)
	}

	_, err = db.collection(dispatchesCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "message_id", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "kind", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create dispatches indexes: %w", err)
	}

	return nil
}

func (db *Database) Close(ctx context.Context) error {
	return db.client.Disconnect(ctx)
}

func buildFilter(f models.Filter) bson.M {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Kind != "" {
		filter["kind"] = f.Kind
	}
	if f.Chain != "" {
		filter["chain"] = f.Chain
	}
	if f.MessageID != "" {
		filter["message_id"] = f.MessageID
	}
	return filter
}
