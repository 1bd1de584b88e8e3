package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore is a MongoDB-backed document store for serve deployments,
// where workspaces outlive any single process.
type MongoStore struct {
	client *mongo.Client
	col    *mongo.Collection
}

// MongoConfig holds connection settings for NewMongoStore.
type MongoConfig struct {
	URI        string
	Database   string // defaults to "snapstack"
	Collection string // defaults to "workspaces"
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.Database == "" {
		cfg.Database = "snapstack"
	}
	if cfg.Collection == "" {
		cfg.Collection = "workspaces"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &MongoStore{
		client: client,
		col:    client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// Get retrieves a document by ID.
// Returns nil, nil if the document doesn't exist.
func (s *MongoStore) Get(ctx context.Context, id string) (*Document, error) {
	if !validID(id) {
		return nil, ErrInvalidID
	}

	var doc Document
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find workspace: %w", err)
	}
	return &doc, nil
}

// Set upserts a document by ID.
func (s *MongoStore) Set(ctx context.Context, doc *Document) error {
	if !validID(doc.ID) {
		return ErrInvalidID
	}

	doc.touch()
	_, err := s.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert workspace: %w", err)
	}
	return nil
}

// Delete removes a document.
func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrInvalidID
	}

	if _, err := s.col.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete workspace: %w", err)
	}
	return nil
}

// List returns all stored documents, newest first.
func (s *MongoStore) List(ctx context.Context) ([]*Document, error) {
	sort := bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: 1}}
	cur, err := s.col.Find(ctx, bson.M{}, options.Find().SetSort(sort))
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}

	var out []*Document
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode workspaces: %w", err)
	}
	return out, nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

var _ Store = (*MongoStore)(nil)
