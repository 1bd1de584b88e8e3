// Package store persists workspace documents.
//
// This package defines the storage interface for saved workspaces,
// with implementations for different backends:
//   - memory: In-memory storage for development/testing
//   - file: File-based storage for CLI applications
//   - mongo: MongoDB-backed storage for serve deployments
//
// # Architecture
//
// A Document wraps the serialized workspace (the model package's JSON
// form) with identity and timestamps. The Store interface supports:
//   - Get/Set/Delete by document ID
//   - List of all stored documents, newest first
//
// Stores persist documents verbatim; they do not parse the workspace
// payload. Decoding back into a live model is the caller's job.
//
// # Usage
//
// Create a store:
//
//	// Development
//	st := store.NewMemoryStore()
//
//	// CLI
//	st, err := store.NewFileStore("")  // Uses ~/.config/snapstack/workspaces/
//
//	// Serve deployments
//	st, err := store.NewMongoStore(ctx, store.MongoConfig{
//	    URI: "mongodb://localhost:27017",
//	})
//
// Save and load a workspace:
//
//	data, err := model.MarshalWorkspace(ws)
//	if err != nil {
//	    return err
//	}
//	doc := store.NewDocument("my workspace", data)
//	if err := st.Set(ctx, doc); err != nil {
//	    return err
//	}
//
//	doc, err := st.Get(ctx, doc.ID)
//	if err != nil {
//	    return err
//	}
//	if doc == nil {
//	    // Not found
//	}
package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors for store operations.
var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("workspace not found")

	// ErrInvalidID is returned for empty IDs or IDs with path characters.
	ErrInvalidID = errors.New("invalid workspace id")
)

// Document wraps a serialized workspace with storage metadata.
type Document struct {
	ID        string          `json:"id" bson:"_id"`
	Name      string          `json:"name" bson:"name"`
	Data      json.RawMessage `json:"data" bson:"data"`
	CreatedAt time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" bson:"updated_at"`
}

// Store is the interface for workspace document backends.
type Store interface {
	// Get retrieves a document by ID.
	// Returns nil, nil if the document doesn't exist.
	Get(ctx context.Context, id string) (*Document, error)

	// Set stores a document, replacing any existing one with the same
	// ID and stamping UpdatedAt.
	Set(ctx context.Context, doc *Document) error

	// Delete removes a document. Deleting a missing ID is not an error.
	Delete(ctx context.Context, id string) error

	// List returns all stored documents, newest first.
	List(ctx context.Context) ([]*Document, error)

	// Close releases backend resources.
	Close() error
}

// NewDocument creates a document with a fresh ID and timestamps.
func NewDocument(name string, data json.RawMessage) *Document {
	now := time.Now()
	return &Document{
		ID:        uuid.NewString(),
		Name:      name,
		Data:      data,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// touch stamps the document for a write.
func (d *Document) touch() {
	now := time.Now()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now
}

// validID rejects IDs that would escape a path-based backend.
func validID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	return !strings.ContainsAny(id, `/\`)
}
