package store

import (
	"cmp"
	"context"
	"slices"
	"sync"
)

// MemoryStore is an in-memory document store for development and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]*Document)}
}

// Get retrieves a document by ID.
// Returns nil, nil if the document doesn't exist.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Document, error) {
	if !validID(id) {
		return nil, ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, nil
	}
	return cloneDocument(doc), nil
}

// Set stores a copy of the document.
func (s *MemoryStore) Set(ctx context.Context, doc *Document) error {
	if !validID(doc.ID) {
		return ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc.touch()
	s.docs[doc.ID] = cloneDocument(doc)
	return nil
}

// Delete removes a document.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.docs, id)
	return nil
}

// List returns all stored documents, newest first.
func (s *MemoryStore) List(ctx context.Context) ([]*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Document, 0, len(s.docs))
	for _, doc := range s.docs {
		out = append(out, cloneDocument(doc))
	}
	slices.SortFunc(out, func(a, b *Document) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// Close does nothing for the in-memory store.
func (s *MemoryStore) Close() error { return nil }

// cloneDocument copies a document so callers can't mutate stored state.
func cloneDocument(d *Document) *Document {
	out := *d
	out.Data = slices.Clone(d.Data)
	return &out
}

var _ Store = (*MemoryStore)(nil)
