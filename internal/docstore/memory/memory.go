package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"user-backend/internal/docstore"
	"user-backend/internal/domain"
)

// Store is an in-memory document store, used by tests.
// Documents are kept per collection in insertion order so Query stays
// deterministic, matching the sqlite store.
type Store struct {
	mu          sync.Mutex
	collections map[string][]*record
}

type record struct {
	id   string
	body map[string]any
}

func NewStore() *Store {
	return &Store{collections: make(map[string][]*record)}
}

func (s *Store) Create(_ context.Context, collection string, body map[string]any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	s.collections[collection] = append(s.collections[collection], &record{
		id:   id,
		body: copyBody(body),
	})
	return id, nil
}

func (s *Store) Get(_ context.Context, collection, id string) (*docstore.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.collections[collection] {
		if rec.id == id {
			return &docstore.Document{ID: rec.id, Body: copyBody(rec.body)}, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Store) Query(_ context.Context, collection, field, value string) ([]docstore.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var docs []docstore.Document
	for _, rec := range s.collections[collection] {
		if v, ok := rec.body[field].(string); ok && v == value {
			docs = append(docs, docstore.Document{ID: rec.id, Body: copyBody(rec.body)})
		}
	}
	return docs, nil
}

func (s *Store) Merge(_ context.Context, collection, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.collections[collection] {
		if rec.id == id {
			for k, v := range fields {
				rec.body[k] = v
			}
			return nil
		}
	}
	return domain.ErrNotFound
}

func copyBody(body map[string]any) map[string]any {
	out := make(map[string]any, len(body))
	for k, v := range body {
		out[k] = v
	}
	return out
}

var _ docstore.Store = (*Store)(nil)
