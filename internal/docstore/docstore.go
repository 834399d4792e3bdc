package docstore

import "context"

// Document is one schemaless record stored in a named collection.
type Document struct {
	ID   string
	Body map[string]any
}

// Store defines the document store operations the services depend on.
// Implementations assign ids on Create and must keep Query iteration order
// deterministic (insertion order).
type Store interface {
	Create(ctx context.Context, collection string, body map[string]any) (string, error)
	Get(ctx context.Context, collection, id string) (*Document, error)
	Query(ctx context.Context, collection, field, value string) ([]Document, error)
	Merge(ctx context.Context, collection, id string, fields map[string]any) error
}
