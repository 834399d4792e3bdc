package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"user-backend/internal/docstore"
	"user-backend/internal/domain"
)

const createDocumentsTable = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id TEXT NOT NULL,
	body TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	PRIMARY KEY (collection, id)
);
`

// Store persists schemaless documents as JSON rows in a single sqlite table.
// Ids are assigned on Create; rowid keeps Query results in insertion order.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createDocumentsTable); err != nil {
		return fmt.Errorf("create documents table: %w", err)
	}
	return nil
}

func (s *Store) Create(ctx context.Context, collection string, body map[string]any) (string, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	if _, err := s.db.ExecContext(ctx, `
INSERT INTO documents (collection, id, body, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)`,
		collection, id, string(raw), now, now,
	); err != nil {
		return "", fmt.Errorf("insert document: %w", err)
	}
	return id, nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (*docstore.Document, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT body
FROM documents
WHERE collection = ? AND id = ?`,
		collection, id,
	)

	var raw string
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return decodeDocument(id, raw)
}

func (s *Store) Query(ctx context.Context, collection, field, value string) ([]docstore.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, body
FROM documents
WHERE collection = ? AND json_extract(body, ?) = ?
ORDER BY rowid`,
		collection, "$."+field, value,
	)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []docstore.Document
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		doc, err := decodeDocument(id, raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

func (s *Store) Merge(ctx context.Context, collection, id string, fields map[string]any) error {
	doc, err := s.Get(ctx, collection, id)
	if err != nil {
		return err
	}

	for k, v := range fields {
		doc.Body[k] = v
	}
	raw, err := json.Marshal(doc.Body)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `
UPDATE documents
SET body = ?, updated_at = ?
WHERE collection = ? AND id = ?`,
		string(raw), time.Now().UTC(), collection, id,
	); err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	return nil
}

func decodeDocument(id, raw string) (*docstore.Document, error) {
	body := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", id, err)
	}
	return &docstore.Document{ID: id, Body: body}, nil
}

var _ docstore.Store = (*Store)(nil)
