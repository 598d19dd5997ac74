// Package sqlite provides a SQLite-backed ObjectStore.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/parleyhq/parley/internal/storage"
	"github.com/parleyhq/parley/pkg/types"
)

// Schema is the knowledge-base schema. The position column preserves
// insertion order per type, which is what ordinal selection indexes into.
const Schema = `
CREATE TABLE IF NOT EXISTS objects (
	object_type TEXT NOT NULL,
	identifier  TEXT NOT NULL,
	position    INTEGER NOT NULL,
	attributes  TEXT NOT NULL DEFAULT '{}',
	created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (object_type, identifier)
);

CREATE INDEX IF NOT EXISTS idx_objects_type_position
	ON objects(object_type, position);
`

// Store implements storage.WritableStore using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite knowledge base at the given DSN and applies the
// schema. Use ":memory:" for an ephemeral store in tests.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open database: %w", err)
	}

	// SQLite only supports one concurrent writer. A single open connection
	// serialises writes and avoids SQLITE_BUSY errors under concurrent
	// load; WAL mode lets readers proceed without blocking the writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to set busy timeout: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// PutObject creates or updates an object. An update keeps the original
// position; a new object is appended after the current maximum position
// for its type.
func (s *Store) PutObject(ctx context.Context, obj *types.KnowledgeObject) error {
	if obj == nil || obj.Type == "" || obj.Identifier == "" {
		return fmt.Errorf("%w: object type and identifier are required", storage.ErrInvalidInput)
	}

	attrs, err := json.Marshal(obj.Attributes)
	if err != nil {
		return fmt.Errorf("sqlite: failed to encode attributes for %s: %w", obj.Key(), err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO objects (object_type, identifier, position, attributes)
		VALUES (?, ?, (SELECT COALESCE(MAX(position) + 1, 0) FROM objects WHERE object_type = ?), ?)
		ON CONFLICT(object_type, identifier) DO UPDATE SET
			attributes = excluded.attributes,
			updated_at = CURRENT_TIMESTAMP
	`, obj.Type, obj.Identifier, obj.Type, string(attrs))
	if err != nil {
		return fmt.Errorf("sqlite: failed to store object %s: %w", obj.Key(), err)
	}
	return nil
}

// GetObjects returns all objects of the given type in insertion order.
func (s *Store) GetObjects(ctx context.Context, typeName string) ([]*types.KnowledgeObject, error) {
	if typeName == "" {
		return nil, fmt.Errorf("%w: type name is required", storage.ErrInvalidInput)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT identifier, attributes FROM objects
		WHERE object_type = ?
		ORDER BY position ASC
	`, typeName)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to query objects of type %q: %w", typeName, err)
	}
	defer rows.Close()

	var objs []*types.KnowledgeObject
	for rows.Next() {
		obj, err := scanObject(rows, typeName)
		if err != nil {
			return nil, err
		}
		objs = append(objs, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: failed to iterate objects of type %q: %w", typeName, err)
	}
	return objs, nil
}

// GetObject returns the object with the given type and identifier.
func (s *Store) GetObject(ctx context.Context, typeName, identifier string) (*types.KnowledgeObject, error) {
	if typeName == "" || identifier == "" {
		return nil, fmt.Errorf("%w: type name and identifier are required", storage.ErrInvalidInput)
	}

	var attrs string
	err := s.db.QueryRowContext(ctx, `
		SELECT attributes FROM objects
		WHERE object_type = ? AND identifier = ?
	`, typeName, identifier).Scan(&attrs)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s:%s", storage.ErrNotFound, typeName, identifier)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to load object %s:%s: %w", typeName, identifier, err)
	}

	return decodeObject(typeName, identifier, attrs)
}

// GetAttribute returns the named attribute of an object.
func (s *Store) GetAttribute(obj *types.KnowledgeObject, name string) (any, error) {
	return storage.Attribute(obj, name)
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanObject(row rowScanner, typeName string) (*types.KnowledgeObject, error) {
	var identifier, attrs string
	if err := row.Scan(&identifier, &attrs); err != nil {
		return nil, fmt.Errorf("sqlite: failed to scan object row: %w", err)
	}
	return decodeObject(typeName, identifier, attrs)
}

func decodeObject(typeName, identifier, attrs string) (*types.KnowledgeObject, error) {
	obj := &types.KnowledgeObject{Type: typeName, Identifier: identifier}
	if attrs != "" {
		if err := json.Unmarshal([]byte(attrs), &obj.Attributes); err != nil {
			return nil, fmt.Errorf("sqlite: failed to decode attributes for %s:%s: %w", typeName, identifier, err)
		}
	}
	return obj, nil
}
