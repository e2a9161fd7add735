package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/dmoclinic/internal/common"
	"github.com/dmitrijs2005/dmoclinic/internal/dbx"
	"github.com/dmitrijs2005/dmoclinic/internal/store"
	"github.com/google/uuid"
)

var _ Repository = (*PostgresRepository)(nil)

// PostgresRepository keeps one row per document in the documents table.
// Every successful write bumps the row version by one; a new row starts at 1.
type PostgresRepository struct {
	db    dbx.DBTX
	newID func() string
}

// NewPostgresRepository creates a repository bound to db.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db, newID: uuid.NewString}
}

func (r *PostgresRepository) Get(ctx context.Context, path string) (*store.Document, error) {
	if err := store.ValidatePath(path); err != nil {
		return nil, err
	}

	query := `SELECT body, version FROM documents WHERE path = $1`

	var body []byte
	doc := &store.Document{Path: path}
	err := r.db.QueryRowContext(ctx, query, path).Scan(&body, &doc.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", path, common.ErrorNotFound)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if doc.Fields, err = decodeBody(body); err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *PostgresRepository) Set(ctx context.Context, path string, fields map[string]any) (int64, error) {
	body, err := encodeBody(path, fields)
	if err != nil {
		return 0, err
	}

	query :=
		`INSERT INTO documents (path, parent, body, version)
		 VALUES ($1, $2, $3, 1)
		 ON CONFLICT (path) DO UPDATE
		 SET body = EXCLUDED.body, version = documents.version + 1, updated_at = now()
		 RETURNING version`

	var version int64
	if err := r.db.QueryRowContext(ctx, query, path, store.Parent(path), body).Scan(&version); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return version, nil
}

// Update merges the top-level keys of fields into the stored body with the
// jsonb || operator, creating the row when it does not exist.
func (r *PostgresRepository) Update(ctx context.Context, path string, fields map[string]any) (int64, error) {
	body, err := encodeBody(path, fields)
	if err != nil {
		return 0, err
	}

	query :=
		`INSERT INTO documents (path, parent, body, version)
		 VALUES ($1, $2, $3, 1)
		 ON CONFLICT (path) DO UPDATE
		 SET body = documents.body || EXCLUDED.body, version = documents.version + 1, updated_at = now()
		 RETURNING version`

	var version int64
	if err := r.db.QueryRowContext(ctx, query, path, store.Parent(path), body).Scan(&version); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return version, nil
}

func (r *PostgresRepository) CompareAndSet(ctx context.Context, path string, fields map[string]any, version int64) (int64, error) {
	body, err := encodeBody(path, fields)
	if err != nil {
		return 0, err
	}

	var next int64
	if version == 0 {
		query :=
			`INSERT INTO documents (path, parent, body, version)
			 VALUES ($1, $2, $3, 1)
			 ON CONFLICT (path) DO NOTHING
			 RETURNING version`
		err = r.db.QueryRowContext(ctx, query, path, store.Parent(path), body).Scan(&next)
	} else {
		query :=
			`UPDATE documents
			 SET body = $2, version = version + 1, updated_at = now()
			 WHERE path = $1 AND version = $3
			 RETURNING version`
		err = r.db.QueryRowContext(ctx, query, path, body, version).Scan(&next)
	}

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%s: want version %d: %w", path, version, common.ErrVersionConflict)
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return next, nil
}

func (r *PostgresRepository) Push(ctx context.Context, parent string, fields map[string]any) (string, error) {
	if err := store.ValidatePath(parent); err != nil {
		return "", err
	}
	id := r.newID()
	if _, err := r.Set(ctx, store.Join(parent, id), fields); err != nil {
		return "", err
	}
	return id, nil
}

func (r *PostgresRepository) List(ctx context.Context, parent string) ([]*store.Document, error) {
	if err := store.ValidatePath(parent); err != nil {
		return nil, err
	}

	query := `SELECT path, body, version FROM documents WHERE parent = $1 ORDER BY path`

	rows, err := r.db.QueryContext(ctx, query, parent)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return scanDocuments(rows)
}

func (r *PostgresRepository) Dump(ctx context.Context) ([]*store.Document, error) {
	query := `SELECT path, body, version FROM documents ORDER BY path`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return scanDocuments(rows)
}

func scanDocuments(rows *sql.Rows) ([]*store.Document, error) {
	defer rows.Close()

	var out []*store.Document
	for rows.Next() {
		var body []byte
		doc := &store.Document{}
		if err := rows.Scan(&doc.Path, &body, &doc.Version); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		fields, err := decodeBody(body)
		if err != nil {
			return nil, err
		}
		doc.Fields = fields
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func encodeBody(path string, fields map[string]any) ([]byte, error) {
	if err := store.ValidatePath(path); err != nil {
		return nil, err
	}
	normalized, err := store.Normalize(fields)
	if err != nil {
		return nil, err
	}
	return json.Marshal(normalized)
}

func decodeBody(body []byte) (map[string]any, error) {
	fields := map[string]any{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("corrupt document body: %w", err)
	}
	return fields, nil
}
