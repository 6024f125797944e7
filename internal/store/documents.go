package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/schema"
)

// Insert stores a new document with a fresh identifier and timestamps.
// For strict collections, keys outside the compiled storage schema are
// silently dropped before the write.
func (s *Store) Insert(ctx context.Context, collection string, fields map[string]any) (models.Document, error) {
	c, err := s.registry.Get(collection)
	if err != nil {
		return models.Document{}, err
	}
	fields = s.applyStrict(c, fields)

	now := time.Now().UnixMilli()
	doc := models.Document{
		ID:        uuid.NewString(),
		Fields:    fields,
		CreatedAt: now,
		UpdatedAt: now,
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return models.Document{}, fmt.Errorf("store: marshal document: %w", err)
	}
	_, err = s.conn.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, data, created_at, updated_at) VALUES (?, ?, ?, ?)`, tableName(collection)),
		doc.ID, string(data), doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return models.Document{}, fmt.Errorf("store: insert into %q: %w", collection, err)
	}
	return doc, nil
}

// Get returns a single document by identifier.
func (s *Store) Get(ctx context.Context, collection, id string) (models.Document, error) {
	if _, err := s.registry.Get(collection); err != nil {
		return models.Document{}, err
	}
	row := s.conn.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT id, data, created_at, updated_at FROM %s WHERE id = ?`, tableName(collection)), id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Document{}, fmt.Errorf("store: %s/%s: %w", collection, id, apperr.ErrNotFound)
	}
	return doc, err
}

// Find returns every document matching the filter expression. The
// filter is evaluated in-process against the decoded documents.
func (s *Store) Find(ctx context.Context, collection string, filter map[string]any) ([]models.Document, error) {
	if _, err := s.registry.Get(collection); err != nil {
		return nil, err
	}
	rows, err := s.conn.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, data, created_at, updated_at FROM %s ORDER BY created_at`, tableName(collection)))
	if err != nil {
		return nil, fmt.Errorf("store: find in %q: %w", collection, err)
	}
	defer rows.Close()

	out := []models.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		if Matches(doc, filter) {
			out = append(out, doc)
		}
	}
	return out, rows.Err()
}

// List returns one page of documents plus the total count. Page
// defaults to 1; a non-positive pageSize means unbounded.
func (s *Store) List(ctx context.Context, collection string, page, pageSize int) (int, []models.Document, error) {
	if _, err := s.registry.Get(collection); err != nil {
		return 0, nil, err
	}
	if page < 1 {
		page = 1
	}

	var total int
	if err := s.conn.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT count(*) FROM %s`, tableName(collection))).Scan(&total); err != nil {
		return 0, nil, fmt.Errorf("store: count %q: %w", collection, err)
	}

	limit := -1 // sqlite: LIMIT -1 is unbounded
	offset := 0
	if pageSize > 0 {
		limit = pageSize
		offset = (page - 1) * pageSize
	}
	rows, err := s.conn.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, data, created_at, updated_at FROM %s ORDER BY created_at LIMIT ? OFFSET ?`, tableName(collection)),
		limit, offset)
	if err != nil {
		return 0, nil, fmt.Errorf("store: list %q: %w", collection, err)
	}
	defer rows.Close()

	docs := []models.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return 0, nil, err
		}
		docs = append(docs, doc)
	}
	return total, docs, rows.Err()
}

// Update merges the provided fields into the document with the given
// identifier, creating it when absent (upsert).
func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) (models.Document, error) {
	c, err := s.registry.Get(collection)
	if err != nil {
		return models.Document{}, err
	}
	fields = s.applyStrict(c, fields)
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now().UnixMilli()

	existing, err := s.Get(ctx, collection, id)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		doc := models.Document{ID: id, Fields: fields, CreatedAt: now, UpdatedAt: now}
		data, mErr := json.Marshal(fields)
		if mErr != nil {
			return models.Document{}, fmt.Errorf("store: marshal document: %w", mErr)
		}
		if _, err := s.conn.ExecContext(ctx,
			fmt.Sprintf(`INSERT INTO %s (id, data, created_at, updated_at) VALUES (?, ?, ?, ?)`, tableName(collection)),
			id, string(data), now, now); err != nil {
			return models.Document{}, fmt.Errorf("store: upsert insert %q: %w", collection, err)
		}
		return doc, nil
	case err != nil:
		return models.Document{}, err
	}

	merged := make(map[string]any, len(existing.Fields)+len(fields))
	for k, v := range existing.Fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	data, err := json.Marshal(merged)
	if err != nil {
		return models.Document{}, fmt.Errorf("store: marshal document: %w", err)
	}
	if _, err := s.conn.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET data = ?, updated_at = ? WHERE id = ?`, tableName(collection)),
		string(data), now, id); err != nil {
		return models.Document{}, fmt.Errorf("store: upsert update %q: %w", collection, err)
	}
	existing.Fields = merged
	existing.UpdatedAt = now
	return existing, nil
}

// Delete removes every document whose identifier is in ids and returns
// the count removed.
func (s *Store) Delete(ctx context.Context, collection string, ids []string) (int64, error) {
	if _, err := s.registry.Get(collection); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	res, err := s.conn.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE id IN (%s)`, tableName(collection), placeholders), args...)
	if err != nil {
		return 0, fmt.Errorf("store: delete from %q: %w", collection, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store: rows affected: %w", err)
	}
	return n, nil
}

// applyStrict drops keys outside the compiled storage schema for strict
// collections; non-strict collections accept any shape.
func (s *Store) applyStrict(c schema.Collection, fields map[string]any) map[string]any {
	if !c.Strict {
		return fields
	}
	compiled, err := s.registry.StorageSchema(c.Name)
	if err != nil {
		return fields
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if _, ok := compiled[k]; ok {
			out[k] = v
		}
	}
	return out
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (models.Document, error) {
	var doc models.Document
	var data string
	if err := row.Scan(&doc.ID, &data, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return models.Document{}, err
	}
	if err := json.Unmarshal([]byte(data), &doc.Fields); err != nil {
		return models.Document{}, fmt.Errorf("store: decode document %s: %w", doc.ID, err)
	}
	return doc, nil
}
