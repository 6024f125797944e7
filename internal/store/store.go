// Package store implements the SQLite-backed document store. Each
// collection gets its own table holding JSON documents plus numeric
// creation/update timestamps.
package store

import (
	"database/sql"
	"fmt"
	"regexp"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/ansuz/internal/schema"
)

// Store wraps the database connection and the schema registry that
// governs which collections exist and how strict they are.
type Store struct {
	conn     *sql.DB
	registry *schema.Registry
}

// Open opens (or creates) the SQLite database and creates one document
// table per registered collection.
func Open(dsn string, registry *schema.Registry) (*Store, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	s := &Store{conn: conn, registry: registry}
	for _, c := range registry.All() {
		if err := s.ensureCollection(c); err != nil {
			conn.Close()
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) ensureCollection(c schema.Collection) error {
	q := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id         TEXT PRIMARY KEY,
	data       TEXT NOT NULL DEFAULT '{}',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
)`, tableName(c.Name))
	if _, err := s.conn.Exec(q); err != nil {
		return fmt.Errorf("store: create table for %q: %w", c.Name, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// DB exposes the underlying connection for sibling repositories (media
// inventory, identity provider) that share the same database file.
func (s *Store) DB() *sql.DB {
	return s.conn
}

var tableNameRe = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// tableName maps a collection name to its table. Collection names are
// validated at startup; this keeps the identifier SQL-safe regardless.
func tableName(collection string) string {
	return "doc_" + tableNameRe.ReplaceAllString(collection, "_")
}
