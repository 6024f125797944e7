// Package media maintains an inventory of the files under the media
// root: everything the upload and redaction flows write, plus anything
// dropped in by hand. The inventory lives in the same SQLite database
// as the documents and is kept current by a startup sync and an
// fsnotify watcher.
package media

import (
	"database/sql"
	"fmt"
	"mime"
	"path/filepath"

	"github.com/starford/ansuz/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS assets (
	path       TEXT PRIMARY KEY,
	size       INTEGER NOT NULL,
	mime       TEXT NOT NULL,
	checksum   TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// Inventory is the SQLite-backed asset catalogue.
type Inventory struct {
	conn *sql.DB
}

// NewInventory applies the asset schema on the shared connection.
func NewInventory(conn *sql.DB) (*Inventory, error) {
	if _, err := conn.Exec(schemaSQL); err != nil {
		return nil, fmt.Errorf("media: apply schema: %w", err)
	}
	return &Inventory{conn: conn}, nil
}

// Upsert records or refreshes one asset.
func (inv *Inventory) Upsert(a models.Asset) error {
	_, err := inv.conn.Exec(`
		INSERT INTO assets (path, size, mime, checksum, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			size       = excluded.size,
			mime       = excluded.mime,
			checksum   = excluded.checksum,
			updated_at = excluded.updated_at
	`, a.Path, a.Size, a.Mime, a.Checksum, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("media: upsert asset: %w", err)
	}
	return nil
}

// Delete removes one asset record.
func (inv *Inventory) Delete(path string) error {
	if _, err := inv.conn.Exec(`DELETE FROM assets WHERE path = ?`, path); err != nil {
		return fmt.Errorf("media: delete asset: %w", err)
	}
	return nil
}

// List returns every asset ordered by path.
func (inv *Inventory) List() ([]models.Asset, error) {
	rows, err := inv.conn.Query(`SELECT path, size, mime, checksum, updated_at FROM assets ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("media: list assets: %w", err)
	}
	defer rows.Close()

	var out []models.Asset
	for rows.Next() {
		var a models.Asset
		if err := rows.Scan(&a.Path, &a.Size, &a.Mime, &a.Checksum, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// AllChecksums returns path -> checksum for every recorded asset.
func (inv *Inventory) AllChecksums() (map[string]string, error) {
	rows, err := inv.conn.Query(`SELECT path, checksum FROM assets`)
	if err != nil {
		return nil, fmt.Errorf("media: all checksums: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// mimeFor guesses a content type from the file extension.
func mimeFor(path string) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	return "application/octet-stream"
}
