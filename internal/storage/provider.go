// Package storage defines the media file-system abstraction.
package storage

import "time"

// FileInfo is lightweight metadata for one file under the media root.
type FileInfo struct {
	Path     string
	Size     int64
	Checksum string
	ModTime  time.Time
}

// Provider is the interface for media file operations. All paths are
// relative to the media root.
type Provider interface {
	// List returns metadata for every file under dir.
	List(dir string) ([]FileInfo, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write writes content to path, creating parent directories and
	// overwriting any existing file.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Abs resolves path against the media root, rejecting traversal.
	Abs(path string) (string, error)
}
