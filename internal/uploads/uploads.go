// Package uploads places submitted files on disk according to the
// destination each field declares.
package uploads

import (
	"fmt"
	"path"
	"path/filepath"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/schema"
	"github.com/starford/ansuz/internal/storage"
)

// File is one uploaded file as it arrives in a multipart request.
type File struct {
	Field        string // form field name, matched against field titles
	OriginalName string
	MimeType     string
	Data         []byte
}

// Service resolves upload destinations through the schema registry and
// writes files under the media root.
type Service struct {
	media    storage.Provider
	registry *schema.Registry
}

// NewService creates a new upload service.
func NewService(media storage.Provider, registry *schema.Registry) *Service {
	return &Service{media: media, registry: registry}
}

// Save writes each file to the directory its field declares, creating
// missing directories and overwriting same-named files. It returns the
// metadata to merge into the document write, keyed by field name; the
// raw bytes are not retained.
func (s *Service) Save(collection string, files []File) (map[string]models.FileMeta, error) {
	c, err := s.registry.Get(collection)
	if err != nil {
		return nil, err
	}

	out := make(map[string]models.FileMeta, len(files))
	for _, f := range files {
		field, ok := schema.FindFieldByTitle(c.Fields, f.Field)
		if !ok {
			return nil, fmt.Errorf("uploads: field %q in %q: %w", f.Field, collection, apperr.ErrFieldNotFound)
		}
		if !field.AcceptsFiles() {
			return nil, fmt.Errorf("uploads: field %q in %q declares no destination: %w", f.Field, collection, apperr.ErrFieldNotFound)
		}
		// The filename is reduced to its base name; the destination
		// directory comes from the field declaration alone.
		name := filepath.Base(f.OriginalName)
		dest := path.Join(field.Path, name)
		if err := s.media.Write(dest, f.Data); err != nil {
			return nil, fmt.Errorf("uploads: place %q: %w", dest, err)
		}
		out[f.Field] = models.FileMeta{OriginalName: name, MimeType: f.MimeType}
	}
	return out, nil
}
