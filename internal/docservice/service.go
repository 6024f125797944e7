// Package docservice coordinates the content operations: request
// coercion, file placement, the redaction pipeline, document storage,
// and change events.
package docservice

import (
	"context"
	"strings"

	"github.com/starford/ansuz/internal/coerce"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/redact"
	"github.com/starford/ansuz/internal/schema"
	"github.com/starford/ansuz/internal/sse"
	"github.com/starford/ansuz/internal/store"
	"github.com/starford/ansuz/internal/uploads"
)

// Field titles used by the redaction flow when building documents.
const (
	nameField       = "Name"
	imageArrayField = "Multi Image Array"
)

// Service is the content-operation coordinator the API delegates to.
type Service struct {
	store    *store.Store
	registry *schema.Registry
	uploads  *uploads.Service
	redactor *redact.Pipeline
	broker   *sse.Broker
}

// NewService creates a document service. broker may be nil when change
// events are not wanted (tests).
func NewService(st *store.Store, registry *schema.Registry, up *uploads.Service, rp *redact.Pipeline, broker *sse.Broker) *Service {
	return &Service{store: st, registry: registry, uploads: up, redactor: rp, broker: broker}
}

// Get returns one document by identifier.
func (s *Service) Get(ctx context.Context, collection, id string) (models.Document, error) {
	return s.store.Get(ctx, collection, id)
}

// Find returns all documents matching the filter expression.
func (s *Service) Find(ctx context.Context, collection string, filter map[string]any) ([]models.Document, error) {
	return s.store.Find(ctx, collection, filter)
}

// List returns one page of documents and the total count.
func (s *Service) List(ctx context.Context, collection string, page, pageSize int) (int, []models.Document, error) {
	return s.store.List(ctx, collection, page, pageSize)
}

// Insert coerces the form body, places any uploaded files under their
// field paths, and stores the merged document.
func (s *Service) Insert(ctx context.Context, collection string, body map[string]any, files []uploads.File) (models.Document, error) {
	fields := coerce.Map(body)

	if len(files) > 0 {
		metas, err := s.uploads.Save(collection, files)
		if err != nil {
			return models.Document{}, err
		}
		for field, meta := range metas {
			fields[field] = meta
		}
	}

	doc, err := s.store.Insert(ctx, collection, fields)
	if err != nil {
		return models.Document{}, err
	}
	s.publish("created", collection, doc.ID)
	return doc, nil
}

// InsertRedacted runs the redaction pipeline over the uploaded images
// and stores one document per encoded output. The collection is
// resolved before the pipeline runs so an unknown name fails without
// leaving encoded files behind.
func (s *Service) InsertRedacted(ctx context.Context, collection string, params redact.Params, images [][]byte) ([]models.Document, error) {
	if _, err := s.registry.Get(collection); err != nil {
		return nil, err
	}

	metas, err := s.redactor.Process(params, images)
	if err != nil {
		return nil, err
	}

	docs := make([]models.Document, 0, len(metas))
	for _, meta := range metas {
		doc, err := s.store.Insert(ctx, collection, map[string]any{
			nameField:       strings.TrimSuffix(meta.OriginalName, ".webp"),
			imageArrayField: meta,
		})
		if err != nil {
			return docs, err
		}
		s.publish("created", collection, doc.ID)
		docs = append(docs, doc)
	}
	return docs, nil
}

// Update merges the coerced body and any uploaded file metadata into
// the document with the given identifier, creating it when absent.
func (s *Service) Update(ctx context.Context, collection, id string, body map[string]any, files []uploads.File) (models.Document, error) {
	fields := coerce.Map(body)

	if len(files) > 0 {
		metas, err := s.uploads.Save(collection, files)
		if err != nil {
			return models.Document{}, err
		}
		for field, meta := range metas {
			fields[field] = meta
		}
	}

	doc, err := s.store.Update(ctx, collection, id, fields)
	if err != nil {
		return models.Document{}, err
	}
	s.publish("updated", collection, doc.ID)
	return doc, nil
}

// Delete removes the documents with the given identifiers and returns
// the count removed.
func (s *Service) Delete(ctx context.Context, collection string, ids []string) (int64, error) {
	n, err := s.store.Delete(ctx, collection, ids)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		s.publish("deleted", collection, id)
	}
	return n, nil
}

func (s *Service) publish(kind, collection, id string) {
	if s.broker != nil {
		s.broker.PublishDocumentEvent(kind, collection, id)
	}
}
