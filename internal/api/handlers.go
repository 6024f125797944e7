package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/docservice"
	"github.com/starford/ansuz/internal/media"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/redact"
	"github.com/starford/ansuz/internal/schema"
)

// Handler holds API route handlers.
type Handler struct {
	svc      *docservice.Service
	registry *schema.Registry
	assets   *media.Inventory
}

// NewHandler creates a new Handler.
func NewHandler(svc *docservice.Service, registry *schema.Registry, assets *media.Inventory) *Handler {
	return &Handler{svc: svc, registry: registry, assets: assets}
}

// GetCollections handles GET /get_collections.
//
//	@Summary		List all collection declarations
//	@Tags			collections
//	@Produce		json
//	@Success		200	{array}	schema.Collection
//	@Router			/get_collections [get]
func (h *Handler) GetCollections(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.registry.All())
}

// FindByID handles GET /api/findById.
//
//	@Summary		Get a single document by identifier
//	@Tags			documents
//	@Produce		json
//	@Param			collection	query		string	true	"Collection name"
//	@Param			id			query		string	true	"Document identifier"
//	@Success		200			{object}	models.Document
//	@Failure		404			{object}	errResponse
//	@Router			/api/findById [get]
func (h *Handler) FindByID(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	collection := q.Get("collection")
	id := q.Get("id")
	if collection == "" || id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("collection and id are required"))
		return
	}
	doc, err := h.svc.Get(r.Context(), collection, id)
	if err != nil {
		h.writeError(w, "find by id failed", collection, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Find handles GET /api/find.
//
//	@Summary		Find documents matching a filter expression
//	@Tags			documents
//	@Produce		json
//	@Param			collection	query		string	true	"Collection name"
//	@Param			query		query		string	true	"JSON filter expression"
//	@Success		200			{array}		models.Document
//	@Failure		400			{object}	errResponse
//	@Router			/api/find [get]
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	collection := q.Get("collection")
	if collection == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("collection is required"))
		return
	}
	filter := map[string]any{}
	if raw := q.Get("query"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &filter); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid query expression"))
			return
		}
	}
	docs, err := h.svc.Find(r.Context(), collection, filter)
	if err != nil {
		h.writeError(w, "find failed", collection, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// ListDocuments handles GET /api/{collection}.
//
//	@Summary		List documents with pagination
//	@Tags			documents
//	@Produce		json
//	@Param			collection	path		string	true	"Collection name"
//	@Param			page		query		int		false	"Page number (1-based)"
//	@Param			length		query		int		false	"Page size; omit for all"
//	@Success		200			{object}	ListResponse
//	@Failure		404			{object}	errResponse
//	@Router			/api/{collection} [get]
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	length, _ := strconv.Atoi(q.Get("length"))

	total, docs, err := h.svc.List(r.Context(), collection, page, length)
	if err != nil {
		h.writeError(w, "list failed", collection, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse{TotalCount: total, EntryList: docs})
}

// CreateDocuments handles POST /api/{collection}.
//
// A multipart body carrying files plus the crop_left parameter is
// routed through the redaction pipeline and yields one document per
// encoded output. Any other body is coerced and stored as a single
// document, with uploaded files placed under their field paths.
//
//	@Summary		Create documents from a form body
//	@Tags			documents
//	@Accept			mpfd
//	@Produce		json
//	@Param			collection	path		string	true	"Collection name"
//	@Success		201			{array}		models.Document
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Router			/api/{collection} [post]
func (h *Handler) CreateDocuments(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	fd, err := parseRequestForm(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid form body"))
		return
	}

	if len(fd.files) > 0 && fd.values.Get(redact.TriggerField) != "" {
		params, err := redact.ParamsFromForm(fd.values)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
			return
		}
		images := make([][]byte, len(fd.files))
		for i, f := range fd.files {
			images[i] = f.Data
		}
		docs, err := h.svc.InsertRedacted(r.Context(), collection, params, images)
		if err != nil {
			h.writeError(w, "redacted insert failed", collection, err)
			return
		}
		writeJSON(w, http.StatusCreated, docs)
		return
	}

	doc, err := h.svc.Insert(r.Context(), collection, fd.bodyMap(), fd.files)
	if err != nil {
		h.writeError(w, "insert failed", collection, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// UpdateDocument handles PATCH /api/{collection}.
//
// The _id field selects the document; the remaining fields are coerced
// and merged in. A missing document is created with the given id.
//
//	@Summary		Update (or upsert) a single document
//	@Tags			documents
//	@Accept			mpfd
//	@Produce		json
//	@Param			collection	path		string	true	"Collection name"
//	@Success		200			{object}	models.Document
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Router			/api/{collection} [patch]
func (h *Handler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	fd, err := parseRequestForm(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid form body"))
		return
	}

	body := fd.bodyMap()
	id, _ := body["_id"].(string)
	delete(body, "_id")

	doc, err := h.svc.Update(r.Context(), collection, id, body, fd.files)
	if err != nil {
		h.writeError(w, "update failed", collection, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// DeleteDocuments handles DELETE /api/{collection}.
//
// The ids form field carries a JSON-encoded array of identifiers.
//
//	@Summary		Delete documents by identifier
//	@Tags			documents
//	@Produce		json
//	@Param			collection	path		string	true	"Collection name"
//	@Success		200			{object}	DeleteResponse
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Router			/api/{collection} [delete]
func (h *Handler) DeleteDocuments(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	fd, err := parseRequestForm(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid form body"))
		return
	}

	var ids []string
	if err := json.Unmarshal([]byte(fd.values.Get("ids")), &ids); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("ids must be a JSON array of identifiers"))
		return
	}

	n, err := h.svc.Delete(r.Context(), collection, ids)
	if err != nil {
		h.writeError(w, "delete failed", collection, err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteResponse{DeletedCount: n})
}

// ListAssets handles GET /api/assets.
//
//	@Summary		List the media inventory
//	@Tags			assets
//	@Produce		json
//	@Success		200	{object}	AssetListResponse
//	@Router			/api/assets [get]
func (h *Handler) ListAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := h.assets.List()
	if err != nil {
		slog.Error("list assets failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if assets == nil {
		assets = []models.Asset{}
	}
	writeJSON(w, http.StatusOK, AssetListResponse{Assets: assets})
}

// writeError maps service errors onto HTTP responses.
func (h *Handler) writeError(w http.ResponseWriter, msg, collection string, err error) {
	switch {
	case errors.Is(err, apperr.ErrCollectionNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("collection not found"))
	case errors.Is(err, apperr.ErrFieldNotFound):
		writeJSON(w, http.StatusBadRequest, errorBody("field not found"))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	default:
		slog.Error(msg, slog.String("collection", collection), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}
