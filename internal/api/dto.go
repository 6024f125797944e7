package api

import "github.com/starford/ansuz/internal/models"

// ListResponse wraps a paginated collection listing.
type ListResponse struct {
	TotalCount int               `json:"totalCount" example:"42" validate:"required"`
	EntryList  []models.Document `json:"entryList" validate:"required"`
}

// DeleteResponse reports how many documents a delete removed.
type DeleteResponse struct {
	DeletedCount int64 `json:"deletedCount" example:"2" validate:"required"`
}

// SessionResponse is the identity gateway's uniform response shape.
// Status carries 200 on success and 404 on any failure; the transport
// status is always 200.
type SessionResponse struct {
	User    string `json:"user,omitempty" example:"Admin"`
	Session string `json:"session,omitempty" example:"6f1f0a..."`
	Status  int    `json:"status" example:"200" validate:"required"`
}

// AssetListResponse wraps the media inventory listing.
type AssetListResponse struct {
	Assets []models.Asset `json:"assets" validate:"required"`
}
