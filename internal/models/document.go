// Package models defines the domain types for Ansuz.
package models

import "encoding/json"

// Document is a single record stored in a collection. Fields carry the
// schema-governed payload; the identifier and timestamps are managed by
// the store.
type Document struct {
	ID        string
	Fields    map[string]any
	CreatedAt int64 // unix milliseconds
	UpdatedAt int64 // unix milliseconds
}

// MarshalJSON flattens Fields to the top level alongside _id and the
// timestamps, matching the wire shape clients expect.
func (d Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Fields)+3)
	for k, v := range d.Fields {
		out[k] = v
	}
	out["_id"] = d.ID
	out["createdAt"] = d.CreatedAt
	out["updatedAt"] = d.UpdatedAt
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON: reserved keys are lifted
// out and everything else lands in Fields.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if id, ok := raw["_id"].(string); ok {
		d.ID = id
	}
	if v, ok := raw["createdAt"].(float64); ok {
		d.CreatedAt = int64(v)
	}
	if v, ok := raw["updatedAt"].(float64); ok {
		d.UpdatedAt = int64(v)
	}
	delete(raw, "_id")
	delete(raw, "createdAt")
	delete(raw, "updatedAt")
	d.Fields = raw
	return nil
}

// FileMeta describes an uploaded file after it has been written to disk.
// The raw bytes are never retained past the initial write.
type FileMeta struct {
	OriginalName string `json:"originalname"`
	MimeType     string `json:"mimetype"`
}

// Asset is one file in the media inventory.
type Asset struct {
	Path      string `json:"path"`
	Size      int64  `json:"size"`
	Mime      string `json:"mime"`
	Checksum  string `json:"checksum"`
	UpdatedAt int64  `json:"updated_at"`
}
