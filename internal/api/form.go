package api

import (
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/starford/ansuz/internal/uploads"
)

const maxUploadBytes = 50 << 20 // 50 MB

// formData is a decoded request body: text fields plus any uploaded
// files, regardless of whether the request was multipart or urlencoded.
type formData struct {
	values url.Values
	files  []uploads.File
}

// parseRequestForm reads the request body as multipart/form-data or
// application/x-www-form-urlencoded. File parts are fully read into
// memory; the overall body size is capped.
func parseRequestForm(r *http.Request) (formData, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadBytes)

	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return formData{}, err
		}
		fd := formData{values: url.Values(r.MultipartForm.Value)}
		for field, headers := range r.MultipartForm.File {
			for _, hdr := range headers {
				f, err := hdr.Open()
				if err != nil {
					return formData{}, err
				}
				data, err := io.ReadAll(f)
				f.Close()
				if err != nil {
					return formData{}, err
				}
				fd.files = append(fd.files, uploads.File{
					Field:        field,
					OriginalName: hdr.Filename,
					MimeType:     hdr.Header.Get("Content-Type"),
					Data:         data,
				})
			}
		}
		return fd, nil
	}

	if err := r.ParseForm(); err != nil {
		return formData{}, err
	}
	return formData{values: r.PostForm}, nil
}

// bodyMap flattens the text fields to a single-valued map, the shape
// the coercion layer works on.
func (fd formData) bodyMap() map[string]any {
	out := make(map[string]any, len(fd.values))
	for k, vs := range fd.values {
		if len(vs) > 0 {
			out[k] = vs[0]
		}
	}
	return out
}
