package redact

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// TriggerField is the form parameter whose presence routes a multipart
// insert into the redaction pipeline.
const TriggerField = "crop_left"

// ParamsFromForm decodes pipeline parameters from a multipart form.
// Numeric parameters arrive as text; blur_areas is a JSON-encoded array
// of rectangles whose coordinates may themselves be strings.
func ParamsFromForm(form url.Values) (Params, error) {
	p := Params{
		Name:       form.Get("name"),
		Width:      atoi(form.Get("width")),
		Height:     atoi(form.Get("height")),
		CropLeft:   atoi(form.Get("crop_left")),
		CropTop:    atoi(form.Get("crop_top")),
		CropRight:  atoi(form.Get("crop_right")),
		CropBottom: atoi(form.Get("crop_bottom")),
	}
	if v := form.Get("rotate"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Params{}, fmt.Errorf("redact: rotate %q: %w", v, err)
		}
		p.Rotate = f
	}

	if raw := form.Get("blur_areas"); raw != "" {
		var areas []map[string]any
		if err := json.Unmarshal([]byte(raw), &areas); err != nil {
			return Params{}, fmt.Errorf("redact: blur_areas: %w", err)
		}
		for _, a := range areas {
			p.BlurAreas = append(p.BlurAreas, Rect{
				Left:   asInt(a["left"]),
				Top:    asInt(a["top"]),
				Width:  asInt(a["width"]),
				Height: asInt(a["height"]),
			})
		}
	}
	return p, nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// asInt accepts the loose typing of form-submitted JSON, where numbers
// may arrive as strings.
func asInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case string:
		return atoi(n)
	}
	return 0
}
