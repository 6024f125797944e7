package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Widget kinds understood by the loader. Each kind contributes the
// storage fragment its values are persisted under.
const (
	WidgetText        = "text"
	WidgetTextarea    = "textarea"
	WidgetRichText    = "richText"
	WidgetPhoneNumber = "phoneNumber"
	WidgetSelect      = "select"
	WidgetNumber      = "number"
	WidgetToggle      = "toggle"
	WidgetDate        = "date"
	WidgetTags        = "tags"
	WidgetImage       = "image"
	WidgetFile        = "file"
	WidgetImageArray  = "imageArray"
	WidgetGroup       = "group"
)

type declFile struct {
	Collections []Collection `yaml:"collections"`
}

// LoadFile reads collection declarations from a YAML file and returns
// the validated registry. Fragments omitted in the file are derived
// from each field's widget kind, the way the widget factories build
// them; an explicit schema block in the file overrides the derived one.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: read declarations: %w", err)
	}
	return Load(data)
}

// Load parses collection declarations from YAML bytes.
func Load(data []byte) (*Registry, error) {
	var f declFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("schema: parse declarations: %w", err)
	}
	for i := range f.Collections {
		deriveFragments(f.Collections[i].Fields)
	}
	return NewRegistry(f.Collections)
}

// deriveFragments fills in missing storage fragments bottom-up.
func deriveFragments(fields []Field) {
	for i := range fields {
		if len(fields[i].Fields) > 0 {
			deriveFragments(fields[i].Fields)
		}
		if fields[i].Schema != nil {
			continue
		}
		fields[i].Schema = fragmentFor(fields[i])
	}
}

// fragmentFor builds the storage fragment a widget kind declares for
// its title. Group fields own no storage of their own; their children
// contribute fragments individually.
func fragmentFor(f Field) map[string]string {
	switch f.Widget {
	case WidgetGroup:
		return map[string]string{}
	case WidgetNumber, WidgetDate:
		return map[string]string{f.Title: "number"}
	case WidgetToggle:
		return map[string]string{f.Title: "boolean"}
	case WidgetTags:
		return map[string]string{f.Title: "array"}
	case WidgetImage, WidgetFile, WidgetImageArray:
		return map[string]string{f.Title: "object"}
	default:
		// text, textarea, richText, phoneNumber, select, and any
		// unrecognised kind store a plain string.
		return map[string]string{f.Title: "string"}
	}
}
