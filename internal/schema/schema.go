// Package schema holds collection declarations and compiles them into
// storage schemas. Declarations are loaded once at startup and never
// mutated afterwards.
package schema

// WidgetKey is the reserved storage-fragment key that holds a field's
// presentation component. It never reaches the store.
const WidgetKey = "widget"

// DisplayFunc transforms a stored value into its presentational form.
// data is the stored value, field the owning definition, and doc the
// full document. A nil DisplayFunc means identity.
type DisplayFunc func(data any, field Field, doc map[string]any) any

// Field declares one attribute of a collection. Composite (group)
// fields carry child Fields and an empty storage fragment; file-accepting
// fields carry the directory their uploads land in.
type Field struct {
	Title    string            `json:"title" yaml:"title"`
	Widget   string            `json:"widget" yaml:"widget"`
	Schema   map[string]string `json:"schema,omitempty" yaml:"schema,omitempty"`
	Fields   []Field           `json:"fields,omitempty" yaml:"fields,omitempty"`
	Path     string            `json:"path,omitempty" yaml:"path,omitempty"`
	Required bool              `json:"required,omitempty" yaml:"required,omitempty"`
	Display  DisplayFunc       `json:"-" yaml:"-"`
}

// AcceptsFiles reports whether uploads submitted under this field's
// title should be placed on disk.
func (f Field) AcceptsFiles() bool {
	return f.Path != ""
}

// Collection is a named set of documents sharing a declared schema.
// Strict collections reject unknown keys at storage time.
type Collection struct {
	Name   string  `json:"name" yaml:"name"`
	Strict bool    `json:"strict,omitempty" yaml:"strict,omitempty"`
	Fields []Field `json:"fields" yaml:"fields"`
}
