package schema

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/ansuz/internal/apperr"
)

// Registry holds the ordered collection definitions and their compiled
// storage schemas. It is built once at startup and passed explicitly to
// every consumer; there is no ambient global.
type Registry struct {
	collections []Collection
	byName      map[string]int
	compiled    map[string]map[string]string
}

// NewRegistry validates the definitions and builds the registry.
func NewRegistry(collections []Collection) (*Registry, error) {
	r := &Registry{
		collections: collections,
		byName:      make(map[string]int, len(collections)),
		compiled:    make(map[string]map[string]string, len(collections)),
	}
	for i, c := range collections {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("schema: collection %q: %w", c.Name, err)
		}
		if _, dup := r.byName[c.Name]; dup {
			return nil, fmt.Errorf("schema: duplicate collection name %q", c.Name)
		}
		r.byName[c.Name] = i
		r.compiled[c.Name] = Compile(c.Fields)
	}
	return r, nil
}

// Get returns the collection definition by name.
func (r *Registry) Get(name string) (Collection, error) {
	i, ok := r.byName[name]
	if !ok {
		return Collection{}, fmt.Errorf("schema: %q: %w", name, apperr.ErrCollectionNotFound)
	}
	return r.collections[i], nil
}

// StorageSchema returns the compiled storage schema for a collection.
func (r *Registry) StorageSchema(name string) (map[string]string, error) {
	s, ok := r.compiled[name]
	if !ok {
		return nil, fmt.Errorf("schema: %q: %w", name, apperr.ErrCollectionNotFound)
	}
	return s, nil
}

// All returns the collections in declaration order.
func (r *Registry) All() []Collection {
	return r.collections
}

// Validate checks a collection definition: name present, field titles
// present and unique among siblings at every nesting level.
func (c Collection) Validate() error {
	if err := validation.ValidateStruct(&c,
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.Fields, validation.Required),
	); err != nil {
		return err
	}
	return validateFields(c.Fields)
}

func validateFields(fields []Field) error {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f.Title == "" {
			return fmt.Errorf("field title is required")
		}
		if _, dup := seen[f.Title]; dup {
			return fmt.Errorf("duplicate sibling field title %q", f.Title)
		}
		seen[f.Title] = struct{}{}
		if len(f.Fields) > 0 {
			if err := validateFields(f.Fields); err != nil {
				return err
			}
		}
	}
	return nil
}
