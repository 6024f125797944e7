package store

import (
	"testing"

	"github.com/starford/ansuz/internal/models"
)

func doc(fields map[string]any) models.Document {
	return models.Document{ID: "id1", Fields: fields, CreatedAt: 100, UpdatedAt: 200}
}

func TestMatchesEquality(t *testing.T) {
	d := doc(map[string]any{"Status": "published", "Views": float64(10)})

	cases := []struct {
		name   string
		filter map[string]any
		want   bool
	}{
		{"string eq", map[string]any{"Status": "published"}, true},
		{"string neq", map[string]any{"Status": "draft"}, false},
		{"number eq int vs float", map[string]any{"Views": 10}, true},
		{"missing field", map[string]any{"Ghost": "x"}, false},
		{"id", map[string]any{"_id": "id1"}, true},
		{"createdAt", map[string]any{"createdAt": float64(100)}, true},
		{"empty filter", map[string]any{}, true},
		{"nil filter", nil, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Matches(d, tc.filter); got != tc.want {
				t.Errorf("Matches(%v) = %v, want %v", tc.filter, got, tc.want)
			}
		})
	}
}

func TestMatchesOperators(t *testing.T) {
	d := doc(map[string]any{"Views": float64(10), "Tag": "go"})

	cases := []struct {
		name   string
		filter map[string]any
		want   bool
	}{
		{"$gt true", map[string]any{"Views": map[string]any{"$gt": float64(5)}}, true},
		{"$gt false", map[string]any{"Views": map[string]any{"$gt": float64(10)}}, false},
		{"$gte boundary", map[string]any{"Views": map[string]any{"$gte": float64(10)}}, true},
		{"$lt", map[string]any{"Views": map[string]any{"$lt": float64(11)}}, true},
		{"$lte false", map[string]any{"Views": map[string]any{"$lte": float64(9)}}, false},
		{"$ne", map[string]any{"Tag": map[string]any{"$ne": "rust"}}, true},
		{"$in hit", map[string]any{"Tag": map[string]any{"$in": []any{"go", "rust"}}}, true},
		{"$in miss", map[string]any{"Tag": map[string]any{"$in": []any{"rust"}}}, false},
		{"$exists true", map[string]any{"Tag": map[string]any{"$exists": true}}, true},
		{"$exists false on present", map[string]any{"Tag": map[string]any{"$exists": false}}, false},
		{"$exists false on absent", map[string]any{"Ghost": map[string]any{"$exists": false}}, true},
		{"unknown operator", map[string]any{"Tag": map[string]any{"$regex": ".*"}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Matches(d, tc.filter); got != tc.want {
				t.Errorf("Matches(%v) = %v, want %v", tc.filter, got, tc.want)
			}
		})
	}
}

func TestMatchesDottedPath(t *testing.T) {
	d := doc(map[string]any{
		"Author": map[string]any{"Name": "Ada", "Contact": map[string]any{"Phone": "123"}},
	})
	if !Matches(d, map[string]any{"Author.Name": "Ada"}) {
		t.Error("dotted path should match")
	}
	if !Matches(d, map[string]any{"Author.Contact.Phone": "123"}) {
		t.Error("deep dotted path should match")
	}
	if Matches(d, map[string]any{"Author.Ghost": "x"}) {
		t.Error("missing nested key should not match")
	}
	if Matches(d, map[string]any{"Author.Name.Deeper": "x"}) {
		t.Error("traversing through a scalar should not match")
	}
}

func TestMatchesPlainObjectValueIsEquality(t *testing.T) {
	d := doc(map[string]any{"Meta": map[string]any{"a": float64(1)}})
	// An object without $-operators compares structurally.
	if !Matches(d, map[string]any{"Meta": map[string]any{"a": float64(1)}}) {
		t.Error("structural equality should match")
	}
}
