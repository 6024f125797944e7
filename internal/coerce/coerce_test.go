package coerce

import (
	"reflect"
	"testing"
)

func TestMapDecodesJSONStrings(t *testing.T) {
	got := Map(map[string]any{"k": "[1,2,3]"})
	want := map[string]any{"k": []any{float64(1), float64(2), float64(3)}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Map = %v, want %v", got, want)
	}
}

func TestMapKeepsNonJSONStrings(t *testing.T) {
	got := Map(map[string]any{"k": "hello world"})
	if got["k"] != "hello world" {
		t.Errorf("k = %v, want original text", got["k"])
	}
}

func TestValueTable(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want any
	}{
		{"number string", "42", float64(42)},
		{"bool string", "true", true},
		{"object string", `{"a":"1"}`, map[string]any{"a": float64(1)}},
		{"quoted string", `"hi"`, "hi"},
		{"plain text", "not json", "not json"},
		{"empty string", "", ""},
		{"already structured", float64(7), float64(7)},
		{"nil", nil, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Value(tc.in)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Value(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestArrayElementsCoercedByPosition(t *testing.T) {
	got := Value([]any{"1", "x", `{"n":"2"}`})
	want := []any{float64(1), "x", map[string]any{"n": float64(2)}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Value = %v, want %v", got, want)
	}
}

func TestNestedStructuresRecursed(t *testing.T) {
	got := Map(map[string]any{
		"outer": `{"inner":"[true,false]"}`,
	})
	outer, ok := got["outer"].(map[string]any)
	if !ok {
		t.Fatalf("outer = %T", got["outer"])
	}
	want := []any{true, false}
	if !reflect.DeepEqual(outer["inner"], want) {
		t.Errorf("inner = %v, want %v", outer["inner"], want)
	}
}

func TestMapDoesNotMutateInput(t *testing.T) {
	in := map[string]any{"k": "[1]"}
	_ = Map(in)
	if in["k"] != "[1]" {
		t.Error("input map was mutated")
	}
}
