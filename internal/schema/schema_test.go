package schema

import (
	"reflect"
	"testing"
)

func TestCompileMergesFragmentsInOrder(t *testing.T) {
	fields := []Field{
		{Title: "Name", Schema: map[string]string{"Name": "string"}},
		{Title: "Age", Schema: map[string]string{"Age": "number"}},
		// Later fragment wins on collision.
		{Title: "Name2", Schema: map[string]string{"Name": "number"}},
	}
	got := Compile(fields)
	want := map[string]string{"Name": "number", "Age": "number"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Compile = %v, want %v", got, want)
	}
}

func TestCompileRemovesWidgetKey(t *testing.T) {
	fields := []Field{
		{Title: "Name", Schema: map[string]string{"Name": "string", WidgetKey: "text"}},
	}
	got := Compile(fields)
	if _, ok := got[WidgetKey]; ok {
		t.Error("reserved widget key should be removed")
	}
	if got["Name"] != "string" {
		t.Errorf("Name = %q, want string", got["Name"])
	}
}

func TestCompileIdempotent(t *testing.T) {
	fields := []Field{
		{Title: "A", Schema: map[string]string{"A": "string"}},
		{Title: "B", Schema: map[string]string{"B": "number"}},
	}
	first := Compile(fields)
	second := Compile(fields)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Compile not idempotent: %v vs %v", first, second)
	}
}

func TestCompileEmptyFields(t *testing.T) {
	if got := Compile(nil); len(got) != 0 {
		t.Errorf("Compile(nil) = %v, want empty", got)
	}
}

func TestFindFieldByTitle_TopLevel(t *testing.T) {
	fields := []Field{
		{Title: "Name"},
		{Title: "Avatar", Path: "uploads/avatar"},
	}
	f, ok := FindFieldByTitle(fields, "Avatar")
	if !ok {
		t.Fatal("Avatar not found")
	}
	if f.Path != "uploads/avatar" {
		t.Errorf("path = %q", f.Path)
	}
}

func TestFindFieldByTitle_NestedInGroup(t *testing.T) {
	fields := []Field{
		{Title: "Meta", Fields: []Field{
			{Title: "Author"},
		}},
		// A sibling AFTER the first group, nested — the old
		// first-branch-only search would miss this one.
		{Title: "Media", Fields: []Field{
			{Title: "Cover", Path: "uploads/cover"},
		}},
	}
	f, ok := FindFieldByTitle(fields, "Cover")
	if !ok {
		t.Fatal("Cover not found in second branch")
	}
	if f.Path != "uploads/cover" {
		t.Errorf("path = %q", f.Path)
	}
}

func TestFindFieldByTitle_Missing(t *testing.T) {
	fields := []Field{{Title: "Name"}}
	if _, ok := FindFieldByTitle(fields, "Ghost"); ok {
		t.Error("expected not found")
	}
}

func TestRegistryGet(t *testing.T) {
	r, err := NewRegistry([]Collection{
		{Name: "Articles", Fields: []Field{{Title: "Title", Schema: map[string]string{"Title": "string"}}}},
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if _, err := r.Get("Articles"); err != nil {
		t.Errorf("Get(Articles): %v", err)
	}
	if _, err := r.Get("Nope"); err == nil {
		t.Error("Get(Nope) should fail")
	}
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	_, err := NewRegistry([]Collection{
		{Name: "A", Fields: []Field{{Title: "X"}}},
		{Name: "A", Fields: []Field{{Title: "Y"}}},
	})
	if err == nil {
		t.Error("duplicate collection names should fail")
	}
}

func TestRegistryRejectsDuplicateSiblingTitles(t *testing.T) {
	_, err := NewRegistry([]Collection{
		{Name: "A", Fields: []Field{{Title: "X"}, {Title: "X"}}},
	})
	if err == nil {
		t.Error("duplicate sibling titles should fail")
	}
}

func TestRegistryAllowsSameTitleAtDifferentLevels(t *testing.T) {
	_, err := NewRegistry([]Collection{
		{Name: "A", Fields: []Field{
			{Title: "X"},
			{Title: "G", Fields: []Field{{Title: "X"}}},
		}},
	})
	if err != nil {
		t.Errorf("same title at different levels should pass: %v", err)
	}
}

func TestStorageSchemaBoundAtBuild(t *testing.T) {
	r, err := NewRegistry([]Collection{
		{Name: "People", Fields: []Field{
			{Title: "Name", Schema: map[string]string{"Name": "string"}},
			{Title: "Phone", Schema: map[string]string{"Phone": "string", WidgetKey: "phoneNumber"}},
		}},
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	s, err := r.StorageSchema("People")
	if err != nil {
		t.Fatalf("StorageSchema: %v", err)
	}
	want := map[string]string{"Name": "string", "Phone": "string"}
	if !reflect.DeepEqual(s, want) {
		t.Errorf("schema = %v, want %v", s, want)
	}
}
