package store

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/schema"
	"errors"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	reg, err := schema.NewRegistry([]schema.Collection{
		{Name: "Articles", Fields: []schema.Field{
			{Title: "Title", Schema: map[string]string{"Title": "string"}},
			{Title: "Views", Schema: map[string]string{"Views": "number"}},
		}},
		{Name: "People", Strict: true, Fields: []schema.Field{
			{Title: "Name", Schema: map[string]string{"Name": "string"}},
		}},
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	f, err := os.CreateTemp("", "ansuz-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	s, err := Open(f.Name(), reg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInsertAndGet(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	doc, err := s.Insert(ctx, "Articles", map[string]any{"Title": "Hello", "Views": float64(3)})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if doc.ID == "" || doc.CreatedAt == 0 || doc.UpdatedAt == 0 {
		t.Errorf("doc = %+v, missing id or timestamps", doc)
	}

	got, err := s.Get(ctx, "Articles", doc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Fields["Title"] != "Hello" {
		t.Errorf("Title = %v", got.Fields["Title"])
	}
}

func TestGetMissingDocument(t *testing.T) {
	s := testStore(t)
	_, err := s.Get(context.Background(), "Articles", "nope")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUnknownCollection(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	if _, err := s.Insert(ctx, "Ghost", nil); !errors.Is(err, apperr.ErrCollectionNotFound) {
		t.Errorf("Insert err = %v, want ErrCollectionNotFound", err)
	}
	if _, _, err := s.List(ctx, "Ghost", 1, 10); !errors.Is(err, apperr.ErrCollectionNotFound) {
		t.Errorf("List err = %v, want ErrCollectionNotFound", err)
	}
	if _, err := s.Delete(ctx, "Ghost", []string{"x"}); !errors.Is(err, apperr.ErrCollectionNotFound) {
		t.Errorf("Delete err = %v, want ErrCollectionNotFound", err)
	}
}

func TestListPagination(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	for i := 0; i < 25; i++ {
		if _, err := s.Insert(ctx, "Articles", map[string]any{"Title": fmt.Sprintf("n%02d", i)}); err != nil {
			t.Fatalf("Insert %d: %v", i, err)
		}
	}

	total, docs, err := s.List(ctx, "Articles", 2, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 25 {
		t.Errorf("total = %d, want 25", total)
	}
	if len(docs) != 10 {
		t.Fatalf("len(docs) = %d, want 10", len(docs))
	}
	if docs[0].Fields["Title"] != "n10" {
		t.Errorf("first doc on page 2 = %v, want n10", docs[0].Fields["Title"])
	}
}

func TestListUnboundedPageSize(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, _ = s.Insert(ctx, "Articles", map[string]any{"Title": "x"})
	}
	total, docs, err := s.List(ctx, "Articles", 0, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 5 || len(docs) != 5 {
		t.Errorf("total = %d, len = %d, want 5/5", total, len(docs))
	}
}

func TestUpdateMergesExisting(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	doc, _ := s.Insert(ctx, "Articles", map[string]any{"Title": "v1", "Views": float64(1)})

	got, err := s.Update(ctx, "Articles", doc.ID, map[string]any{"Title": "v2"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Fields["Title"] != "v2" {
		t.Errorf("Title = %v, want v2", got.Fields["Title"])
	}
	if got.Fields["Views"] != float64(1) {
		t.Errorf("Views = %v, merge should keep untouched fields", got.Fields["Views"])
	}
}

func TestUpdateUpsertsMissing(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	got, err := s.Update(ctx, "Articles", "brand-new", map[string]any{"Title": "created"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.ID != "brand-new" {
		t.Errorf("id = %q", got.ID)
	}
	check, err := s.Get(ctx, "Articles", "brand-new")
	if err != nil {
		t.Fatalf("Get after upsert: %v", err)
	}
	if check.Fields["Title"] != "created" {
		t.Errorf("Title = %v", check.Fields["Title"])
	}
}

func TestDeleteByIDs(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	a, _ := s.Insert(ctx, "Articles", map[string]any{"Title": "a"})
	b, _ := s.Insert(ctx, "Articles", map[string]any{"Title": "b"})
	_, _ = s.Insert(ctx, "Articles", map[string]any{"Title": "keep"})

	n, err := s.Delete(ctx, "Articles", []string{a.ID, b.ID})
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted = %d, want 2", n)
	}
	total, _, _ := s.List(ctx, "Articles", 1, 0)
	if total != 1 {
		t.Errorf("remaining = %d, want 1", total)
	}
}

func TestDeleteEmptyIDs(t *testing.T) {
	s := testStore(t)
	n, err := s.Delete(context.Background(), "Articles", nil)
	if err != nil || n != 0 {
		t.Errorf("Delete(nil) = %d, %v", n, err)
	}
}

func TestFindWithFilter(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	_, _ = s.Insert(ctx, "Articles", map[string]any{"Title": "go", "Views": float64(10)})
	_, _ = s.Insert(ctx, "Articles", map[string]any{"Title": "rust", "Views": float64(5)})

	docs, err := s.Find(ctx, "Articles", map[string]any{"Title": "go"})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(docs) != 1 || docs[0].Fields["Title"] != "go" {
		t.Errorf("docs = %+v", docs)
	}

	docs, err = s.Find(ctx, "Articles", map[string]any{"Views": map[string]any{"$gte": float64(10)}})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(docs) != 1 {
		t.Errorf("operator filter matched %d docs, want 1", len(docs))
	}

	docs, err = s.Find(ctx, "Articles", nil)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("empty filter matched %d docs, want 2", len(docs))
	}
}

func TestStrictCollectionDropsUnknownKeys(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	doc, err := s.Insert(ctx, "People", map[string]any{"Name": "Ada", "Sneaky": "x"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	got, _ := s.Get(ctx, "People", doc.ID)
	if _, ok := got.Fields["Sneaky"]; ok {
		t.Error("strict collection kept an unknown key")
	}
	if got.Fields["Name"] != "Ada" {
		t.Errorf("Name = %v", got.Fields["Name"])
	}
}

func TestNonStrictCollectionKeepsUnknownKeys(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	doc, _ := s.Insert(ctx, "Articles", map[string]any{"Anything": "goes"})
	got, _ := s.Get(ctx, "Articles", doc.ID)
	if got.Fields["Anything"] != "goes" {
		t.Errorf("Anything = %v", got.Fields["Anything"])
	}
}
