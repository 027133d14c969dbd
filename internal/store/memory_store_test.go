package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCreateThenGet(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	created, err := st.Create(ctx, "projects", Record{
		"title":       "Portfolio",
		"description": "My portfolio site",
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if created.ID() == "" {
		t.Fatal("Expected a generated id")
	}
	if created.Int64("createdAt") == 0 || created.Int64("updatedAt") == 0 {
		t.Error("Expected createdAt and updatedAt to be stamped")
	}

	got, err := st.Get(ctx, "projects", created.ID())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got.Str("title") != "Portfolio" || got.Str("description") != "My portfolio site" {
		t.Errorf("Stored record is missing input fields: %v", got)
	}
	if got.ID() != created.ID() {
		t.Errorf("Expected id %s, got %s", created.ID(), got.ID())
	}
}

func TestGeneratedIDsAreUnique(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		created, err := st.Create(ctx, "skills", Record{"name": "Go"})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if seen[created.ID()] {
			t.Fatalf("Duplicate id generated: %s", created.ID())
		}
		seen[created.ID()] = true
	}
}

func TestDeleteThenGet(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	created, err := st.Create(ctx, "links", Record{"title": "GitHub", "url": "https://github.com"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if err := st.Remove(ctx, "links", created.ID()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	_, err = st.Get(ctx, "links", created.ID())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	if err := st.Remove(ctx, "links", created.ID()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestMergePreservesFields(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	created, err := st.Create(ctx, "skills", Record{
		"name":     "Go",
		"level":    80,
		"category": "backend",
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	before := created.Int64("updatedAt")

	time.Sleep(5 * time.Millisecond)

	merged, err := st.Merge(ctx, "skills", created.ID(), Record{"level": 90})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if merged.Int64("level") != 90 {
		t.Errorf("Expected level 90, got %v", merged["level"])
	}
	if merged.Str("name") != "Go" || merged.Str("category") != "backend" {
		t.Errorf("Merge dropped untouched fields: %v", merged)
	}
	if merged.Int64("updatedAt") <= before {
		t.Errorf("Expected updatedAt to advance, before=%d after=%d", before, merged.Int64("updatedAt"))
	}
	if merged.Int64("createdAt") != created.Int64("createdAt") {
		t.Error("Merge must not change createdAt")
	}
}

func TestMergeUnknownID(t *testing.T) {
	st := NewMemoryStore()

	_, err := st.Merge(context.Background(), "skills", "missing", Record{"level": 1})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestListEmptyCollection(t *testing.T) {
	st := NewMemoryStore()

	records, err := st.List(context.Background(), "never-written")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Errorf("Expected an empty slice, got %v", records)
	}
}

func TestListPreservesInsertionOrder(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	titles := []string{"first", "second", "third"}
	for _, title := range titles {
		if _, err := st.Create(ctx, "projects", Record{"title": title}); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}

	records, err := st.List(ctx, "projects")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(records) != len(titles) {
		t.Fatalf("Expected %d records, got %d", len(titles), len(records))
	}
	for i, title := range titles {
		if records[i].Str("title") != title {
			t.Errorf("Position %d: expected %s, got %s", i, title, records[i].Str("title"))
		}
	}
}

func TestWriteFixedID(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	if err := st.Write(ctx, "settings", "settings", Record{"footer": "hello"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	got, err := st.Get(ctx, "settings", "settings")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got.Str("footer") != "hello" {
		t.Errorf("Expected footer hello, got %v", got["footer"])
	}

	// Overwrite replaces the whole record.
	if err := st.Write(ctx, "settings", "settings", Record{"header": "hi"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	got, err = st.Get(ctx, "settings", "settings")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, exists := got["footer"]; exists {
		t.Error("Write must fully replace the previous record")
	}
}

func TestFindByField(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	for _, skillID := range []string{"s1", "s1", "s2"} {
		if _, err := st.Create(ctx, "media", Record{"skillId": skillID}); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}

	matches, err := st.FindByField(ctx, "media", "skillId", "s1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("Expected 2 matches, got %d", len(matches))
	}
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	created, err := st.Create(ctx, "projects", Record{"title": "original"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	created["title"] = "mutated"

	got, err := st.Get(ctx, "projects", created.ID())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got.Str("title") != "original" {
		t.Error("Mutating a returned record must not affect the stored copy")
	}
}
