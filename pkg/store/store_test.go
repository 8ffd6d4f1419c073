package store

import (
	"context"
	"testing"
	"time"

	"github.com/fpbviz/fpbviz/pkg/errors"
	"github.com/fpbviz/fpbviz/pkg/fpb"
	"github.com/fpbviz/fpbviz/pkg/layout"
)

func testDoc(id, title string) *Document {
	return &Document{
		ID:    id,
		Title: title,
		Model: &fpb.ProcessModel{
			Title:            title,
			ProcessOperators: []fpb.ProcessOperator{{ID: "p1", Label: "p1"}},
		},
		Config: layout.DefaultConfig(),
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}

	// Missing document yields MODEL_NOT_FOUND.
	_, err = s.Get(ctx, "nope")
	if !errors.Is(err, errors.ErrCodeModelNotFound) {
		t.Errorf("missing document error = %v, want MODEL_NOT_FOUND", err)
	}

	doc := testDoc("d1", "Brewing")
	if err := s.Put(ctx, doc); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if doc.CreatedAt.IsZero() || doc.UpdatedAt.IsZero() {
		t.Error("Put should stamp timestamps")
	}

	got, err := s.Get(ctx, "d1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.Title != "Brewing" {
		t.Errorf("Title = %q, want Brewing", got.Title)
	}
	if got.Model == nil || len(got.Model.ProcessOperators) != 1 {
		t.Error("model should survive the round trip")
	}
}

func TestFileStoreList(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}

	older := testDoc("older", "Older")
	if err := s.Put(ctx, older); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	newer := testDoc("newer", "Newer")
	if err := s.Put(ctx, newer); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("List returned %d entries, want 2", len(list))
	}
	if list[0].ID != "newer" {
		t.Errorf("List should sort newest first, got %s", list[0].ID)
	}
	if list[0].Title != "Newer" {
		t.Errorf("summary title = %q, want Newer", list[0].Title)
	}
}

func TestFileStoreDelete(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}

	if err := s.Put(ctx, testDoc("d1", "Doc")); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if err := s.Delete(ctx, "d1"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, err := s.Get(ctx, "d1"); !errors.Is(err, errors.ErrCodeModelNotFound) {
		t.Error("deleted document should be gone")
	}

	// Idempotent.
	if err := s.Delete(ctx, "d1"); err != nil {
		t.Errorf("second Delete error: %v", err)
	}
}

func TestFileStoreRejectsBadIDs(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}

	for _, id := range []string{"", "../escape", "a/b"} {
		if _, err := s.Get(ctx, id); err == nil {
			t.Errorf("Get(%q) should fail validation", id)
		}
	}
}
