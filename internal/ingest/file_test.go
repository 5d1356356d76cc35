package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/maine/region_digest_bot/internal/post"
)

func TestFileCollector(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.json")
	data := `[
		{"id": 1, "owner_id": -170319760, "post_id": 3512, "text": "Первый пост", "views": 100},
		{"id": 2, "owner_id": -99, "post_id": 7, "text": "Второй пост", "status": "approved"}
	]`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	posts, err := NewFileCollector(path).Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("got %d posts, want 2", len(posts))
	}
	if posts[0].OwnerID != -170319760 || posts[0].Views != 100 {
		t.Errorf("first post = %+v", posts[0])
	}

	// Пост без статуса получает StatusNew, явный статус сохраняется.
	if posts[0].Status != post.StatusNew {
		t.Errorf("Status = %q, want %q", posts[0].Status, post.StatusNew)
	}
	if posts[1].Status != post.StatusApproved {
		t.Errorf("Status = %q, want %q", posts[1].Status, post.StatusApproved)
	}
}

func TestFileCollector_MissingFile(t *testing.T) {
	_, err := NewFileCollector(filepath.Join(t.TempDir(), "nope.json")).Collect(context.Background())
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFileCollector_MalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileCollector(path).Collect(context.Background()); err == nil {
		t.Error("expected error for malformed JSON")
	}
}
