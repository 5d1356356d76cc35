package publish

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/maine/region_digest_bot/internal/aggregate"
	"github.com/maine/region_digest_bot/internal/post"
)

func TestFilePublisher(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	clock := func() time.Time { return time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC) }
	p := NewFilePublisher(dir, clock)

	digests := []*aggregate.Digest{
		{
			Anchor: &post.Post{OwnerID: -1, PostID: 100, Text: "Новость"},
			Text:   "📰 НОВОСТИ\n\nНовость",
			Title:  "📰 НОВОСТИ",
		},
	}
	if err := p.Publish(context.Background(), digests); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	path := filepath.Join(dir, "digests_20260828_120000.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}

	var got []*aggregate.Digest
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	if len(got) != 1 || got[0].Title != "📰 НОВОСТИ" {
		t.Errorf("got %+v, want one digest with news title", got)
	}
}

func TestFilePublisher_EmptyIsNoop(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	p := NewFilePublisher(dir, nil)

	if err := p.Publish(context.Background(), nil); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("output dir created for empty publish")
	}
}
