package state

import (
	"path/filepath"
	"testing"
	"time"
)

func TestFileStore_LoadMissingFile(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "state.json"))

	st, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !st.LastRunAt.IsZero() || len(st.Published) != 0 {
		t.Errorf("missing file should load as empty state, got %+v", st)
	}
}

func TestFileStore_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	s := NewFileStore(path)

	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	saved := &State{
		LastRunAt: now,
		Published: []PublishedDigest{
			{AnchorRef: "@wall-1_100", Title: "📰 НОВОСТИ", PublishedAt: now},
		},
	}
	if err := s.Save(saved); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !loaded.LastRunAt.Equal(now) {
		t.Errorf("LastRunAt = %v, want %v", loaded.LastRunAt, now)
	}
	if len(loaded.Published) != 1 || loaded.Published[0].AnchorRef != "@wall-1_100" {
		t.Errorf("Published = %+v, want one record", loaded.Published)
	}
}

func TestFileStore_TrimsHistory(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "state.json"))

	st := &State{}
	for i := 0; i < maxPublishedHistory+10; i++ {
		st.Published = append(st.Published, PublishedDigest{AnchorRef: "@wall-1_1"})
	}
	if err := s.Save(st); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Published) != maxPublishedHistory {
		t.Errorf("history length = %d, want %d", len(loaded.Published), maxPublishedHistory)
	}
}
