package scoring

import (
	"testing"
	"time"

	"github.com/maine/region_digest_bot/internal/post"
)

func newScorer(t *testing.T) *Scorer {
	t.Helper()
	s, err := NewScorer(DefaultWeights())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestNewScorer_RejectsBadWeights(t *testing.T) {
	tests := []struct {
		name    string
		weights Weights
	}{
		{"sum below one", Weights{Engagement: 0.4, Relevance: 0.3, Recency: 0.2, Source: 0.05}},
		{"sum above one", Weights{Engagement: 0.5, Relevance: 0.3, Recency: 0.2, Source: 0.1}},
		{"negative weight", Weights{Engagement: 1.2, Relevance: 0.1, Recency: -0.4, Source: 0.1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewScorer(tt.weights); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestScore_Bounds(t *testing.T) {
	s := newScorer(t)
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	viral := &post.Post{
		Views: 1_000_000, Likes: 10_000, Reposts: 5_000, Comments: 2_000,
		Relevance:   100,
		PublishedAt: now.Add(-1 * time.Hour),
	}
	if got := s.Score(viral, 100, now); got < 0 || got > 100 {
		t.Errorf("viral score = %d, want within [0,100]", got)
	}

	empty := &post.Post{}
	if got := s.Score(empty, 0, now); got < 0 || got > 100 {
		t.Errorf("empty score = %d, want within [0,100]", got)
	}
}

func TestScore_SpamIsZero(t *testing.T) {
	s := newScorer(t)
	now := time.Now()

	p := &post.Post{
		Views: 1_000_000, Likes: 10_000, Reposts: 5_000,
		Relevance:   100,
		PublishedAt: now,
		IsSpam:      true,
	}
	if got := s.Score(p, 100, now); got != 0 {
		t.Errorf("spam score = %d, want 0", got)
	}
}

func TestScore_MoreViewsNeverLower(t *testing.T) {
	s := newScorer(t)
	now := time.Now()

	prev := -1
	for _, views := range []int{0, 10, 100, 1000, 10_000, 100_000} {
		p := &post.Post{Views: views, Relevance: 50, PublishedAt: now}
		got := s.Score(p, 50, now)
		if got < prev {
			t.Errorf("score dropped from %d to %d at %d views", prev, got, views)
		}
		prev = got
	}
}

func TestRecency_Steps(t *testing.T) {
	s := newScorer(t)
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		age  time.Duration
		want float64
	}{
		{1 * time.Hour, 100},
		{4 * time.Hour, 95},
		{8 * time.Hour, 85},
		{18 * time.Hour, 70},
		{36 * time.Hour, 50},
		{60 * time.Hour, 30},
		{100 * time.Hour, 10},
	}
	for _, tt := range tests {
		p := &post.Post{PublishedAt: now.Add(-tt.age)}
		if got := s.recency(p, now); got != tt.want {
			t.Errorf("recency at age %v = %v, want %v", tt.age, got, tt.want)
		}
	}

	// Отсутствующая дата — нейтральная свежесть.
	if got := s.recency(&post.Post{}, now); got != 50 {
		t.Errorf("recency without date = %v, want 50", got)
	}
}

func TestEngagement_ViralMultipliers(t *testing.T) {
	s := newScorer(t)

	base := &post.Post{Views: 400, Likes: 5}
	boosted := &post.Post{Views: 600, Likes: 5}
	if s.engagement(boosted) <= s.engagement(base) {
		t.Error("viral multiplier did not raise engagement")
	}

	capped := &post.Post{Views: 10_000_000, Likes: 100_000, Reposts: 100_000, Comments: 100_000}
	if got := s.engagement(capped); got > 100 {
		t.Errorf("engagement = %v, want capped at 100", got)
	}
}

func TestExplain_MatchesScore(t *testing.T) {
	s := newScorer(t)
	now := time.Now()

	p := &post.Post{Views: 1500, Likes: 30, Reposts: 4, Relevance: 75, PublishedAt: now.Add(-5 * time.Hour)}
	b := s.Explain(p, 60, now)
	if b.Total != s.Score(p, 60, now) {
		t.Errorf("Explain total %d != Score %d", b.Total, s.Score(p, 60, now))
	}
}
