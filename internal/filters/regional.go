package filters

import (
	"context"
	"fmt"
	"strings"

	"github.com/maine/region_digest_bot/internal/post"
)

// RegionalRelevance проверяет привязку текста к региону по ключевым словам.
// Применяется только к контенту соседних регионов: для своих сообществ
// региональность — это контекст, а не фильтр.
type RegionalRelevance struct {
	requiredMatches int
}

// NewRegionalRelevance создаёт стадию; requiredMatches < 1 трактуется как 1.
func NewRegionalRelevance(requiredMatches int) *RegionalRelevance {
	if requiredMatches < 1 {
		requiredMatches = 1
	}
	return &RegionalRelevance{requiredMatches: requiredMatches}
}

func (r *RegionalRelevance) Name() string  { return "regional_relevance" }
func (r *RegionalRelevance) Priority() int { return PriorityRegionalRelevance }

func (r *RegionalRelevance) Apply(ctx context.Context, p *post.Post, run *post.RunContext) (Result, error) {
	if !run.IsNeighborContent {
		return pass(), nil
	}
	if p.Text == "" {
		return pass(), nil
	}
	keywords := run.Region.Keywords
	if len(keywords) == 0 {
		return pass(), nil
	}

	textLower := strings.ToLower(p.Text)
	matches := 0
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(textLower, strings.ToLower(kw)) {
			matches++
		}
	}

	if matches < r.requiredMatches {
		return reject(fmt.Sprintf("not regionally relevant: %d of %d keyword matches",
			matches, r.requiredMatches)), nil
	}
	return pass(), nil
}

// neighborNewsMarkers — признаки новостного поста у соседей.
var neighborNewsMarkers = []string{"#новости", "#news", "новости"}

// NeighborHashtag пропускает посты соседних регионов только с новостным
// хештегом: у соседей берутся именно новости, а не вся лента.
type NeighborHashtag struct {
	requireHashtag bool
}

// NewNeighborHashtag создаёт стадию; requireHashtag=false выключает проверку.
func NewNeighborHashtag(requireHashtag bool) *NeighborHashtag {
	return &NeighborHashtag{requireHashtag: requireHashtag}
}

func (n *NeighborHashtag) Name() string  { return "neighbor_hashtag" }
func (n *NeighborHashtag) Priority() int { return PriorityNeighborHashtag }

func (n *NeighborHashtag) Apply(ctx context.Context, p *post.Post, run *post.RunContext) (Result, error) {
	if !run.IsNeighborContent || !n.requireHashtag {
		return pass(), nil
	}

	if p.Text == "" {
		return reject("neighbor post without text"), nil
	}

	textLower := strings.ToLower(p.Text)
	for _, marker := range neighborNewsMarkers {
		if strings.Contains(textLower, marker) {
			return pass(), nil
		}
	}
	return reject("neighbor post without news hashtag"), nil
}
