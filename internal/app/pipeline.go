// Package app связывает этапы обработки в один прогон: сбор, отпечатки,
// фильтрация, оценка, кластеризация, агрегация, публикация, регистрация.
// Пакет зависит только от интерфейсов — конкретные реализации подставляет
// точка входа.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/maine/region_digest_bot/internal/aggregate"
	"github.com/maine/region_digest_bot/internal/cluster"
	"github.com/maine/region_digest_bot/internal/filters"
	"github.com/maine/region_digest_bot/internal/fingerprint"
	"github.com/maine/region_digest_bot/internal/post"
	"github.com/maine/region_digest_bot/internal/scoring"
	"github.com/maine/region_digest_bot/internal/state"
)

// ErrNotConfigured возвращается при попытке запуска с незаполненной
// зависимостью.
var ErrNotConfigured = errors.New("app: pipeline is not fully configured")

// Collector отдаёт батч постов на обработку.
type Collector interface {
	Collect(ctx context.Context) ([]*post.Post, error)
}

// Registrar записывает отпечатки допущенного поста в персистентный индекс.
type Registrar interface {
	Register(ctx context.Context, p *post.Post) error
}

// Publisher доставляет готовые дайджесты.
type Publisher interface {
	Publish(ctx context.Context, digests []*aggregate.Digest) error
}

// StateStore хранит состояние между прогонами.
type StateStore interface {
	Load() (*state.State, error)
	Save(st *state.State) error
}

// Clock отдаёт текущее время; в тестах подменяется фиксированным.
type Clock func() time.Time

// Deps — зависимости прогона.
type Deps struct {
	Collector  Collector
	Filters    *filters.Pipeline
	Scorer     *scoring.Scorer
	Clusterer  *cluster.Clusterer
	Aggregator *aggregate.Aggregator
	Publisher  Publisher
	Registrar  Registrar
	States     StateStore
	Clock      Clock

	SourcePriority      int
	MaxDigests          int
	SimilarityThreshold float64
}

// Report — итог одного прогона.
type Report struct {
	Collected      int
	Admitted       int
	Deduplicated   int
	FilterResult   filters.RunResult
	Digests        []*aggregate.Digest
	RegisterErrors int
}

// Pipeline — прогон обработки для одного региона.
type Pipeline struct {
	deps Deps
}

// NewPipeline проверяет зависимости и создаёт конвейер. Отсутствующая
// зависимость — ошибка конфигурации, обнаруживаемая до первого прогона.
func NewPipeline(deps Deps) (*Pipeline, error) {
	if err := validateDeps(deps); err != nil {
		return nil, err
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &Pipeline{deps: deps}, nil
}

func validateDeps(deps Deps) error {
	missing := ""
	switch {
	case deps.Collector == nil:
		missing = "collector"
	case deps.Filters == nil:
		missing = "filters"
	case deps.Scorer == nil:
		missing = "scorer"
	case deps.Clusterer == nil:
		missing = "clusterer"
	case deps.Aggregator == nil:
		missing = "aggregator"
	case deps.Publisher == nil:
		missing = "publisher"
	case deps.Registrar == nil:
		missing = "registrar"
	case deps.States == nil:
		missing = "state store"
	}
	if missing != "" {
		return fmt.Errorf("%w: missing %s", ErrNotConfigured, missing)
	}
	return nil
}

// Run выполняет полный прогон для региона. Контент соседних регионов
// помечается isNeighbor — к нему применяются региональные фильтры.
func (pl *Pipeline) Run(ctx context.Context, region post.Region, contentType post.Category, isNeighbor bool) (*Report, error) {
	now := pl.deps.Clock()
	log.Printf("app: run started for region %s at %s", region.Code, now.Format(time.RFC3339))

	st, err := pl.deps.States.Load()
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}

	log.Println("app: step 1/6: collect")
	posts, err := pl.deps.Collector.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect posts: %w", err)
	}
	log.Printf("app: collected %d posts", len(posts))

	log.Println("app: step 2/6: fingerprint")
	for _, p := range posts {
		fingerprint.Annotate(p)
	}

	log.Println("app: step 3/6: filter")
	run := post.NewRunContext(region, contentType, now)
	run.IsNeighborContent = isNeighbor
	admitted, filterResult := pl.deps.Filters.Process(ctx, posts, run)

	log.Println("app: step 4/6: score and cluster")
	for _, p := range admitted {
		p.Score = pl.deps.Scorer.Score(p, pl.deps.SourcePriority, now)
		p.Status = post.StatusApproved
	}
	representatives, deduplicated := pl.collapseStories(admitted)

	log.Println("app: step 5/6: aggregate and publish")
	digests := pl.deps.Aggregator.AggregateByCategory(representatives, region.Hashtags, pl.deps.MaxDigests)
	if err := pl.deps.Publisher.Publish(ctx, digests); err != nil {
		return nil, fmt.Errorf("publish digests: %w", err)
	}

	log.Println("app: step 6/6: register fingerprints and save state")
	registerErrors := 0
	for _, p := range admitted {
		if err := pl.deps.Registrar.Register(ctx, p); err != nil {
			// Незарегистрированный отпечаток означает риск повторной
			// публикации, но не отменяет уже сделанную.
			log.Printf("app: register %s: %v", p.Fingerprints.Structural, err)
			registerErrors++
		}
	}

	st.LastRunAt = now
	for _, d := range digests {
		st.Published = append(st.Published, state.PublishedDigest{
			AnchorRef:   d.Anchor.WallRef(),
			Title:       d.Title,
			PublishedAt: now,
		})
	}
	if err := pl.deps.States.Save(st); err != nil {
		return nil, fmt.Errorf("save state: %w", err)
	}

	report := &Report{
		Collected:      len(posts),
		Admitted:       len(admitted),
		Deduplicated:   deduplicated,
		FilterResult:   filterResult,
		Digests:        digests,
		RegisterErrors: registerErrors,
	}
	log.Printf("app: run complete: %d collected, %d admitted, %d digests",
		report.Collected, report.Admitted, len(report.Digests))
	return report, nil
}

// collapseStories схлопывает пересказы одного сюжета разными источниками:
// внутри каждого кластера похожести остаётся пост с наибольшими просмотрами.
// Возвращает представителей и число схлопнутых постов.
func (pl *Pipeline) collapseStories(posts []*post.Post) ([]*post.Post, int) {
	if len(posts) < 2 {
		return posts, 0
	}

	clusters := pl.deps.Clusterer.BySimilarity(posts, pl.deps.SimilarityThreshold)

	drop := make(map[*post.Post]struct{})
	for _, cl := range clusters {
		if len(cl) < 2 {
			continue
		}
		sorted := make([]*post.Post, len(cl))
		copy(sorted, cl)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Views > sorted[j].Views
		})
		for _, p := range sorted[1:] {
			drop[p] = struct{}{}
		}
	}
	if len(drop) == 0 {
		return posts, 0
	}

	kept := make([]*post.Post, 0, len(posts)-len(drop))
	for _, p := range posts {
		if _, ok := drop[p]; ok {
			continue
		}
		kept = append(kept, p)
	}
	log.Printf("app: collapsed %d near-duplicate posts into their clusters", len(drop))
	return kept, len(drop)
}
