package filters

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/maine/region_digest_bot/internal/post"
)

// StageStats — статистика одной стадии за один прогон. Отдаётся оператору:
// видно, какая стадия отвечает за какую долю отсева.
type StageStats struct {
	Name     string  `json:"name"`
	Priority int     `json:"priority"`
	Checked  int     `json:"checked"`
	Passed   int     `json:"passed"`
	Rejected int     `json:"rejected"`
	Errors   int     `json:"errors"`
	Rate     float64 `json:"filter_rate"`
}

// RunResult — итог прогона конвейера.
type RunResult struct {
	OriginalCount int           `json:"original_count"`
	PassedCount   int           `json:"passed_count"`
	FilteredCount int           `json:"filtered_count"`
	Stages        []StageStats  `json:"stages"`
	Duration      time.Duration `json:"duration"`
}

// Pipeline прогоняет посты через стадии в порядке возрастания приоритета.
// Каждая стадия видит только постов, прошедших предыдущие, но отрабатывает
// их всех: статистика по стадиям собирается полностью.
type Pipeline struct {
	stages []Stage
}

// NewPipeline сортирует стадии по приоритету и возвращает конвейер.
func NewPipeline(stages ...Stage) *Pipeline {
	sorted := make([]Stage, len(stages))
	copy(sorted, stages)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() < sorted[j].Priority()
	})
	return &Pipeline{stages: sorted}
}

// Stages возвращает стадии в порядке исполнения.
func (pl *Pipeline) Stages() []Stage {
	return pl.stages
}

// Process применяет все стадии к батчу. Отсеянные посты получают
// Status=rejected и точную атрибуцию стадии в RejectReason.
//
// Ошибка стадии по конкретному посту — fail-open: пост проходит дальше,
// ошибка логируется и попадает в счётчик стадии. Системный сбой одной
// зависимости не должен выбрасывать весь батч.
func (pl *Pipeline) Process(ctx context.Context, posts []*post.Post, run *post.RunContext) ([]*post.Post, RunResult) {
	start := time.Now()
	original := len(posts)

	remaining := make([]*post.Post, len(posts))
	copy(remaining, posts)

	stats := make([]StageStats, 0, len(pl.stages))

	for _, stage := range pl.stages {
		st := StageStats{Name: stage.Name(), Priority: stage.Priority()}

		if len(remaining) == 0 {
			stats = append(stats, st)
			continue
		}

		passed := make([]*post.Post, 0, len(remaining))
		for _, p := range remaining {
			st.Checked++

			res, err := stage.Apply(ctx, p, run)
			if err != nil {
				// Fail-open: зависимость стадии недоступна, пост сохраняем.
				log.Printf("filters: stage %q failed open on post %s: %v",
					stage.Name(), p.Fingerprints.Structural, err)
				st.Errors++
				st.Passed++
				passed = append(passed, p)
				continue
			}

			if res.Passed {
				st.Passed++
				passed = append(passed, p)
				continue
			}

			st.Rejected++
			p.Status = post.StatusRejected
			p.RejectReason = fmt.Sprintf("%s: %s", stage.Name(), res.Reason)
		}

		if st.Checked > 0 {
			st.Rate = float64(st.Rejected) / float64(st.Checked) * 100
		}
		stats = append(stats, st)

		if st.Rejected > 0 {
			log.Printf("filters: %s: %d rejected, %d passed", stage.Name(), st.Rejected, len(passed))
		}
		remaining = passed
	}

	result := RunResult{
		OriginalCount: original,
		PassedCount:   len(remaining),
		FilteredCount: original - len(remaining),
		Stages:        stats,
		Duration:      time.Since(start),
	}

	log.Printf("filters: pipeline complete: %d -> %d (%d filtered, %v)",
		result.OriginalCount, result.PassedCount, result.FilteredCount, result.Duration)

	return remaining, result
}
