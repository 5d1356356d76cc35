// Package scoring ранжирует допущенные посты оценкой 0–100.
//
// Формула — взвешенная сумма четырёх компонент: вовлечённость (метрики
// платформы), релевантность от классификатора, свежесть и репутация
// источника. Просмотры масштабируются логарифмически: счётчики различаются
// на порядки, и линейная шкала позволила бы одному вирусному посту
// доминировать во всех сравнениях.
package scoring

import (
	"fmt"
	"math"
	"time"

	"github.com/maine/region_digest_bot/internal/post"
)

// Weights — веса компонент итоговой оценки. Должны суммироваться в 1.0.
type Weights struct {
	Engagement float64 `yaml:"engagement"`
	Relevance  float64 `yaml:"relevance"`
	Recency    float64 `yaml:"recency"`
	Source     float64 `yaml:"source"`
}

// DefaultWeights — веса по умолчанию: акцент на вовлечённости.
func DefaultWeights() Weights {
	return Weights{Engagement: 0.4, Relevance: 0.3, Recency: 0.2, Source: 0.1}
}

// weightsTolerance — допуск на накопленную погрешность float при проверке суммы.
const weightsTolerance = 1e-6

// Scorer вычисляет оценку поста. Детерминирован: одинаковые входы всегда
// дают одинаковый результат.
type Scorer struct {
	weights Weights
}

// NewScorer проверяет веса и создаёт скорер. Веса, не суммирующиеся в 1.0, —
// ошибка конфигурации, о которой сообщается сразу, а не посреди прогона.
func NewScorer(weights Weights) (*Scorer, error) {
	sum := weights.Engagement + weights.Relevance + weights.Recency + weights.Source
	if math.Abs(sum-1.0) > weightsTolerance {
		return nil, fmt.Errorf("scoring weights must sum to 1.0, got %.4f", sum)
	}
	for _, w := range []float64{weights.Engagement, weights.Relevance, weights.Recency, weights.Source} {
		if w < 0 {
			return nil, fmt.Errorf("scoring weights must be non-negative")
		}
	}
	return &Scorer{weights: weights}, nil
}

// Score возвращает итоговую оценку поста в диапазоне [0,100].
// Спам всегда оценивается нулём независимо от метрик.
func (s *Scorer) Score(p *post.Post, sourcePriority int, now time.Time) int {
	if p.IsSpam {
		return 0
	}

	total := s.engagement(p)*s.weights.Engagement +
		float64(clamp(p.Relevance))*s.weights.Relevance +
		s.recency(p, now)*s.weights.Recency +
		float64(clamp(sourcePriority))*s.weights.Source

	return clamp(int(total))
}

// Breakdown — покомпонентная разбивка оценки для отладки.
type Breakdown struct {
	Total      int     `json:"total"`
	Engagement float64 `json:"engagement"`
	Relevance  float64 `json:"relevance"`
	Recency    float64 `json:"recency"`
	Source     float64 `json:"source"`
}

// Explain возвращает значения компонент до взвешивания вместе с итогом.
func (s *Scorer) Explain(p *post.Post, sourcePriority int, now time.Time) Breakdown {
	return Breakdown{
		Total:      s.Score(p, sourcePriority, now),
		Engagement: s.engagement(p),
		Relevance:  float64(clamp(p.Relevance)),
		Recency:    s.recency(p, now),
		Source:     float64(clamp(sourcePriority)),
	}
}

// engagement считает компоненту вовлечённости (0–100).
// Просмотры дают до 60 баллов по логарифмической шкале, лайки до 20,
// репосты до 15, комментарии до 5; вирусный контент получает множители.
func (s *Scorer) engagement(p *post.Post) float64 {
	var viewsScore float64
	if p.Views > 0 {
		viewsScore = math.Min(math.Log10(float64(p.Views)+1)*20, 60)
	}
	likesScore := math.Min(float64(p.Likes)/10*20, 20)
	repostsScore := math.Min(float64(p.Reposts)/3*15, 15)
	commentsScore := math.Min(float64(p.Comments)/5*5, 5)

	total := viewsScore + likesScore + repostsScore + commentsScore

	if p.Views > 500 {
		total *= 1.2
	}
	if p.Reposts > 10 {
		total *= 1.1
	}

	return math.Min(total, 100)
}

// recency считает компоненту свежести (0–100) ступенчатой функцией возраста.
// Нулевой оценки не бывает: самый старый допущенный контент получает 10.
func (s *Scorer) recency(p *post.Post, now time.Time) float64 {
	if p.PublishedAt.IsZero() {
		return 50
	}

	ageHours := now.Sub(p.PublishedAt).Hours()
	switch {
	case ageHours < 3:
		return 100
	case ageHours < 6:
		return 95
	case ageHours < 12:
		return 85
	case ageHours < 24:
		return 70
	case ageHours < 48:
		return 50
	case ageHours < 72:
		return 30
	default:
		return 10
	}
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
