// Package cluster группирует оценённые посты в кластеры для совместной
// агрегации: по времени публикации, по категории и по текстовой близости.
package cluster

import (
	"log"
	"regexp"
	"sort"
	"strings"

	"github.com/maine/region_digest_bot/internal/post"
)

// Значения по умолчанию для параметров кластеризации.
const (
	DefaultTimeWindowHours     = 6.0
	DefaultMinClusterSize      = 2
	DefaultSimilarityThreshold = 0.7
)

// Clusterer группирует посты. Возвращаемые кластеры всегда содержат не
// меньше minClusterSize постов.
type Clusterer struct {
	timeWindowHours float64
	minClusterSize  int
}

// NewClusterer создаёт кластеризатор; неположительные параметры заменяются
// значениями по умолчанию.
func NewClusterer(timeWindowHours float64, minClusterSize int) *Clusterer {
	if timeWindowHours <= 0 {
		timeWindowHours = DefaultTimeWindowHours
	}
	if minClusterSize <= 0 {
		minClusterSize = DefaultMinClusterSize
	}
	return &Clusterer{timeWindowHours: timeWindowHours, minClusterSize: minClusterSize}
}

// ByTime кластеризует посты по временной близости. Посты сортируются по
// убыванию даты; кластер растёт, пока разница с якорем (первым постом
// кластера) не превышает окно, затем закрывается и начинается новый.
func (c *Clusterer) ByTime(posts []*post.Post) [][]*post.Post {
	if len(posts) == 0 {
		return nil
	}

	sorted := make([]*post.Post, len(posts))
	copy(sorted, posts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PublishedAt.After(sorted[j].PublishedAt)
	})

	var clusters [][]*post.Post
	current := []*post.Post{sorted[0]}

	for _, p := range sorted[1:] {
		anchor := current[0]
		if anchor.PublishedAt.IsZero() || p.PublishedAt.IsZero() {
			// Нет даты — считаем близким по времени.
			current = append(current, p)
			continue
		}

		diff := anchor.PublishedAt.Sub(p.PublishedAt).Hours()
		if diff < 0 {
			diff = -diff
		}
		if diff <= c.timeWindowHours {
			current = append(current, p)
			continue
		}

		if len(current) >= c.minClusterSize {
			clusters = append(clusters, current)
		}
		current = []*post.Post{p}
	}

	if len(current) >= c.minClusterSize {
		clusters = append(clusters, current)
	}

	log.Printf("cluster: %d posts -> %d time clusters", len(posts), len(clusters))
	return clusters
}

// ByCategory группирует посты по категории; при withTime внутри каждой
// категории дополнительно применяется временная кластеризация.
func (c *Clusterer) ByCategory(posts []*post.Post, withTime bool) [][]*post.Post {
	if len(posts) == 0 {
		return nil
	}

	byCat := make(map[post.Category][]*post.Post)
	for _, p := range posts {
		cat := p.Category
		if cat == "" {
			cat = post.CategoryNews
		}
		byCat[cat] = append(byCat[cat], p)
	}

	// Обходим в фиксированном порядке категорий для воспроизводимости.
	var clusters [][]*post.Post
	for _, cat := range post.Categories() {
		catPosts, ok := byCat[cat]
		if !ok {
			continue
		}
		if withTime {
			clusters = append(clusters, c.ByTime(catPosts)...)
			continue
		}
		if len(catPosts) >= c.minClusterSize {
			clusters = append(clusters, catPosts)
		}
	}
	return clusters
}

// BySimilarity кластеризует посты по пересечению ключевых слов (Jaccard).
// Жадная стратегия first-match-wins: каждый пост попадает не больше чем в
// один кластер, глобальная оптимальность не гарантируется. Это осознанное
// упрощение; изменение стратегии меняет состав дайджестов и является
// продуктовым решением.
func (c *Clusterer) BySimilarity(posts []*post.Post, threshold float64) [][]*post.Post {
	if len(posts) == 0 {
		return nil
	}
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}

	keywords := make([]map[string]struct{}, len(posts))
	for i, p := range posts {
		keywords[i] = extractKeywords(p.Text)
	}

	var clusters [][]*post.Post
	used := make([]bool, len(posts))

	for i := range posts {
		if used[i] {
			continue
		}
		clusterPosts := []*post.Post{posts[i]}
		used[i] = true

		for j := i + 1; j < len(posts); j++ {
			if used[j] {
				continue
			}
			if jaccard(keywords[i], keywords[j]) >= threshold {
				clusterPosts = append(clusterPosts, posts[j])
				used[j] = true
			}
		}

		if len(clusterPosts) >= c.minClusterSize {
			clusters = append(clusters, clusterPosts)
		}
	}

	log.Printf("cluster: %d posts -> %d similarity clusters", len(posts), len(clusters))
	return clusters
}

var keywordRe = regexp.MustCompile(`[а-яёА-ЯЁ]{4,}`)

var stopWords = map[string]struct{}{
	"который": {}, "которая": {}, "которые": {}, "также": {}, "более": {},
	"этот": {}, "этого": {}, "сегодня": {}, "вчера": {}, "завтра": {},
}

// extractKeywords выделяет ключевые слова: кириллические токены от 4 знаков
// в нижнем регистре, за вычетом стоп-слов.
func extractKeywords(text string) map[string]struct{} {
	if text == "" {
		return nil
	}

	words := keywordRe.FindAllString(strings.ToLower(text), -1)
	keywords := make(map[string]struct{}, len(words))
	for _, w := range words {
		if _, stop := stopWords[w]; stop {
			continue
		}
		keywords[w] = struct{}{}
	}
	return keywords
}

// jaccard возвращает |A∩B| / |A∪B|; пустые множества дают 0.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	intersection := 0
	for w := range a {
		if _, ok := b[w]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
