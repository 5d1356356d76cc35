// Package aggregate собирает кластеры постов в дайджесты: один якорный
// пост плюс дополнительные, пока позволяют лимиты текста и медиа.
package aggregate

import (
	"log"
	"sort"
	"strings"

	"github.com/maine/region_digest_bot/internal/post"
)

// Лимиты дайджеста по умолчанию.
const (
	DefaultMaxPostsPerDigest = 5
	DefaultMaxTextLength     = 4000
	DefaultMaxMediaItems     = 10
	DefaultMaxDigests        = 3
)

// Digest — собранный дайджест. Строится заново на каждый прогон и после
// построения не изменяется; для нового прогона собирается новый.
type Digest struct {
	Anchor     *post.Post      `json:"anchor"`
	Additional []*post.Post    `json:"additional,omitempty"`
	Text       string          `json:"text"`
	Title      string          `json:"title"`

	TotalViews   int             `json:"total_views"`
	TotalLikes   int             `json:"total_likes"`
	TotalReposts int             `json:"total_reposts"`
	SourcesCount int             `json:"sources_count"`
	Categories   []post.Category `json:"categories"`
}

// Aggregator собирает дайджесты с настраиваемыми лимитами.
type Aggregator struct {
	maxPostsPerDigest int
	maxTextLength     int
	maxMediaItems     int
}

// NewAggregator создаёт агрегатор; неположительные лимиты заменяются
// значениями по умолчанию.
func NewAggregator(maxPostsPerDigest, maxTextLength, maxMediaItems int) *Aggregator {
	if maxPostsPerDigest <= 0 {
		maxPostsPerDigest = DefaultMaxPostsPerDigest
	}
	if maxTextLength <= 0 {
		maxTextLength = DefaultMaxTextLength
	}
	if maxMediaItems <= 0 {
		maxMediaItems = DefaultMaxMediaItems
	}
	return &Aggregator{
		maxPostsPerDigest: maxPostsPerDigest,
		maxTextLength:     maxTextLength,
		maxMediaItems:     maxMediaItems,
	}
}

// Aggregate собирает один дайджест из списка постов, отсортированного по
// убыванию просмотров: самый просматриваемый пост становится якорем.
// Пустой список — ожидаемый случай, возвращается nil.
//
// Накопление дополнительных постов останавливается на первом кандидате,
// нарушающем любой лимит: обрезка получается стабильной и объяснимой,
// вместо подбора оптимальной укладки.
func (a *Aggregator) Aggregate(posts []*post.Post, title string, hashtags []string) *Digest {
	if len(posts) == 0 {
		return nil
	}

	anchor := posts[0]

	if len(posts) == 1 {
		return &Digest{
			Anchor:       anchor,
			Text:         a.renderDigest(anchor, nil, title, hashtags),
			Title:        title,
			TotalViews:   anchor.Views,
			TotalLikes:   anchor.Likes,
			TotalReposts: anchor.Reposts,
			SourcesCount: 1,
			Categories:   collectCategories([]*post.Post{anchor}),
		}
	}

	var additional []*post.Post
	currentTextLen := len([]rune(anchor.Text))
	currentMedia := anchor.MediaCount()

	for _, p := range posts[1:] {
		if len(additional) >= a.maxPostsPerDigest-1 {
			break
		}

		textLen := len([]rune(p.Text))
		mediaCount := p.MediaCount()

		if currentTextLen+textLen > a.maxTextLength ||
			currentMedia+mediaCount > a.maxMediaItems {
			break
		}

		additional = append(additional, p)
		currentTextLen += textLen
		currentMedia += mediaCount
	}

	all := append([]*post.Post{anchor}, additional...)
	digest := &Digest{
		Anchor:       anchor,
		Additional:   additional,
		Text:         a.renderDigest(anchor, additional, title, hashtags),
		Title:        title,
		SourcesCount: len(all),
		Categories:   collectCategories(all),
	}
	for _, p := range all {
		digest.TotalViews += p.Views
		digest.TotalLikes += p.Likes
		digest.TotalReposts += p.Reposts
	}

	log.Printf("aggregate: digest %q: anchor %s +%d posts, %d views",
		title, anchor.Fingerprints.Structural, len(additional), digest.TotalViews)
	return digest
}

// AggregateByCategory группирует посты по категориям и собирает по дайджесту
// на категорию, начиная с самых многочисленных, но не больше maxDigests.
// Внутри категории посты сортируются по убыванию просмотров.
func (a *Aggregator) AggregateByCategory(posts []*post.Post, hashtags []string, maxDigests int) []*Digest {
	if maxDigests <= 0 {
		maxDigests = DefaultMaxDigests
	}

	byCat := make(map[post.Category][]*post.Post)
	for _, p := range posts {
		cat := p.Category
		if cat == "" {
			cat = post.CategoryNews
		}
		byCat[cat] = append(byCat[cat], p)
	}

	cats := make([]post.Category, 0, len(byCat))
	for cat := range byCat {
		cats = append(cats, cat)
	}
	sort.SliceStable(cats, func(i, j int) bool {
		if len(byCat[cats[i]]) != len(byCat[cats[j]]) {
			return len(byCat[cats[i]]) > len(byCat[cats[j]])
		}
		return cats[i] < cats[j]
	})

	var digests []*Digest
	for _, cat := range cats {
		if len(digests) >= maxDigests {
			break
		}

		catPosts := byCat[cat]
		sort.SliceStable(catPosts, func(i, j int) bool {
			return catPosts[i].Views > catPosts[j].Views
		})

		if digest := a.Aggregate(catPosts, cat.Title(), hashtags); digest != nil {
			digests = append(digests, digest)
		}
	}

	log.Printf("aggregate: created %d category digests", len(digests))
	return digests
}

// renderDigest собирает текст дайджеста: заголовок, якорь с атрибуцией,
// дополнительные посты, хештеги.
func (a *Aggregator) renderDigest(anchor *post.Post, additional []*post.Post, title string, hashtags []string) string {
	var parts []string

	if title != "" {
		parts = append(parts, title, "")
	}

	if anchor.Text != "" {
		parts = append(parts, anchor.Text)
	}
	parts = append(parts, attribution(anchor))

	for _, p := range additional {
		parts = append(parts, "")
		if p.Text != "" {
			parts = append(parts, p.Text)
		}
		parts = append(parts, attribution(p))
	}

	if len(hashtags) > 0 {
		parts = append(parts, "", strings.Join(hashtags, " "))
	}

	return strings.Join(parts, "\n")
}

// attribution возвращает строку атрибуции источника: ссылка на запись плюс
// заполнитель имени источника, который подставит внешний рендерер платформы.
func attribution(p *post.Post) string {
	return p.WallRef() + " (Источник)"
}

// collectCategories возвращает уникальные категории постов; порядок
// соответствует первому вхождению.
func collectCategories(posts []*post.Post) []post.Category {
	seen := make(map[post.Category]struct{}, len(posts))
	var categories []post.Category
	for _, p := range posts {
		cat := p.Category
		if cat == "" {
			cat = post.CategoryNews
		}
		if _, ok := seen[cat]; ok {
			continue
		}
		seen[cat] = struct{}{}
		categories = append(categories, cat)
	}
	return categories
}
