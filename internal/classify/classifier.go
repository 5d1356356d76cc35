// Package classify присваивает посту категорию, оценку релевантности и
// признак спама. Основной классификатор — Gemini; при любой его ошибке
// анализ детерминированно выполняет запасной классификатор по ключевым
// словам с тем же форматом результата.
package classify

import (
	"context"
	"strings"

	"github.com/maine/region_digest_bot/internal/post"
)

// Analysis — результат классификации текста.
type Analysis struct {
	Category  post.Category `json:"category"`
	Relevance int           `json:"relevance"`
	IsSpam    bool          `json:"is_spam"`
	Reason    string        `json:"reason,omitempty"`
}

// Classifier выполняет классификацию текста поста.
type Classifier interface {
	Classify(ctx context.Context, text string) (Analysis, error)
}

// categoryKeywords — таблицы ключевых слов запасного классификатора.
var categoryKeywords = map[post.Category][]string{
	post.CategoryAds: {
		"продам", "куплю", "продаю", "продаётся", "продается",
		"закажи", "заказать", "скидка", "акция", "цена", "руб",
	},
	post.CategoryOfficial: {
		"администрация", "постановление", "глава", "губернатор",
		"решение", "совет", "депутат",
	},
	post.CategoryCulture: {
		"концерт", "выставка", "библиотека", "музей", "театр",
		"фестиваль", "творчество",
	},
	post.CategorySport: {
		"соревнования", "турнир", "спорт", "матч", "чемпионат",
		"тренировка", "секция",
	},
	post.CategoryKids: {
		"детский сад", "дошкольное", "дети", "ребёнок", "воспитатель",
	},
	post.CategoryNeighbors: {
		"район", "область", "регион", "соседи",
	},
}

// Keyword — детерминированный классификатор по ключевым словам.
// Не обращается ни к каким внешним сервисам и потому не умеет ошибаться.
type Keyword struct{}

// NewKeyword создаёт запасной классификатор.
func NewKeyword() *Keyword { return &Keyword{} }

// Classify подбирает категорию по числу совпавших ключевых слов.
// Ошибки не возвращает никогда.
func (k *Keyword) Classify(ctx context.Context, text string) (Analysis, error) {
	textLower := strings.ToLower(text)

	best := post.CategoryNews
	bestScore := 0
	for _, cat := range post.Categories() {
		keywords, ok := categoryKeywords[cat]
		if !ok {
			continue
		}
		score := 0
		for _, kw := range keywords {
			if strings.Contains(textLower, kw) {
				score++
			}
		}
		if score > bestScore {
			best = cat
			bestScore = score
		}
	}

	relevance := bestScore*15 + 40
	if relevance > 100 {
		relevance = 100
	}

	return Analysis{
		Category:  best,
		Relevance: relevance,
		IsSpam:    best == post.CategoryAds && bestScore >= 2,
		Reason:    "keyword analysis",
	}, nil
}
