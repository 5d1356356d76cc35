package filters

import (
	"context"
	"fmt"
	"regexp"

	"github.com/maine/region_digest_bot/internal/classify"
	"github.com/maine/region_digest_bot/internal/post"
)

// DefaultMinWords — минимум осмысленных слов в тексте.
const DefaultMinWords = 3

var (
	wordRe  = regexp.MustCompile(`[а-яёА-ЯЁa-zA-Z]{2,}`)
	emojiRe = regexp.MustCompile(`[😀-🙏🌀-🗿🚀-🛿]`)
	punctRe = regexp.MustCompile(`[!?]{3,}`)
)

// TextQuality проверяет читабельность текста: минимум слов, не перегружен
// эмодзи и знаками препинания. Пост без текста проходит при наличии медиа.
type TextQuality struct {
	minWords int
}

// NewTextQuality создаёт стадию; minWords < 1 заменяется значением по умолчанию.
func NewTextQuality(minWords int) *TextQuality {
	if minWords < 1 {
		minWords = DefaultMinWords
	}
	return &TextQuality{minWords: minWords}
}

func (t *TextQuality) Name() string  { return "text_quality" }
func (t *TextQuality) Priority() int { return PriorityTextQuality }

func (t *TextQuality) Apply(ctx context.Context, p *post.Post, run *post.RunContext) (Result, error) {
	if p.Text == "" {
		if p.HasMedia() {
			return pass(), nil
		}
		return reject("no content"), nil
	}

	wordCount := len(wordRe.FindAllString(p.Text, -1))
	if wordCount < t.minWords {
		return reject(fmt.Sprintf("too few words: %d (min %d)", wordCount, t.minWords)), nil
	}

	textLen := len([]rune(p.Text))
	emojiCount := len(emojiRe.FindAllString(p.Text, -1))
	if textLen > 0 && float64(emojiCount) > float64(textLen)*0.3 {
		return reject(fmt.Sprintf("too many emojis: %d", emojiCount)), nil
	}

	if len(punctRe.FindAllString(p.Text, -1)) > 5 {
		return reject("too much punctuation"), nil
	}
	return pass(), nil
}

// Category — самая дорогая стадия: классифицирует текст и сверяет категорию
// с разрешённым списком. Стоит последней, чтобы вызывать классификатор
// только для постов, переживших все остальные проверки. Результат анализа
// записывается в пост и дальше используется скорером.
type Category struct {
	classifier classify.Classifier
	allowed    map[post.Category]struct{}
}

// NewCategory создаёт стадию. Пустой allowList разрешает все категории.
// Неизвестная категория в allowList — ошибка конфигурации, обнаруживаемая
// при построении, а не посреди прогона.
func NewCategory(classifier classify.Classifier, allowList []post.Category) (*Category, error) {
	var allowed map[post.Category]struct{}
	if len(allowList) > 0 {
		allowed = make(map[post.Category]struct{}, len(allowList))
		for _, c := range allowList {
			if !c.Known() {
				return nil, fmt.Errorf("unknown category in allow list: %q", c)
			}
			allowed[c] = struct{}{}
		}
	}
	return &Category{classifier: classifier, allowed: allowed}, nil
}

func (c *Category) Name() string  { return "category" }
func (c *Category) Priority() int { return PriorityCategory }

func (c *Category) Apply(ctx context.Context, p *post.Post, run *post.RunContext) (Result, error) {
	if p.Category == "" && c.classifier != nil {
		analysis, err := c.classifier.Classify(ctx, p.Text)
		if err != nil {
			return Result{}, fmt.Errorf("classify: %w", err)
		}
		p.Category = analysis.Category
		p.Relevance = analysis.Relevance
		p.IsSpam = analysis.IsSpam
	}

	if p.IsSpam {
		return reject("classified as spam"), nil
	}

	if p.Category == "" || c.allowed == nil {
		return pass(), nil
	}
	if _, ok := c.allowed[p.Category]; !ok {
		return reject(fmt.Sprintf("category not allowed: %s", p.Category)), nil
	}
	return pass(), nil
}
