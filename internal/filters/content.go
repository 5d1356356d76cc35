package filters

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/maine/region_digest_bot/internal/post"
)

// Пороговые значения по умолчанию для проверок формы.
const (
	DefaultMinTextLength = 10
	DefaultMaxTextLength = 10000
)

// TextLength отсекает посты со слишком коротким или слишком длинным текстом.
// Очень длинный текст — почти всегда копипаста. Пост без текста проходит,
// если несёт медиа.
type TextLength struct {
	minLength int
	maxLength int
}

// NewTextLength создаёт стадию; неположительные границы заменяются
// значениями по умолчанию.
func NewTextLength(minLength, maxLength int) *TextLength {
	if minLength <= 0 {
		minLength = DefaultMinTextLength
	}
	if maxLength <= 0 {
		maxLength = DefaultMaxTextLength
	}
	return &TextLength{minLength: minLength, maxLength: maxLength}
}

func (t *TextLength) Name() string  { return "text_length" }
func (t *TextLength) Priority() int { return PriorityTextLength }

func (t *TextLength) Apply(ctx context.Context, p *post.Post, run *post.RunContext) (Result, error) {
	if p.Text == "" {
		if p.HasMedia() {
			return pass(), nil
		}
		return reject("no text and no media"), nil
	}

	length := len([]rune(p.Text))
	if length < t.minLength {
		return reject(fmt.Sprintf("text too short: %d chars (min %d)", length, t.minLength)), nil
	}
	if length > t.maxLength {
		return reject(fmt.Sprintf("text too long: %d chars (max %d)", length, t.maxLength)), nil
	}
	return pass(), nil
}

// ViewsRequirement отсекает посты с числом просмотров ниже порога.
// Порог 0 выключает проверку.
type ViewsRequirement struct {
	minViews int
}

// NewViewsRequirement создаёт стадию с минимальным числом просмотров.
func NewViewsRequirement(minViews int) *ViewsRequirement {
	return &ViewsRequirement{minViews: minViews}
}

func (v *ViewsRequirement) Name() string  { return "min_views" }
func (v *ViewsRequirement) Priority() int { return PriorityViews }

func (v *ViewsRequirement) Apply(ctx context.Context, p *post.Post, run *post.RunContext) (Result, error) {
	if p.Views < v.minViews {
		return reject(fmt.Sprintf("too few views: %d (min %d)", p.Views, v.minViews)), nil
	}
	return pass(), nil
}

// TextDuplicate отсекает текстовые дубликаты по отпечаткам полного текста
// и сердцевины. Совпадение отпечатков — сигнал похожести, не идентичности:
// ложные срабатывания на коротких шаблонных текстах — принятый компромисс.
type TextDuplicate struct {
	index     Index
	checkFull bool
	checkCore bool
}

// NewTextDuplicate создаёт стадию. Обе проверки включаются флагами;
// по умолчанию конфигурация включает обе.
func NewTextDuplicate(index Index, checkFull, checkCore bool) *TextDuplicate {
	return &TextDuplicate{index: index, checkFull: checkFull, checkCore: checkCore}
}

func (t *TextDuplicate) Name() string  { return "text_duplicate" }
func (t *TextDuplicate) Priority() int { return PriorityTextDuplicate }

func (t *TextDuplicate) Apply(ctx context.Context, p *post.Post, run *post.RunContext) (Result, error) {
	// Пустой отпечаток означает "недоступен" и не сравнивается ни с чем.
	if t.checkFull && p.Fingerprints.TextHash != "" {
		if run.SeenText(p.Fingerprints.TextHash) {
			return reject("full text duplicate in batch"), nil
		}
		existing, err := t.index.FindByTextHash(ctx, p.Fingerprints.TextHash)
		if err != nil {
			return Result{}, fmt.Errorf("text hash lookup: %w", err)
		}
		if existing != 0 {
			return reject(fmt.Sprintf("full text duplicate of post %d", existing)), nil
		}
	}

	if t.checkCore && p.Fingerprints.TextCore != "" {
		if run.SeenText(p.Fingerprints.TextCore) {
			return reject("text core duplicate in batch"), nil
		}
		existing, err := t.index.FindByTextCore(ctx, p.Fingerprints.TextCore)
		if err != nil {
			return Result{}, fmt.Errorf("text core lookup: %w", err)
		}
		if existing != 0 {
			return reject(fmt.Sprintf("text core duplicate of post %d", existing)), nil
		}
	}

	run.MarkText(p.Fingerprints.TextHash)
	run.MarkText(p.Fingerprints.TextCore)
	return pass(), nil
}

// MediaDuplicate отсекает посты, чьи медиавложения уже встречались.
// Пост без медиа проходит без проверки.
type MediaDuplicate struct {
	index Index
}

// NewMediaDuplicate создаёт стадию поверх индекса отпечатков.
func NewMediaDuplicate(index Index) *MediaDuplicate {
	return &MediaDuplicate{index: index}
}

func (m *MediaDuplicate) Name() string  { return "media_duplicate" }
func (m *MediaDuplicate) Priority() int { return PriorityMediaDuplicate }

func (m *MediaDuplicate) Apply(ctx context.Context, p *post.Post, run *post.RunContext) (Result, error) {
	ids := p.Fingerprints.MediaIDs
	if len(ids) == 0 {
		return pass(), nil
	}

	if run.SeenMedia(ids) {
		return reject("media duplicate in batch"), nil
	}

	existing, err := m.index.FindByMediaIDs(ctx, ids)
	if err != nil {
		return Result{}, fmt.Errorf("media lookup: %w", err)
	}
	if existing != 0 {
		return reject(fmt.Sprintf("media duplicate of post %d", existing)), nil
	}

	run.MarkMedia(ids)
	return pass(), nil
}

// BlacklistWord отсекает посты, содержащие запрещённое слово или фразу
// как подстроку без учёта регистра.
type BlacklistWord struct {
	blacklists Blacklists
}

// NewBlacklistWord создаёт стадию поверх поставщика чёрных списков.
func NewBlacklistWord(blacklists Blacklists) *BlacklistWord {
	return &BlacklistWord{blacklists: blacklists}
}

func (b *BlacklistWord) Name() string  { return "blacklist_word" }
func (b *BlacklistWord) Priority() int { return PriorityBlacklistWord }

func (b *BlacklistWord) Apply(ctx context.Context, p *post.Post, run *post.RunContext) (Result, error) {
	if p.Text == "" {
		return pass(), nil
	}

	words, err := b.blacklists.Words(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load blacklist words: %w", err)
	}

	textLower := strings.ToLower(p.Text)
	for _, word := range words {
		if word == "" {
			continue
		}
		if strings.Contains(textLower, strings.ToLower(word)) {
			return reject(fmt.Sprintf("blacklisted word: %q", word)), nil
		}
	}
	return pass(), nil
}

// Эвристики спама. Бэкреференсы в Go-регулярках недоступны, поэтому
// повтор одного символа проверяется отдельной функцией.
var spamPatterns = []struct {
	re     *regexp.Regexp
	reason string
}{
	{regexp.MustCompile(`^\+?[78]\d{10}`), "phone number at start"},
	{regexp.MustCompile(`[А-ЯA-Z]{20,}`), "caps run"},
	{regexp.MustCompile(`💰|💵|💳|💸`), "money emoji"},
	{regexp.MustCompile(`https?://(bit\.ly|goo\.gl|clck\.ru)`), "url shortener"},
}

var saleKeywords = []string{
	"продам", "куплю", "продаю", "продаётся", "продается",
	"закажи", "заказать", "скидка", "акция", "цена", "руб",
}

// SpamPattern отсекает посты по эвристикам спама: телефон в начале,
// длинные прогоны капса, повторяющиеся символы, денежные эмодзи,
// сокращатели ссылок и скопление продажных слов.
type SpamPattern struct{}

// NewSpamPattern создаёт стадию.
func NewSpamPattern() *SpamPattern { return &SpamPattern{} }

func (s *SpamPattern) Name() string  { return "spam_pattern" }
func (s *SpamPattern) Priority() int { return PrioritySpamPattern }

func (s *SpamPattern) Apply(ctx context.Context, p *post.Post, run *post.RunContext) (Result, error) {
	if p.Text == "" {
		return pass(), nil
	}

	for _, pat := range spamPatterns {
		if pat.re.MatchString(p.Text) {
			return reject(fmt.Sprintf("spam pattern: %s", pat.reason)), nil
		}
	}

	if hasLongRepeat(p.Text, 11) {
		return reject("spam pattern: repeated characters"), nil
	}

	if n := countSaleKeywords(p.Text); n >= 2 {
		return reject(fmt.Sprintf("spam pattern: %d sale keywords", n)), nil
	}
	return pass(), nil
}

// hasLongRepeat сообщает, есть ли в тексте прогон из minRun одинаковых рун.
func hasLongRepeat(text string, minRun int) bool {
	var prev rune
	runLen := 0
	for _, r := range text {
		if r == prev {
			runLen++
			if runLen >= minRun {
				return true
			}
			continue
		}
		prev = r
		runLen = 1
	}
	return false
}

func countSaleKeywords(text string) int {
	textLower := strings.ToLower(text)
	n := 0
	for _, kw := range saleKeywords {
		if strings.Contains(textLower, kw) {
			n++
		}
	}
	return n
}
