package filters

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/maine/region_digest_bot/internal/classify"
	"github.com/maine/region_digest_bot/internal/post"
)

func mustApply(t *testing.T, s Stage, p *post.Post, run *post.RunContext) Result {
	t.Helper()
	res, err := s.Apply(context.Background(), p, run)
	if err != nil {
		t.Fatalf("%s.Apply: %v", s.Name(), err)
	}
	return res
}

func TestStructuralDuplicate(t *testing.T) {
	index := newMemIndex()
	index.structural["-1_100"] = 42
	stage := NewStructuralDuplicate(index)
	run := testRun()

	indexed := &post.Post{}
	indexed.Fingerprints.Structural = "-1_100"
	if res := mustApply(t, stage, indexed, run); res.Passed {
		t.Error("already indexed post passed")
	}

	fresh := &post.Post{}
	fresh.Fingerprints.Structural = "-1_101"
	if res := mustApply(t, stage, fresh, run); !res.Passed {
		t.Errorf("fresh post rejected: %s", res.Reason)
	}

	// Тот же отпечаток в том же батче.
	again := &post.Post{}
	again.Fingerprints.Structural = "-1_101"
	if res := mustApply(t, stage, again, run); res.Passed {
		t.Error("in-batch duplicate passed")
	}
}

func TestDate(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	run := post.NewRunContext(post.Region{}, post.CategoryNews, now)
	stage := NewDate(72 * time.Hour)

	tests := []struct {
		name        string
		publishedAt time.Time
		wantPass    bool
	}{
		{"fresh", now.Add(-1 * time.Hour), true},
		{"on the edge", now.Add(-72 * time.Hour), true},
		{"expired", now.Add(-73 * time.Hour), false},
		{"no date", time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &post.Post{PublishedAt: tt.publishedAt}
			if res := mustApply(t, stage, p, run); res.Passed != tt.wantPass {
				t.Errorf("passed = %v, want %v (%s)", res.Passed, tt.wantPass, res.Reason)
			}
		})
	}
}

func TestBlacklistID(t *testing.T) {
	bl := &memBlacklists{ids: map[int64]struct{}{170319760: {}}}
	stage := NewBlacklistID(bl)
	run := testRun()

	// Отрицательный id сообщества сравнивается по модулю.
	blocked := &post.Post{OwnerID: -170319760}
	if res := mustApply(t, stage, blocked, run); res.Passed {
		t.Error("blacklisted owner passed")
	}

	blockedAuthor := &post.Post{OwnerID: -1, FromID: 170319760}
	if res := mustApply(t, stage, blockedAuthor, run); res.Passed {
		t.Error("blacklisted author passed")
	}

	clean := &post.Post{OwnerID: -99, FromID: 5}
	if res := mustApply(t, stage, clean, run); !res.Passed {
		t.Errorf("clean post rejected: %s", res.Reason)
	}
}

func TestTextLength(t *testing.T) {
	stage := NewTextLength(10, 100)
	run := testRun()

	withMedia := &post.Post{}
	withMedia.Fingerprints.MediaIDs = []string{"photo_1"}

	tests := []struct {
		name     string
		p        *post.Post
		wantPass bool
	}{
		{"ok", &post.Post{Text: strings.Repeat("а", 50)}, true},
		{"too short", &post.Post{Text: "коротко"}, false},
		{"too long", &post.Post{Text: strings.Repeat("а", 101)}, false},
		{"no text with media", withMedia, true},
		{"no text no media", &post.Post{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if res := mustApply(t, stage, tt.p, run); res.Passed != tt.wantPass {
				t.Errorf("passed = %v, want %v (%s)", res.Passed, tt.wantPass, res.Reason)
			}
		})
	}
}

func TestViewsRequirement(t *testing.T) {
	run := testRun()

	stage := NewViewsRequirement(100)
	if res := mustApply(t, stage, &post.Post{Views: 99}, run); res.Passed {
		t.Error("post below views threshold passed")
	}
	if res := mustApply(t, stage, &post.Post{Views: 100}, run); !res.Passed {
		t.Error("post at views threshold rejected")
	}

	// Нулевой порог выключает проверку.
	disabled := NewViewsRequirement(0)
	if res := mustApply(t, disabled, &post.Post{Views: 0}, run); !res.Passed {
		t.Error("zero threshold should pass everything")
	}
}

func TestTextDuplicate(t *testing.T) {
	index := newMemIndex()
	index.textHash["aaa"] = 7
	index.textCore["ccc"] = 8
	stage := NewTextDuplicate(index, true, true)
	run := testRun()

	fullDup := &post.Post{}
	fullDup.Fingerprints.TextHash = "aaa"
	if res := mustApply(t, stage, fullDup, run); res.Passed {
		t.Error("full text duplicate passed")
	}

	coreDup := &post.Post{}
	coreDup.Fingerprints.TextHash = "bbb"
	coreDup.Fingerprints.TextCore = "ccc"
	if res := mustApply(t, stage, coreDup, run); res.Passed {
		t.Error("core duplicate passed")
	}

	fresh := &post.Post{}
	fresh.Fingerprints.TextHash = "ddd"
	fresh.Fingerprints.TextCore = "eee"
	if res := mustApply(t, stage, fresh, run); !res.Passed {
		t.Errorf("fresh post rejected: %s", res.Reason)
	}

	// Второй пост с тем же отпечатком в батче.
	inBatch := &post.Post{}
	inBatch.Fingerprints.TextHash = "ddd"
	if res := mustApply(t, stage, inBatch, run); res.Passed {
		t.Error("in-batch text duplicate passed")
	}

	// Пустые отпечатки не сравниваются ни с чем.
	empty := &post.Post{}
	if res := mustApply(t, stage, empty, run); !res.Passed {
		t.Error("post without text fingerprints rejected")
	}
	empty2 := &post.Post{}
	if res := mustApply(t, stage, empty2, run); !res.Passed {
		t.Error("second post without text fingerprints rejected")
	}
}

func TestTextDuplicate_ChecksDisabled(t *testing.T) {
	index := newMemIndex()
	index.textHash["aaa"] = 7
	stage := NewTextDuplicate(index, false, false)
	run := testRun()

	p := &post.Post{}
	p.Fingerprints.TextHash = "aaa"
	if res := mustApply(t, stage, p, run); !res.Passed {
		t.Error("duplicate rejected with checks disabled")
	}
}

func TestMediaDuplicate(t *testing.T) {
	index := newMemIndex()
	index.media["photo_500"] = 3
	stage := NewMediaDuplicate(index)
	run := testRun()

	dup := &post.Post{}
	dup.Fingerprints.MediaIDs = []string{"photo_1", "photo_500"}
	if res := mustApply(t, stage, dup, run); res.Passed {
		t.Error("media duplicate passed")
	}

	fresh := &post.Post{}
	fresh.Fingerprints.MediaIDs = []string{"photo_2"}
	if res := mustApply(t, stage, fresh, run); !res.Passed {
		t.Errorf("fresh media rejected: %s", res.Reason)
	}

	noMedia := &post.Post{}
	if res := mustApply(t, stage, noMedia, run); !res.Passed {
		t.Error("post without media rejected")
	}
}

func TestBlacklistWord(t *testing.T) {
	bl := &memBlacklists{words: []string{"казино"}}
	stage := NewBlacklistWord(bl)
	run := testRun()

	if res := mustApply(t, stage, &post.Post{Text: "Лучшее КАЗИНО города"}, run); res.Passed {
		t.Error("post with blacklisted word passed")
	}
	if res := mustApply(t, stage, &post.Post{Text: "Обычные новости"}, run); !res.Passed {
		t.Error("clean post rejected")
	}
}

func TestSpamPattern(t *testing.T) {
	stage := NewSpamPattern()
	run := testRun()

	tests := []struct {
		name     string
		text     string
		wantPass bool
	}{
		{"clean", "В городе открылась новая библиотека", true},
		{"phone at start", "+79001234567 звоните сейчас", false},
		{"caps run", "СРОЧНОВСЕМЧИТАТЬОЧЕНЬВАЖНО новость", false},
		{"money emoji", "Заработок на дому 💰", false},
		{"url shortener", "Переходи https://bit.ly/abc", false},
		{"repeated characters", "Вааааааааааау, вот это да", false},
		{"sale keywords", "Продам гараж, цена договорная", false},
		{"single sale keyword", "Продам гараж в центре города", true},
		{"empty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &post.Post{Text: tt.text}
			if res := mustApply(t, stage, p, run); res.Passed != tt.wantPass {
				t.Errorf("passed = %v, want %v (%s)", res.Passed, tt.wantPass, res.Reason)
			}
		})
	}
}

func TestRegionalRelevance(t *testing.T) {
	region := post.Region{Code: "malmyzh", Keywords: []string{"Малмыж", "Калинино"}}
	stage := NewRegionalRelevance(1)

	neighborRun := post.NewRunContext(region, post.CategoryNews, time.Now())
	neighborRun.IsNeighborContent = true

	if res := mustApply(t, stage, &post.Post{Text: "В Малмыже прошёл праздник"}, neighborRun); !res.Passed {
		t.Errorf("relevant neighbor post rejected: %s", res.Reason)
	}
	if res := mustApply(t, stage, &post.Post{Text: "Новости соседнего села"}, neighborRun); res.Passed {
		t.Error("irrelevant neighbor post passed")
	}

	// К своему контенту фильтр не применяется.
	ownRun := post.NewRunContext(region, post.CategoryNews, time.Now())
	if res := mustApply(t, stage, &post.Post{Text: "Новости соседнего села"}, ownRun); !res.Passed {
		t.Error("own content filtered by regional relevance")
	}
}

func TestNeighborHashtag(t *testing.T) {
	stage := NewNeighborHashtag(true)

	run := testRun()
	run.IsNeighborContent = true

	if res := mustApply(t, stage, &post.Post{Text: "Событие дня #новости"}, run); !res.Passed {
		t.Errorf("neighbor post with hashtag rejected: %s", res.Reason)
	}
	if res := mustApply(t, stage, &post.Post{Text: "Событие дня"}, run); res.Passed {
		t.Error("neighbor post without hashtag passed")
	}

	own := testRun()
	if res := mustApply(t, stage, &post.Post{Text: "Событие дня"}, own); !res.Passed {
		t.Error("own content rejected by neighbor hashtag stage")
	}
}

func TestTextQuality(t *testing.T) {
	stage := NewTextQuality(3)
	run := testRun()

	withMedia := &post.Post{}
	withMedia.Fingerprints.MediaIDs = []string{"photo_1"}

	tests := []struct {
		name     string
		p        *post.Post
		wantPass bool
	}{
		{"readable", &post.Post{Text: "Сегодня открылась новая школа"}, true},
		{"too few words", &post.Post{Text: "Ура!"}, false},
		{"excessive punctuation", &post.Post{Text: "Что??? Как??? Почему??? Зачем??? Когда??? Где??? Кто???"}, false},
		{"media only", withMedia, true},
		{"empty", &post.Post{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if res := mustApply(t, stage, tt.p, run); res.Passed != tt.wantPass {
				t.Errorf("passed = %v, want %v (%s)", res.Passed, tt.wantPass, res.Reason)
			}
		})
	}
}

// stubClassifier возвращает заранее заданный анализ.
type stubClassifier struct {
	category  post.Category
	relevance int
	isSpam    bool
}

func (s stubClassifier) Classify(ctx context.Context, text string) (classify.Analysis, error) {
	return classify.Analysis{
		Category:  s.category,
		Relevance: s.relevance,
		IsSpam:    s.isSpam,
	}, nil
}

func TestCategory(t *testing.T) {
	run := testRun()

	spamStage, err := NewCategory(stubClassifier{category: post.CategoryAds, isSpam: true}, nil)
	if err != nil {
		t.Fatal(err)
	}
	p := &post.Post{Text: "Продам куплю скидка"}
	if res := mustApply(t, spamStage, p, run); res.Passed {
		t.Error("spam post passed")
	}
	if !p.IsSpam {
		t.Error("IsSpam not written back to post")
	}

	allowStage, err := NewCategory(stubClassifier{category: post.CategoryAds}, []post.Category{post.CategoryNews})
	if err != nil {
		t.Fatal(err)
	}
	if res := mustApply(t, allowStage, &post.Post{Text: "Реклама"}, run); res.Passed {
		t.Error("disallowed category passed")
	}

	okStage, err := NewCategory(stubClassifier{category: post.CategoryNews, relevance: 80}, []post.Category{post.CategoryNews})
	if err != nil {
		t.Fatal(err)
	}
	ok := &post.Post{Text: "Новости города"}
	if res := mustApply(t, okStage, ok, run); !res.Passed {
		t.Errorf("allowed category rejected: %s", res.Reason)
	}
	if ok.Relevance != 80 {
		t.Errorf("Relevance = %d, want 80", ok.Relevance)
	}
}

func TestNewCategory_UnknownAllowedCategory(t *testing.T) {
	_, err := NewCategory(stubClassifier{}, []post.Category{post.Category("bogus")})
	if err == nil {
		t.Fatal("expected error for unknown category in allow list")
	}
}
