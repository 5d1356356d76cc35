// Package filters реализует конвейер допуска постов: упорядоченную по
// приоритету цепочку независимых проверок с пофильтровой статистикой.
//
// Порядок важен: дешёвые структурные проверки идут первыми, дорогие
// семантические — последними. Пост, отсеянный ранней стадией, не доходит
// до поздних, поэтому приоритет — это контракт производительности,
// а не оформление.
package filters

import (
	"context"

	"github.com/maine/region_digest_bot/internal/post"
)

// Приоритетные полосы стадий. Внутри полосы порядок задаётся точным числом.
const (
	PriorityStructuralDuplicate = 10
	PriorityDate                = 11
	PriorityBlacklistID         = 12
	PriorityTextLength          = 30
	PriorityViews               = 31
	PriorityTextDuplicate       = 40
	PriorityMediaDuplicate      = 41
	PriorityBlacklistWord       = 50
	PrioritySpamPattern         = 51
	PriorityRegionalRelevance   = 60
	PriorityNeighborHashtag     = 61
	PriorityTextQuality         = 70
	PriorityCategory            = 71
)

// Result — решение одной стадии по одному посту.
type Result struct {
	Passed bool
	// Reason заполняется только при отсеве и называет конкретную причину,
	// видимую оператору.
	Reason string
}

func pass() Result { return Result{Passed: true} }

func reject(reason string) Result { return Result{Passed: false, Reason: reason} }

// Stage — одна проверка конвейера. Apply не должен изменять другие посты
// батча; ошибки внешних зависимостей возвращаются как error, и конвейер
// трактует их как fail-open (пост сохраняется).
type Stage interface {
	Name() string
	Priority() int
	Apply(ctx context.Context, p *post.Post, run *post.RunContext) (Result, error)
}

// Index — поисковик по персистентному индексу отпечатков.
// Возвращает id найденного поста либо 0, если отпечаток не встречался.
type Index interface {
	FindByStructural(ctx context.Context, fp string) (int64, error)
	FindByTextHash(ctx context.Context, hash string) (int64, error)
	FindByTextCore(ctx context.Context, hash string) (int64, error)
	FindByMediaIDs(ctx context.Context, ids []string) (int64, error)
}

// Blacklists отдаёт актуальные чёрные списки. Реализация может кэшировать:
// устаревание в пределах одного прогона допустимо.
type Blacklists interface {
	Words(ctx context.Context) ([]string, error)
	SourceIDs(ctx context.Context) (map[int64]struct{}, error)
}
