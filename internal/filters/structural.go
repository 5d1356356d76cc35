package filters

import (
	"context"
	"fmt"
	"time"

	"github.com/maine/region_digest_bot/internal/post"
)

// StructuralDuplicate отсекает точные дубликаты по структурному отпечатку:
// та же запись того же сообщества. Самая быстрая и самая надёжная проверка,
// поэтому идёт первой.
type StructuralDuplicate struct {
	index Index
}

// NewStructuralDuplicate создаёт стадию поверх индекса отпечатков.
func NewStructuralDuplicate(index Index) *StructuralDuplicate {
	return &StructuralDuplicate{index: index}
}

func (s *StructuralDuplicate) Name() string  { return "structural_duplicate" }
func (s *StructuralDuplicate) Priority() int { return PriorityStructuralDuplicate }

func (s *StructuralDuplicate) Apply(ctx context.Context, p *post.Post, run *post.RunContext) (Result, error) {
	fp := p.Fingerprints.Structural
	if fp == "" {
		return pass(), nil
	}

	if run.SeenStructural(fp) {
		return reject(fmt.Sprintf("duplicate in batch: %s", fp)), nil
	}

	existing, err := s.index.FindByStructural(ctx, fp)
	if err != nil {
		return Result{}, fmt.Errorf("structural lookup %s: %w", fp, err)
	}
	if existing != 0 {
		return reject(fmt.Sprintf("already indexed: %s (post %d)", fp, existing)), nil
	}

	run.MarkStructural(fp)
	return pass(), nil
}

// Date отсекает устаревшие посты. Пост без даты публикации проходит:
// отсутствующее необязательное поле — не повод для отсева.
type Date struct {
	maxAge time.Duration
}

// DefaultMaxAge — возраст, после которого пост не публикуется.
const DefaultMaxAge = 72 * time.Hour

// NewDate создаёт стадию с указанным максимальным возрастом.
// Неположительный maxAge заменяется значением по умолчанию.
func NewDate(maxAge time.Duration) *Date {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Date{maxAge: maxAge}
}

func (d *Date) Name() string  { return "date" }
func (d *Date) Priority() int { return PriorityDate }

func (d *Date) Apply(ctx context.Context, p *post.Post, run *post.RunContext) (Result, error) {
	if p.PublishedAt.IsZero() {
		return pass(), nil
	}

	age := run.Now.Sub(p.PublishedAt)
	if age > d.maxAge {
		return reject(fmt.Sprintf("too old: %.1fh (max %.0fh)", age.Hours(), d.maxAge.Hours())), nil
	}
	return pass(), nil
}

// BlacklistID отсекает посты заблокированных сообществ и авторов.
// Сравнение идёт по модулю id: в чёрном списке хранятся абсолютные значения.
type BlacklistID struct {
	blacklists Blacklists
}

// NewBlacklistID создаёт стадию поверх поставщика чёрных списков.
func NewBlacklistID(blacklists Blacklists) *BlacklistID {
	return &BlacklistID{blacklists: blacklists}
}

func (b *BlacklistID) Name() string  { return "blacklist_id" }
func (b *BlacklistID) Priority() int { return PriorityBlacklistID }

func (b *BlacklistID) Apply(ctx context.Context, p *post.Post, run *post.RunContext) (Result, error) {
	ids, err := b.blacklists.SourceIDs(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load blacklisted ids: %w", err)
	}

	if _, ok := ids[abs(p.OwnerID)]; ok {
		return reject(fmt.Sprintf("blacklisted owner: %d", p.OwnerID)), nil
	}
	if p.FromID != 0 {
		if _, ok := ids[abs(p.FromID)]; ok {
			return reject(fmt.Sprintf("blacklisted author: %d", p.FromID)), nil
		}
	}
	return pass(), nil
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
