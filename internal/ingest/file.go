// Package ingest поставляет батчи постов на вход конвейера.
// Сетевые клиенты платформ живут за пределами этого репозитория; здесь —
// граница приёма: любой источник, умеющий отдать []post.Post, подходит.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/maine/region_digest_bot/internal/post"
)

// Collector отдаёт очередной батч постов на обработку.
type Collector interface {
	Collect(ctx context.Context) ([]*post.Post, error)
}

// FileCollector читает батч из JSON-файла: массив постов в форме
// post.Post. Используется для офлайн-прогонов и отладки; боевой мониторинг
// подставляет сюда собственную реализацию Collector.
type FileCollector struct {
	path string
}

// NewFileCollector создаёт коллектор для указанного файла.
func NewFileCollector(path string) *FileCollector {
	return &FileCollector{path: path}
}

// Collect читает и разбирает файл. Посты с нулевым статусом получают
// StatusNew.
func (c *FileCollector) Collect(ctx context.Context) ([]*post.Post, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("read batch file: %w", err)
	}

	var posts []*post.Post
	if err := json.Unmarshal(data, &posts); err != nil {
		return nil, fmt.Errorf("unmarshal batch: %w", err)
	}

	for _, p := range posts {
		if p.Status == "" {
			p.Status = post.StatusNew
		}
	}
	return posts, nil
}
