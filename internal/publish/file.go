// Package publish определяет границу доставки готовых дайджестов.
// Публикация в конкретную платформу — забота внешнего клиента; репозиторий
// поставляет файловую реализацию для офлайн-прогонов и проверки вывода.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/maine/region_digest_bot/internal/aggregate"
)

// Publisher доставляет собранные дайджесты получателю.
type Publisher interface {
	Publish(ctx context.Context, digests []*aggregate.Digest) error
}

// FilePublisher складывает дайджесты в каталог: один JSON-файл на прогон.
type FilePublisher struct {
	dir   string
	clock func() time.Time
}

// NewFilePublisher создаёт публикатор для каталога dir. Нулевой clock
// заменяется на time.Now.
func NewFilePublisher(dir string, clock func() time.Time) *FilePublisher {
	if clock == nil {
		clock = time.Now
	}
	return &FilePublisher{dir: dir, clock: clock}
}

// Publish пишет дайджесты в файл digests_<метка времени>.json.
// Запись атомарна: сначала временный файл, затем переименование.
func (f *FilePublisher) Publish(ctx context.Context, digests []*aggregate.Digest) error {
	if len(digests) == 0 {
		log.Println("publish: nothing to publish")
		return nil
	}

	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	data, err := json.MarshalIndent(digests, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal digests: %w", err)
	}

	name := fmt.Sprintf("digests_%s.json", f.clock().UTC().Format("20060102_150405"))
	path := filepath.Join(f.dir, name)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write digests: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename digests file: %w", err)
	}

	log.Printf("publish: wrote %d digests to %s", len(digests), path)
	return nil
}
