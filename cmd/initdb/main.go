// Команда initdb создаёт схему базы отпечатков, засевает чёрные списки из
// YAML-файла и при необходимости чистит устаревшие отпечатки.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/maine/region_digest_bot/internal/config"
	"github.com/maine/region_digest_bot/internal/store"
)

// seedFile — форма YAML-файла с начальными чёрными списками.
type seedFile struct {
	Words     []string `yaml:"words"`
	SourceIDs []int64  `yaml:"source_ids"`
}

func main() {
	var (
		seedPath  = flag.String("seed", "", "путь к YAML-файлу с чёрными списками (необязателен)")
		pruneDays = flag.Int("prune-days", 0, "удалить отпечатки старше N дней (0 — не чистить)")
	)
	flag.Parse()

	if err := run(*seedPath, *pruneDays); err != nil {
		log.Fatalf("initdb: %v", err)
	}
}

func run(seedPath string, pruneDays int) error {
	ctx := context.Background()
	env := config.LoadEnvConfig()

	st, err := store.Open(env.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()
	log.Printf("initdb: schema ready at %s", env.DatabasePath)

	if seedPath != "" {
		if err := seed(ctx, st, seedPath); err != nil {
			return err
		}
	}

	if pruneDays > 0 {
		deleted, err := st.DeleteOldFingerprints(ctx, time.Duration(pruneDays)*24*time.Hour)
		if err != nil {
			return err
		}
		log.Printf("initdb: pruned %d fingerprints older than %d days", deleted, pruneDays)
	}
	return nil
}

func seed(ctx context.Context, st *store.Store, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}

	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return fmt.Errorf("unmarshal seed file: %w", err)
	}

	for _, word := range sf.Words {
		if err := st.AddBlacklistWord(ctx, word); err != nil {
			return err
		}
	}
	for _, id := range sf.SourceIDs {
		if err := st.AddBlacklistID(ctx, id); err != nil {
			return err
		}
	}

	log.Printf("initdb: seeded %d words, %d source ids", len(sf.Words), len(sf.SourceIDs))
	return nil
}
