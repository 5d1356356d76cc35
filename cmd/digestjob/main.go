// Команда digestjob выполняет один прогон обработки: читает батч постов,
// фильтрует, оценивает, собирает дайджесты и складывает их в каталог вывода.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/maine/region_digest_bot/internal/aggregate"
	"github.com/maine/region_digest_bot/internal/app"
	"github.com/maine/region_digest_bot/internal/classify"
	"github.com/maine/region_digest_bot/internal/cluster"
	"github.com/maine/region_digest_bot/internal/config"
	"github.com/maine/region_digest_bot/internal/filters"
	"github.com/maine/region_digest_bot/internal/ingest"
	"github.com/maine/region_digest_bot/internal/post"
	"github.com/maine/region_digest_bot/internal/publish"
	"github.com/maine/region_digest_bot/internal/scoring"
	"github.com/maine/region_digest_bot/internal/state"
	"github.com/maine/region_digest_bot/internal/store"
)

func main() {
	var (
		configPath  = flag.String("config", "configs/pipeline.yaml", "путь к файлу конфигурации")
		regionsPath = flag.String("regions", "configs/regions.yaml", "путь к конфигу регионов")
		regionCode  = flag.String("region", "", "код региона (обязателен)")
		inputPath   = flag.String("input", "", "путь к JSON-файлу с батчем постов (обязателен)")
		outputDir   = flag.String("output", "out", "каталог для готовых дайджестов")
		statePath   = flag.String("state", "state/run_state.json", "путь к файлу состояния")
		contentType = flag.String("content-type", string(post.CategoryNews), "тип контента батча")
		neighbor    = flag.Bool("neighbor", false, "батч пришёл из сообществ соседнего региона")
	)
	flag.Parse()

	if *regionCode == "" || *inputPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*configPath, *regionsPath, *regionCode, *inputPath, *outputDir, *statePath, *contentType, *neighbor); err != nil {
		log.Fatalf("digestjob: %v", err)
	}
}

func run(configPath, regionsPath, regionCode, inputPath, outputDir, statePath, contentType string, neighbor bool) error {
	ctx := context.Background()

	env := config.LoadEnvConfig()

	cfg, err := config.LoadRoot(configPath)
	if err != nil {
		return err
	}
	regions, err := config.LoadRegions(regionsPath)
	if err != nil {
		return err
	}
	region, err := regions.Region(regionCode)
	if err != nil {
		return err
	}
	ct, ok := post.ParseCategory(contentType)
	if !ok {
		return fmt.Errorf("unknown content type: %q", contentType)
	}

	st, err := store.Open(env.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()

	analyzer, err := buildAnalyzer(ctx, env, cfg.Gemini.Model)
	if err != nil {
		return err
	}

	allowed, err := cfg.Pipeline.Categories()
	if err != nil {
		return err
	}
	categoryStage, err := filters.NewCategory(analyzer, allowed)
	if err != nil {
		return err
	}

	pipeline := filters.NewPipeline(
		filters.NewStructuralDuplicate(st),
		filters.NewDate(time.Duration(cfg.Pipeline.MaxAgeHours)*time.Hour),
		filters.NewBlacklistID(st),
		filters.NewTextLength(cfg.Pipeline.MinTextLength, cfg.Pipeline.MaxTextLength),
		filters.NewViewsRequirement(cfg.Pipeline.MinViews),
		filters.NewTextDuplicate(st, cfg.Pipeline.CheckFull(), cfg.Pipeline.CheckCore()),
		filters.NewMediaDuplicate(st),
		filters.NewBlacklistWord(st),
		filters.NewSpamPattern(),
		filters.NewRegionalRelevance(cfg.Pipeline.RequiredKeywordMatches),
		filters.NewNeighborHashtag(cfg.Pipeline.RequireNeighborHashtag),
		filters.NewTextQuality(cfg.Pipeline.MinWords),
		categoryStage,
	)

	scorer, err := scoring.NewScorer(cfg.Scoring.Weights)
	if err != nil {
		return err
	}

	pl, err := app.NewPipeline(app.Deps{
		Collector: ingest.NewFileCollector(inputPath),
		Filters:   pipeline,
		Scorer:    scorer,
		Clusterer: cluster.NewClusterer(
			cfg.Clustering.TimeWindowHours, cfg.Clustering.MinClusterSize),
		Aggregator: aggregate.NewAggregator(
			cfg.Aggregation.MaxPostsPerDigest,
			cfg.Aggregation.MaxTextLength,
			cfg.Aggregation.MaxMediaItems),
		Publisher: publish.NewFilePublisher(outputDir, nil),
		Registrar: st,
		States:    state.NewFileStore(statePath),

		SourcePriority:      cfg.Scoring.SourcePriority,
		MaxDigests:          cfg.Aggregation.MaxDigests,
		SimilarityThreshold: cfg.Clustering.SimilarityThreshold,
	})
	if err != nil {
		return err
	}

	report, err := pl.Run(ctx, region, ct, neighbor)
	if err != nil {
		return err
	}

	printReport(report)
	return nil
}

// buildAnalyzer собирает классификатор: Gemini как основной, если доступен
// ключ и не выставлен SKIP_GEMINI, иначе только запасной по ключевым словам.
func buildAnalyzer(ctx context.Context, env *config.EnvConfig, model string) (*classify.Analyzer, error) {
	if env.SkipGemini || env.GeminiAPIKey == "" {
		log.Println("digestjob: Gemini disabled, using keyword classifier")
		return classify.NewAnalyzer(nil), nil
	}

	client, err := classify.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return classify.NewAnalyzer(classify.NewGemini(client, model)), nil
}

func printReport(report *app.Report) {
	fmt.Printf("collected: %d, admitted: %d, deduplicated: %d, digests: %d\n",
		report.Collected, report.Admitted, report.Deduplicated, len(report.Digests))
	for _, st := range report.FilterResult.Stages {
		if st.Checked == 0 {
			continue
		}
		fmt.Printf("  [%2d] %-22s checked=%-4d rejected=%-4d errors=%-2d rate=%.1f%%\n",
			st.Priority, st.Name, st.Checked, st.Rejected, st.Errors, st.Rate)
	}
}
