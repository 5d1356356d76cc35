package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/maine/region_digest_bot/internal/post"
	"github.com/maine/region_digest_bot/internal/scoring"
)

type (
	// Root объединяет все конфигурационные блоки.
	Root struct {
		Pipeline    Pipeline    `yaml:"pipeline"`
		Scoring     Scoring     `yaml:"scoring"`
		Clustering  Clustering  `yaml:"clustering"`
		Aggregation Aggregation `yaml:"aggregation"`
		Gemini      Gemini      `yaml:"gemini"`
	}

	// Pipeline описывает параметры конвейера фильтрации.
	Pipeline struct {
		MaxAgeHours            int      `yaml:"max_age_hours"`
		MinTextLength          int      `yaml:"min_text_length"`
		MaxTextLength          int      `yaml:"max_text_length"`
		MinViews               int      `yaml:"min_views"`
		CheckFullText          *bool    `yaml:"check_full_text"`
		CheckCoreText          *bool    `yaml:"check_core_text"`
		RequiredKeywordMatches int      `yaml:"required_keyword_matches"`
		RequireNeighborHashtag bool     `yaml:"require_neighbor_hashtag"`
		MinWords               int      `yaml:"min_words"`
		AllowedCategories      []string `yaml:"allowed_categories"`
	}

	// Scoring задаёт веса компонент оценки и репутацию источника по умолчанию.
	Scoring struct {
		Weights        scoring.Weights `yaml:"weights"`
		SourcePriority int             `yaml:"source_priority"`
	}

	// Clustering задаёт параметры группировки постов.
	Clustering struct {
		TimeWindowHours     float64 `yaml:"time_window_hours"`
		MinClusterSize      int     `yaml:"min_cluster_size"`
		SimilarityThreshold float64 `yaml:"similarity_threshold"`
	}

	// Aggregation задаёт лимиты дайджестов.
	Aggregation struct {
		MaxPostsPerDigest int `yaml:"max_posts_per_digest"`
		MaxTextLength     int `yaml:"max_text_length"`
		MaxMediaItems     int `yaml:"max_media_items"`
		MaxDigests        int `yaml:"max_digests"`
	}

	// Gemini содержит настройки модели классификации.
	Gemini struct {
		Model string `yaml:"model"`
	}

	// RegionsRoot описывает список обслуживаемых регионов.
	RegionsRoot struct {
		Regions []post.Region `yaml:"regions"`
	}
)

// CheckFull сообщает, включена ли проверка дубликатов полного текста.
// Отсутствие значения в конфиге означает "включена".
func (p Pipeline) CheckFull() bool {
	return p.CheckFullText == nil || *p.CheckFullText
}

// CheckCore сообщает, включена ли проверка дубликатов сердцевины текста.
func (p Pipeline) CheckCore() bool {
	return p.CheckCoreText == nil || *p.CheckCoreText
}

// Categories разбирает список разрешённых категорий. Неизвестный код —
// ошибка конфигурации, о которой сообщается при загрузке.
func (p Pipeline) Categories() ([]post.Category, error) {
	categories := make([]post.Category, 0, len(p.AllowedCategories))
	for _, code := range p.AllowedCategories {
		cat, ok := post.ParseCategory(code)
		if !ok {
			return nil, fmt.Errorf("unknown category in allowed_categories: %q", code)
		}
		categories = append(categories, cat)
	}
	return categories, nil
}

// LoadRoot читает основной файл конфигурации. Ошибки конфигурации
// эскалируются сразу при загрузке, не посреди прогона.
func LoadRoot(path string) (Root, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Root{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Root
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Root{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Scoring.Weights == (scoring.Weights{}) {
		cfg.Scoring.Weights = scoring.DefaultWeights()
	}
	if _, err := scoring.NewScorer(cfg.Scoring.Weights); err != nil {
		return Root{}, fmt.Errorf("invalid scoring config: %w", err)
	}
	if _, err := cfg.Pipeline.Categories(); err != nil {
		return Root{}, fmt.Errorf("invalid pipeline config: %w", err)
	}

	return cfg, nil
}

// LoadRegions читает конфиг со списком регионов.
func LoadRegions(path string) (RegionsRoot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RegionsRoot{}, fmt.Errorf("read regions config: %w", err)
	}

	var cfg RegionsRoot
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return RegionsRoot{}, fmt.Errorf("unmarshal regions config: %w", err)
	}
	return cfg, nil
}

// Region находит регион по коду.
func (r RegionsRoot) Region(code string) (post.Region, error) {
	for _, region := range r.Regions {
		if region.Code == code {
			return region, nil
		}
	}
	return post.Region{}, fmt.Errorf("unknown region code: %q", code)
}
