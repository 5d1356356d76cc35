package config

import "os"

// EnvConfig содержит секреты и переключатели режимов из окружения.
type EnvConfig struct {
	GeminiAPIKey string
	SkipGemini   bool // классификация только запасным классификатором
	DatabasePath string
}

// LoadEnvConfig читает переменные окружения. GEMINI_API_KEY не обязателен:
// без него классификация идёт через запасной классификатор по ключевым
// словам.
func LoadEnvConfig() *EnvConfig {
	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "state/fingerprints.db"
	}

	return &EnvConfig{
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		SkipGemini:   os.Getenv("SKIP_GEMINI") == "1",
		DatabasePath: dbPath,
	}
}
