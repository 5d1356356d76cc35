package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/maine/region_digest_bot/internal/post"
)

// TextGenerator определяет минимальный интерфейс генерации текста.
// Позволяет подменять Gemini моком в тестах.
type TextGenerator interface {
	GenerateText(ctx context.Context, model string, prompt string) (string, error)
}

// Client инкапсулирует работу с Gemini API через официальный SDK.
type Client struct {
	client *genai.Client
}

// Убеждаемся, что Client реализует интерфейс TextGenerator.
var _ TextGenerator = (*Client)(nil)

// NewClient создаёт клиент Gemini. Читает GEMINI_API_KEY из окружения.
func NewClient(ctx context.Context) (*Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{client: client}, nil
}

// GenerateText отправляет промпт и возвращает текстовый ответ модели.
// Временные ошибки (429 RPM/TPM, 500, 502, 503, 504) повторяются с паузой;
// исчерпание дневной квоты возвращается сразу без повторов.
func (c *Client) GenerateText(ctx context.Context, model string, prompt string) (string, error) {
	const maxRetries = 3
	const baseDelay = 12 * time.Second

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := baseDelay * time.Duration(attempt)
			log.Printf("classify: retrying Gemini request (attempt %d/%d) after %v...",
				attempt+1, maxRetries, delay)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}

		result, err := c.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
		if err == nil {
			text, textErr := result.Text()
			if textErr != nil {
				return "", fmt.Errorf("get text from result: %w", textErr)
			}
			return text, nil
		}

		lastErr = err
		errStr := strings.ToLower(err.Error())

		if strings.Contains(errStr, "quota") || strings.Contains(errStr, "daily limit") {
			return "", fmt.Errorf("gemini API quota exceeded: %w", err)
		}
		if isRetryable(errStr) {
			log.Printf("classify: temporary Gemini error: %v", err)
			continue
		}
		return "", fmt.Errorf("generate content: %w", err)
	}

	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}

func isRetryable(errStr string) bool {
	for _, marker := range []string{
		"429", "too many requests", "rate limit", "resource exhausted",
		"500", "502", "503", "504",
		"service unavailable", "overloaded",
		"internal server error", "bad gateway", "gateway timeout",
	} {
		if strings.Contains(errStr, marker) {
			return true
		}
	}
	return false
}

// Gemini классифицирует текст поста через LLM.
type Gemini struct {
	gen   TextGenerator
	model string
}

// NewGemini создаёт классификатор поверх генератора текста.
func NewGemini(gen TextGenerator, model string) *Gemini {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &Gemini{gen: gen, model: model}
}

// geminiResponse — ожидаемая форма JSON-ответа модели.
type geminiResponse struct {
	Category  string `json:"category"`
	Relevance int    `json:"relevance"`
	IsSpam    bool   `json:"is_spam"`
	Reason    string `json:"reason"`
}

// Classify отправляет текст в Gemini и разбирает JSON-ответ.
// Неизвестная категория в ответе приводится к novost; релевантность
// ограничивается диапазоном 0–100.
func (g *Gemini) Classify(ctx context.Context, text string) (Analysis, error) {
	responseText, err := g.gen.GenerateText(ctx, g.model, buildPrompt(text))
	if err != nil {
		return Analysis{}, fmt.Errorf("generate text: %w", err)
	}

	var resp geminiResponse
	if err := json.Unmarshal([]byte(responseText), &resp); err != nil {
		// Модель могла добавить текст вокруг JSON.
		cleaned := extractJSONObject(responseText)
		if cleaned == "" {
			return Analysis{}, fmt.Errorf("unmarshal response: %w (raw: %s)", err, responseText)
		}
		if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
			return Analysis{}, fmt.Errorf("unmarshal cleaned response: %w", err)
		}
	}

	category, ok := post.ParseCategory(resp.Category)
	if !ok {
		category = post.CategoryNews
	}

	relevance := resp.Relevance
	if relevance < 0 {
		relevance = 0
	}
	if relevance > 100 {
		relevance = 100
	}

	return Analysis{
		Category:  category,
		Relevance: relevance,
		IsSpam:    resp.IsSpam,
		Reason:    resp.Reason,
	}, nil
}

func buildPrompt(text string) string {
	codes := make([]string, 0, len(post.Categories()))
	for _, c := range post.Categories() {
		codes = append(codes, string(c))
	}

	return fmt.Sprintf(`Ты — редактор региональной новостной ленты. Тебе передан текст поста из сообщества VK.
Определи категорию поста (один из кодов: %s), оцени релевантность для региональной новостной ленты по шкале 0–100 и реши, является ли пост спамом или рекламой.
Верни ровно один объект JSON без дополнительных комментариев. Формат:
{"category": "<код категории>", "relevance": <число 0-100>, "is_spam": <true|false>, "reason": "<краткое объяснение>"}

Текст поста:
%s`, strings.Join(codes, ", "), text)
}

// extractJSONObject извлекает первый сбалансированный JSON-объект из текста.
func extractJSONObject(text string) string {
	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
