package factory

import (
	"fmt"

	"insightflow-be/pkg/llm"
	"insightflow-be/pkg/llm/gemini"
	"insightflow-be/pkg/llm/ollama"
)

// NewLLMProvider builds the configured LLM backend.
func NewLLMProvider(provider, model, ollamaBaseURL, geminiApiKey string) (llm.LLMProvider, error) {
	switch provider {
	case "ollama":
		return ollama.NewOllamaProvider(ollamaBaseURL, model), nil
	case "gemini":
		if geminiApiKey == "" {
			return nil, fmt.Errorf("gemini provider requires GOOGLE_GEMINI_API_KEY")
		}
		return gemini.NewGeminiProvider(geminiApiKey, model), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", provider)
	}
}
