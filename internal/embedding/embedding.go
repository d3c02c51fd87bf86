package embedding

import (
	"fmt"

	"AIAvatar/internal/config"
)

// NewModel creates an Embedding provider from configuration. When
// cfg.CacheSize is positive the provider is wrapped with an LRU memoization
// layer so repeated questions do not pay for a second API round trip.
func NewModel(cfg config.EmbeddingConfig) (Embedding, error) {
	var (
		model Embedding
		err   error
	)
	switch ModelType(cfg.Provider) {
	case Gemini:
		model, err = NewGoogleModel(cfg.APIKey, cfg.Model)
	case OpenAI:
		model, err = NewOpenAIModel(cfg.APIKey, cfg.Model)
	case Ollama:
		model, err = NewOllamaModel(cfg.Model, cfg.BaseURL)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	if cfg.CacheSize > 0 {
		return NewCached(model, cfg.CacheSize)
	}
	return model, nil
}
