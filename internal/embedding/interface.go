package embedding

import "context"

// Embedding is the interface every embedding provider implements. The cache
// treats Embed as a pure function: the same model version and text always
// yield the same vector.
type Embedding interface {
	// Embed generates the embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embedding vectors for a batch of texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// ModelType enumerates the supported providers.
type ModelType string

const (
	Gemini ModelType = "gemini"
	OpenAI ModelType = "openai"
	Ollama ModelType = "ollama"
)
