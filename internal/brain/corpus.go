package brain

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"AIAvatar/internal/cache"
	"AIAvatar/internal/embedding"
	"AIAvatar/internal/models"
	"AIAvatar/pkg/logger"
)

// Corpus is a small retrieval set of text snippets embedded at load time and
// searched by cosine similarity. The persona prompt pulls two of these: past
// answer examples and background knowledge.
type Corpus struct {
	log      *logger.Logger
	embedder embedding.Embedding
	index    cache.VectorIndex
	docs     map[string]string
}

// LoadCorpus reads a JSON array of snippet strings from path and embeds each
// one. A missing or empty file yields a corpus that retrieves nothing, so the
// avatar still answers without its reference material.
func LoadCorpus(ctx context.Context, path string, embedder embedding.Embedding, log *logger.Logger) (*Corpus, error) {
	c := &Corpus{
		log:      log,
		embedder: embedder,
		index:    cache.NewMemoryIndex(),
		docs:     make(map[string]string),
	}
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.WithPayload(map[string]any{"path": path}).Warn("Corpus file not found, retrieval disabled")
			return c, nil
		}
		return nil, fmt.Errorf("failed to read corpus file '%s': %w", path, err)
	}

	var snippets []string
	if err := json.Unmarshal(data, &snippets); err != nil {
		return nil, fmt.Errorf("failed to parse corpus file '%s': %w", path, err)
	}

	texts := make([]string, 0, len(snippets))
	for _, s := range snippets {
		if s != "" {
			texts = append(texts, s)
		}
	}
	if len(texts) == 0 {
		return c, nil
	}

	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed corpus '%s': %w", path, err)
	}
	for i, text := range texts {
		id := fmt.Sprintf("doc-%d", i)
		if err := c.index.Insert(ctx, id, vectors[i]); err != nil {
			return nil, fmt.Errorf("failed to index corpus snippet: %w", err)
		}
		c.docs[id] = text
	}

	log.WithPayload(map[string]any{"path": path, "snippets": len(texts)}).Info("Corpus loaded")
	return c, nil
}

// TopK returns up to k snippets most similar to the query. Retrieval failures
// degrade to an empty result so a flaky embedding call never blocks an answer.
func (c *Corpus) TopK(ctx context.Context, query string, k int) []string {
	if len(c.docs) == 0 || k <= 0 {
		return nil
	}

	vector, err := c.embedder.Embed(ctx, query)
	if err != nil {
		c.log.WithError(models.ErrorInfo{Message: err.Error()}).Warn("Corpus query embedding failed, skipping retrieval")
		return nil
	}
	matches, err := c.index.Search(ctx, vector, k)
	if err != nil {
		c.log.WithError(models.ErrorInfo{Message: err.Error()}).Warn("Corpus search failed, skipping retrieval")
		return nil
	}

	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if text, ok := c.docs[m.ID]; ok {
			out = append(out, text)
		}
	}
	return out
}

// Len reports the number of indexed snippets.
func (c *Corpus) Len() int {
	return len(c.docs)
}
