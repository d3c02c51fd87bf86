package cache

import (
	"context"
	"fmt"
	"time"

	"AIAvatar/internal/embedding"
	"AIAvatar/internal/models"
	"AIAvatar/pkg/logger"

	"github.com/google/uuid"
)

// Service is the instant-answer cache: it decides whether an incoming
// question is semantically equivalent to one already answered, and persists
// new answers so future equivalents skip generation and synthesis entirely.
//
// One Service is constructed at process start and injected into both the
// lookup and the store call sites; there is no package-level state.
type Service struct {
	log       *logger.Logger
	embedder  embedding.Embedding
	index     VectorIndex
	store     *AnswerStore
	threshold float64
	now       func() time.Time
}

// NewService builds the cache service: it loads the answer store, rebuilds
// the vector index from it, and verifies the two agree. The store file is the
// source of truth, so any divergence is repaired by dropping the index and
// re-inserting every stored record.
func NewService(ctx context.Context, embedder embedding.Embedding, index VectorIndex, store *AnswerStore, threshold float64, log *logger.Logger) (*Service, error) {
	if err := store.Load(); err != nil {
		return nil, err
	}

	s := &Service{
		log:       log,
		embedder:  embedder,
		index:     index,
		store:     store,
		threshold: threshold,
		now:       time.Now,
	}
	if err := s.rebuildIfNeeded(ctx); err != nil {
		return nil, err
	}

	n, _ := index.Len(ctx)
	log.WithPayload(map[string]interface{}{"records": n, "threshold": threshold}).
		Info("Instant-answer cache ready")
	return s, nil
}

// rebuildIfNeeded cross-checks index and store and rebuilds the index from
// the store when their sizes diverge (a persistent index such as Milvus can
// drift from a hand-edited cache file).
func (s *Service) rebuildIfNeeded(ctx context.Context) error {
	records := s.store.LoadAll()

	n, err := s.index.Len(ctx)
	if err != nil {
		return fmt.Errorf("failed to size vector index: %w", err)
	}
	if n == len(records) && n > 0 {
		return nil
	}
	if n != 0 {
		s.log.Warn(fmt.Sprintf("Vector index has %d entries but store has %d records; rebuilding from store", n, len(records)))
	}

	if err := s.index.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset vector index: %w", err)
	}
	for _, rec := range records {
		if err := s.index.Insert(ctx, rec.ID, rec.Embedding); err != nil {
			return fmt.Errorf("failed to index record %s: %w", rec.ID, err)
		}
	}
	return nil
}

// Lookup embeds the question and returns the closest previously answered one
// when its similarity clears the threshold. Failures degrade to a miss; the
// error is reported so callers can log it, but a broken embedding provider
// must never block the answer path.
func (s *Service) Lookup(ctx context.Context, question string) (models.LookupResult, error) {
	miss := models.LookupResult{}

	normalized := Normalize(question)
	if normalized == "" {
		// Nothing to embed; empty or punctuation-only input is always a miss.
		return miss, nil
	}

	vector, err := s.embedder.Embed(ctx, normalized)
	if err != nil {
		return miss, fmt.Errorf("embedding failed: %w", err)
	}

	matches, err := s.index.Search(ctx, vector, 1)
	if err != nil {
		return miss, fmt.Errorf("index search failed: %w", err)
	}
	if len(matches) == 0 {
		return miss, nil
	}

	best := matches[0]
	if best.Similarity < s.threshold {
		return models.LookupResult{Similarity: best.Similarity}, nil
	}

	rec, ok := s.store.Get(best.ID)
	if !ok {
		// An indexed vector without a stored record means the two diverged
		// mid-flight. Treat as a miss; the next restart rebuilds the index.
		s.log.Warn(fmt.Sprintf("Index entry %s has no stored record; treating as miss", best.ID))
		return miss, nil
	}

	return models.LookupResult{Hit: true, Record: rec, Similarity: best.Similarity}, nil
}

// Store persists a finished question/answer/audio triple and registers it
// with the index. The store file is written first; if indexing then fails the
// file entry is rolled back so the two structures never diverge. The caller
// must still deliver the answer to the user when Store fails; a cache write
// failure only costs future instant answers.
func (s *Service) Store(ctx context.Context, question, answer, emotion, audioRef string) (*models.QuestionRecord, error) {
	normalized := Normalize(question)
	if normalized == "" {
		return nil, fmt.Errorf("refusing to cache empty question")
	}

	vector, err := s.embedder.Embed(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}

	rec := &models.QuestionRecord{
		ID:             uuid.New().String(),
		Question:       question,
		NormalizedText: normalized,
		Embedding:      vector,
		ResponseText:   answer,
		Emotion:        emotion,
		AudioRef:       audioRef,
		CreatedAt:      s.now(),
	}

	if err := s.store.Append(rec); err != nil {
		return nil, err
	}
	if err := s.index.Insert(ctx, rec.ID, rec.Embedding); err != nil {
		if rbErr := s.store.Remove(rec.ID); rbErr != nil {
			// Store keeps a record the index missed; the startup rebuild
			// will reconcile. Surface both problems.
			return nil, fmt.Errorf("index insert failed (%v) and rollback failed: %w", err, rbErr)
		}
		return nil, fmt.Errorf("index insert failed: %w", err)
	}

	return rec, nil
}

// Size reports the number of cached answers.
func (s *Service) Size() int {
	return s.store.Len()
}
